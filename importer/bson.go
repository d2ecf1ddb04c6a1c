package importer

import (
	"bytes"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"schemaviz/schema"
)

// BSONImporter infers a dataset from sample documents written as MongoDB
// Extended JSON, one array of documents per collection:
//
//	{"users": [{"_id": {"$oid": "..."}, "email": "a@b"}], "posts": [...]}
//
// Attribute types come from the BSON values. An attribute is required when
// every sample carries a non-null value. ObjectId fields named userId or
// user_id link to the users (or user) collection, arrays named userIds link
// many-to-many.
type BSONImporter struct{}

// NewBSONImporter creates a new BSON importer
func NewBSONImporter() *BSONImporter {
	return &BSONImporter{}
}

// CanImport checks for an Extended JSON object whose values are all arrays
// of documents and that is not a dataset document.
func (b *BSONImporter) CanImport(content []byte) bool {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	collections, err := decodeCollections(trimmed)
	if err != nil || len(collections) == 0 {
		return false
	}
	for _, c := range collections {
		switch c.name {
		case "entities", "nodes", "links", "models":
			return false
		}
	}
	return true
}

// Import samples every collection and derives links from reference fields.
func (b *BSONImporter) Import(content []byte) (schema.Dataset, error) {
	collections, err := decodeCollections(content)
	if err != nil {
		return schema.Dataset{}, err
	}

	names := make(map[string]bool, len(collections))
	for _, c := range collections {
		names[c.name] = true
	}

	var ds schema.Dataset
	for _, c := range collections {
		fields := sampleFields(c.docs)
		entity := schema.Entity{ID: c.name, Name: c.name, Kind: DefaultKind}
		for _, f := range fields {
			entity.Attributes = append(entity.Attributes, schema.Attribute{
				Name:     f.name,
				DataType: f.dataType(),
				Required: f.present == len(c.docs),
			})
			if target, card, ok := reference(f, names); ok {
				ds.Links = append(ds.Links, schema.Link{SourceID: c.name, TargetID: target, Cardinality: card})
			}
		}
		ds.Entities = append(ds.Entities, entity)
	}
	return ds, nil
}

// GetFormatName returns the format name
func (b *BSONImporter) GetFormatName() string {
	return "bson"
}

// GetFileExtensions returns supported file extensions
func (b *BSONImporter) GetFileExtensions() []string {
	return []string{".json", ".ejson"}
}

type collection struct {
	name string
	docs []bson.D
}

func decodeCollections(content []byte) ([]collection, error) {
	var root bson.D
	if err := bson.UnmarshalExtJSON(content, false, &root); err != nil {
		return nil, fmt.Errorf("invalid extended JSON: %w", err)
	}

	out := make([]collection, 0, len(root))
	for _, elem := range root {
		arr, ok := elem.Value.(bson.A)
		if !ok {
			return nil, fmt.Errorf("collection %q: expected an array of documents", elem.Key)
		}
		c := collection{name: elem.Key}
		for i, v := range arr {
			doc, ok := asDocument(v)
			if !ok {
				return nil, fmt.Errorf("collection %q: sample %d is not a document", elem.Key, i+1)
			}
			c.docs = append(c.docs, doc)
		}
		out = append(out, c)
	}
	return out, nil
}

func asDocument(v interface{}) (bson.D, bool) {
	switch d := v.(type) {
	case bson.D:
		return d, true
	case bson.M:
		doc := make(bson.D, 0, len(d))
		for k, val := range d {
			doc = append(doc, bson.E{Key: k, Value: val})
		}
		return doc, true
	default:
		return nil, false
	}
}

// field accumulates what the samples say about one attribute.
type field struct {
	name    string
	types   []string // Distinct non-null types in first-seen order
	present int      // Samples holding a non-null value
	elem    string   // Element type for arrays
}

func (f *field) dataType() string {
	switch len(f.types) {
	case 0:
		return "Null"
	case 1:
		return f.types[0]
	default:
		return "Mixed"
	}
}

func sampleFields(docs []bson.D) []*field {
	var order []*field
	byName := make(map[string]*field)

	for _, doc := range docs {
		for _, elem := range doc {
			f, ok := byName[elem.Key]
			if !ok {
				f = &field{name: elem.Key}
				byName[elem.Key] = f
				order = append(order, f)
			}
			if elem.Value == nil {
				continue
			}
			f.present++
			t := bsonType(elem.Value)
			if !contains(f.types, t) {
				f.types = append(f.types, t)
			}
			if arr, ok := elem.Value.(bson.A); ok && len(arr) > 0 && f.elem == "" {
				f.elem = bsonType(arr[0])
			}
		}
	}
	return order
}

func bsonType(v interface{}) string {
	switch v.(type) {
	case nil, primitive.Null:
		return "Null"
	case primitive.ObjectID:
		return "ObjectId"
	case string:
		return "String"
	case int32, int64, float64:
		return "Number"
	case primitive.Decimal128:
		return "Decimal"
	case bool:
		return "Boolean"
	case primitive.DateTime, primitive.Timestamp:
		return "Date"
	case primitive.Binary:
		return "Binary"
	case bson.A:
		return "Array"
	case bson.D, bson.M:
		return "Object"
	default:
		return "Mixed"
	}
}

// reference recognizes userId, user_id and userIds style fields that hold
// ObjectIds and resolves them to a sampled collection.
func reference(f *field, collections map[string]bool) (string, schema.Cardinality, bool) {
	if f.name == "_id" || f.name == "id" {
		return "", 0, false
	}

	if f.dataType() == "ObjectId" {
		for _, suffix := range []string{"_id", "Id", "ID"} {
			if base, ok := strings.CutSuffix(f.name, suffix); ok && base != "" {
				if target, ok := lookupCollection(base, collections); ok {
					return target, schema.ManyToOne, true
				}
			}
		}
		return "", 0, false
	}

	if f.dataType() == "Array" && f.elem == "ObjectId" {
		for _, suffix := range []string{"_ids", "Ids", "IDs"} {
			if base, ok := strings.CutSuffix(f.name, suffix); ok && base != "" {
				if target, ok := lookupCollection(base, collections); ok {
					return target, schema.ManyToMany, true
				}
			}
		}
	}
	return "", 0, false
}

func lookupCollection(base string, collections map[string]bool) (string, bool) {
	for _, candidate := range []string{base, base + "s", base + "es", strings.ToLower(base), strings.ToLower(base) + "s"} {
		if collections[candidate] {
			return candidate, true
		}
	}
	return "", false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
