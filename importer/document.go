package importer

import (
	"fmt"

	"github.com/google/uuid"

	"schemaviz/schema"
)

// idNamespace seeds the name-based ids given to entities that have none,
// so the same input always gets the same ids.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://schemaviz/entity"))

// document accepts both the canonical dataset shape
//
//	{"entities": [{"id", "name", "kind", "attributes"}], "links": [{"source", "target", "cardinality"}]}
//
// and the dashboard graph shape
//
//	{"nodes": [{"id", "name", "type", "fields"}], "links": [{"source", "target", "type"}]}
//
// as well as a list of models under "models".
type document struct {
	Entities []entityDoc `json:"entities" yaml:"entities"`
	Nodes    []entityDoc `json:"nodes" yaml:"nodes"`
	Links    []linkDoc   `json:"links" yaml:"links"`
	Models   []modelDoc  `json:"models" yaml:"models"`
}

type entityDoc struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Kind       string    `json:"kind" yaml:"kind"`
	Type       string    `json:"type" yaml:"type"`
	Attributes []attrDoc `json:"attributes" yaml:"attributes"`
	Fields     []attrDoc `json:"fields" yaml:"fields"`
}

type attrDoc struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	DataType string `json:"dataType" yaml:"dataType"`
	Required bool   `json:"required" yaml:"required"`
}

type linkDoc struct {
	Source      string `json:"source" yaml:"source"`
	Target      string `json:"target" yaml:"target"`
	Cardinality string `json:"cardinality" yaml:"cardinality"`
	Type        string `json:"type" yaml:"type"`
}

// modelDoc is a model definition as listed by the models page: its
// relations name the target model.
type modelDoc struct {
	Name      string        `json:"name" yaml:"name"`
	Fields    []attrDoc     `json:"fields" yaml:"fields"`
	Relations []relationDoc `json:"relations" yaml:"relations"`
}

type relationDoc struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// DefaultKind is assigned to entities that do not state one.
const DefaultKind = "collection"

func (d document) empty() bool {
	return len(d.Entities) == 0 && len(d.Nodes) == 0 && len(d.Models) == 0 && len(d.Links) == 0
}

// dataset converts the document. Entities without an id get a stable
// name-based UUID; link endpoints that name an entity instead of giving its
// id are rewritten to the id.
func (d document) dataset() (schema.Dataset, error) {
	if len(d.Models) > 0 {
		if len(d.Entities) > 0 || len(d.Nodes) > 0 {
			return schema.Dataset{}, fmt.Errorf("models cannot be mixed with entities or nodes")
		}
		return modelsDataset(d.Models), nil
	}

	docs := d.Entities
	if len(docs) == 0 {
		docs = d.Nodes
	}

	var ds schema.Dataset
	for i, e := range docs {
		entity := schema.Entity{
			ID:   e.ID,
			Name: e.Name,
			Kind: firstNonEmpty(e.Kind, e.Type, DefaultKind),
		}
		if entity.ID == "" {
			if entity.Name == "" {
				return schema.Dataset{}, fmt.Errorf("entity %d has neither id nor name", i+1)
			}
			entity.ID = uuid.NewSHA1(idNamespace, []byte(fmt.Sprintf("%d/%s", i, entity.Name))).String()
		}
		attrs := e.Attributes
		if len(attrs) == 0 {
			attrs = e.Fields
		}
		entity.Attributes = convertAttributes(attrs)
		ds.Entities = append(ds.Entities, entity)
	}

	byName := nameIndex(ds.Entities)
	for _, l := range d.Links {
		ds.Links = append(ds.Links, schema.Link{
			SourceID:    byName.resolve(l.Source),
			TargetID:    byName.resolve(l.Target),
			Cardinality: schema.ParseCardinality(firstNonEmpty(l.Cardinality, l.Type)),
		})
	}
	return ds, nil
}

// modelsDataset mirrors how the models page feeds its graph: one collection
// per model keyed by name, and a one-to-many link per relation.
func modelsDataset(models []modelDoc) schema.Dataset {
	var ds schema.Dataset
	for _, m := range models {
		ds.Entities = append(ds.Entities, schema.Entity{
			ID:         m.Name,
			Name:       m.Name,
			Kind:       DefaultKind,
			Attributes: convertAttributes(m.Fields),
		})
	}
	for _, m := range models {
		for _, r := range m.Relations {
			ds.Links = append(ds.Links, schema.Link{
				SourceID:    m.Name,
				TargetID:    r.To,
				Cardinality: schema.OneToMany,
			})
		}
	}
	return ds
}

func convertAttributes(docs []attrDoc) []schema.Attribute {
	if len(docs) == 0 {
		return nil
	}
	attrs := make([]schema.Attribute, len(docs))
	for i, a := range docs {
		attrs[i] = schema.Attribute{
			Name:     a.Name,
			DataType: firstNonEmpty(a.Type, a.DataType),
			Required: a.Required,
		}
	}
	return attrs
}

type names struct {
	ids    map[string]bool
	byName map[string]string
}

func nameIndex(entities []schema.Entity) names {
	n := names{ids: make(map[string]bool), byName: make(map[string]string)}
	for _, e := range entities {
		n.ids[e.ID] = true
	}
	for _, e := range entities {
		if _, taken := n.byName[e.Name]; !taken && e.Name != "" {
			n.byName[e.Name] = e.ID
		}
	}
	return n
}

// resolve keeps known ids and maps entity names to ids. Anything else is
// returned unchanged and dropped later as a dangling endpoint.
func (n names) resolve(ref string) string {
	if n.ids[ref] {
		return ref
	}
	if id, ok := n.byName[ref]; ok {
		return id
	}
	return ref
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
