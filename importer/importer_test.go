package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"schemaviz/schema"
)

const datasetJSON = `{
  "entities": [
    {"id": "u", "name": "User", "kind": "collection", "attributes": [{"name": "_id", "type": "ObjectId", "required": true}]},
    {"id": "p", "name": "Post", "kind": "view"}
  ],
  "links": [{"source": "u", "target": "p", "cardinality": "one-to-many"}]
}`

const graphJSON = `{
  "nodes": [
    {"id": "1", "name": "users", "type": "collection", "fields": [{"name": "email", "type": "String", "required": true}]},
    {"id": "2", "name": "orders", "type": "collection"}
  ],
  "links": [{"source": "1", "target": "2", "type": "oneToMany"}]
}`

const modelsJSON = `[
  {"name": "users", "fields": [{"name": "email", "type": "String"}], "relations": [{"from": "users", "to": "posts"}]},
  {"name": "posts", "fields": [], "relations": []}
]`

const datasetYAML = `entities:
  - name: User
    attributes:
      - name: email
        type: String
        required: true
  - name: Post
links:
  - source: User
    target: Post
    cardinality: oneToMany
`

const erdSource = `erDiagram
    User {
        string email PK
    }
    Post {
        string title
    }
    User ||--o{ Post : "one-to-many"
`

const samplesJSON = `{
  "users": [
    {"_id": {"$oid": "5f1d7f0e8e4b2a1c3d4e5f60"}, "email": "a@example.com", "age": 30},
    {"_id": {"$oid": "5f1d7f0e8e4b2a1c3d4e5f61"}, "email": "b@example.com", "age": null}
  ],
  "posts": [
    {"_id": {"$oid": "5f1d7f0e8e4b2a1c3d4e5f70"}, "userId": {"$oid": "5f1d7f0e8e4b2a1c3d4e5f60"},
     "tagIds": [{"$oid": "5f1d7f0e8e4b2a1c3d4e5f80"}], "published": true,
     "createdAt": {"$date": "2024-01-02T03:04:05Z"}}
  ],
  "tags": [
    {"_id": {"$oid": "5f1d7f0e8e4b2a1c3d4e5f80"}, "label": "go", "meta": {"color": "blue"}}
  ]
}`

func TestDetectFormat(t *testing.T) {
	reg := NewRegistry(zaptest.NewLogger(t))

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"dataset json", datasetJSON, "json"},
		{"graph json", graphJSON, "json"},
		{"models array", modelsJSON, "models"},
		{"yaml", datasetYAML, "yaml"},
		{"mermaid", erdSource, "mermaid"},
		{"markdown", "# Schema\n\n```mermaid\n" + erdSource + "```\n", "markdown"},
		{"extended json", samplesJSON, "bson"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp, err := reg.DetectFormat([]byte(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, imp.GetFormatName())
		})
	}

	_, err := reg.DetectFormat([]byte("just some text"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestImportDatasetJSON(t *testing.T) {
	ds, err := NewJSONImporter().Import([]byte(datasetJSON))
	require.NoError(t, err)

	require.Len(t, ds.Entities, 2)
	assert.Equal(t, "u", ds.Entities[0].ID)
	assert.Equal(t, "view", ds.Entities[1].Kind)
	assert.Equal(t, []schema.Attribute{{Name: "_id", DataType: "ObjectId", Required: true}}, ds.Entities[0].Attributes)
	assert.Equal(t, []schema.Link{{SourceID: "u", TargetID: "p", Cardinality: schema.OneToMany}}, ds.Links)
}

func TestImportGraphJSON(t *testing.T) {
	ds, err := NewJSONImporter().Import([]byte(graphJSON))
	require.NoError(t, err)

	require.Len(t, ds.Entities, 2)
	assert.Equal(t, "collection", ds.Entities[0].Kind)
	assert.Equal(t, "email", ds.Entities[0].Attributes[0].Name)
	assert.True(t, ds.Entities[0].Attributes[0].Required)
	require.Len(t, ds.Links, 1)
	assert.Equal(t, schema.OneToMany, ds.Links[0].Cardinality)
}

func TestImportModels(t *testing.T) {
	ds, err := NewModelsImporter().Import([]byte(modelsJSON))
	require.NoError(t, err)

	require.Len(t, ds.Entities, 2)
	assert.Equal(t, "users", ds.Entities[0].ID)
	assert.Equal(t, DefaultKind, ds.Entities[0].Kind)
	assert.Empty(t, ds.Entities[1].Attributes)
	assert.Equal(t, []schema.Link{{SourceID: "users", TargetID: "posts", Cardinality: schema.OneToMany}}, ds.Links)

	_, err = NewModelsImporter().Import([]byte(`[{"fields": []}]`))
	assert.Error(t, err)
}

func TestImportYAMLGeneratesIDs(t *testing.T) {
	first, err := NewYAMLImporter().Import([]byte(datasetYAML))
	require.NoError(t, err)
	second, err := NewYAMLImporter().Import([]byte(datasetYAML))
	require.NoError(t, err)

	require.Len(t, first.Entities, 2)
	assert.NotEmpty(t, first.Entities[0].ID)
	assert.NotEqual(t, first.Entities[0].ID, first.Entities[1].ID)
	assert.Equal(t, first, second, "generated ids must be stable")

	// Links given by name are mapped onto the generated ids
	require.Len(t, first.Links, 1)
	assert.Equal(t, first.Entities[0].ID, first.Links[0].SourceID)
	assert.Equal(t, first.Entities[1].ID, first.Links[0].TargetID)
}

func TestImportRejectsAnonymousEntity(t *testing.T) {
	_, err := NewJSONImporter().Import([]byte(`{"entities": [{"kind": "collection"}]}`))
	assert.Error(t, err)
}

func TestImportMermaidAndMarkdown(t *testing.T) {
	ds, err := NewMermaidImporter().Import([]byte(erdSource))
	require.NoError(t, err)
	require.Len(t, ds.Entities, 2)
	assert.Equal(t, "User", ds.Entities[0].ID)
	require.Len(t, ds.Links, 1)
	assert.Equal(t, schema.OneToMany, ds.Links[0].Cardinality)

	doc := "# Notes\n\n```mermaid\ngraph TD\n  a --> b\n```\n\n```mermaid\n" + erdSource + "```\n"
	fromMarkdown, err := NewMarkdownImporter().Import([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, ds, fromMarkdown)

	_, err = NewMarkdownImporter().Import([]byte("# Nothing here\n"))
	assert.ErrorIs(t, err, ErrNoDiagram)
}

func TestImportBSONSamples(t *testing.T) {
	ds, err := NewBSONImporter().Import([]byte(samplesJSON))
	require.NoError(t, err)

	require.Len(t, ds.Entities, 3)
	users := ds.Entities[0]
	assert.Equal(t, "users", users.ID)
	assert.Equal(t, []schema.Attribute{
		{Name: "_id", DataType: "ObjectId", Required: true},
		{Name: "email", DataType: "String", Required: true},
		{Name: "age", DataType: "Number", Required: false},
	}, users.Attributes)

	posts := ds.Entities[1]
	types := make(map[string]string)
	for _, a := range posts.Attributes {
		types[a.Name] = a.DataType
	}
	assert.Equal(t, map[string]string{
		"_id":       "ObjectId",
		"userId":    "ObjectId",
		"tagIds":    "Array",
		"published": "Boolean",
		"createdAt": "Date",
	}, types)

	tags := ds.Entities[2]
	assert.Equal(t, "Object", tags.Attributes[2].DataType)

	assert.Equal(t, []schema.Link{
		{SourceID: "posts", TargetID: "users", Cardinality: schema.ManyToOne},
		{SourceID: "posts", TargetID: "tags", Cardinality: schema.ManyToMany},
	}, ds.Links)
}

func TestBSONRejectsNonDocuments(t *testing.T) {
	imp := NewBSONImporter()
	assert.False(t, imp.CanImport([]byte(`{"users": [1, 2]}`)))
	assert.False(t, imp.CanImport([]byte(`{"users": "x"}`)))
	assert.False(t, imp.CanImport([]byte(datasetJSON)))

	_, err := imp.Import([]byte(`{"users": [1]}`))
	assert.Error(t, err)
}

func TestImportWithFormat(t *testing.T) {
	reg := NewRegistry(zaptest.NewLogger(t))

	ds, err := reg.ImportWithFormat([]byte(datasetJSON), "JSON")
	require.NoError(t, err)
	assert.Len(t, ds.Entities, 2)

	_, err = reg.ImportWithFormat([]byte(datasetJSON), "graphviz")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = reg.ImportWithFormat([]byte("not yaml: ["), "yaml")
	assert.Error(t, err)
}

func TestImportFile(t *testing.T) {
	reg := NewRegistry(zaptest.NewLogger(t))
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	ds, err := reg.ImportFile(write("schema.mmd", erdSource), "")
	require.NoError(t, err)
	assert.Len(t, ds.Entities, 2)

	// Extension matches but content decides between json and models
	ds, err = reg.ImportFile(write("models.json", modelsJSON), "")
	require.NoError(t, err)
	assert.Equal(t, "users", ds.Entities[0].ID)

	// Unknown extension falls back to detection
	ds, err = reg.ImportFile(write("schema.txt", datasetYAML), "auto")
	require.NoError(t, err)
	assert.Len(t, ds.Entities, 2)

	_, err = reg.ImportFile(filepath.Join(dir, "missing.json"), "")
	assert.Error(t, err)
}

func TestGetAvailableFormats(t *testing.T) {
	reg := NewRegistry(nil)
	assert.Equal(t, []string{"bson", "json", "models", "mermaid", "markdown", "yaml"}, reg.GetAvailableFormats())
}
