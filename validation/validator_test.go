package validation

import (
	"strings"
	"testing"

	"schemaviz/schema"
)

func TestDatasetValidator(t *testing.T) {
	tests := []struct {
		name     string
		dataset  schema.Dataset
		wantErr  bool
		contains []string
	}{
		{
			name: "clean dataset",
			dataset: schema.Dataset{
				Entities: []schema.Entity{
					{ID: "u", Name: "User", Attributes: []schema.Attribute{{Name: "email", DataType: "String"}}},
					{ID: "p", Name: "Post", Attributes: []schema.Attribute{{Name: "title", DataType: "String"}}},
				},
				Links: []schema.Link{{SourceID: "u", TargetID: "p", Cardinality: schema.OneToMany}},
			},
		},
		{
			name: "duplicate id",
			dataset: schema.Dataset{
				Entities: []schema.Entity{
					{ID: "u", Name: "User", Attributes: []schema.Attribute{{Name: "a"}}},
					{ID: "u", Name: "Account", Attributes: []schema.Attribute{{Name: "a"}}},
				},
			},
			wantErr:  true,
			contains: []string{`duplicate entity id "u"`},
		},
		{
			name: "dangling link",
			dataset: schema.Dataset{
				Entities: []schema.Entity{{ID: "u", Name: "User", Attributes: []schema.Attribute{{Name: "a"}}}},
				Links:    []schema.Link{{SourceID: "u", TargetID: "ghost"}},
			},
			contains: []string{`link target "ghost" does not exist`},
		},
		{
			name: "identifier collision",
			dataset: schema.Dataset{
				Entities: []schema.Entity{
					{ID: "1", Name: "Blog Post", Attributes: []schema.Attribute{{Name: "a"}}},
					{ID: "2", Name: "blog-post", Attributes: []schema.Attribute{{Name: "a"}}},
				},
			},
			contains: []string{`share diagram identifier "blog_post"`},
		},
		{
			name: "empty entity",
			dataset: schema.Dataset{
				Entities: []schema.Entity{{ID: "u", Name: "User"}},
			},
			contains: []string{`entity "User" has no attributes`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := NewDatasetValidator().Validate(tt.dataset)

			if HasErrors(issues) != tt.wantErr {
				t.Errorf("HasErrors = %v, want %v (issues: %v)", HasErrors(issues), tt.wantErr, issues)
			}

			if len(tt.contains) == 0 && len(issues) != 0 {
				t.Errorf("Expected no issues, got %v", issues)
			}

			for _, want := range tt.contains {
				found := false
				for _, issue := range issues {
					if strings.Contains(issue.Message, want) {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("Expected an issue containing %q, got %v", want, issues)
				}
			}
		})
	}
}

func TestDatasetValidator_SkipEmpty(t *testing.T) {
	v := NewDatasetValidator()
	v.SetCheckEmpty(false)

	issues := v.Validate(schema.Dataset{Entities: []schema.Entity{{ID: "u", Name: "User"}}})
	if len(issues) != 0 {
		t.Errorf("Expected no issues with empty check disabled, got %v", issues)
	}
}

func TestValidationErrorString(t *testing.T) {
	err := ValidationError{Severity: SeverityWarning, Message: "something"}
	if err.Error() != "warning: something" {
		t.Errorf("Unexpected error string %q", err.Error())
	}
}
