// Package validation checks a dataset for problems that do not stop it from
// rendering but produce a misleading picture.
package validation

import (
	"fmt"

	"schemaviz/schema"
)

// Severity of a validation issue.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the severity name for display
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// ValidationError represents a single issue with the entity or link it is about.
type ValidationError struct {
	Severity Severity
	EntityID string
	Link     *schema.Link
	Message  string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Severity, e.Message)
}

// DatasetValidator validates entity/link datasets.
type DatasetValidator struct {
	errors []ValidationError
	// Options
	checkCollisions bool // Report identifiers that collide after sanitizing
	checkEmpty      bool // Report entities without attributes
}

// NewDatasetValidator creates a new validator with default settings.
func NewDatasetValidator() *DatasetValidator {
	return &DatasetValidator{
		checkCollisions: true,
		checkEmpty:      true,
	}
}

// SetCheckEmpty enables or disables the "no attributes" notice.
func (v *DatasetValidator) SetCheckEmpty(enabled bool) {
	v.checkEmpty = enabled
}

// Validate checks ds and returns every issue found, in dataset order.
func (v *DatasetValidator) Validate(ds schema.Dataset) []ValidationError {
	v.errors = nil

	ids := make(map[string]bool)
	idents := make(map[string]string) // sanitized identifier -> first entity name

	for _, e := range ds.Entities {
		if e.ID == "" {
			v.addError(SeverityError, e.ID, nil, "entity %q has no id", e.Name)
		} else if ids[e.ID] {
			v.addError(SeverityError, e.ID, nil, "duplicate entity id %q", e.ID)
		}
		ids[e.ID] = true

		if v.checkCollisions {
			ident := schema.Sanitize(e.Label())
			if first, seen := idents[ident]; seen && first != e.Label() {
				v.addError(SeverityWarning, e.ID, nil,
					"entity %q and %q share diagram identifier %q", first, e.Label(), ident)
			} else if !seen {
				idents[ident] = e.Label()
			}
		}

		if v.checkEmpty && len(e.Attributes) == 0 {
			v.addError(SeverityInfo, e.ID, nil, "entity %q has no attributes", e.Label())
		}
	}

	for i := range ds.Links {
		link := ds.Links[i]
		if !ids[link.SourceID] {
			v.addError(SeverityWarning, "", &link, "link source %q does not exist", link.SourceID)
		}
		if !ids[link.TargetID] {
			v.addError(SeverityWarning, "", &link, "link target %q does not exist", link.TargetID)
		}
	}

	return v.errors
}

// HasErrors returns true if any issue has error severity.
func HasErrors(issues []ValidationError) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (v *DatasetValidator) addError(sev Severity, entityID string, link *schema.Link, format string, args ...interface{}) {
	v.errors = append(v.errors, ValidationError{
		Severity: sev,
		EntityID: entityID,
		Link:     link,
		Message:  fmt.Sprintf(format, args...),
	})
}
