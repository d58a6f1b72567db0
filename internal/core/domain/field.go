package domain

import (
	"fmt"
	"regexp"
)

// FieldType enumerates the input widgets a configuration form can render.
type FieldType string

const (
	// FieldText is a free-text input.
	FieldText FieldType = "text"
	// FieldSelect is a closed list of options.
	FieldSelect FieldType = "select"
	// FieldFolder is a directory picker.
	FieldFolder FieldType = "folder"
	// FieldTextarea is a multi-line text input.
	FieldTextarea FieldType = "textarea"
)

// Option is one selectable value of a select field.
type Option struct {
	Label    string
	Value    string
	Disabled bool
}

// Field describes one configuration input a connector needs before use.
// Field IDs are unique within a connector's field list.
type Field struct {
	ID          string
	Label       string
	Type        FieldType
	Required    bool
	Pattern     string
	Placeholder string
	Help        string
	Options     []Option
}

// ConnectorParameters maps field IDs to the values entered or stored for one
// connector instance.
type ConnectorParameters map[string]string

// ValidateParams checks submitted parameters against a connector's field
// list. Every required field must carry a non-empty value and pattern-bearing
// fields must match. A connector failing this check is not usable and must
// not be authenticated.
func ValidateParams(fields []Field, params ConnectorParameters) error {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.ID] {
			return fmt.Errorf("%w: duplicate field id %q", ErrInvalidInput, f.ID)
		}
		seen[f.ID] = true

		value := params[f.ID]
		if f.Required && value == "" {
			return fmt.Errorf("%w: %s", ErrMissingParameter, f.ID)
		}
		if value != "" && f.Pattern != "" {
			re, err := regexp.Compile(f.Pattern)
			if err != nil {
				return fmt.Errorf("%w: field %s has invalid pattern: %v", ErrInvalidInput, f.ID, err)
			}
			if !re.MatchString(value) {
				return fmt.Errorf("%w: field %s value does not match %s", ErrInvalidInput, f.ID, f.Pattern)
			}
		}
	}
	return nil
}
