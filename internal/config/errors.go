package config

import "fmt"

// Kind classifies why a configuration document was rejected.
type Kind int

const (
	// KindSyntax indicates the document could not be decoded at all,
	// or a field value was malformed (e.g. an unparseable duration).
	KindSyntax Kind = iota + 1

	// KindMissingField indicates a required field was absent or empty.
	KindMissingField

	// KindDuplicateName indicates two service entries share a name.
	KindDuplicateName

	// KindInvalidEnum indicates a field holds a value outside its
	// accepted set (e.g. an unknown startup mode).
	KindInvalidEnum
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindMissingField:
		return "missing-field"
	case KindDuplicateName:
		return "duplicate-name"
	case KindInvalidEnum:
		return "invalid-enum"
	default:
		return "unknown"
	}
}

// Error describes a configuration rejection. Parsing is all-or-nothing:
// the first rejection aborts the load and nothing is executed.
type Error struct {
	// Kind is the rejection category.
	Kind Kind
	// Service names the offending service entry, when known.
	Service string
	// Field names the offending field, when known.
	Field string
	// Value holds the rejected value for enum violations.
	Value string
	// Err is the underlying decode error for syntax rejections.
	Err error
}

// Error returns a formatted error message.
func (e *Error) Error() string {
	switch e.Kind {
	case KindSyntax:
		if e.Field != "" {
			return fmt.Sprintf("config: invalid %s: %v", e.Field, e.Err)
		}
		return fmt.Sprintf("config: %v", e.Err)
	case KindMissingField:
		if e.Service != "" {
			return fmt.Sprintf("config: service %q: missing required field %q", e.Service, e.Field)
		}
		return fmt.Sprintf("config: missing required field %q", e.Field)
	case KindDuplicateName:
		return fmt.Sprintf("config: duplicate service name %q", e.Service)
	case KindInvalidEnum:
		return fmt.Sprintf("config: service %q: invalid %s %q", e.Service, e.Field, e.Value)
	default:
		return fmt.Sprintf("config: %v", e.Err)
	}
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}
