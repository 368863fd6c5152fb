package codec

import "fmt"

// SyntaxError reports malformed document text. Line is 1-based and refers
// to the offending position in the input when known, 0 otherwise.
type SyntaxError struct {
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("syntax error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("syntax error: %s", e.Message)
}

// SchemaError reports structurally valid text with a missing or wrongly
// shaped required field. Field is a dotted path into the document
// (e.g. "blocks.fetch.type").
type SchemaError struct {
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error at %s: %s", e.Field, e.Message)
}

// UnsupportedVersionError reports a document whose schema version the codec
// does not recognize. The codec refuses to guess at unknown versions.
type UnsupportedVersionError struct {
	Version string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported schema version %q (supported: %s)", e.Version, SchemaVersion)
}
