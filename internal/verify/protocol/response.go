package protocol

import (
	"fmt"
	"strings"

	dErrors "dossard/pkg/domain-errors"
)

// Wrapper markers of the result payload and the fault payload. The upstream
// returns exactly one of the two inside its response envelope.
const (
	resultOpen  = "<VerifyRelationResult>"
	resultClose = "</VerifyRelationResult>"
	faultOpen   = "<faultstring>"
	faultClose  = "</faultstring>"
)

// maxSnippet bounds how much of an unparseable upstream body is carried in
// errors and logs. Upstream payloads are untrusted and unbounded.
const maxSnippet = 200

// FieldList is the positional payload split into fields, paired with the
// schema that names the positions. Access beyond the list bounds yields ""
// rather than panicking; the upstream omits trailing fields at will.
type FieldList struct {
	fields []string
	schema *Schema
}

// Fields returns the raw field slice.
func (f *FieldList) Fields() []string { return f.fields }

// At returns the field at wire position i, or "" when i is out of bounds.
func (f *FieldList) At(i int) string {
	if i < 0 || i >= len(f.fields) {
		return ""
	}
	return f.fields[i]
}

// Get returns the named field per the schema, or "" when the schema does not
// describe the name or the response is too short to carry it.
func (f *FieldList) Get(name string) string {
	return f.At(f.schema.Index(name))
}

// StatusMessage returns the trailing status token. It reads the fixed status
// position when the response is long enough, and otherwise falls back to
// scanning for the last populated field, because the upstream omits trailing
// fields on some error paths.
func (f *FieldList) StatusMessage() string {
	statusIdx := f.schema.Index(FieldStatusMessage)
	if statusIdx >= 0 && statusIdx < len(f.fields) && f.fields[statusIdx] != "" {
		return f.fields[statusIdx]
	}
	for i := len(f.fields) - 1; i >= 0; i-- {
		if f.fields[i] != "" {
			return f.fields[i]
		}
	}
	return ""
}

// Parse extracts the embedded result payload from a raw response body and
// splits it into positional fields.
//
// Errors carry domain codes: protocol_fault when the body holds a fault
// wrapper, unparseable_response when neither marker is found. Fault text and
// body snippets are bounded before inclusion.
func Parse(body string, schema *Schema) (*FieldList, error) {
	if payload, ok := extract(body, resultOpen, resultClose); ok {
		return &FieldList{
			fields: strings.Split(payload, ","),
			schema: schema,
		}, nil
	}

	if fault, ok := extract(body, faultOpen, faultClose); ok {
		return nil, dErrors.New(dErrors.CodeProtocolFault,
			fmt.Sprintf("upstream fault: %s", snippet(fault)))
	}

	return nil, dErrors.New(dErrors.CodeUnparseableResponse,
		fmt.Sprintf("result marker not found in upstream response: %s", snippet(body)))
}

// extract returns the text between the first occurrence of open and the
// following close marker.
func extract(body, open, close string) (string, bool) {
	start := strings.Index(body, open)
	if start < 0 {
		return "", false
	}
	start += len(open)
	rest := body[start:]
	end := strings.Index(rest, close)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// snippet bounds untrusted upstream text for inclusion in errors and logs.
func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxSnippet {
		return s[:maxSnippet] + "..."
	}
	return s
}
