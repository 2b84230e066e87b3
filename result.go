package prospectindata

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ResultKind discriminates the shape of an upstream response. The original
// enrichment APIs answer the same endpoint with a bare list, an object, or a
// scalar ID depending on the query, so callers switch on Kind instead of
// probing types.
type ResultKind int

const (
	// KindAbsent means the upstream had no data (404 or JSON null). It is a
	// normal outcome, not an error.
	KindAbsent ResultKind = iota
	KindObject
	KindList
	KindScalar
)

func (k ResultKind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindObject:
		return "object"
	case KindList:
		return "list"
	case KindScalar:
		return "scalar"
	default:
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
}

// Result is the discriminated outcome of a successful call: a JSON value
// tagged with its shape, or the explicit absent kind.
type Result struct {
	kind ResultKind
	raw  json.RawMessage
}

// Absent returns the explicit "no data" result.
func Absent() Result {
	return Result{kind: KindAbsent}
}

// newResult tags a JSON document with its shape. raw must be valid JSON.
func newResult(raw json.RawMessage) Result {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 || bytes.HasPrefix(trimmed, []byte("null")) {
		return Absent()
	}
	switch trimmed[0] {
	case '{':
		return Result{kind: KindObject, raw: raw}
	case '[':
		return Result{kind: KindList, raw: raw}
	default:
		return Result{kind: KindScalar, raw: raw}
	}
}

// Kind returns the shape tag.
func (r Result) Kind() ResultKind { return r.kind }

// IsAbsent reports whether the upstream had no data.
func (r Result) IsAbsent() bool { return r.kind == KindAbsent }

// Raw returns the raw JSON document, nil for absent results.
func (r Result) Raw() json.RawMessage { return r.raw }

// Decode unmarshals the result into v. Decoding an absent result is an error;
// check IsAbsent first.
func (r Result) Decode(v any) error {
	if r.IsAbsent() {
		return fmt.Errorf("prospectindata: cannot decode absent result")
	}
	return json.Unmarshal(r.raw, v)
}

// Object returns the result as a map when it is an object.
func (r Result) Object() (map[string]any, bool) {
	if r.kind != KindObject {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(r.raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

// List returns the result as a slice when it is a list.
func (r Result) List() ([]any, bool) {
	if r.kind != KindList {
		return nil, false
	}
	var s []any
	if err := json.Unmarshal(r.raw, &s); err != nil {
		return nil, false
	}
	return s, true
}

// Scalar returns the result as a single value (string, number or bool) when
// it is one.
func (r Result) Scalar() (any, bool) {
	if r.kind != KindScalar {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(r.raw, &v); err != nil {
		return nil, false
	}
	return v, true
}
