// Package enrich turns input leads into wide enriched CSV rows by driving
// search-then-collect calls through a shared prospectindata client and
// flattening the returned JSON into spreadsheet columns.
package enrich

import (
	"fmt"
	"sort"
	"strconv"
)

// KV is one flattened column: a derived key and its scalar value rendered as
// a string.
type KV struct {
	Key   string
	Value string
}

// FlattenOptions fixes the flattening policy, which the source scripts used
// to improvise per file.
type FlattenOptions struct {
	// MaxArrayItems caps how many elements of any array are expanded.
	// Defaults to 3.
	MaxArrayItems int
	// Delimiter joins scalar arrays into a single column value. Defaults
	// to "; ".
	Delimiter string
}

func (o FlattenOptions) withDefaults() FlattenOptions {
	if o.MaxArrayItems == 0 {
		o.MaxArrayItems = 3
	}
	if o.Delimiter == "" {
		o.Delimiter = "; "
	}
	return o
}

// Flatten converts a decoded JSON value into an ordered sequence of
// (key, scalar) pairs. Nested object keys are joined with "_"; object keys
// are visited in sorted order so output is deterministic. Arrays of scalars
// collapse to one delimiter-joined column; arrays of objects expand the
// first MaxArrayItems elements with 1-based index suffixes. It is a pure
// function: same input, same output, no side effects.
func Flatten(v any, prefix string, opts FlattenOptions) []KV {
	opts = opts.withDefaults()
	var out []KV
	flattenInto(&out, v, prefix, opts)
	return out
}

func flattenInto(out *[]KV, v any, prefix string, opts FlattenOptions) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenInto(out, val[k], joinKey(prefix, k), opts)
		}
	case []any:
		if len(val) == 0 {
			return
		}
		if allScalars(val) {
			limit := len(val)
			if limit > opts.MaxArrayItems {
				limit = opts.MaxArrayItems
			}
			joined := ""
			for _, item := range val[:limit] {
				if item == nil {
					continue
				}
				if joined != "" {
					joined += opts.Delimiter
				}
				joined += scalarString(item)
			}
			*out = append(*out, KV{Key: prefix, Value: joined})
			return
		}
		for i, item := range val {
			if i >= opts.MaxArrayItems {
				break
			}
			flattenInto(out, item, fmt.Sprintf("%s_%d", prefix, i+1), opts)
		}
	default:
		*out = append(*out, KV{Key: prefix, Value: scalarString(v)})
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "_" + key
}

func allScalars(items []any) bool {
	for _, item := range items {
		switch item.(type) {
		case map[string]any, []any:
			return false
		}
	}
	return true
}

func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		// JSON numbers decode as float64; render integers without the
		// trailing ".0" pandas used to leave behind.
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
