package prospectindata

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// unsafeChars matches everything outside the filesystem-safe set. Anything
// else in a cache key component is replaced with "_" so keys can never climb
// out of the cache directory or produce invalid filenames.
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

func sanitize(s string) string {
	return unsafeChars.ReplaceAllString(s, "_")
}

// sanitizeEndpoint turns an endpoint path into the cache subdirectory name
// that namespaces its responses, e.g. "/member/search/filter" ->
// "member_search_filter".
func sanitizeEndpoint(endpoint string) string {
	trimmed := strings.Trim(endpoint, "/")
	if trimmed == "" {
		trimmed = "root"
	}
	return sanitize(strings.ReplaceAll(trimmed, "/", "_"))
}

// encodeParams renders query parameters in canonical order. url.Values.Encode
// sorts by key, so logically identical parameter maps always render the same.
func encodeParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	return values.Encode()
}

// canonicalJSON serializes v with object keys sorted at every level, so that
// logically identical bodies marshal to identical bytes regardless of field
// order in the caller's type or map.
func canonicalJSON(v any) ([]byte, error) {
	first, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var norm any
	if err := json.Unmarshal(first, &norm); err != nil {
		return nil, err
	}
	return json.Marshal(norm)
}

const maxReadableKeyLen = 80

// requestKey derives the deterministic cache key for a request identity. The
// key carries a sanitized human-readable prefix (handy when poking around the
// cache directory) plus a content hash of method + endpoint + canonical
// parameters/body, which is what actually guarantees uniqueness.
func requestKey(method, endpoint string, params map[string]string, payload []byte) string {
	encoded := encodeParams(params)

	h := sha256.New()
	fmt.Fprintf(h, "%s\n%s\n%s\n", method, endpoint, encoded)
	h.Write(payload)
	sum := h.Sum(nil)

	readable := method
	switch {
	case encoded != "":
		readable += "_" + encoded
	case len(payload) > 0:
		readable += "_" + string(payload)
	}
	readable = sanitize(readable)
	if len(readable) > maxReadableKeyLen {
		readable = readable[:maxReadableKeyLen]
	}

	return fmt.Sprintf("%s-%x", readable, sum[:8])
}
