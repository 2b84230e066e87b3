package enrich

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flattenJSON(t *testing.T, doc, prefix string, opts FlattenOptions) map[string]string {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(doc), &v))
	out := map[string]string{}
	for _, kv := range Flatten(v, prefix, opts) {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestFlattenNestedObject(t *testing.T) {
	got := flattenJSON(t, `{
		"name": "Jane",
		"experience": {"title": "CTO", "company": {"name": "Acme"}}
	}`, "employee", FlattenOptions{})

	assert.Equal(t, "Jane", got["employee_name"])
	assert.Equal(t, "CTO", got["employee_experience_title"])
	assert.Equal(t, "Acme", got["employee_experience_company_name"])
}

func TestFlattenScalarArrayJoins(t *testing.T) {
	got := flattenJSON(t, `{"skills": ["go", "python", "sql", "rust"]}`, "", FlattenOptions{})

	// Capped at the default 3 items.
	assert.Equal(t, "go; python; sql", got["skills"])
}

func TestFlattenScalarArrayCustomOptions(t *testing.T) {
	got := flattenJSON(t, `{"skills": ["go", "python", "sql"]}`, "", FlattenOptions{
		MaxArrayItems: 2,
		Delimiter:     " | ",
	})

	assert.Equal(t, "go | python", got["skills"])
}

func TestFlattenObjectArrayExpands(t *testing.T) {
	got := flattenJSON(t, `{"experience": [
		{"title": "CTO"},
		{"title": "VP Eng"},
		{"title": "Lead"},
		{"title": "Senior"}
	]}`, "", FlattenOptions{})

	assert.Equal(t, "CTO", got["experience_1_title"])
	assert.Equal(t, "VP Eng", got["experience_2_title"])
	assert.Equal(t, "Lead", got["experience_3_title"])
	assert.NotContains(t, got, "experience_4_title")
}

func TestFlattenScalarRendering(t *testing.T) {
	got := flattenJSON(t, `{
		"count": 42,
		"score": 3.5,
		"active": true,
		"note": null
	}`, "", FlattenOptions{})

	assert.Equal(t, "42", got["count"], "integers must not render with a trailing .0")
	assert.Equal(t, "3.5", got["score"])
	assert.Equal(t, "true", got["active"])
	assert.Equal(t, "", got["note"])
}

func TestFlattenDeterministicOrder(t *testing.T) {
	var v any
	require.NoError(t, json.Unmarshal([]byte(`{"z": 1, "a": 2, "m": {"b": 3}}`), &v))

	first := Flatten(v, "", FlattenOptions{})
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Flatten(v, "", FlattenOptions{}))
	}
	require.Len(t, first, 3)
	assert.Equal(t, "a", first[0].Key)
	assert.Equal(t, "m_b", first[1].Key)
	assert.Equal(t, "z", first[2].Key)
}

func TestFlattenEmptyValues(t *testing.T) {
	assert.Empty(t, flattenJSON(t, `{}`, "p", FlattenOptions{}))
	assert.Empty(t, flattenJSON(t, `{"list": []}`, "p", FlattenOptions{}))
	assert.Empty(t, Flatten(nil, "p", FlattenOptions{})[0].Value)
}

func TestFlattenNilInput(t *testing.T) {
	out := Flatten(nil, "employee", FlattenOptions{})
	require.Len(t, out, 1)
	assert.Equal(t, "employee", out[0].Key)
	assert.Equal(t, "", out[0].Value)
}

func TestFlattenSkipsNilArrayItems(t *testing.T) {
	got := flattenJSON(t, `{"tags": ["a", null, "b"]}`, "", FlattenOptions{})
	assert.Equal(t, "a; b", got["tags"])
}
