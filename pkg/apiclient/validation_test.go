package apiclient

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrors_UnmarshalKeepsOrder(t *testing.T) {
	var v ValidationErrors
	require.NoError(t, json.Unmarshal([]byte(`{"stock":["a"],"nombre":["b","c"],"precio":"d"}`), &v))

	require.Len(t, v, 3)
	assert.Equal(t, []string{"stock", "nombre", "precio"}, []string{v[0].Field, v[1].Field, v[2].Field})
	assert.Equal(t, []string{"b", "c"}, v.Get("nombre"))
	assert.Equal(t, []string{"d"}, v.Get("precio"))
	assert.Nil(t, v.Get("imagen"))
	assert.Equal(t, []string{"a", "b", "c", "d"}, v.Messages())
}

func TestValidationErrors_NonObjectIsIgnored(t *testing.T) {
	var v ValidationErrors
	require.NoError(t, json.Unmarshal([]byte(`["oops"]`), &v))
	assert.Nil(t, v)

	require.NoError(t, json.Unmarshal([]byte(`null`), &v))
	assert.Nil(t, v)
}

func TestValidationErrors_DuplicateFieldsMerge(t *testing.T) {
	var v ValidationErrors
	require.NoError(t, json.Unmarshal([]byte(`{"nombre":["a"],"nombre":["b"]}`), &v))
	require.Len(t, v, 1)
	assert.Equal(t, []string{"a", "b"}, v.Get("nombre"))
}

func TestValidationErrors_MarshalIsOrdered(t *testing.T) {
	v := ValidationErrors{
		{Field: "precio", Messages: []string{"must be > 0"}},
		{Field: "nombre", Messages: nil},
	}
	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"precio":["must be > 0"],"nombre":[]}`, string(b))
	out := string(b)
	assert.Less(t, strings.Index(out, `"precio"`), strings.Index(out, `"nombre"`))
}
