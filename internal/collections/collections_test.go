package collections

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func storeFromYAML(t *testing.T, doc string) *Store {
	t.Helper()
	var raw map[string]map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(doc), &raw))
	store, err := NewStore(raw)
	require.NoError(t, err)
	return store
}

func TestStoreSimpleConfig(t *testing.T) {
	store := storeFromYAML(t, `
collection1:
  key1: value1
  key2: 2
  key3: 3.3
  key4: -4
collection2:
  key4: value4
  key5: 5
  key6: 6.6
`)

	assert.True(t, store.Exists("collection1"))
	assert.True(t, store.Exists("collection2"))
	assert.Nil(t, store.TryGet("collection3"))
	assert.Equal(t, []string{"collection1", "collection2"}, store.Names())

	c1, err := store.Get("collection1")
	require.NoError(t, err)
	assert.Equal(t, "key1:\tvalue1\nkey2:\t2\nkey3:\t3.3\nkey4:\t-4\n", c1.DumpStructure())

	s, err := c1.GetString("key1")
	require.NoError(t, err)
	assert.Equal(t, "value1", s)

	u, err := c1.GetUInt64("key2")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), u)

	f, err := c1.GetFloat64("key3")
	require.NoError(t, err)
	assert.Equal(t, 3.3, f)

	i, err := c1.GetInt64("key4")
	require.NoError(t, err)
	assert.Equal(t, int64(-4), i)

	c2, err := store.Get("collection2")
	require.NoError(t, err)
	assert.Equal(t, "key4:\tvalue4\nkey5:\t5\nkey6:\t6.6\n", c2.DumpStructure())

	s, err = c2.GetString("key4")
	require.NoError(t, err)
	assert.Equal(t, "value4", s)
}

func TestTypedAccessorsDoNotCoerce(t *testing.T) {
	c := New("test")
	c.Set("str", StringValue("hello"))
	c.Set("int", IntValue(42))
	c.Set("float", FloatValue(1.5))
	c.Set("neg", IntValue(-1))

	tests := []struct {
		name string
		call func() error
	}{
		{
			name: "string as int",
			call: func() error { _, err := c.GetInt64("str"); return err },
		},
		{
			name: "int as string",
			call: func() error { _, err := c.GetString("int"); return err },
		},
		{
			name: "int as float",
			call: func() error { _, err := c.GetFloat64("int"); return err },
		},
		{
			name: "float as int",
			call: func() error { _, err := c.GetInt64("float"); return err },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			var mismatch *TypeMismatchError
			assert.ErrorAs(t, err, &mismatch)
		})
	}

	// Negative values are an error for the unsigned accessor but not a
	// type mismatch.
	_, err := c.GetUInt64("neg")
	require.Error(t, err)
	var mismatch *TypeMismatchError
	assert.False(t, errors.As(err, &mismatch))
}

func TestMissingKeys(t *testing.T) {
	c := New("test")
	c.Set("present", StringValue("x"))

	_, err := c.GetString("absent")
	assert.Error(t, err)

	v, err := c.OptString("absent", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)

	i, err := c.OptInt64("absent", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), i)

	// A present key of the wrong type is still an error.
	_, err = c.OptInt64("present", 7)
	assert.Error(t, err)
}

func TestFromMapRejectsNestedValues(t *testing.T) {
	_, err := FromMap("bad", map[string]any{
		"nested": map[string]any{"a": 1},
	})
	assert.Error(t, err)
}
