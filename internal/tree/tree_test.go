package tree

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenUnflatten_RoundTrip(t *testing.T) {
	trees := []Tree{
		{},
		{"a": "x"},
		{"venues": Tree{"title": "Venues", "steps": Tree{"0": "Pick", "1": "Confirm"}}},
		{"list": Tree{"count_one": "1 item", "count_other": "{{count}} items"}, "common": Tree{"save": "Sauvegarder ✓"}},
		{"deep": Tree{"a": Tree{"b": Tree{"c": Tree{"d": "leaf"}}}}, "empty": Tree{}},
	}

	for _, tr := range trees {
		flat := tr.Flatten()
		rebuilt, err := Unflatten(flat)
		require.NoError(t, err)
		assert.Equal(t, flat, rebuilt.Flatten())
	}
}

func TestFlatten(t *testing.T) {
	tr := Tree{
		"a":     Tree{"b": "Hello", "c": map[string]any{"d": "Nested"}},
		"count": float64(3),
		"list":  []any{"x"},
	}
	assert.Equal(t, map[string]string{"a.b": "Hello", "a.c.d": "Nested"}, tr.Flatten())
	assert.Equal(t, []string{"a.b", "a.c.d"}, tr.Keys())
	assert.Equal(t, 2, tr.Len())
}

func TestSet(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Set("feat.a.b", "Hello"))
	require.NoError(t, tr.Set("feat.a.b", "Hello"), "same value is a no-op")

	v, ok := tr.Get("feat.a.b")
	require.True(t, ok)
	assert.Equal(t, "Hello", v)

	t.Run("different value collides", func(t *testing.T) {
		err := tr.Set("feat.a.b", "Bonjour")
		var ce *CollisionError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "feat.a.b", ce.Key)
		assert.Equal(t, "Hello", ce.Existing)
		assert.False(t, ce.Structural)

		v, _ := tr.Get("feat.a.b")
		assert.Equal(t, "Hello", v, "first value wins")
	})

	t.Run("leaf blocks branch", func(t *testing.T) {
		err := tr.Set("feat.a.b.c", "deeper")
		var ce *CollisionError
		require.ErrorAs(t, err, &ce)
		assert.True(t, ce.Structural)
		assert.Equal(t, "feat.a.b", ce.Key)
	})

	t.Run("branch blocks leaf", func(t *testing.T) {
		err := tr.Set("feat.a", "shallow")
		var ce *CollisionError
		require.ErrorAs(t, err, &ce)
		assert.True(t, ce.Structural)
	})

	assert.Error(t, tr.Set("", "x"))
	assert.Equal(t, map[string]string{"feat.a.b": "Hello"}, tr.Flatten())
}

func TestGet_Missing(t *testing.T) {
	tr := Tree{"a": Tree{"b": "x"}}
	_, ok := tr.Get("a")
	assert.False(t, ok)
	_, ok = tr.Get("a.b.c")
	assert.False(t, ok)
	_, ok = tr.Get("")
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	tr := Tree{"a": Tree{"b": Tree{"c": "x"}, "d": "y"}}

	assert.True(t, tr.Delete("a.b.c"))
	assert.Equal(t, Tree{"a": Tree{"d": "y"}}, tr, "empty branches are pruned")
	assert.False(t, tr.Delete("a.b.c"))
	assert.False(t, tr.Delete("a"))
	assert.True(t, tr.Delete("a.d"))
	assert.Empty(t, tr)
}

func TestUnflatten_Conflicts(t *testing.T) {
	tr, err := Unflatten(map[string]string{
		"a":   "leaf",
		"a.b": "child",
		"c.d": "ok",
	})
	require.Error(t, err)

	var ce *CollisionError
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, map[string]string{"a": "leaf", "c.d": "ok"}, tr.Flatten())
}

func TestMerge(t *testing.T) {
	tr := Tree{"x": Tree{"y": "Save"}}
	collisions := tr.Merge(map[string]string{
		"x.y": "Other",
		"x.z": "New",
	})

	require.Len(t, collisions, 1)
	assert.Equal(t, "x.y", collisions[0].Key)
	assert.Equal(t, map[string]string{"x.y": "Save", "x.z": "New"}, tr.Flatten())
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fr", "translation.json")

	missing, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, missing)

	tr := Tree{
		"z": "Fin",
		"a": Tree{"c": "Élan <b>", "b": "Déjà vu"},
	}
	require.NoError(t, Save(path, tr))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "{\n  \"a\": {\n    \"b\": \"Déjà vu\",\n    \"c\": \"Élan <b>\"\n  },\n  \"z\": \"Fin\"\n}\n"
	assert.Equal(t, want, string(data))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, tr.Flatten(), loaded.Flatten())

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err = Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0644))
	empty, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCheck_DoesNotMutate(t *testing.T) {
	tr := Tree{"a": Tree{"b": "x"}}
	require.NoError(t, tr.Check("a.c.d", "new"))
	assert.Error(t, tr.Check("a.b.c", "new"))
	assert.Error(t, tr.Check("a", "new"))
	assert.Equal(t, Tree{"a": Tree{"b": "x"}}, tr)
}

func TestClone(t *testing.T) {
	tr := Tree{"a": Tree{"b": "x"}}
	c := tr.Clone()
	require.NoError(t, c.Set("a.c", "y"))

	_, ok := tr.Get("a.c")
	assert.False(t, ok)
}
