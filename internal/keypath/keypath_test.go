package keypath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRules_Feature(t *testing.T) {
	r := DefaultRules()

	tests := []struct {
		path string
		want string
	}{
		{"features/venue_management/script_lines.js", "venue_management"},
		{"features/venue_management/utils/script_lines.js", "venue_management"},
		{"features/venue_management/components/deep/script_lines.js", "venue_management"},
		{"components/header/script_lines.js", "header"},
		{"components/header/utils/script_lines.js", "header"},
		{"utils/script_lines.js", "common"},
		{"script_lines.js", "common"},
		{"features/script_lines.js", "features"},
		{`features\billing\script_lines.js`, "billing"},
		{"./pages/home/script_lines.js", "home"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Feature(tt.path))
		})
	}
}

func TestRules_RootKey(t *testing.T) {
	r := DefaultRules()

	tests := []struct {
		name string
		want string
	}{
		{"scriptLines", ""},
		{"scriptLines_Steps", "steps"},
		{"scriptLines_stepTwo", "stepTwo"},
		{"scriptLines_ÉtapeUne", "étapeUne"},
		{"scriptLines_", ""},
		{"labels", "labels"},
		{"ScriptLines", "ScriptLines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.RootKey(tt.name))
		})
	}
}

func TestRules_Prefix(t *testing.T) {
	r := DefaultRules()

	assert.Equal(t, []string{"venues", "steps"}, r.Prefix("features/venues/script_lines.js", "scriptLines_Steps"))
	assert.Equal(t, []string{"venues"}, r.Prefix("features/venues/script_lines.js", "scriptLines"))
	assert.Equal(t, []string{"common", "labels"}, r.Prefix("script_lines.js", "labels"))

	bare := Rules{ReservedName: "scriptLines"}
	assert.Empty(t, bare.Prefix("script_lines.js", "scriptLines"))
}

func TestJoinSplit(t *testing.T) {
	assert.Equal(t, "a.b.c", Join("a", "b", "c"))
	assert.Equal(t, []string{"a", "b", "c"}, Split("a.b.c"))
	assert.Nil(t, Split(""))
}

func TestAppend_DoesNotAlias(t *testing.T) {
	base := make([]string, 1, 8)
	base[0] = "root"

	left := Append(base, "left")
	right := Append(base, "right")

	assert.Equal(t, []string{"root", "left"}, left)
	assert.Equal(t, []string{"root", "right"}, right)
}

func TestValidSegment(t *testing.T) {
	assert.True(t, ValidSegment("title"))
	assert.True(t, ValidSegment("0"))
	assert.False(t, ValidSegment(""))
	assert.False(t, ValidSegment("a.b"))
}

func TestReference(t *testing.T) {
	ref := DefaultReference()
	assert.Equal(t, "i18n.t", ref.Callee())
	assert.Equal(t, "i18n.t('feat.a.b')", ref.Call("feat.a.b"))
	assert.Equal(t, `i18n.t('it\'s.ok')`, ref.Call("it's.ok"))

	bare := Reference{Function: "translate"}
	assert.Equal(t, "translate('x')", bare.Call("x"))
}
