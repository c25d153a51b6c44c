package keypath

import (
	"strings"
)

// Reference describes the call expression that replaces an extracted
// literal, e.g. i18n.t('feature.title').
type Reference struct {
	// Namespace is the object the lookup function hangs off.
	Namespace string
	// Function is the lookup function name.
	Function string
	// Legacy is the bare function name of the unqualified form, upgraded in
	// place when met inside a string table.
	Legacy string
}

// DefaultReference returns the i18next-style i18n.t reference with bare t
// as its legacy form.
func DefaultReference() Reference {
	return Reference{Namespace: "i18n", Function: "t", Legacy: "t"}
}

// Callee returns the qualified callee, e.g. "i18n.t".
func (r Reference) Callee() string {
	if r.Namespace == "" {
		return r.Function
	}
	return r.Namespace + "." + r.Function
}

var keyQuoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)

// Call renders a reference to key.
func (r Reference) Call(key string) string {
	return r.Callee() + "('" + keyQuoter.Replace(key) + "')"
}
