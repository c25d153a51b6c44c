package translate

import (
	"regexp"
	"strings"
)

const (
	phOpen  = "<ph>"
	phClose = "</ph>"
)

var protectPattern = regexp.MustCompile(`\{[\w.-]+\}`)

// Protect wraps every {placeholder} in <ph> tags so the provider leaves it
// untranslated. For {{name}} only the inner braces are wrapped.
func Protect(text string) string {
	return protectPattern.ReplaceAllString(text, phOpen+"$0"+phClose)
}

// Unprotect removes the tags added by Protect.
func Unprotect(text string) string {
	return strings.NewReplacer(phOpen, "", phClose, "").Replace(text)
}
