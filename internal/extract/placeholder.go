package extract

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{+[\w.-]+\}+`)

// SingleBracePlaceholders returns the placeholders in value written with a
// single brace on either side, e.g. {name}. Interpolation expects {{name}},
// so these would reach users verbatim.
func SingleBracePlaceholders(value string) []string {
	var found []string
	for _, m := range placeholderPattern.FindAllString(value, -1) {
		opening := len(m) - len(strings.TrimLeft(m, "{"))
		closing := len(m) - len(strings.TrimRight(m, "}"))
		if opening == 1 || closing == 1 {
			found = append(found, m)
		}
	}
	return found
}

// PlaceholderViolation describes a literal that uses single-brace
// placeholders.
type PlaceholderViolation struct {
	Key          string
	Value        string
	Placeholders []string
}

// Message renders the question put to the confirmation callback.
func (v *PlaceholderViolation) Message() string {
	return fmt.Sprintf("%q at %s uses %s; interpolation expects double braces such as {{name}}. Extract it anyway?",
		v.Value, v.Key, strings.Join(v.Placeholders, ", "))
}

func (v *PlaceholderViolation) Error() string {
	return fmt.Sprintf("single-brace placeholder %s in %q at %s", strings.Join(v.Placeholders, ", "), v.Value, v.Key)
}

// Confirm decides whether an offending literal is extracted anyway. It
// receives a human-readable question and must not block indefinitely.
type Confirm func(message string) bool

// Decline is a Confirm that always answers no.
func Decline(string) bool { return false }

// Accept is a Confirm that always answers yes.
func Accept(string) bool { return true }
