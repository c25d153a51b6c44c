package extract

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Unescape decodes the body of a JavaScript string or template literal
// (without its delimiters). Unknown escapes yield the escaped character and
// line continuations vanish. Surrogate pairs written as two \u escapes are
// combined.
func Unescape(raw string) string {
	if !strings.Contains(raw, `\`) {
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw))
	var pending rune = -1

	flush := func() {
		if pending >= 0 {
			b.WriteRune(utf8.RuneError)
			pending = -1
		}
	}
	emit := func(r rune) {
		if pending >= 0 {
			if utf16.IsSurrogate(r) && r >= 0xDC00 {
				b.WriteRune(utf16.DecodeRune(pending, r))
				pending = -1
				return
			}
			flush()
		}
		if r >= 0xD800 && r < 0xDC00 {
			pending = r
			return
		}
		b.WriteRune(r)
	}

	for i := 0; i < len(raw); {
		if raw[i] != '\\' || i+1 >= len(raw) {
			r, size := utf8.DecodeRuneInString(raw[i:])
			emit(r)
			i += size
			continue
		}

		c := raw[i+1]
		i += 2
		switch c {
		case 'n':
			emit('\n')
		case 't':
			emit('\t')
		case 'r':
			emit('\r')
		case 'b':
			emit('\b')
		case 'f':
			emit('\f')
		case 'v':
			emit('\v')
		case '0':
			emit(0)
		case '\n':
		case '\r':
			if i < len(raw) && raw[i] == '\n' {
				i++
			}
		case 'x':
			if r, ok := hexRune(raw, i, 2); ok {
				emit(r)
				i += 2
			} else {
				emit('x')
			}
		case 'u':
			if i < len(raw) && raw[i] == '{' {
				end := strings.IndexByte(raw[i:], '}')
				if end > 1 {
					if v, err := strconv.ParseUint(raw[i+1:i+end], 16, 32); err == nil && v <= utf8.MaxRune {
						emit(rune(v))
						i += end + 1
						continue
					}
				}
				emit('u')
			} else if r, ok := hexRune(raw, i, 4); ok {
				emit(r)
				i += 4
			} else {
				emit('u')
			}
		default:
			r, size := utf8.DecodeRuneInString(raw[i-1:])
			// LINE SEPARATOR and PARAGRAPH SEPARATOR continue lines like \n.
			if r != '\u2028' && r != '\u2029' {
				emit(r)
			}
			i += size - 1
		}
	}
	flush()
	return b.String()
}

func hexRune(s string, at, n int) (rune, bool) {
	if at+n > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[at:at+n], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}
