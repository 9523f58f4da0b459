// Package template expands $name placeholders in command text.
package template

import "strings"

// Substitute expands $name placeholders in text using values. A name is a
// maximal run of ASCII letters, digits, and underscores following a $, and
// `\$` yields a literal $ without starting a placeholder. Placeholders with
// no entry in values are left untouched, leading $ included, so a downstream
// shell may still expand them from its environment.
func Substitute(text string, values map[string]string) string {
	if !strings.ContainsAny(text, "$\\") {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '\\' && i+1 < len(text) && text[i+1] == '$':
			b.WriteByte('$')
			i += 2
		case c == '$':
			j := i + 1
			for j < len(text) && isNameByte(text[j]) {
				j++
			}
			if j == i+1 {
				// Bare $ with no name after it.
				b.WriteByte('$')
				i++
				continue
			}
			if v, ok := values[text[i+1:j]]; ok {
				b.WriteString(v)
			} else {
				b.WriteString(text[i:j])
			}
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

func isNameByte(c byte) bool {
	return c == '_' ||
		('0' <= c && c <= '9') ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z')
}
