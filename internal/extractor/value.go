package extractor

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"inspector/internal/jsast"
)

// StringValue returns the literal value of a string literal or of a template
// string without substitutions. ok is false for every other node, which is
// how callers tell "unresolved" apart from the empty string.
func StringValue(n jsast.Node) (value string, ok bool) {
	switch n.Kind() {
	case jsast.KindString:
		return unquote(n.Text(), 1), true
	case jsast.KindTemplate:
		for _, child := range n.Children() {
			if child.Kind() == jsast.KindTemplateSubstitution {
				return "", false
			}
		}
		return unquote(n.Text(), 1), true
	default:
		return "", false
	}
}

// unquote strips delimiters of the given width and decodes escape sequences.
func unquote(raw string, delim int) string {
	if len(raw) < 2*delim {
		return ""
	}
	body := raw[delim : len(raw)-delim]
	if !strings.ContainsRune(body, '\\') {
		return body
	}

	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch esc := body[i]; esc {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '0':
			sb.WriteByte(0)
		case '\n':
			// line continuation
		case 'x':
			if r, n := decodeHex(body[i+1:], 2); n > 0 {
				sb.WriteRune(r)
				i += n
			} else {
				sb.WriteByte(esc)
			}
		case 'u':
			if r, n := decodeUnicode(body[i+1:]); n > 0 {
				sb.WriteRune(r)
				i += n
			} else {
				sb.WriteByte(esc)
			}
		default:
			sb.WriteByte(esc)
		}
	}
	return sb.String()
}

func decodeHex(s string, width int) (rune, int) {
	if len(s) < width {
		return 0, 0
	}
	v, err := strconv.ParseUint(s[:width], 16, 32)
	if err != nil {
		return 0, 0
	}
	return rune(v), width
}

func decodeUnicode(s string) (rune, int) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 2 {
			return 0, 0
		}
		v, err := strconv.ParseUint(s[1:end], 16, 32)
		if err != nil || !utf8.ValidRune(rune(v)) {
			return 0, 0
		}
		return rune(v), end + 1
	}
	return decodeHex(s, 4)
}
