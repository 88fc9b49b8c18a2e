package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// literalKeywords maps the literal-syntax constants onto their JSON spelling.
var literalKeywords = map[string]string{
	"True":  "true",
	"False": "false",
	"None":  "null",
}

// literalToJSON rewrites a literal-style mapping into JSON: single- or
// double-quoted strings with backslash escapes become JSON strings,
// True/False/None become true/false/null and trailing commas are dropped.
// Everything else is copied and left for the JSON decoder to judge.
func literalToJSON(body []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(body))

	for i := 0; i < len(body); {
		c := body[i]
		switch {
		case c == '\'' || c == '"':
			s, n, err := scanQuoted(body[i:])
			if err != nil {
				return nil, err
			}
			enc, err := json.Marshal(s)
			if err != nil {
				return nil, err
			}
			out.Write(enc)
			i += n
		case c == ',':
			if next := skipSpace(body, i+1); next < len(body) && (body[next] == '}' || body[next] == ']') {
				i++
				continue
			}
			out.WriteByte(c)
			i++
		case isDigit(c):
			j := i + 1
			for j < len(body) && isNumberByte(body[j], body[j-1]) {
				j++
			}
			// Digit separators are literal-only.
			out.WriteString(strings.ReplaceAll(string(body[i:j]), "_", ""))
			i = j
		case isIdentStart(c):
			j := i + 1
			for j < len(body) && (isIdentStart(body[j]) || isDigit(body[j])) {
				j++
			}
			word := string(body[i:j])
			kw, ok := literalKeywords[word]
			if !ok {
				return nil, fmt.Errorf("unexpected name %q at offset %d", word, i)
			}
			out.WriteString(kw)
			i = j
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.Bytes(), nil
}

// scanQuoted decodes the quoted string at the start of b and returns it with
// the number of bytes consumed, closing quote included.
func scanQuoted(b []byte) (string, int, error) {
	quote := b[0]
	var sb strings.Builder
	for i := 1; i < len(b); {
		c := b[i]
		switch {
		case c == quote:
			return sb.String(), i + 1, nil
		case c == '\n' || c == '\r':
			return "", 0, fmt.Errorf("unterminated string at offset %d", i)
		case c == '\\':
			n, err := unescape(&sb, b[i+1:])
			if err != nil {
				return "", 0, err
			}
			i += 1 + n
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return "", 0, fmt.Errorf("unterminated string")
}

// unescape writes the escape sequence that follows a backslash and returns
// how many bytes after the backslash it used. Unknown escapes keep the backslash.
func unescape(sb *strings.Builder, b []byte) (int, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("dangling backslash")
	}
	switch b[0] {
	case '\n':
		return 1, nil
	case '\\', '\'', '"':
		sb.WriteByte(b[0])
	case 'a':
		sb.WriteByte('\a')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'v':
		sb.WriteByte('\v')
	case 'x':
		return codePoint(sb, b, 2)
	case 'u':
		return codePoint(sb, b, 4)
	case 'U':
		return codePoint(sb, b, 8)
	case 'N':
		return 0, fmt.Errorf("named escapes are not supported")
	default:
		if isOctal(b[0]) {
			n := 1
			for n < 3 && n < len(b) && isOctal(b[n]) {
				n++
			}
			v, _ := strconv.ParseUint(string(b[:n]), 8, 32)
			sb.WriteRune(rune(v))
			return n, nil
		}
		sb.WriteByte('\\')
		return 0, nil
	}
	return 1, nil
}

// codePoint reads exactly digits hex digits after the escape letter.
func codePoint(sb *strings.Builder, b []byte, digits int) (int, error) {
	if len(b) < 1+digits {
		return 0, fmt.Errorf("truncated \\%c escape", b[0])
	}
	v, err := strconv.ParseUint(string(b[1:1+digits]), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid \\%c escape: %w", b[0], err)
	}
	if v > utf8.MaxRune {
		return 0, fmt.Errorf("escape \\%c%s out of range", b[0], b[1:1+digits])
	}
	sb.WriteRune(rune(v))
	return 1 + digits, nil
}

func skipSpace(b []byte, i int) int {
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return i
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// isNumberByte reports whether c continues a number token whose previous byte is prev.
func isNumberByte(c, prev byte) bool {
	switch {
	case isDigit(c), c == '.', c == '_', c == 'e', c == 'E':
		return true
	case c == '+' || c == '-':
		return prev == 'e' || prev == 'E'
	default:
		return false
	}
}

func isOctal(c byte) bool { return c >= '0' && c <= '7' }
