package textacq

import (
	"strings"
)

// decodeTextOperators walks a decoded content stream and emits the operands
// of the text-showing operators (Tj, TJ, ' and ") in stream order. Text
// positioning operators (Td, TD, T*) and ET boundaries become newlines so the
// line structure survives well enough for line-oriented field matching.
//
// String operands are taken as simple byte encodings. Composite-font CMap
// translation is out of reach here; documents needing it fall through the
// cascade instead.
func decodeTextOperators(stream []byte) string {
	var (
		out     strings.Builder
		pending []string
		i       = 0
		n       = len(stream)
	)

	flush := func() {
		for _, s := range pending {
			out.WriteString(s)
		}
		pending = pending[:0]
	}

	for i < n {
		c := stream[i]
		switch {
		case c == '(':
			s, next := parseLiteralString(stream, i)
			pending = append(pending, s)
			i = next
		case c == '<' && i+1 < n && stream[i+1] != '<':
			s, next := parseHexString(stream, i)
			pending = append(pending, s)
			i = next
		case c == '%':
			// Comment runs to end of line
			for i < n && stream[i] != '\n' && stream[i] != '\r' {
				i++
			}
		case isOperatorStart(c):
			op, next := parseOperator(stream, i)
			i = next
			switch op {
			case "Tj", "TJ":
				flush()
				out.WriteByte(' ')
			case "'", "\"":
				out.WriteByte('\n')
				flush()
			case "Td", "TD", "T*", "ET":
				pending = pending[:0]
				out.WriteByte('\n')
			default:
				// Strings consumed by non-text operators are operands we
				// do not care about
				pending = pending[:0]
			}
		default:
			i++
		}
	}

	return out.String()
}

func isOperatorStart(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '\'' || c == '"' || c == '*'
}

// parseOperator reads an operator word starting at i.
func parseOperator(stream []byte, i int) (string, int) {
	start := i
	for i < len(stream) {
		c := stream[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '*' || c == '\'' || c == '"' {
			i++
			continue
		}
		break
	}
	return string(stream[start:i]), i
}

// parseLiteralString reads a ( ... ) string starting at i, honoring nested
// parentheses and backslash escapes per the PDF string syntax.
func parseLiteralString(stream []byte, i int) (string, int) {
	var b strings.Builder
	depth := 0
	n := len(stream)

	for ; i < n; i++ {
		c := stream[i]
		switch c {
		case '(':
			depth++
			if depth > 1 {
				b.WriteByte(c)
			}
		case ')':
			depth--
			if depth == 0 {
				return b.String(), i + 1
			}
			b.WriteByte(c)
		case '\\':
			if i+1 >= n {
				return b.String(), n
			}
			i++
			switch stream[i] {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b', 'f':
				// Discard backspace and form feed
			case '(', ')', '\\':
				b.WriteByte(stream[i])
			case '\r':
				// Line continuation; swallow an optional LF
				if i+1 < n && stream[i+1] == '\n' {
					i++
				}
			case '\n':
				// Line continuation
			default:
				if stream[i] >= '0' && stream[i] <= '7' {
					val := 0
					for d := 0; d < 3 && i < n && stream[i] >= '0' && stream[i] <= '7'; d++ {
						val = val*8 + int(stream[i]-'0')
						i++
					}
					i--
					b.WriteByte(byte(val))
				} else {
					b.WriteByte(stream[i])
				}
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), n
}

// parseHexString reads a < ... > hex string starting at i.
func parseHexString(stream []byte, i int) (string, int) {
	var b strings.Builder
	i++ // skip '<'
	n := len(stream)

	digits := make([]byte, 0, 2)
	for ; i < n; i++ {
		c := stream[i]
		if c == '>' {
			i++
			break
		}
		if v, ok := hexVal(c); ok {
			digits = append(digits, v)
			if len(digits) == 2 {
				b.WriteByte(digits[0]<<4 | digits[1])
				digits = digits[:0]
			}
		}
	}
	// PDF reads a trailing odd digit as if followed by zero
	if len(digits) == 1 {
		b.WriteByte(digits[0] << 4)
	}
	return b.String(), i
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
