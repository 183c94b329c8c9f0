package zod

import (
	"fmt"
	"strings"
)

// Pattern converts a JSON Schema pattern into a JavaScript regex literal.
//
// One pair of `/.../` delimiters is stripped, control characters become
// escape sequences and forward slashes are escaped according to policy. The
// `u` flag is added when the pattern uses Unicode property or code point
// escapes.
func Pattern(pattern string, policy SlashEscaping) string {
	body := pattern
	if len(body) >= 2 && strings.HasPrefix(body, "/") && strings.HasSuffix(body, "/") {
		body = body[1 : len(body)-1]
	}

	body = escapeControlCharacters(body)
	body = escapeSlashes(body, policy)
	if body == "" {
		// `//` would start a line comment
		body = "(?:)"
	}

	if usesUnicodeEscapes(pattern) {
		return "/" + body + "/u"
	}
	return "/" + body + "/"
}

// hasMalformedDelimiters reports a pattern opened with "/" but never closed.
func hasMalformedDelimiters(pattern string) bool {
	return strings.HasPrefix(pattern, "/") && (len(pattern) < 2 || !strings.HasSuffix(pattern, "/"))
}

func usesUnicodeEscapes(pattern string) bool {
	return strings.Contains(pattern, `\p{`) || strings.Contains(pattern, `\P{`) || strings.Contains(pattern, `\u{`)
}

func escapeControlCharacters(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r == '\t':
			sb.WriteString(`\t`)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r <= 0x1F, r >= 0x7F && r <= 0x9F:
			fmt.Fprintf(&sb, `\x%02x`, r)
		case r == 0xFEFF, r == 0xFFFE, r == 0xFFFF:
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func escapeSlashes(s string, policy SlashEscaping) string {
	if policy != SlashEscapeUnescaped {
		return strings.ReplaceAll(s, "/", `\/`)
	}

	var sb strings.Builder
	backslashes := 0
	for _, r := range s {
		if r == '/' && backslashes%2 == 0 {
			sb.WriteByte('\\')
		}
		if r == '\\' {
			backslashes++
		} else {
			backslashes = 0
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
