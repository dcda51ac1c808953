package sqlutil

import (
	"strings"
	"unicode"
)

// QuoteIdent renders name as a double-quoted SQL identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QualifiedName renders schema.table with both parts quoted.
func QualifiedName(schema, table string) string {
	return QuoteIdent(schema) + "." + QuoteIdent(table)
}

// LeadingKeyword returns the first keyword of query in upper case, skipping
// whitespace and comments. It returns "" when there is none.
func LeadingKeyword(query string) string {
	rest := skipNoise(query)
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if end < 0 {
		end = len(rest)
	}
	return strings.ToUpper(rest[:end])
}

func skipNoise(s string) string {
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		switch {
		case strings.HasPrefix(s, "--"):
			nl := strings.IndexByte(s, '\n')
			if nl < 0 {
				return ""
			}
			s = s[nl+1:]
		case strings.HasPrefix(s, "/*"):
			end := strings.Index(s, "*/")
			if end < 0 {
				return ""
			}
			s = s[end+2:]
		default:
			return s
		}
	}
}
