// Package prompttemplate implements the static-prompt template language
// shared by every authoring frontend (spec.md §3 "Prompt entry", universal
// invariant 2): `{name}` placeholders substituted from the argument map,
// plus `{expr ? 'a' : 'b'}` conditional expressions selecting a branch on
// the named argument's truthiness. One engine backs both the functional
// and interface-driven frontends' static prompts so they honor invariant 2
// identically.
package prompttemplate

import "strings"

// Render substitutes every `{k}` placeholder in template with args[k], and
// evaluates every `{expr ? a : b}` conditional by the truthiness of
// args[expr]. Unknown placeholders substitute to the empty string, matching
// a missing key's zero value in args.
func Render(template string, args map[string]string) string {
	var out strings.Builder
	i := 0
	for i < len(template) {
		if template[i] != '{' {
			out.WriteByte(template[i])
			i++
			continue
		}
		end := strings.IndexByte(template[i+1:], '}')
		if end == -1 {
			out.WriteByte(template[i])
			i++
			continue
		}
		end += i + 1
		out.WriteString(eval(template[i+1:end], args))
		i = end + 1
	}
	return out.String()
}

// eval evaluates one brace expression's interior: either a bare argument
// name or a `cond ? a : b` conditional.
func eval(expr string, args map[string]string) string {
	if qIdx := strings.IndexByte(expr, '?'); qIdx != -1 {
		cond := strings.TrimSpace(expr[:qIdx])
		branches := expr[qIdx+1:]
		cIdx := unquotedIndex(branches, ':')
		if cIdx == -1 {
			return ""
		}
		thenBranch := unquote(strings.TrimSpace(branches[:cIdx]))
		elseBranch := unquote(strings.TrimSpace(branches[cIdx+1:]))
		if truthy(args[cond]) {
			return thenBranch
		}
		return elseBranch
	}
	return args[strings.TrimSpace(expr)]
}

// unquotedIndex finds the first occurrence of sep in s that is not inside a
// single- or double-quoted run, or -1 if none.
func unquotedIndex(s string, sep byte) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == sep:
			return i
		}
	}
	return -1
}

// unquote strips one layer of matching single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' || first == '"') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// truthy mirrors JS truthiness for the string-encoded argument values this
// repo's handler map[string]string carries: empty, "false", and "0" are
// false; anything else (including "true" and non-empty literal text) is
// true.
func truthy(s string) bool {
	return s != "" && s != "false" && s != "0"
}
