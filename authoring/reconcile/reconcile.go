// Package reconcile implements the Name Reconciler (spec.md §4.10): given a
// declared name (from an interface descriptor, a decorator tag, or a
// functional config key) and a target instance, it finds the method that
// should back it, trying a fixed sequence of casing variants before giving
// up with a composed configuration error.
package reconcile

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/mcpforge/mcpforge/kernel"
)

// Match is the outcome of a successful reconciliation.
type Match struct {
	MethodName string
	// Warning is non-empty when the match was not the exact declared name.
	Warning string
}

// Reconcile searches for a method on instance's type bound to declaredName,
// trying variants in order: exact, snake_case, camelCase, PascalCase,
// kebab-case. Returns a *kernel.Error (KindConfiguration) listing every
// variant tried, the methods actually present, and lexically similar
// suggestions if none match.
func Reconcile(instance any, declaredName string) (*Match, error) {
	methods := methodNames(instance)
	present := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		present[m] = struct{}{}
	}

	variants := []struct {
		label string
		name  string
	}{
		{"exact", declaredName},
		{"snake_case", toSnakeCase(declaredName)},
		{"camelCase", toCamelCase(declaredName)},
		{"PascalCase", toPascalCase(declaredName)},
		{"kebab-case", toKebabCase(declaredName)},
	}

	for i, v := range variants {
		if _, ok := present[v.name]; ok {
			if i == 0 {
				return &Match{MethodName: v.name}, nil
			}
			return &Match{
				MethodName: v.name,
				Warning:    fmt.Sprintf("binding %q resolved via %s variant %q, not an exact match", declaredName, v.label, v.name),
			}, nil
		}
	}

	tried := make([]string, len(variants))
	for i, v := range variants {
		tried[i] = v.name
	}
	suggestions := similar(declaredName, methods, 3)

	return nil, kernel.NewError(kernel.KindConfiguration, fmt.Sprintf(
		"no binding found for %q: tried %s; methods present: %s; did you mean: %s?",
		declaredName,
		strings.Join(tried, ", "),
		strings.Join(methods, ", "),
		strings.Join(suggestions, ", "),
	))
}

// methodNames enumerates the exported method names of instance's type via
// reflection, standing in for a runtime class's member list.
func methodNames(instance any) []string {
	t := reflect.TypeOf(instance)
	if t == nil {
		return nil
	}
	names := make([]string, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		names = append(names, t.Method(i).Name)
	}
	sort.Strings(names)
	return names
}

func toSnakeCase(s string) string {
	return strings.Join(lowerAll(splitWords(s)), "_")
}

func toKebabCase(s string) string {
	return strings.Join(lowerAll(splitWords(s)), "-")
}

func toCamelCase(s string) string {
	parts := splitWords(s)
	if len(parts) == 0 {
		return s
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(parts[0]))
	for _, p := range parts[1:] {
		b.WriteString(capitalize(p))
	}
	return b.String()
}

func toPascalCase(s string) string {
	parts := splitWords(s)
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(capitalize(p))
	}
	return b.String()
}

func lowerAll(parts []string) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.ToLower(p)
	}
	return out
}

// splitWords breaks an identifier into words on underscores, hyphens,
// spaces, and lower/digit-to-upper case transitions, keeping each word's
// case: "get_weather" and "get-weather" yield ["get", "weather"], and
// "getWeather" yields ["get", "Weather"].
func splitWords(s string) []string {
	var words []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case r >= 'A' && r <= 'Z' && i > 0 && isLowerOrDigit(runes[i-1]):
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return words
}

func isLowerOrDigit(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// similar returns up to n method names with the smallest Levenshtein
// distance to target, for the "did you mean" suggestion list.
func similar(target string, candidates []string, n int) []string {
	type scored struct {
		name string
		dist int
	}
	lowerTarget := strings.ToLower(target)
	scoredList := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		scoredList = append(scoredList, scored{c, levenshtein(lowerTarget, strings.ToLower(c))})
	}
	sort.Slice(scoredList, func(i, j int) bool { return scoredList[i].dist < scoredList[j].dist })
	out := make([]string, 0, n)
	for i := 0; i < len(scoredList) && i < n; i++ {
		out = append(out, scoredList[i].name)
	}
	return out
}

func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
