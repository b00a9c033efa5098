package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var reWhitespaceRun = regexp.MustCompile(`\s+`)

func trim(s string) string {
	return strings.TrimSpace(s)
}

func collapseWhitespace(s string) string {
	return reWhitespaceRun.ReplaceAllString(s, " ")
}

func ItemID(input string) string {
	p := Pipeline{
		trim,
		func(s string) string { return reWhitespaceRun.ReplaceAllString(s, "-") },
		strings.ToUpper,
	}
	return p.Apply(input)
}

func UserID(input string) string {
	return trim(input)
}

func ItemKind(input string) string {
	return strings.ToLower(trim(input))
}

func Name(input string) string {
	p := Pipeline{
		trim,
		collapseWhitespace,
		func(s string) string {
			return strings.Map(func(r rune) rune {
				if unicode.IsControl(r) {
					return -1
				}
				return r
			}, s)
		},
	}
	return p.Apply(input)
}

// Slice applies strategy to every value, dropping empties and duplicates while keeping order.
func Slice(values []string, strategy Strategy) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))

	for _, v := range values {
		s := strategy(v)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}
