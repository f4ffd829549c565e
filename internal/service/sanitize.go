package service

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/leonardcser/weather-mcp/internal/weather"
)

// Sanitize reduces an untrusted query to letters, digits, single spaces,
// hyphens and apostrophes. It is idempotent; an empty result means there is
// nothing to search for.
func Sanitize(raw string) string {
	kept := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '-' || r == '\'' {
			return r
		}
		return -1
	}, strings.TrimSpace(raw))
	// Fields splits on whitespace runs and drops leading/trailing space.
	return strings.Join(strings.Fields(kept), " ")
}

// orderCities sorts cities in place: exact case-insensitive name matches for
// query first, then by population descending, then by name case-insensitively.
// Raw name and id settle what is left so the order is total.
func orderCities(cities []weather.City, query string) {
	q := strings.ToLower(query)
	slices.SortStableFunc(cities, func(a, b weather.City) int {
		al, bl := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if ae, be := al == q, bl == q; ae != be {
			if ae {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(b.Population, a.Population); c != 0 {
			return c
		}
		if c := cmp.Compare(al, bl); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// head returns a copy of the first limit items.
func head[T any](items []T, limit int) []T {
	limit = max(0, min(limit, len(items)))
	out := make([]T, limit)
	copy(out, items)
	return out
}
