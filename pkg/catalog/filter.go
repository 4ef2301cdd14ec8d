package catalog

import (
	"strings"

	"github.com/openshelf/bookswap/pkg/models"
)

// Filter holds the search criteria a caller passed in. All criteria are
// explicit parameters; the index keeps no per-caller state.
type Filter struct {
	Query         string   // matches title, author or description, case-insensitive
	Neighborhoods []string // empty means no neighborhood restriction
}

// Match reports whether the book satisfies every non-empty criterion.
func (f Filter) Match(b *models.Book) bool {
	if len(f.Neighborhoods) > 0 && !inNeighborhoods(b.Neighborhood, f.Neighborhoods) {
		return false
	}
	if q := strings.TrimSpace(f.Query); q != "" && !matchesQuery(b, q) {
		return false
	}
	return true
}

func inNeighborhoods(hood string, set []string) bool {
	for _, n := range set {
		if n == hood {
			return true
		}
	}
	return false
}

// matchesQuery is a substring match against title, author and
// description; any field hit is a match.
func matchesQuery(b *models.Book, q string) bool {
	q = strings.ToLower(q)
	if strings.Contains(strings.ToLower(b.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(b.Author), q) {
		return true
	}
	return strings.Contains(strings.ToLower(b.Description), q)
}
