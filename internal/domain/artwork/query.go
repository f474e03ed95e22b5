package artwork

import (
	"sort"
	"strings"
)

// SortOrder selects the list ordering
type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortOldest    SortOrder = "oldest"
	SortTitleAsc  SortOrder = "title_asc"
	SortTitleDesc SortOrder = "title_desc"
)

// GenreAll disables the genre filter
const GenreAll = "All"

// ParseSort validates a sort parameter. Empty means newest.
func ParseSort(s string) (SortOrder, bool) {
	switch SortOrder(s) {
	case "":
		return SortNewest, true
	case SortNewest, SortOldest, SortTitleAsc, SortTitleDesc:
		return SortOrder(s), true
	}
	return "", false
}

// Query describes the list filter, search and sort
type Query struct {
	Genre string
	Term  string
	Sort  SortOrder
}

// ApplyQuery filters by genre, then by search term, then sorts.
// The input slice is left untouched.
func ApplyQuery(items []*Artwork, q Query) []*Artwork {
	term := strings.ToLower(strings.TrimSpace(q.Term))

	out := make([]*Artwork, 0, len(items))
	for _, a := range items {
		if q.Genre != "" && q.Genre != GenreAll && string(a.Genre) != q.Genre {
			continue
		}
		if term != "" && !matches(a, term) {
			continue
		}
		out = append(out, a)
	}

	var less func(a, b *Artwork) bool
	switch q.Sort {
	case SortOldest:
		less = func(a, b *Artwork) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		}
	case SortTitleAsc:
		less = func(a, b *Artwork) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case SortTitleDesc:
		less = func(a, b *Artwork) bool {
			return strings.ToLower(a.Title) > strings.ToLower(b.Title)
		}
	default:
		less = func(a, b *Artwork) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })

	return out
}

func matches(a *Artwork, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(a.Title), lowerTerm) ||
		strings.Contains(strings.ToLower(a.Artist), lowerTerm)
}
