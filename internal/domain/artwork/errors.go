package artwork

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrArtworkNotFound = errors.New("artwork not found")
	ErrInvalidID       = errors.New("artwork id must be a positive integer")
	ErrInvalidRating   = errors.New("rating must be an integer between 1 and 5")
)

// ValidationErrors maps field names to messages
type ValidationErrors map[string]string

func (e ValidationErrors) Error() string {
	fields := make([]string, 0, len(e))
	for k := range e {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, k := range fields {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
