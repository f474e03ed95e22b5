package analytics

import "fmt"

// GenreCount is one row of the genre popularity aggregate
type GenreCount struct {
	Genre string `db:"genre" json:"genre"`
	Count int    `db:"count" json:"count"`
}

// YearGenreCount is one row of the year-wise aggregate
type YearGenreCount struct {
	Year  int    `db:"year" json:"year"`
	Genre string `db:"genre" json:"genre"`
	Count int    `db:"count" json:"count"`
}

// AgeGenreCount is one row of the commenter age by genre aggregate
type AgeGenreCount struct {
	Age   int    `db:"age" json:"age"`
	Genre string `db:"genre" json:"genre"`
	Count int    `db:"count" json:"count"`
}

// YearSource selects which field the year-wise aggregate groups by
type YearSource string

const (
	// YearFromField uses the artwork's own year; rows without one are skipped
	YearFromField YearSource = "year"
	// YearFromCreatedAt uses the calendar year the record was created
	YearFromCreatedAt YearSource = "created_at"
)

// ParseYearSource validates a configured year source
func ParseYearSource(s string) (YearSource, error) {
	switch YearSource(s) {
	case "", YearFromField:
		return YearFromField, nil
	case YearFromCreatedAt:
		return YearFromCreatedAt, nil
	}
	return "", fmt.Errorf("unknown analytics year source %q (want year or created_at)", s)
}
