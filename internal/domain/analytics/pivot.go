package analytics

import "sort"

// ChartRow is one category of a pivoted aggregate: the dimension value
// plus one count per genre.
type ChartRow map[string]interface{}

type cell struct {
	key   int
	genre string
	count int
}

// PivotYearWise turns (year, genre, count) rows into one row per year
func PivotYearWise(rows []YearGenreCount) []ChartRow {
	cells := make([]cell, len(rows))
	for i, r := range rows {
		cells[i] = cell{key: r.Year, genre: r.Genre, count: r.Count}
	}
	return pivot("year", cells)
}

// PivotAgeGenre turns (age, genre, count) rows into one row per age
func PivotAgeGenre(rows []AgeGenreCount) []ChartRow {
	cells := make([]cell, len(rows))
	for i, r := range rows {
		cells[i] = cell{key: r.Age, genre: r.Genre, count: r.Count}
	}
	return pivot("age", cells)
}

// pivot keeps category order as given and fills absent genres with 0 so
// every row has the same columns.
func pivot(dimension string, cells []cell) []ChartRow {
	genreSet := map[string]struct{}{}
	for _, c := range cells {
		genreSet[c.genre] = struct{}{}
	}
	genres := make([]string, 0, len(genreSet))
	for g := range genreSet {
		genres = append(genres, g)
	}
	sort.Strings(genres)

	out := []ChartRow{}
	index := map[int]ChartRow{}
	for _, c := range cells {
		row, ok := index[c.key]
		if !ok {
			row = ChartRow{dimension: c.key}
			for _, g := range genres {
				row[g] = 0
			}
			index[c.key] = row
			out = append(out, row)
		}
		row[c.genre] = row[c.genre].(int) + c.count
	}
	return out
}
