package analytics

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artgallery/gallery-api/internal/domain/artwork"
	"github.com/artgallery/gallery-api/internal/domain/comment"
	"github.com/artgallery/gallery-api/internal/pkg/database/dbtest"
)

type seeder struct {
	t        *testing.T
	artworks artwork.Repository
	comments comment.Repository
}

func newSeeder(t *testing.T, db *sqlx.DB) *seeder {
	return &seeder{t: t, artworks: artwork.NewRepository(db), comments: comment.NewRepository(db)}
}

func (s *seeder) artwork(genre string, year int, createdAt time.Time) int64 {
	s.t.Helper()
	a := &artwork.Artwork{
		Title:     "t",
		Artist:    "a",
		Genre:     artwork.Genre(genre),
		IsPublic:  true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if year > 0 {
		a.Year = sql.NullInt64{Int64: int64(year), Valid: true}
	}
	require.NoError(s.t, s.artworks.Create(context.Background(), a))
	return a.ID
}

func (s *seeder) comment(artworkID int64, age int) {
	s.t.Helper()
	require.NoError(s.t, s.comments.Create(context.Background(), &comment.Comment{
		ArtworkID: artworkID,
		Age:       age,
		CreatedAt: time.Now().UTC(),
	}))
}

func TestGenrePopularity(t *testing.T) {
	db := dbtest.New(t)
	seed := newSeeder(t, db)
	now := time.Now().UTC()

	seed.artwork("Painting", 0, now)
	seed.artwork("Painting", 0, now)
	seed.artwork("Sculpture", 0, now)
	seed.artwork("painting", 0, now) // grouping is case sensitive

	rows, err := NewRepository(db).GenrePopularity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []GenreCount{
		{Genre: "Painting", Count: 2},
		{Genre: "Sculpture", Count: 1},
		{Genre: "painting", Count: 1},
	}, rows)
}

func TestGenrePopularityEmpty(t *testing.T) {
	rows, err := NewRepository(dbtest.New(t)).GenrePopularity(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestYearWiseSources(t *testing.T) {
	db := dbtest.New(t)
	seed := newSeeder(t, db)

	created2023 := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	created2024 := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

	seed.artwork("Painting", 1889, created2023)
	seed.artwork("Painting", 1889, created2024)
	seed.artwork("Sculpture", 1902, created2024)
	seed.artwork("Other", 0, created2024) // no year

	repo := NewRepository(db)
	ctx := context.Background()

	byField, err := repo.YearWise(ctx, YearFromField)
	require.NoError(t, err)
	assert.Equal(t, []YearGenreCount{
		{Year: 1889, Genre: "Painting", Count: 2},
		{Year: 1902, Genre: "Sculpture", Count: 1},
	}, byField)

	byCreated, err := repo.YearWise(ctx, YearFromCreatedAt)
	require.NoError(t, err)
	assert.Equal(t, []YearGenreCount{
		{Year: 2023, Genre: "Painting", Count: 1},
		{Year: 2024, Genre: "Other", Count: 1},
		{Year: 2024, Genre: "Painting", Count: 1},
		{Year: 2024, Genre: "Sculpture", Count: 1},
	}, byCreated)

	_, err = repo.YearWise(ctx, YearSource("updated_at"))
	assert.Error(t, err)
}

func TestAgeGenreInnerJoin(t *testing.T) {
	db := dbtest.New(t)
	seed := newSeeder(t, db)
	now := time.Now().UTC()

	commented := seed.artwork("Photography", 0, now)
	seed.artwork("Sculpture", 0, now) // no comments: must not appear
	seed.comment(commented, 25)
	seed.comment(commented, 40)

	// Comment pointing at a deleted artwork is dropped by the join
	gone := seed.artwork("Other", 0, now)
	seed.comment(gone, 30)
	require.NoError(t, artwork.NewRepository(db).Delete(context.Background(), gone))

	rows, err := NewRepository(db).AgeGenre(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []AgeGenreCount{
		{Age: 25, Genre: "Photography", Count: 1},
		{Age: 40, Genre: "Photography", Count: 1},
	}, rows)
}

func TestYearExpr(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql", "sqlite3"} {
		expr, err := yearExpr(driver, YearFromCreatedAt)
		require.NoError(t, err, driver)
		assert.Contains(t, expr, "created_at", driver)

		expr, err = yearExpr(driver, YearFromField)
		require.NoError(t, err)
		assert.Equal(t, "year", expr)
	}

	_, err := yearExpr("oracle", YearFromCreatedAt)
	assert.Error(t, err)
}
