package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artgallery/gallery-api/internal/config"
	"github.com/artgallery/gallery-api/internal/domain/artwork"
	"github.com/artgallery/gallery-api/internal/pkg/database/dbtest"
	"github.com/artgallery/gallery-api/internal/pkg/storage"
)

type fixture struct {
	env *env
	dir string
	out *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	st, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return &fixture{
		env: &env{
			cfg: &config.Config{
				SweepGrace:          time.Hour,
				AnalyticsYearSource: "year",
			},
			db:    dbtest.New(t),
			store: st,
			out:   out,
		},
		dir: dir,
		out: out,
	}
}

func (f *fixture) run(t *testing.T, args ...string) error {
	t.Helper()
	f.out.Reset()
	cmd := rootCommand(f.env)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return cmd.Execute()
}

func (f *fixture) putOld(t *testing.T, key string) {
	t.Helper()
	require.NoError(t, f.env.store.Put(context.Background(), key, strings.NewReader("x"), "image/png"))
	old := time.Now().Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(f.dir, key), old, old))
}

func TestMigrateNormalizesImages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.run(t, "migrate"))
	assert.Contains(t, f.out.String(), "schema up to date")

	now := time.Now().UTC()
	_, err := f.env.db.ExecContext(ctx, f.env.db.Rebind(`
		INSERT INTO artworks (title, artist, genre, rating, image_url, is_popular, is_public, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, 0, 1, ?, ?)`),
		"legacy", "someone", "Other", "/uploads/1-legacy.jpg", now, now)
	require.NoError(t, err)

	require.NoError(t, f.run(t, "migrate", "--normalize-images"))
	assert.Contains(t, f.out.String(), "normalized image_url on 1 artworks")

	var raw string
	require.NoError(t, f.env.db.GetContext(ctx, &raw, `SELECT image_url FROM artworks`))
	assert.Equal(t, `["/uploads/1-legacy.jpg"]`, raw)
}

func TestSweepCommand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	kept := &artwork.Artwork{
		Title:     "Irises",
		Artist:    "Van Gogh",
		Genre:     artwork.GenrePainting,
		ImageURLs: artwork.ImageURLs{"/uploads/1-kept.png"},
		IsPublic:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, artwork.NewRepository(f.env.db).Create(ctx, kept))

	f.putOld(t, "1-kept.png")
	f.putOld(t, "2-orphan.png")

	require.NoError(t, f.run(t, "sweep", "--dry-run"))
	assert.Contains(t, f.out.String(), "would delete 2-orphan.png")
	exists, err := f.env.store.Exists(ctx, "2-orphan.png")
	require.NoError(t, err)
	assert.True(t, exists, "dry run keeps files")

	require.NoError(t, f.run(t, "sweep"))
	assert.Contains(t, f.out.String(), "deleted 2-orphan.png")

	exists, err = f.env.store.Exists(ctx, "2-orphan.png")
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = f.env.store.Exists(ctx, "1-kept.png")
	require.NoError(t, err)
	assert.True(t, exists)

	// A long grace keeps everything
	f.putOld(t, "3-orphan.png")
	require.NoError(t, f.run(t, "sweep", "--grace", "24h"))
	assert.Contains(t, f.out.String(), "too_young=1")
}

func TestStatsCommand(t *testing.T) {
	f := newFixture(t)
	repo := artwork.NewRepository(f.env.db)
	ctx := context.Background()

	for _, g := range []artwork.Genre{artwork.GenrePainting, artwork.GenrePainting, artwork.GenreSculpture} {
		require.NoError(t, repo.Create(ctx, &artwork.Artwork{
			Title:     "t",
			Artist:    "a",
			Genre:     g,
			IsPublic:  true,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}))
	}

	require.NoError(t, f.run(t, "stats"))

	var report statsReport
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &report))
	assert.Equal(t, "year", string(report.YearSource))
	require.Len(t, report.GenrePopularity, 2)
	assert.Equal(t, "Painting", report.GenrePopularity[0].Genre)
	assert.Equal(t, 2, report.GenrePopularity[0].Count)
	assert.Empty(t, report.YearWise)
	assert.Empty(t, report.AgeGenre)

	assert.Error(t, f.run(t, "stats", "--year-source", "updated_at"))
}
