package comment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/artgallery/gallery-api/internal/domain/artwork"
	"github.com/artgallery/gallery-api/internal/pkg/database/dbtest"
)

type countingNotifier struct{ calls int }

func (n *countingNotifier) Invalidate(ctx context.Context) { n.calls++ }

type existsStub struct {
	ok  bool
	err error
}

func (s existsStub) Exists(ctx context.Context, id int64) (bool, error) { return s.ok, s.err }

type memRepo struct{ items []*Comment }

func (m *memRepo) Create(ctx context.Context, c *Comment) error {
	c.ID = int64(len(m.items) + 1)
	m.items = append(m.items, c)
	return nil
}

func (m *memRepo) ListByArtwork(ctx context.Context, artworkID int64) ([]*Comment, error) {
	var out []*Comment
	for _, c := range m.items {
		if c.ArtworkID == artworkID {
			out = append(out, c)
		}
	}
	return out, nil
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()
	notifier := &countingNotifier{}

	svc := NewService(&memRepo{}, existsStub{ok: true})
	svc.SetChangeNotifier(notifier)

	c, err := svc.Create(ctx, 7, 30)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.ID == 0 || c.ArtworkID != 7 || c.Age != 30 || c.CreatedAt.IsZero() {
		t.Fatalf("unexpected comment %+v", c)
	}
	if notifier.calls != 1 {
		t.Fatalf("expected one invalidation, got %d", notifier.calls)
	}

	for _, age := range []int{0, -5, 151} {
		if _, err := svc.Create(ctx, 7, age); !errors.Is(err, ErrInvalidAge) {
			t.Errorf("age %d: expected ErrInvalidAge, got %v", age, err)
		}
	}
}

func TestServiceRequiresArtwork(t *testing.T) {
	ctx := context.Background()

	svc := NewService(&memRepo{}, existsStub{ok: false})
	if _, err := svc.Create(ctx, 1, 20); !errors.Is(err, ErrArtworkNotFound) {
		t.Fatalf("expected ErrArtworkNotFound, got %v", err)
	}
	if _, err := svc.ListByArtwork(ctx, 1); !errors.Is(err, ErrArtworkNotFound) {
		t.Fatalf("expected ErrArtworkNotFound, got %v", err)
	}

	boom := errors.New("db down")
	svc = NewService(&memRepo{}, existsStub{err: boom})
	if _, err := svc.Create(ctx, 1, 20); !errors.Is(err, boom) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
}

func TestCommentRoutes(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)

	artworks := artwork.NewRepository(db)
	a := &artwork.Artwork{Title: "T", Artist: "A", Genre: artwork.GenreOther, IsPublic: true, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	if err := artworks.Create(ctx, a); err != nil {
		t.Fatalf("seed artwork: %v", err)
	}

	artworkHandler := artwork.NewHandler(artwork.NewService(artworks, nil, nil, nil), 0)
	commentHandler := NewHandler(NewService(NewRepository(db), artworks))

	r := chi.NewRouter()
	r.Mount("/api/artworks", artworkHandler.Routes(commentHandler.Mount))

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	path := "/api/artworks/" + jsonInt(a.ID) + "/comments"
	for _, age := range []string{"25", "40"} {
		if rec := post(path, `{"age":`+age+`}`); rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	if rec := post(path, `{"age":200}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for age 200, got %d", rec.Code)
	}
	if rec := post("/api/artworks/999/comments", `{"age":20}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown artwork, got %d", rec.Code)
	}
	if rec := post("/api/artworks/x/comments", `{"age":20}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var got []CommentResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].Age != 40 {
		t.Fatalf("expected two comments newest first, got %+v", got)
	}
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
