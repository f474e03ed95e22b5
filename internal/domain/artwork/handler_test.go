package artwork

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/artgallery/gallery-api/internal/domain/upload"
	"github.com/artgallery/gallery-api/internal/pkg/database/dbtest"
	"github.com/artgallery/gallery-api/internal/pkg/response"
	"github.com/artgallery/gallery-api/internal/pkg/storage"
)

type testServer struct {
	router    http.Handler
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dir := t.TempDir()
	st, err := storage.NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	images := upload.NewService(st, nil, 0, nil)
	svc := NewService(NewRepository(dbtest.New(t)), images, nil, nil)

	r := chi.NewRouter()
	r.Mount("/api/artworks", NewHandler(svc, 0).Routes())
	return &testServer{router: r, uploadDir: dir}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) fileExists(url string) bool {
	key, ok := upload.KeyFromURL(url)
	if !ok {
		return false
	}
	_, err := os.Stat(filepath.Join(s.uploadDir, key))
	return err == nil
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, withImage bool) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if withImage {
		fw, _ := mw.CreateFormFile("image", "art.png")
		img := image.NewRGBA(image.Rect(0, 0, 12, 12))
		img.Set(3, 3, color.RGBA{R: 255, A: 255})
		png.Encode(fw, img)
	}
	mw.Close()

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeArtwork(t *testing.T, rec *httptest.ResponseRecorder) ArtworkResponse {
	t.Helper()
	var a ArtworkResponse
	if err := json.NewDecoder(rec.Body).Decode(&a); err != nil {
		t.Fatalf("decode artwork: %v (body %s)", err, rec.Body.String())
	}
	return a
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.Response
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Error == nil {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
	return body.Error.Code
}

func TestHandlerCreateJSONThenGet(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, jsonRequest(http.MethodPost, "/api/artworks",
		`{"title":"Mona Lisa","artist":"Leonardo","genre":"Painting","year":"1503","rating":5,"image_url":"/uploads/1-a.png"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeArtwork(t, rec)

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/artworks/"+itoa(created.ID), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decodeArtwork(t, rec)
	if got.Title != "Mona Lisa" || got.Artist != "Leonardo" || got.Genre != GenrePainting {
		t.Fatalf("unexpected artwork %+v", got)
	}
	if got.Year == nil || *got.Year != 1503 || got.Rating != 5 {
		t.Fatalf("unexpected year/rating %+v", got)
	}
	if len(got.ImageURL) != 1 || len(got.ThumbnailURLs) != 1 || got.ThumbnailURLs[0] != "/uploads/1-a_thumb.jpg" {
		t.Fatalf("unexpected images %v %v", got.ImageURL, got.ThumbnailURLs)
	}
}

func TestHandlerCreateValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, jsonRequest(http.MethodPost, "/api/artworks", `{"title":"","artist":"x","genre":"Poetry"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body response.Response
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Error.Code != "VALIDATION_ERROR" || body.Error.Details["title"] == "" || body.Error.Details["genre"] == "" {
		t.Fatalf("unexpected error %+v", body.Error)
	}

	rec = srv.do(t, jsonRequest(http.MethodPost, "/api/artworks", `{"title":`))
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "BAD_REQUEST" {
		t.Fatalf("malformed json: got %d", rec.Code)
	}
}

func TestHandlerIDValidation(t *testing.T) {
	srv := newTestServer(t)

	for _, id := range []string{"abc", "-1", "0", "1.5", "+3"} {
		rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/artworks/"+id, nil))
		if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "INVALID_ID" {
			t.Errorf("id %q: expected 400 INVALID_ID, got %d", id, rec.Code)
		}
	}

	rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/artworks/12345", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandlerRate(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, jsonRequest(http.MethodPost, "/api/artworks", `{"title":"A","artist":"B","rating":2}`))
	created := decodeArtwork(t, rec)
	path := "/api/artworks/" + itoa(created.ID)

	for _, body := range []string{`{"rating":0}`, `{"rating":6}`, `{"rating":"3"}`, `{"rating":3.5}`, `{"rating":null}`, `{}`} {
		rec := srv.do(t, jsonRequest(http.MethodPatch, path, body))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
	}

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, path, nil))
	if got := decodeArtwork(t, rec); got.Rating != 2 {
		t.Fatalf("rejected ratings changed the stored value to %d", got.Rating)
	}

	rec = srv.do(t, jsonRequest(http.MethodPatch, path, `{"rating":4}`))
	if rec.Code != http.StatusOK || decodeArtwork(t, rec).Rating != 4 {
		t.Fatalf("valid rating failed: %d", rec.Code)
	}

	rec = srv.do(t, jsonRequest(http.MethodPatch, "/api/artworks/999", `{"rating":4}`))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandlerMultipartLifecycle(t *testing.T) {
	srv := newTestServer(t)

	fields := map[string]string{"title": "Wave", "artist": "Hokusai", "genre": "Other", "year": "1831"}
	rec := srv.do(t, multipartRequest(t, http.MethodPost, "/api/artworks", fields, true))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeArtwork(t, rec)
	if len(created.ImageURL) != 1 || !srv.fileExists(created.ImageURL[0]) {
		t.Fatalf("image not stored: %v", created.ImageURL)
	}
	oldImage := created.ImageURL[0]
	path := "/api/artworks/" + itoa(created.ID)

	// Replace the image
	fields["title"] = "The Great Wave"
	rec = srv.do(t, multipartRequest(t, http.MethodPut, path, fields, true))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeArtwork(t, rec)
	if updated.Title != "The Great Wave" || updated.ImageURL[0] == oldImage {
		t.Fatalf("unexpected update %+v", updated)
	}
	if srv.fileExists(oldImage) || srv.fileExists(upload.ThumbnailURL(oldImage)) {
		t.Fatal("previous image and thumbnail must be removed")
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatal("created_at changed on update")
	}

	rec = srv.do(t, httptest.NewRequest(http.MethodDelete, path, nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Artwork deleted successfully") {
		t.Fatalf("delete failed: %d %s", rec.Code, rec.Body.String())
	}
	if srv.fileExists(updated.ImageURL[0]) {
		t.Fatal("image must be removed on delete")
	}

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestHandlerMultipartRequiresGenre(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, multipartRequest(t, http.MethodPost, "/api/artworks", map[string]string{"title": "T", "artist": "A"}, false))
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "VALIDATION_ERROR" {
		t.Fatalf("expected validation error, got %d", rec.Code)
	}

	rec = srv.do(t, multipartRequest(t, http.MethodPost, "/api/artworks", map[string]string{"title": "T", "artist": "A", "genre": "Other", "year": "soon"}, false))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric year, got %d", rec.Code)
	}
}

func TestHandlerListFilters(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []string{
		`{"title":"Starry Night","artist":"Van Gogh","genre":"Painting"}`,
		`{"title":"David","artist":"Michelangelo","genre":"Sculpture"}`,
		`{"title":"Sunflowers","artist":"Van Gogh","genre":"Painting"}`,
	} {
		if rec := srv.do(t, jsonRequest(http.MethodPost, "/api/artworks", body)); rec.Code != http.StatusCreated {
			t.Fatalf("seed failed: %d", rec.Code)
		}
	}

	list := func(query string) []ArtworkResponse {
		rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/artworks"+query, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("list %s: %d", query, rec.Code)
		}
		var out []ArtworkResponse
		json.NewDecoder(rec.Body).Decode(&out)
		return out
	}

	if got := list(""); len(got) != 3 || got[0].Title != "Sunflowers" {
		t.Fatalf("expected newest first, got %+v", got)
	}
	if got := list("?q=michel"); len(got) != 1 || got[0].Title != "David" {
		t.Fatalf("artist search failed: %+v", got)
	}
	if got := list("?genre=Painting&sort=title_asc"); len(got) != 2 || got[0].Title != "Starry Night" {
		t.Fatalf("genre filter + sort failed: %+v", got)
	}

	rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/artworks?sort=sideways", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad sort, got %d", rec.Code)
	}

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/artworks/suggest?q=van", nil))
	var suggestions []ArtworkResponse
	json.NewDecoder(rec.Body).Decode(&suggestions)
	if len(suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(suggestions))
	}
}

func TestHandlerEmptyListIsArray(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/artworks", nil))
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected [], got %s", rec.Body.String())
	}
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestHandlerSharedImageOutlivesOneOwner(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, multipartRequest(t, http.MethodPost, "/api/artworks",
		map[string]string{"title": "Original", "artist": "Monet", "genre": "Painting"}, true))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	first := decodeArtwork(t, rec)
	shared := first.ImageURL[0]

	rec = srv.do(t, jsonRequest(http.MethodPost, "/api/artworks",
		`{"title":"Copy","artist":"Monet","genre":"Painting","image_url":["`+shared+`"]}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	second := decodeArtwork(t, rec)

	rec = srv.do(t, httptest.NewRequest(http.MethodDelete, "/api/artworks/"+itoa(first.ID), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete failed: %d %s", rec.Code, rec.Body.String())
	}
	if !srv.fileExists(shared) {
		t.Fatal("image still referenced by another artwork was removed")
	}

	// An explicit empty list clears the images; the last owner takes the file with it
	path := "/api/artworks/" + itoa(second.ID)
	rec = srv.do(t, jsonRequest(http.MethodPut, path,
		`{"title":"Copy","artist":"Monet","genre":"Painting","image_url":[]}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeArtwork(t, rec); len(got.ImageURL) != 0 {
		t.Fatalf("expected no images after clearing, got %v", got.ImageURL)
	}
	if srv.fileExists(shared) {
		t.Fatal("unreferenced image must be removed")
	}

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, path, nil))
	if got := decodeArtwork(t, rec); len(got.ImageURL) != 0 {
		t.Fatalf("cleared list not stored, got %v", got.ImageURL)
	}
}
