package storage

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestValidateImage(t *testing.T) {
	valid := pngBytes(t)

	t.Run("png accepted", func(t *testing.T) {
		data, mime, err := ValidateImage(bytes.NewReader(valid), 1<<20)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if mime != "image/png" || len(data) != len(valid) {
			t.Fatalf("got mime %q len %d", mime, len(data))
		}
	})

	t.Run("too large", func(t *testing.T) {
		_, _, err := ValidateImage(bytes.NewReader(valid), int64(len(valid)-1))
		if !errors.Is(err, ErrFileTooLarge) {
			t.Fatalf("expected ErrFileTooLarge, got %v", err)
		}
	})

	t.Run("exactly at limit", func(t *testing.T) {
		if _, _, err := ValidateImage(bytes.NewReader(valid), int64(len(valid))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("text rejected", func(t *testing.T) {
		_, _, err := ValidateImage(bytes.NewReader([]byte("hello world")), 1<<20)
		if !errors.Is(err, ErrInvalidMimeType) {
			t.Fatalf("expected ErrInvalidMimeType, got %v", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		_, _, err := ValidateImage(bytes.NewReader(nil), 1<<20)
		if !errors.Is(err, ErrEmptyFile) {
			t.Fatalf("expected ErrEmptyFile, got %v", err)
		}
	})
}

func TestGetExtensionForMime(t *testing.T) {
	cases := map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/gif":  ".gif",
		"image/webp": "",
	}
	for mime, want := range cases {
		if got := GetExtensionForMime(mime); got != want {
			t.Errorf("GetExtensionForMime(%q) = %q, want %q", mime, got, want)
		}
	}
}
