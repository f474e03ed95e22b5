package upload

import (
	"path"
	"strings"
)

// URLPrefix is the public path under which stored images are served
const URLPrefix = "/uploads/"

const thumbSuffix = "_thumb.jpg"

// Image describes a stored upload
type Image struct {
	Key          string
	URL          string
	ThumbnailURL string
	ContentType  string
	Size         int64
	Width        int
	Height       int
}

// KeyFromURL extracts the storage key from a public "/uploads/<name>" path.
// It returns false for anything that does not point into the upload store.
func KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, URLPrefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, URLPrefix)
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}

// URLForKey returns the public path for a storage key
func URLForKey(key string) string {
	return URLPrefix + key
}

// ThumbnailKey returns the key of the thumbnail rendered for key
func ThumbnailKey(key string) string {
	return strings.TrimSuffix(key, path.Ext(key)) + thumbSuffix
}

// IsThumbnailKey reports whether key names a rendered thumbnail
func IsThumbnailKey(key string) bool {
	return strings.HasSuffix(key, thumbSuffix)
}

// ThumbnailURL returns the thumbnail path for an image URL, or "" if the
// URL does not point into the upload store
func ThumbnailURL(url string) string {
	key, ok := KeyFromURL(url)
	if !ok {
		return ""
	}
	return URLForKey(ThumbnailKey(key))
}
