package artwork

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ImageURLs is the ordered list of image paths of an artwork.
// It is stored as JSON array text. Older rows hold a single bare path,
// which scans into a one-element list.
type ImageURLs []string

// Scan implements sql.Scanner
func (u *ImageURLs) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*u = nil
		return nil
	case []byte:
		return u.parse(string(v))
	case string:
		return u.parse(v)
	default:
		return fmt.Errorf("artwork: cannot scan %T into ImageURLs", src)
	}
}

func (u *ImageURLs) parse(s string) error {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || s == "null":
		*u = nil
		return nil
	case strings.HasPrefix(s, "["):
		var list []string
		if err := json.Unmarshal([]byte(s), &list); err != nil {
			return fmt.Errorf("artwork: malformed image_url: %w", err)
		}
		*u = compact(list)
		return nil
	default:
		*u = ImageURLs{s}
		return nil
	}
}

// Value implements driver.Valuer
func (u ImageURLs) Value() (driver.Value, error) {
	if u == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(u))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// MarshalJSON always renders a list, never null
func (u ImageURLs) MarshalJSON() ([]byte, error) {
	if u == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(u))
}

// UnmarshalJSON accepts a single path, a list of paths or null. An explicit
// list, even an empty one, decodes non-nil so updates can tell "clear the
// images" apart from an absent field.
func (u *ImageURLs) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = compact([]string{s})
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("image_url must be a string or an array of strings")
	}
	*u = append(ImageURLs{}, compact(list)...)
	return nil
}

// IsCanonical reports whether raw column text is already a JSON array
func IsCanonical(raw string) bool {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "[") {
		return false
	}
	var list []string
	return json.Unmarshal([]byte(raw), &list) == nil
}

func compact(list []string) ImageURLs {
	out := make(ImageURLs, 0, len(list))
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
