package artwork

import (
	"encoding/json"
	"testing"
)

func TestImageURLsScan(t *testing.T) {
	tests := []struct {
		name string
		src  interface{}
		want []string
	}{
		{name: "null", src: nil, want: nil},
		{name: "empty", src: "", want: nil},
		{name: "legacy plain path", src: "/uploads/1-a.png", want: []string{"/uploads/1-a.png"}},
		{name: "json array bytes", src: []byte(`["/uploads/1-a.png","/uploads/2-b.jpg"]`), want: []string{"/uploads/1-a.png", "/uploads/2-b.jpg"}},
		{name: "empty array", src: "[]", want: nil},
		{name: "blank entries dropped", src: `["", " /uploads/x.gif "]`, want: []string{"/uploads/x.gif"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ImageURLs
			if err := got.Scan(tt.src); err != nil {
				t.Fatalf("Scan: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestImageURLsScanMalformed(t *testing.T) {
	var got ImageURLs
	if err := got.Scan(`["unterminated`); err == nil {
		t.Fatal("expected error for malformed array")
	}
	if err := got.Scan(42); err == nil {
		t.Fatal("expected error for unsupported source type")
	}
}

func TestImageURLsAlwaysSerialiseAsArray(t *testing.T) {
	var empty ImageURLs
	v, err := empty.Value()
	if err != nil || v != "[]" {
		t.Fatalf("Value() = %v, %v; want []", v, err)
	}

	b, _ := json.Marshal(struct {
		URLs ImageURLs `json:"image_url"`
	}{})
	if string(b) != `{"image_url":[]}` {
		t.Fatalf("unexpected json %s", b)
	}

	v, _ = ImageURLs{"/uploads/a.png"}.Value()
	if v != `["/uploads/a.png"]` {
		t.Fatalf("unexpected value %v", v)
	}
}

func TestImageURLsUnmarshalJSON(t *testing.T) {
	var req CreateArtworkRequest

	if err := json.Unmarshal([]byte(`{"image_url":"/uploads/a.png"}`), &req); err != nil {
		t.Fatalf("string form: %v", err)
	}
	if len(req.ImageURL) != 1 || req.ImageURL[0] != "/uploads/a.png" {
		t.Fatalf("unexpected %v", req.ImageURL)
	}

	if err := json.Unmarshal([]byte(`{"image_url":["/uploads/a.png","/uploads/b.png"]}`), &req); err != nil {
		t.Fatalf("array form: %v", err)
	}
	if len(req.ImageURL) != 2 {
		t.Fatalf("unexpected %v", req.ImageURL)
	}

	if err := json.Unmarshal([]byte(`{"image_url":7}`), &req); err == nil {
		t.Fatal("expected error for number")
	}
}

func TestImageURLsUnmarshalJSONEmptyVersusAbsent(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantNil bool
	}{
		{name: "absent keeps images", body: `{}`, wantNil: true},
		{name: "null keeps images", body: `{"image_url":null}`, wantNil: true},
		{name: "empty list clears", body: `{"image_url":[]}`, wantNil: false},
		{name: "blank entries clear", body: `{"image_url":["  "]}`, wantNil: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateArtworkRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if (req.ImageURL == nil) != tt.wantNil || len(req.ImageURL) != 0 {
				t.Fatalf("got %#v, want nil=%v", req.ImageURL, tt.wantNil)
			}
		})
	}
}

func TestIsCanonical(t *testing.T) {
	if !IsCanonical(` ["/uploads/a.png"] `) || !IsCanonical("[]") {
		t.Fatal("arrays are canonical")
	}
	if IsCanonical("/uploads/a.png") || IsCanonical("") || IsCanonical("[broken") {
		t.Fatal("plain or broken values are not canonical")
	}
}

func TestNullableInt(t *testing.T) {
	tests := []struct {
		in      string
		want    *int
		wantErr bool
	}{
		{in: `1999`, want: intPtr(1999)},
		{in: `"1999"`, want: intPtr(1999)},
		{in: `""`, want: nil},
		{in: `null`, want: nil},
		{in: `"abc"`, wantErr: true},
		{in: `19.5`, wantErr: true},
		{in: `true`, wantErr: true},
	}

	for _, tt := range tests {
		var n NullableInt
		err := json.Unmarshal([]byte(tt.in), &n)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.in, err)
			continue
		}
		got := n.Ptr()
		if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
			t.Errorf("%s: got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseRating(t *testing.T) {
	valid := map[string]int{`1`: 1, `5`: 5, ` 3 `: 3}
	for raw, want := range valid {
		got, err := ParseRating(json.RawMessage(raw))
		if err != nil || got != want {
			t.Errorf("ParseRating(%s) = %d, %v; want %d", raw, got, err, want)
		}
	}

	for _, raw := range []string{``, `0`, `6`, `-1`, `3.5`, `"3"`, `true`, `null`, `[3]`} {
		if _, err := ParseRating(json.RawMessage(raw)); err != ErrInvalidRating {
			t.Errorf("ParseRating(%q): expected ErrInvalidRating, got %v", raw, err)
		}
	}
}

func intPtr(v int) *int { return &v }
