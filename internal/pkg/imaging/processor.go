// Package imaging prepares uploaded artwork images for storage.
package imaging

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// ProcessedImage contains the bytes to store for one upload
type ProcessedImage struct {
	Original    []byte
	Thumbnail   []byte // always JPEG
	ContentType string
	Width       int
	Height      int
}

// Config for image processing
type Config struct {
	MaxSide   int // Longest side kept for originals (default 2000)
	ThumbSide int // Thumbnail bounding box (default 400)
	Quality   int // JPEG quality 1-100 (default 85)
}

// DefaultConfig returns default processing config
func DefaultConfig() Config {
	return Config{
		MaxSide:   2000,
		ThumbSide: 400,
		Quality:   85,
	}
}

// formats maps sniffed content types to the encoder used when an original
// has to be rewritten. GIF is absent: animated originals are never re-encoded.
var formats = map[string]imaging.Format{
	"image/jpeg": imaging.JPEG,
	"image/png":  imaging.PNG,
}

// Processor handles image processing
type Processor struct {
	config Config
}

// NewProcessor creates image processor. Zero fields fall back to DefaultConfig.
func NewProcessor(config Config) *Processor {
	def := DefaultConfig()
	if config.MaxSide <= 0 {
		config.MaxSide = def.MaxSide
	}
	if config.ThumbSide <= 0 {
		config.ThumbSide = def.ThumbSide
	}
	if config.Quality <= 0 || config.Quality > 100 {
		config.Quality = def.Quality
	}
	return &Processor{config: config}
}

// Process decodes data to prove it is an image, downscales oversized
// originals and renders a JPEG thumbnail.
func (p *Processor) Process(data []byte, contentType string) (*ProcessedImage, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	result := &ProcessedImage{
		Original:    data,
		ContentType: contentType,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}

	format, reencodable := formats[contentType]
	if reencodable && max(result.Width, result.Height) > p.config.MaxSide {
		resized := imaging.Fit(img, p.config.MaxSide, p.config.MaxSide, imaging.Lanczos)

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(p.config.Quality)); err != nil {
			return nil, fmt.Errorf("failed to encode original: %w", err)
		}
		result.Original = buf.Bytes()
		result.Width = resized.Bounds().Dx()
		result.Height = resized.Bounds().Dy()
	}

	// Fit never upscales, so small images keep their size
	thumb := imaging.Fit(img, p.config.ThumbSide, p.config.ThumbSide, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(p.config.Quality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	result.Thumbnail = buf.Bytes()

	return result, nil
}
