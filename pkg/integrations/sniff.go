package integrations

import (
	"bytes"
	"image"

	// Decoders registered for format sniffing.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Format is a canonical image file extension without the dot.
type Format string

const (
	FormatJPEG Format = "jpg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
	FormatWebP Format = "webp"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

var formatByDecoder = map[string]Format{
	"jpeg": FormatJPEG,
	"png":  FormatPNG,
	"gif":  FormatGIF,
	"webp": FormatWebP,
	"bmp":  FormatBMP,
	"tiff": FormatTIFF,
}

// Classification is the outcome of sniffing: either a detected format or
// the fallback used when the bytes could not be recognised.
type Classification struct {
	Format  Format
	Sniffed bool
}

// Detected returns a classification for a recognised format.
func Detected(f Format) Classification {
	return Classification{Format: f, Sniffed: true}
}

// Fallback returns a classification for unrecognised content.
func Fallback(f Format) Classification {
	return Classification{Format: f}
}

// Extension returns the format with a leading dot.
func (c Classification) Extension() string {
	return "." + string(c.Format)
}

// ImageSniffer classifies images by decoding their header.
type ImageSniffer struct {
	fallback Format
}

func NewImageSniffer() *ImageSniffer {
	return &ImageSniffer{fallback: FormatJPEG}
}

// Classify inspects the image header and never fails.
func (s *ImageSniffer) Classify(img []byte) Classification {
	_, name, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return Fallback(s.fallback)
	}
	f, ok := formatByDecoder[name]
	if !ok {
		return Fallback(s.fallback)
	}
	return Detected(f)
}
