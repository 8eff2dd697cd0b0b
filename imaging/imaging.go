// Package imaging decodes and re-encodes raster images between PNG, JPEG,
// WebP and GIF. Dimensions are preserved; only the encoding changes.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/HugoSmits86/nativewebp"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sagarc03/fragments"
	"golang.org/x/image/webp"
)

const DefaultJPEGQuality = 90

// Options configures a Transcoder.
type Options struct {
	// JPEGQuality is the JPEG encoder quality, 1-100 (default: 90).
	JPEGQuality int
}

// Transcoder implements fragments.ImageTranscoder.
type Transcoder struct {
	jpegQuality int
}

func New(opts Options) (*Transcoder, error) {
	quality := opts.JPEGQuality
	if quality == 0 {
		quality = DefaultJPEGQuality
	}
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("new transcoder: jpeg quality must be between 1 and 100, got %d", quality)
	}
	return &Transcoder{jpegQuality: quality}, nil
}

// Detect returns the image mime type of src from its content, or an empty
// string when src is not a supported image.
func Detect(src []byte) string {
	mtype := mimetype.Detect(src)
	for _, t := range []string{fragments.TypePNG, fragments.TypeJPEG, fragments.TypeWebP, fragments.TypeGIF} {
		if mtype.Is(t) {
			return t
		}
	}
	return ""
}

// Transcode decodes src, whose format is sniffed from its content rather than
// taken from the declared type, and encodes it as targetType.
func (t *Transcoder) Transcode(src []byte, targetType string) ([]byte, error) {
	img, err := decode(src)
	if err != nil {
		return nil, fmt.Errorf("transcode: %w", err)
	}

	var buf bytes.Buffer

	switch targetType {
	case fragments.TypePNG:
		err = png.Encode(&buf, img)
	case fragments.TypeJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: t.jpegQuality})
	case fragments.TypeGIF:
		err = gif.Encode(&buf, img, nil)
	case fragments.TypeWebP:
		err = nativewebp.Encode(&buf, img, nil)
	default:
		return nil, fmt.Errorf("transcode to %s: %w", targetType, fragments.ErrUnsupportedConversion)
	}
	if err != nil {
		return nil, fmt.Errorf("transcode: encode %s: %w", targetType, err)
	}

	return buf.Bytes(), nil
}

func decode(src []byte) (image.Image, error) {
	r := bytes.NewReader(src)

	var (
		img image.Image
		err error
	)

	switch sourceType := Detect(src); sourceType {
	case fragments.TypePNG:
		img, err = png.Decode(r)
	case fragments.TypeJPEG:
		img, err = jpeg.Decode(r)
	case fragments.TypeGIF:
		img, err = gif.Decode(r)
	case fragments.TypeWebP:
		img, err = webp.Decode(r)
	default:
		return nil, fmt.Errorf("decode: unrecognized image data (%s)", mimetype.Detect(src).String())
	}
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	return img, nil
}
