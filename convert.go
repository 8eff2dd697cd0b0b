package fragments

import (
	"errors"
	"fmt"
)

// MarkdownRenderer renders markdown source to HTML.
type MarkdownRenderer interface {
	Render(src []byte) ([]byte, error)
}

// ImageTranscoder decodes a raster image and re-encodes it as targetType,
// preserving pixel dimensions.
type ImageTranscoder interface {
	Transcode(src []byte, targetType string) ([]byte, error)
}

// conversionMatrix lists the targets reachable from each family. Every row
// contains the family's own mime types.
var conversionMatrix = map[Family][]string{
	FamilyPlain:    {TypeTextPlain},
	FamilyMarkdown: {TypeTextPlain, TypeMarkdown, TypeHTML},
	FamilyHTML:     {TypeTextPlain, TypeHTML},
	FamilyJSON:     {TypeTextPlain, TypeJSON},
	FamilyImage:    {TypePNG, TypeJPEG, TypeWebP, TypeGIF},
}

// Converter maps (data, source type, target type) to converted data. It holds
// no state beyond the injected rendering services.
type Converter struct {
	markdown MarkdownRenderer
	images   ImageTranscoder
}

func NewConverter(markdown MarkdownRenderer, images ImageTranscoder) (*Converter, error) {
	if markdown == nil {
		return nil, errors.New("new converter: markdown renderer is required")
	}
	if images == nil {
		return nil, errors.New("new converter: image transcoder is required")
	}
	return &Converter{markdown: markdown, images: images}, nil
}

// Formats returns the targets reachable from mimeType, or nil when mimeType is
// not the parameter-free form of a registered type.
func (c *Converter) Formats(mimeType string) []string {
	family, ok := FamilyOf(mimeType)
	if !ok {
		return nil
	}
	row := conversionMatrix[family]
	formats := make([]string, len(row))
	copy(formats, row)
	return formats
}

// CanConvert reports whether targetType is in the matrix row of sourceType.
func (c *Converter) CanConvert(sourceType, targetType string) bool {
	for _, f := range c.Formats(sourceType) {
		if f == targetType {
			return true
		}
	}
	return false
}

// Convert converts data from sourceType to targetType. sourceType must be a
// parameter-free mime type. Unreachable targets return ErrUnsupportedConversion;
// rendering and codec failures are returned wrapped.
//
// The text/plain view of markdown, HTML and JSON is the raw source bytes.
func (c *Converter) Convert(data []byte, sourceType, targetType string) ([]byte, error) {
	if !c.CanConvert(sourceType, targetType) {
		return nil, fmt.Errorf("convert %s to %s: %w", sourceType, targetType, ErrUnsupportedConversion)
	}

	family, _ := FamilyOf(sourceType)

	if family == FamilyImage {
		out, err := c.images.Transcode(data, targetType)
		if err != nil {
			return nil, fmt.Errorf("convert %s to %s: %w", sourceType, targetType, err)
		}
		return out, nil
	}

	if sourceType == targetType || targetType == TypeTextPlain {
		return data, nil
	}

	if family == FamilyMarkdown && targetType == TypeHTML {
		out, err := c.markdown.Render(data)
		if err != nil {
			return nil, fmt.Errorf("convert %s to %s: %w", sourceType, targetType, err)
		}
		return out, nil
	}

	return nil, fmt.Errorf("convert %s to %s: %w", sourceType, targetType, ErrUnsupportedConversion)
}
