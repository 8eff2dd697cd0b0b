package fragments

import (
	"fmt"
	"mime"
	"sort"
	"strings"
)

// Family is a conversion-compatibility class of media types.
type Family string

const (
	FamilyPlain    Family = "plain"
	FamilyMarkdown Family = "markdown"
	FamilyHTML     Family = "html"
	FamilyJSON     Family = "json"
	FamilyImage    Family = "image"
)

const (
	TypeTextPlain     = "text/plain"
	TypeTextPlainUTF8 = "text/plain; charset=utf-8"
	TypeMarkdown      = "text/markdown"
	TypeHTML          = "text/html"
	TypeJSON          = "application/json"
	TypePNG           = "image/png"
	TypeJPEG          = "image/jpeg"
	TypeWebP          = "image/webp"
	TypeGIF           = "image/gif"
)

// supportedTypes is matched by exact string equality. The charset-qualified
// and bare text/plain entries are independent registrations.
var supportedTypes = map[string]Family{
	TypeTextPlain:     FamilyPlain,
	TypeTextPlainUTF8: FamilyPlain,
	TypeMarkdown:      FamilyMarkdown,
	TypeHTML:          FamilyHTML,
	TypeJSON:          FamilyJSON,
	TypePNG:           FamilyImage,
	TypeJPEG:          FamilyImage,
	TypeWebP:          FamilyImage,
	TypeGIF:           FamilyImage,
}

var extensionTypes = map[string]string{
	"txt":  TypeTextPlain,
	"md":   TypeMarkdown,
	"html": TypeHTML,
	"json": TypeJSON,
	"png":  TypePNG,
	"jpg":  TypeJPEG,
	"jpeg": TypeJPEG,
	"webp": TypeWebP,
	"gif":  TypeGIF,
}

// IsSupportedType reports whether value is a registered type string.
// No media-type parsing is applied: "text/plain" and
// "text/plain; charset=utf-8" are distinct entries.
func IsSupportedType(value string) bool {
	_, ok := supportedTypes[value]
	return ok
}

// SupportedTypes returns the registered type strings in sorted order.
func SupportedTypes() []string {
	types := make([]string, 0, len(supportedTypes))
	for t := range supportedTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// FamilyOf returns the conversion family of a registered type string.
func FamilyOf(value string) (Family, bool) {
	f, ok := supportedTypes[value]
	return f, ok
}

// ParseMimeType returns contentType without parameters, e.g.
// "text/html; charset=utf-8" -> "text/html".
func ParseMimeType(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("parse mime type %q: %w: %w", contentType, ErrInvalidInput, err)
	}
	return mediaType, nil
}

// TypeForExtension maps a file extension (with or without the leading dot)
// to a registered type.
func TypeForExtension(ext string) (string, bool) {
	t, ok := extensionTypes[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return t, ok
}

// ExtensionForType returns the canonical extension for a type, ignoring parameters.
func ExtensionForType(contentType string) (string, bool) {
	mimeType, err := ParseMimeType(contentType)
	if err != nil {
		return "", false
	}
	switch mimeType {
	case TypeTextPlain:
		return "txt", true
	case TypeMarkdown:
		return "md", true
	case TypeHTML:
		return "html", true
	case TypeJSON:
		return "json", true
	case TypePNG:
		return "png", true
	case TypeJPEG:
		return "jpg", true
	case TypeWebP:
		return "webp", true
	case TypeGIF:
		return "gif", true
	default:
		return "", false
	}
}
