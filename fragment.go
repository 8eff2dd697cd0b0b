package fragments

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Fragment binds one metadata Record to one payload for one owner. A Fragment
// is a transient view; the backends hold the authoritative state.
//
// Fragments are obtained from Service.New, Service.Create or Service.ByID.
type Fragment struct {
	Record
	service *Service
}

// Save upserts the current metadata, setting Updated to now.
func (f *Fragment) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save fragment: %w", err)
	}

	f.Updated = f.service.now()

	if err := f.service.repo.Upsert(ctx, f.Record); err != nil {
		return fmt.Errorf("save fragment %s: %w", f.ID, err)
	}

	return nil
}

// SetData sets Size to len(data), saves the metadata and writes data.
// A nil slice wraps ErrInvalidInput; an empty slice is valid.
//
// On split backends the metadata is written first and the payload second.
// A reader between the two steps can see the new Size with the old payload,
// and a payload write failure leaves them inconsistent until the next
// successful SetData.
func (f *Fragment) SetData(ctx context.Context, data []byte) error {
	if data == nil {
		return fmt.Errorf("set data: %w: data is required", ErrInvalidInput)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("set data: %w", err)
	}

	f.Size = int64(len(data))
	f.Updated = f.service.now()

	if f.service.atomic != nil {
		if err := f.service.atomic.UpsertWithData(ctx, f.Record, data); err != nil {
			return fmt.Errorf("set data %s: %w", f.ID, err)
		}
		return nil
	}

	if err := f.service.repo.Upsert(ctx, f.Record); err != nil {
		return fmt.Errorf("set data %s: %w", f.ID, err)
	}

	if err := f.service.blobs.Put(ctx, f.OwnerID, f.ID, data); err != nil {
		return fmt.Errorf("set data %s: metadata written but data write failed: %w", f.ID, err)
	}

	return nil
}

// Data returns the stored payload, or ErrNotFound if none was written.
func (f *Fragment) Data(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("get data: %w", err)
	}

	data, err := f.service.blobs.Get(ctx, f.OwnerID, f.ID)
	if err != nil {
		return nil, fmt.Errorf("get data %s: %w", f.ID, err)
	}

	return data, nil
}

// MimeType returns the type without parameters:
// "text/plain; charset=utf-8" -> "text/plain".
func (f *Fragment) MimeType() (string, error) {
	return ParseMimeType(f.Type)
}

// IsText reports whether the mime type is text/*.
func (f *Fragment) IsText() bool {
	mimeType, err := f.MimeType()
	if err != nil {
		return false
	}
	return strings.HasPrefix(mimeType, "text/")
}

// Formats returns the types this fragment can be converted to, including its
// own type exactly as stored: a "text/plain; charset=utf-8" fragment lists
// both text/plain and its own type.
func (f *Fragment) Formats() []string {
	mimeType, err := f.MimeType()
	if err != nil {
		return nil
	}

	formats := f.service.converter.Formats(mimeType)
	if !slices.Contains(formats, f.Type) {
		formats = append(formats, f.Type)
	}
	return formats
}

// ConvertType converts data, normally the fragment's own payload, to
// targetType. A target outside Formats returns ErrUnsupportedConversion.
// Converting a text fragment to its own type returns data unchanged; images
// are always re-encoded.
func (f *Fragment) ConvertType(data []byte, targetType string) ([]byte, error) {
	mimeType, err := f.MimeType()
	if err != nil {
		return nil, fmt.Errorf("convert fragment %s: %w", f.ID, err)
	}

	if targetType == f.Type {
		if family, _ := FamilyOf(mimeType); family != FamilyImage {
			return data, nil
		}
	}

	out, err := f.service.converter.Convert(data, mimeType, targetType)
	if err != nil {
		return nil, fmt.Errorf("convert fragment %s: %w", f.ID, err)
	}

	return out, nil
}
