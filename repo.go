package fragments

import "context"

// MetaDataRepo defines the interface for fragment metadata persistence.
// Records are keyed by (ownerID, id); an owner can never reach another
// owner's records through any method.
//
// All methods accept a context for cancellation and timeout control.
type MetaDataRepo interface {
	// Get retrieves the record for (ownerID, id).
	//
	// Returns:
	//   - Record: The record if found
	//   - error: ErrNotFound if the key doesn't exist, or other backend errors
	Get(ctx context.Context, ownerID, id string) (Record, error)

	// Upsert creates or replaces the record keyed by (rec.OwnerID, rec.ID).
	// The record is stored as given, including its Created and Updated values.
	Upsert(ctx context.Context, rec Record) error

	// Delete removes the record for (ownerID, id).
	//
	// Returns:
	//   - error: ErrNotFound if the key doesn't exist, or other backend errors
	Delete(ctx context.Context, ownerID, id string) error

	// List returns the ids owned by ownerID ordered by creation time, then id.
	// Implementations must answer from an owner index rather than a full scan.
	// An owner with no fragments yields an empty slice.
	List(ctx context.Context, ownerID string) ([]string, error)

	// ListRecords is List returning full records.
	ListRecords(ctx context.Context, ownerID string) ([]Record, error)
}

// BlobStorage defines the interface for fragment payload storage.
// A write replaces prior content in place; there is no versioning.
type BlobStorage interface {
	// Get returns the payload for (ownerID, id).
	//
	// Returns:
	//   - []byte: The stored payload
	//   - error: ErrNotFound if no payload exists, or other storage errors
	Get(ctx context.Context, ownerID, id string) ([]byte, error)

	// Put stores data for (ownerID, id), replacing any previous payload.
	Put(ctx context.Context, ownerID, id string, data []byte) error

	// Delete removes the payload for (ownerID, id).
	//
	// Returns:
	//   - error: ErrNotFound if no payload exists, or other storage errors
	//
	// Note: This only deletes the payload, not its metadata.
	Delete(ctx context.Context, ownerID, id string) error

	// List returns the keys of every stored payload. It is used by
	// Service.Reap and can be expensive for large stores.
	List(ctx context.Context) ([]BlobKey, error)
}

// AtomicStore is implemented by metadata repos that also hold payloads and
// can write or remove both in a single transaction. Such a backend hands out
// its payload side through a SharedBlobStorage view; when NewService receives
// the repo together with its own view, SetData and Delete go through
// AtomicStore instead of two independent writes.
type AtomicStore interface {
	// UpsertWithData stores rec and data together.
	UpsertWithData(ctx context.Context, rec Record, data []byte) error

	// DeleteWithData removes the record and its payload together.
	// Returns ErrNotFound if no record exists.
	DeleteWithData(ctx context.Context, ownerID, id string) error
}

// SharedBlobStorage is a BlobStorage backed by a metadata repo.
type SharedBlobStorage interface {
	BlobStorage

	// Backend returns the metadata repo whose storage holds the payloads.
	Backend() MetaDataRepo
}
