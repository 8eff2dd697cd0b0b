package fragments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo           MetaDataRepo
	blobs          BlobStorage
	atomic         AtomicStore
	converter      *Converter
	listPolicy     ListPolicy
	cleanupTimeout time.Duration
	now            func() time.Time
}

// ServiceConfig holds configuration options for Service.
type ServiceConfig struct {
	ListPolicy     ListPolicy       // Backend error handling for ByUser (default: soft)
	CleanupTimeout time.Duration    // Timeout for cleanup operations (default: 30s)
	Clock          func() time.Time // Time source (default: time.Now)
}

func NewService(repo MetaDataRepo, blobs BlobStorage, converter *Converter, cfg ServiceConfig) (*Service, error) {
	if repo == nil {
		return nil, errors.New("new fragment service: metadata repo is required")
	}
	if blobs == nil {
		return nil, errors.New("new fragment service: blob storage is required")
	}
	if converter == nil {
		return nil, errors.New("new fragment service: converter is required")
	}

	policy := cfg.ListPolicy
	if policy == "" {
		policy = ListPolicySoftFail
	}
	if !policy.IsValid() {
		return nil, fmt.Errorf("new fragment service: invalid list policy: %s", policy)
	}

	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = 30 * time.Second
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Service{
		repo:           repo,
		blobs:          blobs,
		atomic:         atomicBackend(repo, blobs),
		converter:      converter,
		listPolicy:     policy,
		cleanupTimeout: cleanupTimeout,
		now:            func() time.Time { return clock().UTC() },
	}, nil
}

// atomicBackend returns repo as an AtomicStore when blobs is a view over the
// same backend.
func atomicBackend(repo MetaDataRepo, blobs BlobStorage) AtomicStore {
	a, ok := repo.(AtomicStore)
	if !ok {
		return nil
	}
	view, ok := blobs.(SharedBlobStorage)
	if !ok || view.Backend() != repo {
		return nil
	}
	return a
}

// Atomic reports whether SetData and Delete run as single transactions.
func (s *Service) Atomic() bool {
	return s.atomic != nil
}

// Converter returns the conversion engine used by the service's fragments.
func (s *Service) Converter() *Converter {
	return s.converter
}

// New validates p and returns an unsaved fragment bound to the service.
//
// Validation:
//   - ID defaults to a new random UUID; a supplied ID must satisfy IsValidKey
//   - OwnerID is required and must satisfy IsValidKey
//   - Type must be a registered type string (exact match)
//   - Size must not be negative
//   - Created and Updated both default to now if either is zero
//
// All validation failures wrap ErrInvalidInput.
func (s *Service) New(p CreateFragment) (*Fragment, error) {
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	} else if !IsValidKey(id) {
		return nil, fmt.Errorf("new fragment: %w: invalid id %q", ErrInvalidInput, id)
	}

	if p.OwnerID == "" {
		return nil, fmt.Errorf("new fragment: %w: owner id is required", ErrInvalidInput)
	}

	if !IsValidKey(p.OwnerID) {
		return nil, fmt.Errorf("new fragment: %w: invalid owner id", ErrInvalidInput)
	}

	if !IsSupportedType(p.Type) {
		return nil, fmt.Errorf("new fragment: %w: unsupported type %q", ErrInvalidInput, p.Type)
	}

	if p.Size < 0 {
		return nil, fmt.Errorf("new fragment: %w: size cannot be negative", ErrInvalidInput)
	}

	created, updated := p.Created.UTC(), p.Updated.UTC()
	if p.Created.IsZero() || p.Updated.IsZero() {
		now := s.now()
		created, updated = now, now
	}

	return &Fragment{
		Record: Record{
			ID:      id,
			OwnerID: p.OwnerID,
			Created: created,
			Updated: updated,
			Type:    p.Type,
			Size:    p.Size,
		},
		service: s,
	}, nil
}

// Create constructs a fragment, saves it and writes data, the way a new
// upload is stored. If the data write fails the metadata record is removed
// again using a background context bounded by the cleanup timeout.
func (s *Service) Create(ctx context.Context, ownerID, contentType string, data []byte) (*Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}

	f, err := s.New(CreateFragment{OwnerID: ownerID, Type: contentType})
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}

	if data == nil {
		return nil, fmt.Errorf("create fragment: %w: data is required", ErrInvalidInput)
	}

	if err := f.Save(ctx); err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}

	if err := f.SetData(ctx, data); err != nil {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), s.cleanupTimeout)
		defer cancel()

		if delErr := s.repo.Delete(cleanupCtx, f.OwnerID, f.ID); delErr != nil && !errors.Is(delErr, ErrNotFound) {
			return nil, fmt.Errorf("create fragment %s: %w: set data failed (%w) and cleanup failed: %w", f.ID, ErrInternal, err, delErr)
		}
		return nil, fmt.Errorf("create fragment %s: %w", f.ID, err)
	}

	return f, nil
}

// Replace overwrites the data of an existing fragment. The fragment is
// recreated under the same id and created time; its type cannot change, so a
// contentType different from the stored type fails with ErrInvalidInput.
func (s *Service) Replace(ctx context.Context, ownerID, id, contentType string, data []byte) (*Fragment, error) {
	existing, err := s.ByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("replace fragment: %w", err)
	}

	if existing.Type != contentType {
		return nil, fmt.Errorf("replace fragment %s: %w: content type %q does not match %q", id, ErrInvalidInput, contentType, existing.Type)
	}

	f, err := s.New(CreateFragment{
		OwnerID: ownerID,
		ID:      id,
		Type:    contentType,
		Created: existing.Created,
		Updated: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("replace fragment: %w", err)
	}

	if err := f.SetData(ctx, data); err != nil {
		return nil, fmt.Errorf("replace fragment: %w", err)
	}

	return f, nil
}

// ByUser lists the fragments of ownerID: ids, or full records when expand is
// set. With ListPolicySoftFail a backend error is logged and an empty listing
// returned; with ListPolicyStrict it is returned to the caller.
func (s *Service) ByUser(ctx context.Context, ownerID string, expand bool) (Listing, error) {
	if ownerID == "" {
		return Listing{}, fmt.Errorf("list fragments: %w: owner id is required", ErrInvalidInput)
	}

	listing, err := s.listByUser(ctx, ownerID, expand)
	if err != nil {
		if s.listPolicy == ListPolicySoftFail {
			slog.Warn("list fragments failed, returning empty listing", "owner", ownerID, "err", err)
			return emptyListing(expand), nil
		}
		return Listing{}, fmt.Errorf("list fragments: %w", err)
	}

	return listing, nil
}

func (s *Service) listByUser(ctx context.Context, ownerID string, expand bool) (Listing, error) {
	if err := ctx.Err(); err != nil {
		return Listing{}, err
	}

	listing := emptyListing(expand)

	if expand {
		records, err := s.repo.ListRecords(ctx, ownerID)
		if err != nil {
			return Listing{}, err
		}
		listing.Records = append(listing.Records, records...)
		return listing, nil
	}

	ids, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return Listing{}, err
	}
	listing.IDs = append(listing.IDs, ids...)
	return listing, nil
}

func emptyListing(expand bool) Listing {
	if expand {
		return Listing{Expanded: true, Records: []Record{}}
	}
	return Listing{IDs: []string{}}
}

// ByID returns the fragment (ownerID, id) or ErrNotFound. Lookups never cross
// owners: another owner's id is reported as not found.
func (s *Service) ByID(ctx context.Context, ownerID, id string) (*Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("get fragment: %w", err)
	}

	if !IsValidKey(ownerID) || !IsValidKey(id) {
		return nil, fmt.Errorf("get fragment: %w", ErrNotFound)
	}

	rec, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("get fragment: %w", err)
	}

	return &Fragment{Record: rec, service: s}, nil
}

// Delete removes the metadata record and then the payload of (ownerID, id).
// It returns ErrNotFound when no metadata record exists; a missing payload is
// not an error since a fragment may never have been written.
//
// Unless the backend is atomic the two removals are independent: if the
// payload removal fails the record is already gone, the error wraps
// ErrInternal and the payload is left for Reap.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete fragment: %w", err)
	}

	if !IsValidKey(ownerID) || !IsValidKey(id) {
		return fmt.Errorf("delete fragment: %w", ErrNotFound)
	}

	if s.atomic != nil {
		if err := s.atomic.DeleteWithData(ctx, ownerID, id); err != nil {
			return fmt.Errorf("delete fragment: %w", err)
		}
		return nil
	}

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete fragment: %w", err)
	}

	if err := s.blobs.Delete(ctx, ownerID, id); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete fragment %s: %w: metadata removed but data removal failed: %w", id, ErrInternal, err)
	}

	return nil
}

// Reap removes payloads that have no metadata record, such as those left by
// an interrupted Delete. It stops at the first backend error other than
// ErrNotFound.
func (s *Service) Reap(ctx context.Context) (ReapResult, error) {
	var result ReapResult

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("reap: %w", err)
	}

	keys, err := s.blobs.List(ctx)
	if err != nil {
		return result, fmt.Errorf("reap: %w", err)
	}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("reap: %w", err)
		}

		result.Scanned++

		_, getErr := s.repo.Get(ctx, key.OwnerID, key.ID)
		if getErr == nil {
			continue
		}
		if !errors.Is(getErr, ErrNotFound) {
			return result, fmt.Errorf("reap %s/%s: %w", key.OwnerID, key.ID, getErr)
		}

		// Ignore ErrNotFound - payload may have been removed concurrently
		if delErr := s.blobs.Delete(ctx, key.OwnerID, key.ID); delErr != nil && !errors.Is(delErr, ErrNotFound) {
			return result, fmt.Errorf("reap %s/%s: %w", key.OwnerID, key.ID, delErr)
		}

		slog.Debug("reaped orphan payload", "owner", key.OwnerID, "id", key.ID)
		result.Removed++
	}

	return result, nil
}
