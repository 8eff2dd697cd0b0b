package fragments_test

import (
	"context"
	"testing"
	"time"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/imaging"
	"github.com/sagarc03/fragments/markdown"
	"github.com/sagarc03/fragments/memory"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type SpyMetaDataRepo struct {
	mock.Mock
}

func (s *SpyMetaDataRepo) Get(ctx context.Context, ownerID, id string) (fragments.Record, error) {
	args := s.Called(ctx, ownerID, id)
	return args.Get(0).(fragments.Record), args.Error(1)
}

func (s *SpyMetaDataRepo) Upsert(ctx context.Context, rec fragments.Record) error {
	args := s.Called(ctx, rec)
	return args.Error(0)
}

func (s *SpyMetaDataRepo) Delete(ctx context.Context, ownerID, id string) error {
	args := s.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (s *SpyMetaDataRepo) List(ctx context.Context, ownerID string) ([]string, error) {
	args := s.Called(ctx, ownerID)
	return args.Get(0).([]string), args.Error(1)
}

func (s *SpyMetaDataRepo) ListRecords(ctx context.Context, ownerID string) ([]fragments.Record, error) {
	args := s.Called(ctx, ownerID)
	return args.Get(0).([]fragments.Record), args.Error(1)
}

type SpyBlobStorage struct {
	mock.Mock
}

func (s *SpyBlobStorage) Get(ctx context.Context, ownerID, id string) ([]byte, error) {
	args := s.Called(ctx, ownerID, id)
	return args.Get(0).([]byte), args.Error(1)
}

func (s *SpyBlobStorage) Put(ctx context.Context, ownerID, id string, data []byte) error {
	args := s.Called(ctx, ownerID, id, data)
	return args.Error(0)
}

func (s *SpyBlobStorage) Delete(ctx context.Context, ownerID, id string) error {
	args := s.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (s *SpyBlobStorage) List(ctx context.Context) ([]fragments.BlobKey, error) {
	args := s.Called(ctx)
	return args.Get(0).([]fragments.BlobKey), args.Error(1)
}

var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func newConverter(t *testing.T) *fragments.Converter {
	t.Helper()

	transcoder, err := imaging.New(imaging.Options{})
	require.NoError(t, err)

	conv, err := fragments.NewConverter(markdown.New(markdown.Options{}), transcoder)
	require.NoError(t, err)

	return conv
}

// NewSpyService returns a service over spies with a fixed clock.
func NewSpyService(t *testing.T, policy fragments.ListPolicy) (*fragments.Service, *SpyMetaDataRepo, *SpyBlobStorage) {
	t.Helper()

	repo := new(SpyMetaDataRepo)
	blobs := new(SpyBlobStorage)

	s, err := fragments.NewService(repo, blobs, newConverter(t), fragments.ServiceConfig{
		ListPolicy: policy,
		Clock:      func() time.Time { return fixedNow },
	})
	require.NoError(t, err, "new fragment service")

	return s, repo, blobs
}

// NewMemoryService returns a service over a shared in-memory backend.
func NewMemoryService(t *testing.T) (*fragments.Service, *memory.Store) {
	t.Helper()

	store := memory.New()

	s, err := fragments.NewService(store, store.Blobs(), newConverter(t), fragments.ServiceConfig{})
	require.NoError(t, err, "new fragment service")

	return s, store
}

func newMemoryPair() (*memory.Store, *memory.Store) {
	return memory.New(), memory.New()
}
