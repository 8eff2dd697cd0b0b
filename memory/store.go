// Package memory provides an in-process fragments backend holding both
// metadata and payloads. Store implements fragments.MetaDataRepo and
// fragments.AtomicStore; Store.Blobs returns its fragments.BlobStorage view.
// Nothing is persisted across restarts.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/sagarc03/fragments"
)

// Store keeps records and payloads in maps guarded by a single lock, so the
// combined writes of AtomicStore are atomic.
type Store struct {
	mu      sync.RWMutex
	records map[fragments.BlobKey]fragments.Record
	data    map[fragments.BlobKey][]byte
	owners  map[string]map[string]struct{}
}

func New() *Store {
	return &Store{
		records: make(map[fragments.BlobKey]fragments.Record),
		data:    make(map[fragments.BlobKey][]byte),
		owners:  make(map[string]map[string]struct{}),
	}
}

func key(ownerID, id string) fragments.BlobKey {
	return fragments.BlobKey{OwnerID: ownerID, ID: id}
}

// Get returns the record for (ownerID, id).
func (s *Store) Get(ctx context.Context, ownerID, id string) (fragments.Record, error) {
	if err := ctx.Err(); err != nil {
		return fragments.Record{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key(ownerID, id)]
	if !ok {
		return fragments.Record{}, fragments.ErrNotFound
	}
	return rec, nil
}

// Upsert stores rec, replacing any record with the same key.
func (s *Store) Upsert(ctx context.Context, rec fragments.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsertLocked(rec)
	return nil
}

func (s *Store) upsertLocked(rec fragments.Record) {
	s.records[key(rec.OwnerID, rec.ID)] = rec

	ids, ok := s.owners[rec.OwnerID]
	if !ok {
		ids = make(map[string]struct{})
		s.owners[rec.OwnerID] = ids
	}
	ids[rec.ID] = struct{}{}
}

// Delete removes the record for (ownerID, id).
func (s *Store) Delete(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteRecordLocked(ownerID, id)
}

func (s *Store) deleteRecordLocked(ownerID, id string) error {
	k := key(ownerID, id)
	if _, ok := s.records[k]; !ok {
		return fragments.ErrNotFound
	}

	delete(s.records, k)

	ids := s.owners[ownerID]
	delete(ids, id)
	if len(ids) == 0 {
		delete(s.owners, ownerID)
	}
	return nil
}

// List returns the ids of ownerID ordered by creation time, then id.
func (s *Store) List(ctx context.Context, ownerID string) ([]string, error) {
	records, err := s.ListRecords(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

// ListRecords returns the records of ownerID ordered by creation time, then id.
func (s *Store) ListRecords(ctx context.Context, ownerID string) ([]fragments.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.owners[ownerID]
	records := make([]fragments.Record, 0, len(ids))
	for id := range ids {
		records = append(records, s.records[key(ownerID, id)])
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].Created.Equal(records[j].Created) {
			return records[i].Created.Before(records[j].Created)
		}
		return records[i].ID < records[j].ID
	})

	return records, nil
}

// UpsertWithData stores rec and data under one lock.
func (s *Store) UpsertWithData(ctx context.Context, rec fragments.Record, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsertLocked(rec)
	s.data[key(rec.OwnerID, rec.ID)] = append([]byte{}, data...)
	return nil
}

// DeleteWithData removes the record and payload under one lock.
func (s *Store) DeleteWithData(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.deleteRecordLocked(ownerID, id); err != nil {
		return err
	}
	delete(s.data, key(ownerID, id))
	return nil
}

// Blobs is the payload side of a Store.
type Blobs struct {
	s *Store
}

// Blobs returns the fragments.BlobStorage view of s.
func (s *Store) Blobs() *Blobs {
	return &Blobs{s: s}
}

// Backend returns the Store holding the payloads.
func (b *Blobs) Backend() fragments.MetaDataRepo {
	return b.s
}

// Get returns a copy of the payload for (ownerID, id).
func (b *Blobs) Get(ctx context.Context, ownerID, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.s.mu.RLock()
	defer b.s.mu.RUnlock()

	data, ok := b.s.data[key(ownerID, id)]
	if !ok {
		return nil, fragments.ErrNotFound
	}
	return append([]byte{}, data...), nil
}

// Put stores a copy of data for (ownerID, id).
func (b *Blobs) Put(ctx context.Context, ownerID, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	b.s.data[key(ownerID, id)] = append([]byte{}, data...)
	return nil
}

// Delete removes the payload for (ownerID, id).
func (b *Blobs) Delete(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	k := key(ownerID, id)
	if _, ok := b.s.data[k]; !ok {
		return fragments.ErrNotFound
	}
	delete(b.s.data, k)
	return nil
}

// List returns the keys of all stored payloads.
func (b *Blobs) List(ctx context.Context) ([]fragments.BlobKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.s.mu.RLock()
	defer b.s.mu.RUnlock()

	keys := make([]fragments.BlobKey, 0, len(b.s.data))
	for k := range b.s.data {
		keys = append(keys, k)
	}
	return keys, nil
}
