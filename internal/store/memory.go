package store

import (
	"context"
	"sync"

	"github.com/Lllllllleong/financialstatementflow/internal/models"
	"github.com/google/uuid"
)

// MemoryBlobs is an in-process BlobStore.
type MemoryBlobs struct {
	mu    sync.RWMutex
	files map[string]memoryFile
}

type memoryFile struct {
	name string
	data []byte
	meta models.FileMetadata
}

func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{files: make(map[string]memoryFile)}
}

func (s *MemoryBlobs) Put(_ context.Context, name string, data []byte, meta models.FileMetadata) (string, error) {
	id := uuid.New().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[id] = memoryFile{name: name, data: append([]byte(nil), data...), meta: meta}
	return id, nil
}

func (s *MemoryBlobs) Get(_ context.Context, fileID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[fileID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), f.data...), nil
}

// Count returns the number of stored files.
func (s *MemoryBlobs) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// MemoryRecords is an in-process RecordStore.
type MemoryRecords struct {
	mu      sync.RWMutex
	records map[string]models.StatementRecord
}

func NewMemoryRecords() *MemoryRecords {
	return &MemoryRecords{records: make(map[string]models.StatementRecord)}
}

func (s *MemoryRecords) Insert(_ context.Context, rec models.StatementRecord) (string, error) {
	id := uuid.New().String()
	rec.ID = id
	rec.Columns = append([]string{}, rec.Columns...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = rec
	return id, nil
}

func (s *MemoryRecords) Get(_ context.Context, id string) (*models.StatementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// Count returns the number of stored records.
func (s *MemoryRecords) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
