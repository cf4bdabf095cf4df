package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore реализует Store в памяти.
// Используется для тестов и как бэкенд по умолчанию.
type MemoryStore struct {
	mu       sync.RWMutex
	archives map[string][]byte
	codec    *Codec
}

// NewMemoryStore создает новое in-memory хранилище
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		archives: make(map[string][]byte),
		codec:    MustNewCodec(),
	}
}

// Save сохраняет архив в памяти в закодированном виде
func (s *MemoryStore) Save(ctx context.Context, a *Archive) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := a.Validate(); err != nil {
		return err
	}
	data, err := s.codec.Encode(a)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.archives[a.ID] = data
	s.mu.Unlock()
	return nil
}

// Load загружает архив из памяти
func (s *MemoryStore) Load(ctx context.Context, id string) (*Archive, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.RLock()
	data, ok := s.archives[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.codec.Decode(data)
}

// List возвращает описания всех архивов
func (s *MemoryStore) List(ctx context.Context) ([]Summary, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Summary, 0, len(s.archives))
	for _, data := range s.archives {
		a, err := s.codec.Decode(data)
		if err != nil {
			return nil, err
		}
		list = append(list, a.Summary())
	}
	sortSummaries(list)
	return list, nil
}

// Delete удаляет архив
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.archives[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.archives, id)
	return nil
}

// Count возвращает количество сохраненных архивов (для тестов)
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.archives)
}

// Close ничего не делает для in-memory хранилища
func (s *MemoryStore) Close() error {
	return nil
}
