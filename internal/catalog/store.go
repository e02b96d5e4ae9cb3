package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Store defines catalog operations. No ordering or transactional guarantees
// beyond single-key atomicity.
type Store interface {
	Insert(ctx context.Context, b Book) (Book, error)
	Get(ctx context.Context, id int64) (Book, error)
	List(ctx context.Context) ([]Book, error)
	Update(ctx context.Context, id int64, b Book) (Book, error)
	Delete(ctx context.Context, id int64) error
}

// InMemory implements Store with in-process concurrency safety.
type InMemory struct {
	mu    sync.RWMutex
	seq   int64
	books map[int64]Book
}

// NewInMemory creates an empty catalog.
func NewInMemory() *InMemory {
	return &InMemory{books: make(map[int64]Book)}
}

func validate(b Book) error {
	if strings.TrimSpace(b.Title) == "" || strings.TrimSpace(b.Author) == "" {
		return ErrInvalidInput
	}
	return nil
}

func (s *InMemory) Insert(ctx context.Context, b Book) (Book, error) {
	if err := validate(b); err != nil {
		return Book{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	b.ID = s.seq
	s.books[b.ID] = b
	return b, nil
}

func (s *InMemory) Get(ctx context.Context, id int64) (Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	if !ok {
		return Book{}, ErrNotFound
	}
	return b, nil
}

func (s *InMemory) List(ctx context.Context) ([]Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) Update(ctx context.Context, id int64, b Book) (Book, error) {
	if err := validate(b); err != nil {
		return Book{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return Book{}, ErrNotFound
	}
	b.ID = id
	s.books[id] = b
	return b, nil
}

func (s *InMemory) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return ErrNotFound
	}
	delete(s.books, id)
	return nil
}
