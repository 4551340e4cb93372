package history

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is a concurrency-safe in-memory Store for development and
// tests. Rows are kept in insertion order; ids are assigned sequentially.
type MemoryStore struct {
	mu     sync.RWMutex
	rows   []SearchHistory
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) FindByUserAndPostalCode(ctx context.Context, userID, postalCode string) (*SearchHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.rows {
		if s.rows[i].UserID == userID && s.rows[i].PostalCode == postalCode {
			row := s.rows[i]
			return &row, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) Create(ctx context.Context, h *SearchHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Same uniqueness guarantee the Postgres store gets from its unique
	// (user_id, postal_code) index.
	for i := range s.rows {
		if s.rows[i].UserID == h.UserID && s.rows[i].PostalCode == h.PostalCode {
			return &PersistenceError{
				Op:  "create",
				Err: fmt.Errorf("duplicate row for user %s and postal code %s", h.UserID, h.PostalCode),
			}
		}
	}

	now := time.Now().UTC()
	h.ID = s.nextID
	s.nextID++
	h.CreatedAt = now
	h.UpdatedAt = now
	s.rows = append(s.rows, *h)
	return nil
}

func (s *MemoryStore) UpdateWeather(ctx context.Context, id int64, temperature float64, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].Temperature = temperature
			s.rows[i].Description = description
			s.rows[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return &PersistenceError{Op: "update", Err: errRowNotFound(id)}
}

func (s *MemoryStore) All(ctx context.Context) ([]SearchHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]SearchHistory, len(s.rows))
	copy(result, s.rows)
	return result, nil
}

func (s *MemoryStore) Recent(ctx context.Context, userID string, limit int) ([]SearchHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []SearchHistory
	for i := len(s.rows) - 1; i >= 0 && len(result) < limit; i-- {
		if s.rows[i].UserID == userID {
			result = append(result, s.rows[i])
		}
	}
	return result, nil
}

func (s *MemoryStore) ByUser(ctx context.Context, userID string) ([]SearchHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []SearchHistory
	for i := range s.rows {
		if s.rows[i].UserID == userID {
			result = append(result, s.rows[i])
		}
	}
	return result, nil
}

type errRowNotFound int64

func (e errRowNotFound) Error() string {
	return fmt.Sprintf("no search history row with id %d", int64(e))
}
