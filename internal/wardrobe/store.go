package wardrobe

import (
	"sync"

	"stylist/internal/domain"
)

// Store is the in-memory view of wardrobe items known to this session,
// newest first. It does not outlive the process.
type Store struct {
	mu    sync.RWMutex
	items []domain.ClothingItem
	ids   map[string]struct{}
}

func NewStore() *Store { return &Store{ids: map[string]struct{}{}} }

// Add puts a newly ingested item at the front. Items already present by ID
// are ignored.
func (s *Store) Add(item domain.ClothingItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID != "" {
		if _, ok := s.ids[item.ID]; ok {
			return
		}
		s.ids[item.ID] = struct{}{}
	}
	s.items = append([]domain.ClothingItem{item}, s.items...)
}

// Replace swaps the whole view, e.g. after a full listing from the service.
func (s *Store) Replace(items []domain.ClothingItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]domain.ClothingItem(nil), items...)
	s.ids = make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.ID != "" {
			s.ids[it.ID] = struct{}{}
		}
	}
}

// Items returns a copy of the current view.
func (s *Store) Items() []domain.ClothingItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ClothingItem(nil), s.items...)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.ids = map[string]struct{}{}
}
