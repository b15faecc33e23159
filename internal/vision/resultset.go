package vision

import (
	"fmt"
	"sync"
)

// ResultSet maps round-path labels ("0", "0->1", ...) to edited images. It
// keeps insertion order and never replaces an entry.
type ResultSet struct {
	mu     sync.RWMutex
	labels []string
	images map[string][]byte
}

// NewResultSet returns an empty set.
func NewResultSet() *ResultSet {
	return &ResultSet{images: make(map[string][]byte)}
}

// Add appends label. A label can only be added once.
func (s *ResultSet) Add(label string, image []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.images[label]; ok {
		return fmt.Errorf("vision: duplicate result label %q", label)
	}
	s.labels = append(s.labels, label)
	s.images[label] = image
	return nil
}

// Get returns the image stored under label.
func (s *ResultSet) Get(label string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img, ok := s.images[label]
	return img, ok
}

// Labels returns the labels in insertion order.
func (s *ResultSet) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// Len reports how many results are stored.
func (s *ResultSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.labels)
}
