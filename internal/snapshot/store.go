package snapshot

import (
	"sync"

	"github.com/sitevault/sitevault/internal/dom"
)

// Store maps page URLs to their parsed documents, preserving insertion
// order so the rewrite phase walks pages in the order they were crawled.
// A Store belongs to exactly one session and is discarded with it.
type Store struct {
	mu    sync.RWMutex
	pages map[string]*dom.Document
	order []string
}

// New returns an empty Store.
func New() *Store {
	return &Store{pages: make(map[string]*dom.Document)}
}

// Put records a fetched page. Re-putting the same URL replaces the
// document without duplicating it in the iteration order.
func (s *Store) Put(pageURL string, doc *dom.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pages[pageURL]; !exists {
		s.order = append(s.order, pageURL)
	}
	s.pages[pageURL] = doc
}

// Get returns the document for a page URL.
func (s *Store) Get(pageURL string) (*dom.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.pages[pageURL]
	return doc, ok
}

// Len returns the number of stored pages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}

// URLs returns the stored page URLs in insertion order.
func (s *Store) URLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Each calls fn for every stored page in insertion order and stops at
// the first error, which it returns.
func (s *Store) Each(fn func(pageURL string, doc *dom.Document) error) error {
	for _, u := range s.URLs() {
		doc, ok := s.Get(u)
		if !ok {
			continue
		}
		if err := fn(u, doc); err != nil {
			return err
		}
	}
	return nil
}
