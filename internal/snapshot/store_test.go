package snapshot

import (
	"errors"
	"strings"
	"testing"

	"github.com/sitevault/sitevault/internal/dom"
)

// parseDoc parses a small document or fails the test.
func parseDoc(t *testing.T, markup string) *dom.Document {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("failed to parse markup: %v", err)
	}
	return doc
}

// TestStorePutGet tests basic storage and retrieval.
func TestStorePutGet(t *testing.T) {
	t.Parallel()

	s := New()
	doc := parseDoc(t, "<html><body>home</body></html>")

	s.Put("https://example.com/", doc)

	got, ok := s.Get("https://example.com/")
	if !ok {
		t.Fatal("expected stored page")
	}
	if got != doc {
		t.Error("expected the same document handle back")
	}
	if _, ok := s.Get("https://example.com/missing"); ok {
		t.Error("expected miss for unknown URL")
	}
	if s.Len() != 1 {
		t.Errorf("expected length 1, got %d", s.Len())
	}
}

// TestStoreOrder tests insertion-order iteration.
func TestStoreOrder(t *testing.T) {
	t.Parallel()

	s := New()
	s.Put("https://example.com/", parseDoc(t, "<p>1</p>"))
	s.Put("https://example.com/a", parseDoc(t, "<p>2</p>"))
	s.Put("https://example.com/b", parseDoc(t, "<p>3</p>"))

	want := []string{"https://example.com/", "https://example.com/a", "https://example.com/b"}
	got := s.URLs()
	if len(got) != len(want) {
		t.Fatalf("expected %d URLs, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

// TestStoreReplace tests that re-putting a URL keeps one ordered entry.
func TestStoreReplace(t *testing.T) {
	t.Parallel()

	s := New()
	s.Put("https://example.com/", parseDoc(t, "<p>old</p>"))
	replacement := parseDoc(t, "<p>new</p>")
	s.Put("https://example.com/", replacement)

	if s.Len() != 1 {
		t.Errorf("expected length 1 after replacement, got %d", s.Len())
	}
	if got, _ := s.Get("https://example.com/"); got != replacement {
		t.Error("expected the replacement document")
	}
	if urls := s.URLs(); len(urls) != 1 {
		t.Errorf("expected one ordered entry, got %v", urls)
	}
}

// TestStoreEach tests ordered iteration and error propagation.
func TestStoreEach(t *testing.T) {
	t.Parallel()

	t.Run("visits every page in order", func(t *testing.T) {
		t.Parallel()

		s := New()
		s.Put("https://example.com/", parseDoc(t, "<p>1</p>"))
		s.Put("https://example.com/a", parseDoc(t, "<p>2</p>"))

		var seen []string
		err := s.Each(func(pageURL string, _ *dom.Document) error {
			seen = append(seen, pageURL)
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(seen) != 2 || seen[0] != "https://example.com/" {
			t.Errorf("expected ordered visit, got %v", seen)
		}
	})

	t.Run("stops at the first error", func(t *testing.T) {
		t.Parallel()

		s := New()
		s.Put("https://example.com/", parseDoc(t, "<p>1</p>"))
		s.Put("https://example.com/a", parseDoc(t, "<p>2</p>"))

		boom := errors.New("disk full")
		calls := 0
		err := s.Each(func(string, *dom.Document) error {
			calls++
			return boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("expected propagated error, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected iteration to stop after 1 call, got %d", calls)
		}
	})
}
