package frontier

import (
	"net/url"
	"strings"
	"sync"
)

// Frontier is the crawl queue and visited bookkeeping for one session.
// All URLs are normalized on the way in, so callers may pass raw strings.
type Frontier struct {
	mu       sync.Mutex
	queue    []string
	enqueued map[string]bool
	visited  map[string]bool
	order    []string
	budget   int
}

// New returns a Frontier seeded with the start URL and bounded by the
// page budget.
func New(startURL string, budget int) *Frontier {
	f := &Frontier{
		enqueued: make(map[string]bool),
		visited:  make(map[string]bool),
		budget:   budget,
	}
	f.Enqueue(startURL)
	return f
}

// Next dequeues the oldest pending URL. It reports false when the queue
// is empty or the visited count has reached the page budget, which ends
// the fetch phase.
func (f *Frontier) Next() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 || len(f.visited) >= f.budget {
		return "", false
	}
	next := f.queue[0]
	f.queue = f.queue[1:]
	return next, true
}

// Enqueue adds a URL to the queue unless it was ever enqueued before or
// has been visited. It reports whether the URL was accepted.
func (f *Frontier) Enqueue(rawURL string) bool {
	key := Normalize(rawURL)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.enqueued[key] || f.visited[key] {
		return false
	}
	f.enqueued[key] = true
	f.queue = append(f.queue, key)
	return true
}

// MarkVisited records a successful fetch.
func (f *Frontier) MarkVisited(rawURL string) {
	key := Normalize(rawURL)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.visited[key] {
		return
	}
	f.visited[key] = true
	f.order = append(f.order, key)
}

// Visited reports whether a URL was successfully fetched.
func (f *Frontier) Visited(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visited[Normalize(rawURL)]
}

// VisitedCount returns the number of successfully fetched pages.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// VisitedURLs returns the visited set in fetch order.
func (f *Frontier) VisitedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// VisitedSet returns a copy of the visited set for membership checks
// during link rewriting.
func (f *Frontier) VisitedSet() map[string]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]bool, len(f.visited))
	for k := range f.visited {
		out[k] = true
	}
	return out
}

// Pending returns the number of queued URLs.
func (f *Frontier) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Normalize canonicalizes a URL for queue and set membership: the
// fragment is dropped, scheme and host are lowercased, and an empty path
// becomes "/" so http://host and http://host/ count as one page.
// Unparseable input is returned unchanged.
func Normalize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}
