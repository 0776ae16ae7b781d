package fetch

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// TestNewHTTPClient tests HTTP client construction.
func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	t.Run("creates client without proxy", func(t *testing.T) {
		t.Parallel()

		client, err := NewHTTPClient(5*time.Second, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.Timeout != 5*time.Second {
			t.Errorf("expected timeout 5s, got %v", client.Timeout)
		}
		if client.Jar == nil {
			t.Error("expected cookie jar to be set")
		}
	})

	t.Run("accepts host:port proxy address", func(t *testing.T) {
		t.Parallel()

		// The dialer connects lazily, so construction succeeds even
		// though nothing listens on the port.
		client, err := NewHTTPClient(5*time.Second, "127.0.0.1:9050")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client == nil {
			t.Fatal("expected client, got nil")
		}
	})

	t.Run("rejects malformed proxy address", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			addr string
		}{
			{name: "missing port", addr: "127.0.0.1"},
			{name: "non-numeric port", addr: "127.0.0.1:abc"},
			{name: "empty host", addr: ":9050"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				if _, err := NewHTTPClient(time.Second, tt.addr); !errors.Is(err, ErrInvalidProxyAddress) {
					t.Errorf("expected ErrInvalidProxyAddress for %q, got %v", tt.addr, err)
				}
			})
		}
	})
}

// TestWithSiteHeaders tests per-site header injection.
func TestWithSiteHeaders(t *testing.T) {
	t.Parallel()

	t.Run("injects cookie and custom headers", func(t *testing.T) {
		t.Parallel()

		var gotCookie, gotCustom string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotCookie = r.Header.Get("Cookie")
			gotCustom = r.Header.Get("X-Custom")
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body>ok</body></html>`)) //nolint:errcheck
		}))
		defer server.Close()

		client := WithSiteHeaders(server.Client(), "session=abc123", map[string]string{"X-Custom": "yes"})
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_ = resp.Body.Close()

		if gotCookie != "session=abc123" {
			t.Errorf("expected cookie 'session=abc123', got %q", gotCookie)
		}
		if gotCustom != "yes" {
			t.Errorf("expected X-Custom 'yes', got %q", gotCustom)
		}
	})

	t.Run("returns same client when nothing to inject", func(t *testing.T) {
		t.Parallel()

		client := &http.Client{}
		if got := WithSiteHeaders(client, "", nil); got != client {
			t.Error("expected the original client to be returned unchanged")
		}
	})

	t.Run("does not overwrite explicit request headers", func(t *testing.T) {
		t.Parallel()

		var gotCustom string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotCustom = r.Header.Get("X-Custom")
			_, _ = w.Write([]byte("ok")) //nolint:errcheck
		}))
		defer server.Close()

		client := WithSiteHeaders(server.Client(), "", map[string]string{"X-Custom": "injected"})
		req, err := http.NewRequest(http.MethodGet, server.URL, nil)
		if err != nil {
			t.Fatalf("failed to create request: %v", err)
		}
		req.Header.Set("X-Custom", "explicit")

		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_ = resp.Body.Close()

		if gotCustom != "explicit" {
			t.Errorf("expected explicit header to win, got %q", gotCustom)
		}
	})
}

// TestFetcherFetch tests page retrieval, link extraction, and asset
// localization.
func TestFetcherFetch(t *testing.T) {
	t.Parallel()

	t.Run("fetches page and extracts same-host links", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			//nolint:errcheck // test handler
			_, _ = w.Write([]byte(`<html><body>
				<a href="/about">About</a>
				<a href="/about">About again</a>
				<a href="/contact#team">Team</a>
				<a href="https://elsewhere.example.com/page">External</a>
				<a href="mailto:hi@example.com">Mail</a>
				<a href="tel:+123456">Call</a>
				<a href="#">Top</a>
			</body></html>`))
		})

		server := httptest.NewServer(mux)
		defer server.Close()

		start, err := url.Parse(server.URL)
		if err != nil {
			t.Fatalf("failed to parse server URL: %v", err)
		}

		fetcher := NewFetcher(server.Client())
		result, err := fetcher.Fetch(context.Background(), start, start, t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{server.URL + "/about", server.URL + "/contact"}
		if len(result.Links) != len(want) {
			t.Fatalf("expected %d links, got %d: %v", len(want), len(result.Links), result.Links)
		}
		for i, link := range want {
			if result.Links[i] != link {
				t.Errorf("expected link %d to be %q, got %q", i, link, result.Links[i])
			}
		}
	})

	t.Run("fails on non-2xx status", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer server.Close()

		start, err := url.Parse(server.URL)
		if err != nil {
			t.Fatalf("failed to parse server URL: %v", err)
		}

		fetcher := NewFetcher(server.Client())
		if _, err := fetcher.Fetch(context.Background(), start, start, t.TempDir()); !errors.Is(err, ErrUnexpectedStatus) {
			t.Errorf("expected ErrUnexpectedStatus, got %v", err)
		}
	})

	t.Run("downloads and rewrites stylesheet, image, and script", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			//nolint:errcheck // test handler
			_, _ = w.Write([]byte(`<html><head>
				<link rel="stylesheet" href="/css/main.css">
			</head><body>
				<img src="/img/logo">
				<script src="/js/app.js"></script>
			</body></html>`))
		})
		mux.HandleFunc("/css/main.css", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("body{margin:0}")) //nolint:errcheck
		})
		mux.HandleFunc("/img/logo", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'}) //nolint:errcheck
		})
		mux.HandleFunc("/js/app.js", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("console.log(1)")) //nolint:errcheck
		})

		server := httptest.NewServer(mux)
		defer server.Close()

		start, err := url.Parse(server.URL)
		if err != nil {
			t.Fatalf("failed to parse server URL: %v", err)
		}

		root := t.TempDir()
		fetcher := NewFetcher(server.Client())
		result, err := fetcher.Fetch(context.Background(), start, start, root)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Assets != 3 {
			t.Errorf("expected 3 assets, got %d", result.Assets)
		}
		if result.AssetFailures != 0 {
			t.Errorf("expected 0 asset failures, got %d", result.AssetFailures)
		}

		// The page URL has an empty path, so its asset directory is
		// assets/index. The image has no extension and falls back to
		// .png.
		for _, name := range []string{"style-1.css", "image-1.png", "script-1.js"} {
			path := filepath.Join(root, "assets", "index", name)
			if _, err := os.Stat(path); err != nil {
				t.Errorf("expected asset file %s: %v", name, err)
			}
		}

		var buf bytes.Buffer
		if err := result.Doc.Render(&buf); err != nil {
			t.Fatalf("failed to render document: %v", err)
		}
		html := buf.String()
		for _, ref := range []string{"assets/index/style-1.css", "assets/index/image-1.png", "assets/index/script-1.js"} {
			if !strings.Contains(html, ref) {
				t.Errorf("expected rewritten reference %q in document", ref)
			}
		}
	})

	t.Run("keeps original reference when asset download fails", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><img src="/missing.png"></body></html>`)) //nolint:errcheck
		})
		// The "/" pattern is a subtree match, so the asset URL needs its
		// own handler to actually fail.
		mux.HandleFunc("/missing.png", func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})

		server := httptest.NewServer(mux)
		defer server.Close()

		start, err := url.Parse(server.URL)
		if err != nil {
			t.Fatalf("failed to parse server URL: %v", err)
		}

		fetcher := NewFetcher(server.Client())
		result, err := fetcher.Fetch(context.Background(), start, start, t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Assets != 0 {
			t.Errorf("expected 0 assets, got %d", result.Assets)
		}
		if result.AssetFailures != 1 {
			t.Errorf("expected 1 asset failure, got %d", result.AssetFailures)
		}

		var buf bytes.Buffer
		if err := result.Doc.Render(&buf); err != nil {
			t.Fatalf("failed to render document: %v", err)
		}
		if !strings.Contains(buf.String(), "/missing.png") {
			t.Error("expected original reference to be kept after failed download")
		}
	})

	t.Run("prefers first srcset candidate and drops srcset", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			//nolint:errcheck // test handler
			_, _ = w.Write([]byte(`<html><body><img src="/fallback.png" srcset="/small.jpg 480w, /large.jpg 1024w"></body></html>`))
		})
		mux.HandleFunc("/small.jpg", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("jpeg-bytes")) //nolint:errcheck
		})

		server := httptest.NewServer(mux)
		defer server.Close()

		start, err := url.Parse(server.URL)
		if err != nil {
			t.Fatalf("failed to parse server URL: %v", err)
		}

		root := t.TempDir()
		fetcher := NewFetcher(server.Client())
		result, err := fetcher.Fetch(context.Background(), start, start, root)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Assets != 1 {
			t.Fatalf("expected 1 asset, got %d (failures: %d)", result.Assets, result.AssetFailures)
		}
		if _, err := os.Stat(filepath.Join(root, "assets", "index", "image-1.jpg")); err != nil {
			t.Errorf("expected image-1.jpg from srcset candidate: %v", err)
		}

		var buf bytes.Buffer
		if err := result.Doc.Render(&buf); err != nil {
			t.Fatalf("failed to render document: %v", err)
		}
		html := buf.String()
		if strings.Contains(html, "srcset") {
			t.Error("expected srcset attribute to be removed")
		}
		if !strings.Contains(html, "assets/index/image-1.jpg") {
			t.Error("expected src to reference the local image")
		}
	})

	t.Run("skips data URIs", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			//nolint:errcheck // test handler
			_, _ = w.Write([]byte(`<html><body><img src="data:image/gif;base64,R0lGODlhAQABAAAAACw="></body></html>`))
		}))
		defer server.Close()

		start, err := url.Parse(server.URL)
		if err != nil {
			t.Fatalf("failed to parse server URL: %v", err)
		}

		fetcher := NewFetcher(server.Client())
		result, err := fetcher.Fetch(context.Background(), start, start, t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Assets != 0 || result.AssetFailures != 0 {
			t.Errorf("expected data URI to be skipped, got %d assets and %d failures", result.Assets, result.AssetFailures)
		}

		var buf bytes.Buffer
		if err := result.Doc.Render(&buf); err != nil {
			t.Fatalf("failed to render document: %v", err)
		}
		if !strings.Contains(buf.String(), "data:image/gif") {
			t.Error("expected data URI to remain in the document")
		}
	})

	t.Run("numbers assets per kind in document order", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			//nolint:errcheck // test handler
			_, _ = w.Write([]byte(`<html><head>
				<link rel="stylesheet" href="/a.css">
				<link rel="stylesheet" href="/b.css">
			</head><body>
				<img src="/one.gif">
				<script src="/first.js"></script>
				<script src="/second.js"></script>
			</body></html>`))
		})
		for _, p := range []string{"/a.css", "/b.css", "/one.gif", "/first.js", "/second.js"} {
			mux.HandleFunc(p, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("content")) //nolint:errcheck
			})
		}

		server := httptest.NewServer(mux)
		defer server.Close()

		start, err := url.Parse(server.URL)
		if err != nil {
			t.Fatalf("failed to parse server URL: %v", err)
		}

		root := t.TempDir()
		fetcher := NewFetcher(server.Client())
		result, err := fetcher.Fetch(context.Background(), start, start, root)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Assets != 5 {
			t.Fatalf("expected 5 assets, got %d", result.Assets)
		}

		for _, name := range []string{"style-1.css", "style-2.css", "image-1.gif", "script-1.js", "script-2.js"} {
			if _, err := os.Stat(filepath.Join(root, "assets", "index", name)); err != nil {
				t.Errorf("expected asset file %s: %v", name, err)
			}
		}
	})

	t.Run("respects ignore patterns", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			//nolint:errcheck // test handler
			_, _ = w.Write([]byte(`<html><body>
				<a href="/admin/settings">Admin</a>
				<a href="/public">Public</a>
			</body></html>`))
		}))
		defer server.Close()

		start, err := url.Parse(server.URL)
		if err != nil {
			t.Fatalf("failed to parse server URL: %v", err)
		}

		fetcher := NewFetcher(server.Client(), WithIgnorePatterns([]string{"/admin/*"}))
		result, err := fetcher.Fetch(context.Background(), start, start, t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Links) != 1 || result.Links[0] != server.URL+"/public" {
			t.Errorf("expected only /public link, got %v", result.Links)
		}
	})

	t.Run("sends configured user agent", func(t *testing.T) {
		t.Parallel()

		var gotAgent string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAgent = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body>ok</body></html>`)) //nolint:errcheck
		}))
		defer server.Close()

		start, err := url.Parse(server.URL)
		if err != nil {
			t.Fatalf("failed to parse server URL: %v", err)
		}

		fetcher := NewFetcher(server.Client(), WithUserAgent("sitevault-test/1.0"))
		if _, err := fetcher.Fetch(context.Background(), start, start, t.TempDir()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if gotAgent != "sitevault-test/1.0" {
			t.Errorf("expected custom user agent, got %q", gotAgent)
		}
	})

	t.Run("records observations for page and assets", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><img src="/pic.png"></body></html>`)) //nolint:errcheck
		})
		mux.HandleFunc("/pic.png", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("png")) //nolint:errcheck
		})

		server := httptest.NewServer(mux)
		defer server.Close()

		start, err := url.Parse(server.URL)
		if err != nil {
			t.Fatalf("failed to parse server URL: %v", err)
		}

		var mu sync.Mutex
		var observations []Observation
		observer := func(obs Observation) {
			mu.Lock()
			defer mu.Unlock()
			observations = append(observations, obs)
		}

		fetcher := NewFetcher(server.Client(), WithObserver(observer))
		if _, err := fetcher.Fetch(context.Background(), start, start, t.TempDir()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		mu.Lock()
		defer mu.Unlock()
		if len(observations) != 2 {
			t.Fatalf("expected 2 observations, got %d", len(observations))
		}
		kinds := map[string]bool{}
		for _, obs := range observations {
			kinds[obs.Kind] = true
			if !obs.OK {
				t.Errorf("expected observation for %s to be OK", obs.URL)
			}
		}
		if !kinds[ObservationPage] || !kinds[ObservationAsset] {
			t.Errorf("expected one page and one asset observation, got %v", observations)
		}
	})

	t.Run("surfaces filesystem errors", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><img src="/pic.png"></body></html>`)) //nolint:errcheck
		})
		mux.HandleFunc("/pic.png", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("png")) //nolint:errcheck
		})

		server := httptest.NewServer(mux)
		defer server.Close()

		start, err := url.Parse(server.URL)
		if err != nil {
			t.Fatalf("failed to parse server URL: %v", err)
		}

		// A regular file where the asset tree must go makes MkdirAll
		// fail.
		root := t.TempDir()
		if err := os.WriteFile(filepath.Join(root, "assets"), []byte("x"), 0600); err != nil {
			t.Fatalf("failed to create blocking file: %v", err)
		}

		fetcher := NewFetcher(server.Client())
		if _, err := fetcher.Fetch(context.Background(), start, start, root); !errors.Is(err, ErrAssetWrite) {
			t.Errorf("expected ErrAssetWrite, got %v", err)
		}
	})
}

// TestMatchPattern tests glob pattern matching for ignore rules.
func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{name: "directory wildcard matches child", pattern: "/admin/*", path: "/admin/users", want: true},
		{name: "directory wildcard matches directory itself", pattern: "/admin/*", path: "/admin", want: true},
		{name: "directory wildcard rejects sibling", pattern: "/admin/*", path: "/administrator", want: false},
		{name: "extension pattern matches", pattern: "*.pdf", path: "/docs/manual.pdf", want: true},
		{name: "extension pattern rejects other extension", pattern: "*.pdf", path: "/docs/manual.html", want: false},
		{name: "exact path matches", pattern: "/logout", path: "/logout", want: true},
		{name: "single segment glob", pattern: "/tag/*", path: "/tag/go", want: true},
		{name: "filename pattern matches basename", pattern: "feed*", path: "/blog/feed.xml", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := matchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}
