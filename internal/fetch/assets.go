package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sitevault/sitevault/internal/dom"
	"github.com/sitevault/sitevault/internal/urlmap"
)

// assetKind identifies the category of a downloadable asset. The kind
// determines the local file name prefix, the fallback extension, and
// which attribute is rewritten after a successful download.
type assetKind int

const (
	kindStylesheet assetKind = iota
	kindImage
	kindScript
)

// filePrefix returns the local file name prefix for the kind.
func (k assetKind) filePrefix() string {
	switch k {
	case kindStylesheet:
		return "style"
	case kindImage:
		return "image"
	default:
		return "script"
	}
}

// defaultExt returns the extension used when the asset URL path has
// none.
func (k assetKind) defaultExt() string {
	switch k {
	case kindStylesheet:
		return ".css"
	case kindImage:
		return ".png"
	default:
		return ".js"
	}
}

// attrName returns the element attribute rewritten to the local path.
func (k assetKind) attrName() string {
	if k == kindStylesheet {
		return "href"
	}
	return "src"
}

// assetJob is one asset to download and, on success, rewrite.
type assetJob struct {
	// element is the DOM element whose reference is rewritten.
	element *dom.Element

	// kind selects naming and the rewrite attribute.
	kind assetKind

	// source is the absolute URL to download.
	source *url.URL

	// destFile is the local file the asset is written to.
	destFile string

	// ok reports a completed download and write.
	ok bool

	// err holds the download failure when ok is false.
	err error
}

// localizeAssets downloads the page's stylesheets, images, and scripts
// into the asset tree and rewrites each element that succeeded to a
// path relative to the page's local file. It returns the number of
// localized assets and the number of failures.
//
// Download failures skip the asset and leave its element untouched.
// Filesystem failures are returned because a broken archive tree
// cannot be recovered by skipping.
func (f *Fetcher) localizeAssets(ctx context.Context, doc *dom.Document, pageURL, start *url.URL, archiveRoot string) (int, int, error) {
	jobs := f.collectAssets(doc, pageURL, archiveRoot)
	if len(jobs) == 0 {
		return 0, 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.assetWorkers)

	for _, job := range jobs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			return f.downloadAsset(gctx, job)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	// All downloads have settled; rewrite on this goroutine only.
	pagePath := urlmap.PagePath(pageURL, start, archiveRoot)
	downloaded := 0
	failed := 0
	for _, job := range jobs {
		if !job.ok {
			failed++
			f.logger.Warn("asset download failed, keeping original reference",
				"page", pageURL.String(),
				"asset", job.source.String(),
				"error", job.err,
			)
			continue
		}
		downloaded++
		job.element.SetAttr(job.kind.attrName(), urlmap.RelativeHref(pagePath, job.destFile))
		if job.kind == kindImage {
			job.element.RemoveAttr("srcset")
		}
	}
	return downloaded, failed, nil
}

// collectAssets walks the document and assigns each downloadable asset
// its local file name. Names are numbered per kind in document order,
// so the first stylesheet is style-1.css regardless of later outcomes.
func (f *Fetcher) collectAssets(doc *dom.Document, pageURL *url.URL, archiveRoot string) []*assetJob {
	assetDir := urlmap.AssetDir(archiveRoot, pageURL)
	counters := make(map[assetKind]int)
	jobs := make([]*assetJob, 0)

	add := func(element *dom.Element, kind assetKind, ref string) {
		source := resolveRef(pageURL, ref)
		if source == nil {
			return
		}
		if source.Scheme != "http" && source.Scheme != "https" {
			return
		}
		counters[kind]++
		jobs = append(jobs, &assetJob{
			element:  element,
			kind:     kind,
			source:   source,
			destFile: filepath.Join(assetDir, assetFileName(kind, counters[kind], source)),
		})
	}

	for _, link := range doc.Stylesheets() {
		add(link, kindStylesheet, link.Attr("href"))
	}
	for _, img := range doc.Images() {
		ref := img.Attr("src")
		// srcset wins over src; the first candidate is usually the
		// smallest and always well-formed on real pages.
		if srcset := img.Attr("srcset"); srcset != "" {
			if candidate := firstSrcsetCandidate(srcset); candidate != "" {
				ref = candidate
			}
		}
		add(img, kindImage, ref)
	}
	for _, script := range doc.Scripts() {
		add(script, kindScript, script.Attr("src"))
	}
	return jobs
}

// assetFileName builds the local file name for the n-th asset of a
// kind. The extension comes from the source URL path when present.
func assetFileName(kind assetKind, n int, source *url.URL) string {
	ext := path.Ext(source.Path)
	if ext == "" || ext == "." {
		ext = kind.defaultExt()
	}
	return fmt.Sprintf("%s-%d%s", kind.filePrefix(), n, ext)
}

// firstSrcsetCandidate returns the URL of the first srcset candidate,
// or "" when the attribute holds none. A candidate is a URL optionally
// followed by a width or density descriptor.
func firstSrcsetCandidate(srcset string) string {
	first, _, _ := strings.Cut(srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// downloadAsset fetches one asset and writes it to job.destFile.
// Network and HTTP failures are recorded on the job and reported as
// nil so sibling downloads continue. Filesystem failures are returned
// and abort the page.
func (f *Fetcher) downloadAsset(ctx context.Context, job *assetJob) error {
	started := time.Now()
	rawURL := job.source.String()

	req, err := f.newRequest(ctx, rawURL)
	if err != nil {
		job.err = err
		f.observe(Observation{URL: rawURL, Kind: ObservationAsset, Detail: err.Error(), Elapsed: time.Since(started)})
		return nil
	}

	resp, err := f.client.Do(req)
	if err != nil {
		job.err = err
		f.observe(Observation{URL: rawURL, Kind: ObservationAsset, Detail: err.Error(), Elapsed: time.Since(started)})
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		job.err = fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
		f.observe(Observation{
			URL:        rawURL,
			Kind:       ObservationAsset,
			StatusCode: resp.StatusCode,
			Detail:     resp.Status,
			Elapsed:    time.Since(started),
		})
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(job.destFile), 0750); err != nil {
		return fmt.Errorf("%w: %w", ErrAssetWrite, err)
	}
	file, err := os.OpenFile(job.destFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAssetWrite, err)
	}

	// Read one byte past the cap so truncation is detectable.
	written, err := io.Copy(file, io.LimitReader(resp.Body, f.maxBodySize+1))
	closeErr := file.Close()
	if err != nil {
		// File write errors surface as *fs.PathError; anything else
		// came from the network side of the copy.
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return fmt.Errorf("%w: %w", ErrAssetWrite, err)
		}
		_ = os.Remove(job.destFile)
		job.err = err
		f.observe(Observation{URL: rawURL, Kind: ObservationAsset, StatusCode: resp.StatusCode, Detail: err.Error(), Elapsed: time.Since(started)})
		return nil
	}
	if closeErr != nil {
		return fmt.Errorf("%w: %w", ErrAssetWrite, closeErr)
	}
	if written > f.maxBodySize {
		_ = os.Remove(job.destFile)
		job.err = ErrAssetTooLarge
		f.observe(Observation{URL: rawURL, Kind: ObservationAsset, StatusCode: resp.StatusCode, Detail: ErrAssetTooLarge.Error(), Elapsed: time.Since(started)})
		return nil
	}

	job.ok = true
	f.observe(Observation{
		URL:        rawURL,
		Kind:       ObservationAsset,
		StatusCode: resp.StatusCode,
		OK:         true,
		Bytes:      written,
		Elapsed:    time.Since(started),
	})
	return nil
}
