package crawler

import (
	"context"
	"iter"
	"sync"

	"github.com/bool64/ctxd"
	"github.com/google/uuid"
)

const (
	// DefaultNumDownloaders is the default number of workers for downloading pages.
	DefaultNumDownloaders = 4
	// DefaultNumExtractors is the default number of workers for extracting links.
	DefaultNumExtractors = 4
	// DefaultPerHostLimit is the default number of pages of the same host that could be downloaded at the same time.
	DefaultPerHostLimit = 3
)

// Downloader downloads pages.
type Downloader interface {
	Download(ctx context.Context, url string) (Document, error)
}

// Document is a downloaded page.
type Document interface {
	// Links returns the absolute urls the page links to. The sequence is produced lazily and could be consumed only once. If the links could not
	// be enumerated, the sequence yields an error and stops.
	Links() iter.Seq2[string, error]
}

// Result is the result of a traversal.
type Result struct {
	// URLs are the successfully downloaded urls, sorted.
	URLs []string
	// Errors are the failed urls and their errors. The errors wrap one of ErrMalformedURL, ErrDownload or ErrExtraction.
	Errors map[string]error
}

// Stats is a snapshot of the worker pools of a crawler.
type Stats struct {
	Downloaders PoolStats
	Extractors  PoolStats
}

// WebCrawler traverses the web from a seed url.
//
// Pages are downloaded by a pool of downloaders and their links are extracted by another pool of extractors, so a page with many links never
// holds up downloading. The number of concurrent downloads of the same host is limited. A crawler could be reused for several traversals,
// nothing is shared between them except the pools.
type WebCrawler struct {
	downloader Downloader
	resolver   HostResolver
	log        ctxd.Logger

	numDownloaders int
	numExtractors  int
	perHostLimit   int

	ctx         context.Context
	cancel      context.CancelFunc
	closeOnce   sync.Once
	downloaders *workerPool
	extractors  *workerPool
}

// Download downloads the page of the url and follows its links up to the depth. With depth 1, only the seed is downloaded.
//
// Download blocks until all the reachable pages are processed. The errors of the pages are reported in the result, so the returned error is
// not nil only when the depth is invalid, the crawler is closed, or the context is done before the traversal finishes. In the last case, the
// partial result is returned as well.
func (c *WebCrawler) Download(ctx context.Context, url string, depth int) (Result, error) {
	if depth < 1 {
		return Result{}, ErrInvalidDepth
	}

	if c.ctx.Err() != nil {
		return Result{}, ErrCrawlerClosed
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	ctx = ctxd.AddFields(ctx,
		"crawler.traversal_id", uuid.NewString(),
		"crawler.seed", url,
		"crawler.max_depth", depth,
	)

	c.log.Debug(ctx, "started traversal")

	t := newTraversal(ctx, c)

	t.state.visit(url)
	t.spawn(url, depth)
	t.barrier.Arrive()

	err := t.barrier.Await(ctx)
	result := t.state.result()

	if err != nil {
		if c.ctx.Err() != nil {
			err = ErrCrawlerClosed
		}

		c.log.Error(ctx, "traversal interrupted", "error", err)

		return result, err
	}

	c.log.Debug(ctx, "finished traversal",
		"crawler.num_downloaded", len(result.URLs),
		"crawler.num_errors", len(result.Errors),
	)

	return result, nil
}

// Close stops the crawler immediately. Pending work is discarded without waiting for the running traversals.
func (c *WebCrawler) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.downloaders.close()
		c.extractors.close()

		c.log.Debug(context.Background(), "closed crawler")
	})
}

// Stats returns a snapshot of the worker pools.
func (c *WebCrawler) Stats() Stats {
	return Stats{
		Downloaders: c.downloaders.stats(),
		Extractors:  c.extractors.stats(),
	}
}

// New creates a new WebCrawler and starts its workers. The crawler must be closed after use.
//
// Usage:
//
//	c := crawler.New(downloader.NewHTTPDownloader(),
//		crawler.WithDownloaders(8),
//		crawler.WithPerHostLimit(2),
//	)
//	defer c.Close()
//
//	result, err := c.Download(ctx, "https://example.com", 2)
func New(d Downloader, opts ...Option) *WebCrawler {
	c := &WebCrawler{
		downloader: d,
		resolver:   URLHostResolver{},
		log:        ctxd.NoOpLogger{},

		numDownloaders: DefaultNumDownloaders,
		numExtractors:  DefaultNumExtractors,
		perHostLimit:   DefaultPerHostLimit,
	}

	for _, opt := range opts {
		opt.applyWebCrawlerOption(c)
	}

	// Safeguard the configuration.
	if c.numDownloaders < 1 {
		c.numDownloaders = DefaultNumDownloaders
	}

	if c.numExtractors < 1 {
		c.numExtractors = DefaultNumExtractors
	}

	if c.perHostLimit < 1 {
		c.perHostLimit = DefaultPerHostLimit
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.downloaders = newWorkerPool(c.ctx, "downloaders", c.numDownloaders, c.log)
	c.extractors = newWorkerPool(c.ctx, "extractors", c.numExtractors, c.log)

	return c
}

// Option is option to set up WebCrawler.
type Option interface {
	applyWebCrawlerOption(c *WebCrawler)
}

type webCrawlerOptionFunc func(c *WebCrawler)

func (f webCrawlerOptionFunc) applyWebCrawlerOption(c *WebCrawler) {
	f(c)
}

// WithLogger sets logger for WebCrawler.
func WithLogger(l ctxd.Logger) Option {
	return webCrawlerOptionFunc(func(c *WebCrawler) {
		c.log = l
	})
}

// WithDownloaders sets number of workers for downloading pages.
func WithDownloaders(n int) Option {
	return webCrawlerOptionFunc(func(c *WebCrawler) {
		c.numDownloaders = n
	})
}

// WithExtractors sets number of workers for extracting links.
func WithExtractors(n int) Option {
	return webCrawlerOptionFunc(func(c *WebCrawler) {
		c.numExtractors = n
	})
}

// WithPerHostLimit sets the maximum number of pages of the same host that could be downloaded at the same time.
func WithPerHostLimit(n int) Option {
	return webCrawlerOptionFunc(func(c *WebCrawler) {
		c.perHostLimit = n
	})
}

// WithHostResolver sets the resolver that groups urls by host for limiting downloads.
func WithHostResolver(r HostResolver) Option {
	return webCrawlerOptionFunc(func(c *WebCrawler) {
		c.resolver = r
	})
}
