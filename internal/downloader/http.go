package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bool64/ctxd"

	"github.com/nhatthm/go-webcrawler/internal/collector"
	"github.com/nhatthm/go-webcrawler/internal/crawler"
)

const (
	// sniffLen is used for detecting content type. See http.sniffLen.
	sniffLen = 512

	// defaultTimeout is the default timeout for requesting an url.
	defaultTimeout = 30 * time.Second
	// defaultMaxBodySize is the default maximum number of bytes read from a response body.
	defaultMaxBodySize = 10 << 20

	// defaultUserAgent is the default user agent to disguise.
	defaultUserAgent = `Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/99.0.4844.51 Safari/537.36`
)

var _ crawler.Downloader = (*HTTPDownloader)(nil)

// HTTPDownloader downloads pages from HTTP servers.
type HTTPDownloader struct {
	client     *http.Client
	collectors map[string]collector.LinkCollector // Key is mime type, Value is a link collector.
	log        ctxd.Logger

	// userAgent is the user agent to disguise when sending request to server. Default value is defaultUserAgent.
	userAgent string
	// maxBodySize is the maximum number of bytes read from a response body, the rest is ignored. Default value is defaultMaxBodySize.
	maxBodySize int64
}

// Download downloads the page of the url.
//
// Only the status codes 200 and 204 are considered successful. A page of an unsupported content type is downloaded without its body, and it
// has no link.
func (d *HTTPDownloader) Download(ctx context.Context, rawURL string) (crawler.Document, error) {
	startTime := time.Now()
	ctx = ctxd.AddFields(ctx, "http.url", rawURL)

	d.log.Debug(ctx, "started downloading")

	defer func() {
		d.log.Debug(ctx, "finished downloading", "http.duration", time.Since(startTime).String())
	}()

	pageURL, err := parseURL(rawURL)
	if err != nil {
		d.log.Error(ctx, "failed to parse url", "error", err)

		return nil, err
	}

	resp, err := d.doRequest(ctx, *pageURL)
	if err != nil {
		var uErr *url.Error
		if errors.As(err, &uErr) && errors.Is(uErr.Err, context.Canceled) {
			return nil, ErrOperationCanceled
		}

		return nil, err
	}

	defer resp.Body.Close() // nolint: errcheck

	contentType, err := d.detectContentType(ctx, resp)
	if err != nil {
		return nil, err
	}

	ctx = ctxd.AddFields(ctx, "http.content_type", contentType)

	doc := &Document{url: pageURL, contentType: contentType}

	linkCollector, ok := d.collectors[contentType]
	if !ok {
		d.log.Debug(ctx, "unsupported content type, no link will be collected")

		return doc, nil
	}

	doc.collector = linkCollector

	if doc.body, err = d.readBody(ctx, resp); err != nil {
		return nil, err
	}

	return doc, nil
}

func (d *HTTPDownloader) doRequest(ctx context.Context, pageURL url.URL) (*http.Response, error) {
	ctx = ctxd.AddFields(ctx, "http.timeout", d.client.Timeout.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		// This should not happen because the context is not nil and the url is valid (parsed in the caller).
		d.log.Error(ctx, "failed to create http request", "error", err)

		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)

	d.log.Debug(ctx, "send http request",
		"http.user_agent", d.userAgent,
	)

	startTime := time.Now()
	resp, err := d.client.Do(req)
	endTime := time.Now()

	if err != nil {
		d.log.Error(ctx, "failed to send http request", "error", err)

		return nil, fmt.Errorf("failed to send http request: %w", err)
	}

	d.log.Debug(ctx, "received http response", "http.duration", endTime.Sub(startTime).String())

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		_ = resp.Body.Close() // nolint: errcheck

		d.log.Error(ctx, "unexpected http status code", "status_code", resp.StatusCode)

		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	return resp, nil
}

// detectContentType detects the content type of the response.
//
// It returns the media type (without the parameters) from the Content-Type in the response headers. If the Content-Type is not set or is set to
// `application/octet-stream`, the function will use http.DetectContentType() to detect the content type. if http.DetectContentType() cannot determine a more
// specific one, it returns `application/octet-stream`.
//
// See https://pkg.go.dev/net/http#DetectContentType.
func (d *HTTPDownloader) detectContentType(ctx context.Context, resp *http.Response) (string, error) {
	contentType := resp.Header.Get("Content-Type")

	if contentType != "" {
		contentType, _, _ = mime.ParseMediaType(contentType) // nolint: errcheck // We do not care about the error, it is probably an error after the `;`
	}

	if contentType != "" && contentType != "application/octet-stream" {
		return contentType, nil
	}

	// http.DetectContentType() needs only http.sniffLen bytes, the rest of the body stays in the response.
	sniff, err := io.ReadAll(io.LimitReader(resp.Body, int64(sniffLen)))
	if err != nil {
		d.log.Error(ctx, "failed to detect content type", "error", err)

		return "", fmt.Errorf("failed to detect content type: %w", err)
	}

	contentType = http.DetectContentType(sniff)
	contentType, _, _ = mime.ParseMediaType(contentType) // nolint: errcheck // We do not care about the error, it is probably an error after the `;`.

	d.log.Debug(ctx, "detected content type", "http.detected_content_type", contentType)

	// We do not need to put a close here because there is another defer in the caller.
	resp.Body = io.NopCloser(io.MultiReader(bytes.NewReader(sniff), resp.Body))

	return contentType, nil
}

// readBody reads at most maxBodySize bytes of the response body.
func (d *HTTPDownloader) readBody(ctx context.Context, resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBodySize))
	if err != nil {
		d.log.Error(ctx, "failed to read http response body", "error", err)

		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	d.log.Debug(ctx, "read http response body", "http.body_size", len(body))

	return body, nil
}

// NewHTTPDownloader creates a new HTTPDownloader.
//
// By default, links are collected from text/html, text/plain and application/json documents.
//
// Usage:
//
//	d := downloader.NewHTTPDownloader(
//		downloader.WithClientTimeout(10*time.Second),
//		downloader.WithLinkCollector(collector.NewTextLinkCollector(), "text/markdown"),
//	)
//
//	c := crawler.New(d)
//	defer c.Close()
func NewHTTPDownloader(opts ...HTTPDownloaderOption) *HTTPDownloader {
	d := &HTTPDownloader{
		client: &http.Client{}, // Default HTTP Client.
		collectors: map[string]collector.LinkCollector{
			"text/html":        collector.NewHTMLLinkCollector(),
			"text/plain":       collector.NewTextLinkCollector(),
			"application/json": collector.NewJSONLinkCollector(),
			"text/x-json":      collector.NewJSONLinkCollector(),
		},
		log: ctxd.NoOpLogger{},

		userAgent:   defaultUserAgent,
		maxBodySize: defaultMaxBodySize,
	}

	for _, opt := range opts {
		opt.applyHTTPDownloaderOption(d)
	}

	// Safeguard the configuration.
	if d.client.Timeout <= 0 {
		d.client.Timeout = defaultTimeout
	}

	if d.maxBodySize <= 0 {
		d.maxBodySize = defaultMaxBodySize
	}

	return d
}

// HTTPDownloaderOption is option to set up HTTPDownloader.
type HTTPDownloaderOption interface {
	applyHTTPDownloaderOption(d *HTTPDownloader)
}

type httpDownloaderOptionFunc func(d *HTTPDownloader)

func (f httpDownloaderOptionFunc) applyHTTPDownloaderOption(d *HTTPDownloader) {
	f(d)
}

// WithLogger sets logger for HTTPDownloader.
func WithLogger(l ctxd.Logger) HTTPDownloaderOption {
	return httpDownloaderOptionFunc(func(d *HTTPDownloader) {
		d.log = l
	})
}

// WithClientTimeout sets timeout for HTTP client.
func WithClientTimeout(t time.Duration) HTTPDownloaderOption {
	return httpDownloaderOptionFunc(func(d *HTTPDownloader) {
		d.client.Timeout = t
	})
}

// WithUserAgent sets the user agent of the requests.
func WithUserAgent(ua string) HTTPDownloaderOption {
	return httpDownloaderOptionFunc(func(d *HTTPDownloader) {
		d.userAgent = ua
	})
}

// WithMaxBodySize sets the maximum number of bytes read from a response body.
func WithMaxBodySize(n int64) HTTPDownloaderOption {
	return httpDownloaderOptionFunc(func(d *HTTPDownloader) {
		d.maxBodySize = n
	})
}

// WithLinkCollectors replaces all the link collectors of HTTPDownloader.
func WithLinkCollectors(collectors map[string]collector.LinkCollector) HTTPDownloaderOption {
	return httpDownloaderOptionFunc(func(d *HTTPDownloader) {
		d.collectors = collectors
	})
}

// WithLinkCollector sets link collector for HTTPDownloader for multiple content types.
func WithLinkCollector(collector collector.LinkCollector, contentTypes ...string) HTTPDownloaderOption {
	return httpDownloaderOptionFunc(func(d *HTTPDownloader) {
		for _, contentType := range contentTypes {
			d.collectors[contentType] = collector
		}
	})
}

// parseURL parses the url string into an url.URL.
//
// - If the url string does not have a scheme, it will default to https.
// - If the url string is not a valid url, it will return an error.
// - If the url string does not start with http and https, it will return an error.
func parseURL(s string) (*url.URL, error) {
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, err // nolint: wrapcheck // *url.URL error is meaningful, we do not need to wrap it.
	}

	if u.Host == "" {
		return nil, fmt.Errorf("parse %q: %w", s, ErrMissingHostname)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse %q: %w %q", s, ErrUnsupportedScheme, u.Scheme)
	}

	return u, nil
}
