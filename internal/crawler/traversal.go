package crawler

import (
	"context"
	"errors"
	"fmt"

	"github.com/bool64/ctxd"
)

// traversal is the state of one WebCrawler.Download call.
type traversal struct {
	ctx        context.Context
	downloader Downloader
	resolver   HostResolver
	log        ctxd.Logger

	state   *crawlState
	barrier *barrier
	hosts   *hostThrottles

	extractors *workerPool
}

// spawn schedules a download unit for an url that has just been visited.
//
// The unit is registered on the barrier before it is admitted. An url without a resolvable host is reported as malformed and no unit is
// spawned for it.
func (t *traversal) spawn(url string, depth int) {
	host, err := t.resolver.Host(url)
	if err != nil {
		if !errors.Is(err, ErrMalformedURL) {
			err = fmt.Errorf("%w: %w", ErrMalformedURL, err)
		}

		t.log.Debug(t.ctx, "could not resolve host", "crawler.url", url, "error", err)
		t.state.fail(url, err)

		return
	}

	t.barrier.Register()
	t.hosts.get(host).admit(&downloadUnit{
		traversal: t,
		url:       url,
		host:      host,
		depth:     depth,
	})
}

// extract schedules an extraction unit for a downloaded page.
func (t *traversal) extract(url string, doc Document, depth int) {
	t.barrier.Register()
	t.extractors.submit(&extractionUnit{
		traversal: t,
		url:       url,
		document:  doc,
		depth:     depth,
	})
}

func newTraversal(ctx context.Context, c *WebCrawler) *traversal {
	return &traversal{
		ctx:        ctx,
		downloader: c.downloader,
		resolver:   c.resolver,
		log:        c.log,

		state:   newCrawlState(),
		barrier: newBarrier(),
		hosts: newHostThrottles(c.perHostLimit, func(u unit) bool {
			return c.downloaders.submit(u)
		}),

		extractors: c.extractors,
	}
}
