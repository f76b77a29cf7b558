package crawler

import (
	"fmt"
	"time"

	"github.com/bool64/ctxd"
)

var (
	_ unit = (*downloadUnit)(nil)
	_ unit = (*extractionUnit)(nil)
)

// downloadUnit downloads a page after its host throttle admits it.
type downloadUnit struct {
	traversal *traversal

	url   string
	host  string
	depth int // Remaining depth, the page itself included.
}

func (u *downloadUnit) run() {
	t := u.traversal
	ctx := ctxd.AddFields(t.ctx,
		"crawler.url", u.url,
		"crawler.host", u.host,
		"crawler.depth", u.depth,
	)

	// Release the slot first, then arrive. The arrival may release the waiter of the traversal.
	defer t.barrier.Arrive()
	defer t.hosts.get(u.host).release()

	if ctx.Err() != nil {
		return
	}

	startTime := time.Now()

	t.log.Debug(ctx, "started downloading")

	doc, err := t.downloader.Download(ctx, u.url)
	if err != nil {
		t.log.Error(ctx, "could not download page", "error", err)
		t.state.fail(u.url, fmt.Errorf("%w: %w", ErrDownload, err))

		return
	}

	t.state.succeed(u.url)

	t.log.Debug(ctx, "finished downloading", "crawler.duration", time.Since(startTime).String())

	if u.depth > 1 {
		t.extract(u.url, doc, u.depth)
	}
}

// extractionUnit follows the links of a downloaded page.
type extractionUnit struct {
	traversal *traversal

	url      string
	document Document
	depth    int // Remaining depth of the page, the links are spawned with depth - 1.
}

func (u *extractionUnit) run() {
	t := u.traversal
	ctx := ctxd.AddFields(t.ctx,
		"crawler.url", u.url,
		"crawler.depth", u.depth,
	)

	defer t.barrier.Arrive()

	if ctx.Err() != nil {
		return
	}

	numLinks, numSpawned := 0, 0

	for link, err := range u.document.Links() {
		if err != nil {
			t.log.Error(ctx, "could not extract links", "error", err)
			t.state.fail(u.url, fmt.Errorf("%w: %w", ErrExtraction, err))

			break
		}

		numLinks++

		if !t.state.visit(link) {
			continue
		}

		numSpawned++

		t.spawn(link, u.depth-1)
	}

	t.log.Debug(ctx, "extracted links",
		"crawler.num_links", numLinks,
		"crawler.num_new_links", numSpawned,
	)
}
