package crawler

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// hostThrottle limits the number of download units of a host that run at the same time.
//
// The units that could not be admitted are deferred to a FIFO backlog. When a running unit releases its slot, the slot is handed over to the
// oldest deferred unit. Therefore, the backlog is not empty only when all the slots are taken.
type hostThrottle struct {
	mu      sync.Mutex
	slots   *semaphore.Weighted
	backlog []*downloadUnit
	submit  func(u unit) bool
}

// admit submits the unit for downloading if there is a free slot, or defers it otherwise.
func (h *hostThrottle) admit(u *downloadUnit) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.slots.TryAcquire(1) {
		h.submit(u)

		return
	}

	h.backlog = append(h.backlog, u)
}

// release frees the slot of a finished unit, or hands it over to the oldest deferred unit.
func (h *hostThrottle) release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.backlog) == 0 {
		h.slots.Release(1)

		return
	}

	next := h.backlog[0]
	h.backlog[0] = nil
	h.backlog = h.backlog[1:]

	h.submit(next)
}

// deferred returns the number of units in the backlog.
func (h *hostThrottle) deferred() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.backlog)
}

func newHostThrottle(limit int, submit func(u unit) bool) *hostThrottle {
	return &hostThrottle{
		slots:  semaphore.NewWeighted(int64(limit)),
		submit: submit,
	}
}

// hostThrottles is a registry of throttles, one per host. Throttles are created on the first use.
type hostThrottles struct {
	mu        sync.Mutex
	throttles map[string]*hostThrottle
	limit     int
	submit    func(u unit) bool
}

func (r *hostThrottles) get(host string) *hostThrottle {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.throttles[host]
	if !ok {
		h = newHostThrottle(r.limit, r.submit)
		r.throttles[host] = h
	}

	return h
}

func newHostThrottles(limit int, submit func(u unit) bool) *hostThrottles {
	return &hostThrottles{
		throttles: make(map[string]*hostThrottle),
		limit:     limit,
		submit:    submit,
	}
}
