package crawler

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// numURLSetShards is the number of shards of an urlSet. It must be a power of 2.
const numURLSetShards = 32

// urlSet is a set of urls that is safe for concurrent use.
//
// The urls are spread over several shards by their hash, so that adding unrelated urls seldom waits for the same lock.
type urlSet struct {
	shards [numURLSetShards]urlSetShard
}

type urlSetShard struct {
	mu   sync.Mutex
	urls map[string]struct{}
}

// Add adds the url to the set. It returns false if the url is already in the set.
func (s *urlSet) Add(u string) bool {
	shard := &s.shards[xxhash.Sum64String(u)&(numURLSetShards-1)]

	shard.mu.Lock()
	defer shard.mu.Unlock()

	if shard.urls == nil {
		shard.urls = make(map[string]struct{})
	}

	if _, ok := shard.urls[u]; ok {
		return false
	}

	shard.urls[u] = struct{}{}

	return true
}

// Len returns the number of urls in the set.
func (s *urlSet) Len() int {
	n := 0

	for i := range s.shards {
		s.shards[i].mu.Lock()
		n += len(s.shards[i].urls)
		s.shards[i].mu.Unlock()
	}

	return n
}

// crawlState holds the bookkeeping of one traversal.
type crawlState struct {
	visited urlSet

	mu         sync.Mutex
	downloaded map[string]struct{}
	errors     map[string]error
}

// visit marks the url as visited. It returns false if the url has been visited before.
func (s *crawlState) visit(u string) bool {
	return s.visited.Add(u)
}

// succeed records a successful download.
func (s *crawlState) succeed(u string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.downloaded[u] = struct{}{}
}

// fail records an error against the url.
func (s *crawlState) fail(u string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errors[u] = err
}

// result returns a snapshot of the state.
func (s *crawlState) result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := Result{
		URLs:   make([]string, 0, len(s.downloaded)),
		Errors: make(map[string]error, len(s.errors)),
	}

	for u := range s.downloaded {
		r.URLs = append(r.URLs, u)
	}

	for u, err := range s.errors {
		r.Errors[u] = err
	}

	sort.Strings(r.URLs)

	return r
}

func newCrawlState() *crawlState {
	return &crawlState{
		downloaded: make(map[string]struct{}),
		errors:     make(map[string]error),
	}
}
