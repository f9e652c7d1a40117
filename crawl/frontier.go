package crawl

import (
	"container/heap"
	"strings"
	"sync"

	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/bloom"
)

var _ webrag.URLFrontier = (*Frontier)(nil)

// Frontier is an in-memory priority queue of links with Bloom filter
// deduplication. Links of equal priority pop in the order they were pushed.
// It is safe for concurrent use.
type Frontier struct {
	mu    sync.Mutex
	seen  *bloom.Filter
	queue *linkHeap
	seq   int
}

// NewFrontier returns a Frontier sized for n URLs at the given false
// positive rate.
func NewFrontier(n uint, fpRate float64) *Frontier {
	h := &linkHeap{}
	heap.Init(h)
	return &Frontier{
		seen:  bloom.NewFilter(n, fpRate),
		queue: h,
	}
}

// Push queues link unless its URL, ignoring any fragment, was seen before.
func (f *Frontier) Push(link webrag.DiscoveredLink) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	link.URL = stripFragment(link.URL)
	if f.seen.TestAndAdd(link.URL) {
		return false
	}

	heap.Push(f.queue, queuedLink{link: link, seq: f.seq})
	f.seq++
	return true
}

// Pop returns the highest-priority link, or false if the queue is empty.
func (f *Frontier) Pop() (webrag.DiscoveredLink, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.queue.Len() == 0 {
		return webrag.DiscoveredLink{}, false
	}
	item, _ := heap.Pop(f.queue).(queuedLink)
	return item.link, true
}

// Len returns the number of queued links.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queue.Len()
}

// Seen reports whether the URL, ignoring any fragment, was ever pushed.
func (f *Frontier) Seen(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen.Test(stripFragment(rawURL))
}

func stripFragment(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i != -1 {
		return rawURL[:i]
	}
	return rawURL
}

type queuedLink struct {
	link webrag.DiscoveredLink
	seq  int
}

// linkHeap is a max-heap on priority, FIFO within a priority.
type linkHeap []queuedLink

func (h linkHeap) Len() int { return len(h) }

func (h linkHeap) Less(i, j int) bool {
	if h[i].link.Priority != h[j].link.Priority {
		return h[i].link.Priority > h[j].link.Priority
	}
	return h[i].seq < h[j].seq
}

func (h linkHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *linkHeap) Push(x any) {
	item, _ := x.(queuedLink)
	*h = append(*h, item)
}

func (h *linkHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
