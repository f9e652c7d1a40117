package crawl

import (
	"context"

	"github.com/fwojciec/webrag"
	"golang.org/x/sync/errgroup"
)

// Frontier sizing and the hard cap on fetched URLs per crawl.
const (
	frontierExpectedURLs      = 10000
	frontierFalsePositiveRate = 0.01
	maxRecursiveCrawlURLs     = 1000
)

// walkProcessor fetches and parses one URL. It runs on a worker goroutine.
type walkProcessor func(ctx context.Context, link webrag.DiscoveredLink) crawlResult

// walkResultHandler consumes a result on the coordinator goroutine, pushing
// discovered links back to the frontier. It reports whether the result
// produced a page.
type walkResultHandler func(result *crawlResult) bool

type walkJob struct {
	seq  int
	link webrag.DiscoveredLink
}

// walkFrontier pops links by priority and fans them out to a pool of
// workers until the frontier drains or maxPages pages are collected. Work
// in flight counts toward maxPages, so no more than maxPages results are
// ever accepted. Results are handled one at a time.
func (c *Crawler) walkFrontier(
	ctx context.Context,
	frontier *Frontier,
	maxPages int,
	process walkProcessor,
	handle walkResultHandler,
) error {
	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	workCh := make(chan walkJob, concurrency)
	resultCh := make(chan crawlResult)

	g, gctx := errgroup.WithContext(ctx)
	for range concurrency {
		g.Go(func() error {
			for job := range workCh {
				res := process(gctx, job.link)
				res.seq = job.seq
				select {
				case resultCh <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(resultCh)
	}()

	dispatched := 0
	pending := 0
	collected := 0
	var next *webrag.DiscoveredLink
	pop := func() {
		if next != nil || dispatched >= maxRecursiveCrawlURLs || collected+pending >= maxPages {
			return
		}
		if link, ok := frontier.Pop(); ok {
			next = &link
		}
	}
	receive := func(res crawlResult) {
		pending--
		if handle(&res) {
			collected++
		}
	}

	pop()
loop:
	for next != nil || pending > 0 {
		if next != nil {
			select {
			case <-ctx.Done():
				break loop
			case workCh <- walkJob{seq: dispatched, link: *next}:
				dispatched++
				pending++
				next = nil
			case res := <-resultCh:
				receive(res)
			}
		} else {
			select {
			case <-ctx.Done():
				break loop
			case res, ok := <-resultCh:
				if !ok {
					break loop
				}
				receive(res)
			}
		}
		pop()
	}

	close(workCh)
	for range resultCh {
	}
	return ctx.Err()
}
