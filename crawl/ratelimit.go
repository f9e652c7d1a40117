package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/webrag"
	"golang.org/x/time/rate"
)

var _ webrag.DomainLimiter = (*DomainLimiter)(nil)

// DefaultRequestInterval spaces requests to one domain.
const DefaultRequestInterval = time.Second

// DomainLimiter spaces requests per domain with one token bucket each, so
// different hosts never wait on each other.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    rate.Limit
}

// NewDomainLimiter allows one request per interval to each domain, without
// bursting. A non-positive interval disables limiting.
func NewDomainLimiter(interval time.Duration) *DomainLimiter {
	every := rate.Inf
	if interval > 0 {
		every = rate.Every(interval)
	}
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		every:    every,
	}
}

// Wait blocks until a request to domain is allowed or ctx is done.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(d.every, 1)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}
