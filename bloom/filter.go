// Package bloom deduplicates crawl URLs with a Bloom filter.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter is a set of URLs that may report false positives but never false
// negatives. It is not safe for concurrent use.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter returns a Filter sized for n URLs at the given false positive
// rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{f: bloom.NewWithEstimates(n, fpRate)}
}

// Add records url.
func (f *Filter) Add(url string) {
	f.f.AddString(url)
}

// Test reports whether url may have been added.
func (f *Filter) Test(url string) bool {
	return f.f.TestString(url)
}

// TestAndAdd records url and reports whether it may have been added before.
func (f *Filter) TestAndAdd(url string) bool {
	return f.f.TestAndAddString(url)
}

// EstimatedCount returns the approximate number of URLs added.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
