package crawl

import "github.com/fwojciec/webrag"

// renderGain is how much longer the rendered content must be before the
// browser is worth its cost.
const renderGain = 1.5

// ContentDiffers reports whether rendering JavaScript changes what the
// extractor finds: true when the browser's content is more than 50% longer
// than the static HTML's, or when either extraction fails.
func ContentDiffers(httpHTML, rodHTML string, extractor webrag.Extractor) bool {
	httpResult, err := extractor.Extract(httpHTML)
	if err != nil {
		return true
	}
	rodResult, err := extractor.Extract(rodHTML)
	if err != nil {
		return true
	}

	httpLen := len(httpResult.ContentHTML)
	rodLen := len(rodResult.ContentHTML)
	if httpLen == 0 {
		return rodLen > 0
	}
	return float64(rodLen) > float64(httpLen)*renderGain
}
