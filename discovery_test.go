package webrag_test

import (
	"testing"

	"github.com/fwojciec/webrag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLFilter_Match(t *testing.T) {
	t.Parallel()

	t.Run("nil filter matches everything", func(t *testing.T) {
		t.Parallel()

		var f *webrag.URLFilter
		assert.True(t, f.Match("https://example.com/anything"))
	})

	t.Run("default excludes drop account and legal pages", func(t *testing.T) {
		t.Parallel()

		f, err := webrag.NewURLFilter(nil, webrag.DefaultExcludePatterns)
		require.NoError(t, err)

		assert.True(t, f.Match("https://example.com/docs/intro"))
		assert.False(t, f.Match("https://example.com/privacy-policy"))
		assert.False(t, f.Match("https://example.com/en/terms-of-service/"))
		assert.False(t, f.Match("https://example.com/login?next=/"))
		assert.False(t, f.Match("https://example.com/signup"))
	})

	t.Run("include narrows before exclude applies", func(t *testing.T) {
		t.Parallel()

		f, err := webrag.NewURLFilter([]string{`/docs/`}, []string{`/docs/old/`})
		require.NoError(t, err)

		assert.True(t, f.Match("https://example.com/docs/new"))
		assert.False(t, f.Match("https://example.com/blog/post"))
		assert.False(t, f.Match("https://example.com/docs/old/page"))
	})

	t.Run("invalid pattern is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := webrag.NewURLFilter([]string{`(`}, nil)

		require.Error(t, err)
		assert.Equal(t, webrag.EINVALID, webrag.ErrorCode(err))
	})
}
