package main_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	main "github.com/fwojciec/webrag/cmd/webrag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParser(t *testing.T, cli *main.CLI, configPaths ...string) *kong.Kong {
	t.Helper()
	parser, err := kong.New(cli,
		kong.Writers(&bytes.Buffer{}, &bytes.Buffer{}),
		kong.Exit(func(int) {}),
		kong.Configuration(main.YAMLLoader, configPaths...),
	)
	require.NoError(t, err)
	return parser
}

func TestYAMLLoader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"max-pages: 7",
		"top_k: 3",
		"render: http",
		"verbose: true",
		"exclude:",
		"  - /careers",
		"  - /cart",
	}, "\n")), 0o600))

	t.Run("reads values", func(t *testing.T) {
		t.Parallel()

		cli := &main.CLI{}
		_, err := newParser(t, cli, path).Parse([]string{"status"})

		require.NoError(t, err)
		assert.Equal(t, 7, cli.MaxPages)
		assert.Equal(t, 3, cli.TopK)
		assert.Equal(t, "http", cli.Render)
		assert.True(t, cli.Verbose)
		assert.Equal(t, []string{"/careers", "/cart"}, cli.Exclude)
	})

	t.Run("flags win over file", func(t *testing.T) {
		t.Parallel()

		cli := &main.CLI{}
		_, err := newParser(t, cli, path).Parse([]string{"--max-pages=9", "status"})

		require.NoError(t, err)
		assert.Equal(t, 9, cli.MaxPages)
	})

	t.Run("missing file keeps defaults", func(t *testing.T) {
		t.Parallel()

		cli := &main.CLI{}
		_, err := newParser(t, cli, filepath.Join(t.TempDir(), "absent.yaml")).Parse([]string{"status"})

		require.NoError(t, err)
		assert.Equal(t, 20, cli.MaxPages)
		assert.Equal(t, "auto", cli.Render)
		assert.Equal(t, []string{"/privacy-policy", "/terms-of-service", "/login", "/signup"}, cli.Exclude)
	})

	t.Run("invalid YAML", func(t *testing.T) {
		t.Parallel()

		_, err := main.YAMLLoader(strings.NewReader("max-pages: [unclosed"))

		assert.Error(t, err)
	})
}
