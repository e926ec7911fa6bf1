package crawler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("module.exports = {};\n"), 0o644))
	}
	return root
}

func relPaths(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, 0, len(files))
	for _, f := range files {
		require.True(t, filepath.IsAbs(f), f)
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestCrawler_Files(t *testing.T) {
	root := writeTree(t,
		"server.js",
		"routes/users.ts",
		"routes/admin.tsx",
		"routes/legacy.cjs",
		"routes/esm.mjs",
		"types/api.d.ts",
		"README.md",
		"package.json",
		"node_modules/express/index.js",
		"packages/web/node_modules/dep/index.js",
		".git/hooks/pre-commit.js",
		"dist/bundle.js",
		"test/users.spec.ts",
	)

	c, err := NewCrawler([]string{"**/node_modules/**", "dist/**", "**/*.spec.ts"}, nil)
	require.NoError(t, err)

	files, err := c.Files(root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"routes/admin.tsx",
		"routes/esm.mjs",
		"routes/legacy.cjs",
		"routes/users.ts",
		"server.js",
	}, relPaths(t, root, files))
}

func TestCrawler_NoIgnores(t *testing.T) {
	root := writeTree(t, "a.js", "lib/b.jsx", "node_modules/x/c.js")

	c, err := NewCrawler(nil, nil)
	require.NoError(t, err)

	files, err := c.Files(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.js", "lib/b.jsx", "node_modules/x/c.js"}, relPaths(t, root, files))
}

func TestCrawler_AbsolutePattern(t *testing.T) {
	root := writeTree(t, "keep.js", "generated/skip.js")
	pattern := filepath.ToSlash(filepath.Join(root, "generated")) + "/**"

	c, err := NewCrawler([]string{pattern}, nil)
	require.NoError(t, err)

	files, err := c.Files(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.js"}, relPaths(t, root, files))
}

func TestCrawler_SingleFileEntry(t *testing.T) {
	root := writeTree(t, "app.ts")
	c, err := NewCrawler([]string{"**/*.ts"}, nil)
	require.NoError(t, err)

	files, err := c.Files(filepath.Join(root, "app.ts"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "app.ts")}, files)
}

func TestNewCrawler_InvalidPattern(t *testing.T) {
	_, err := NewCrawler([]string{"routes/[abc"}, nil)
	assert.Error(t, err)
}

func TestCrawler_MissingEntry(t *testing.T) {
	c, err := NewCrawler(nil, nil)
	require.NoError(t, err)
	_, err = c.Files(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestCrawler_UnreadableDirectoryIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits do not restrict root")
	}
	root := writeTree(t, "server.js", "locked/hidden.js", "routes/users.js")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	c, err := NewCrawler(nil, nil)
	require.NoError(t, err)
	files, err := c.Files(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"routes/users.js", "server.js"}, relPaths(t, root, files))
}
