package crawler

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// SourceExtensions are the file extensions scanned for route declarations.
var SourceExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".mts", ".cts"}

// Crawler enumerates the source files of a codebase.
type Crawler struct {
	ignored    []string
	skipDirs   []string
	extensions map[string]bool
	logger     *slog.Logger
}

// NewCrawler creates a crawler that skips files matching any of the ignore
// globs. Patterns use doublestar syntax and are matched against both the
// entry-relative and the absolute slash path.
func NewCrawler(ignore []string, logger *slog.Logger) (*Crawler, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	for _, pattern := range ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	exts := make(map[string]bool, len(SourceExtensions))
	for _, ext := range SourceExtensions {
		exts[ext] = true
	}
	return &Crawler{
		ignored:    append([]string(nil), ignore...),
		skipDirs:   []string{".git"},
		extensions: exts,
		logger:     logger,
	}, nil
}

// Files walks root and returns the absolute paths of every source file, sorted.
// A root that is itself a file is returned as the only entry.
func (c *Crawler) Files(root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entry %s: %w", root, err)
	}

	var files []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == abs {
				return err
			}
			c.logger.Warn("skipping unreadable path", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(abs, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == abs {
				return nil
			}
			for _, name := range c.skipDirs {
				if d.Name() == name {
					return filepath.SkipDir
				}
			}
			if c.ignoredDir(rel, filepath.ToSlash(path)) {
				c.logger.Debug("skipping ignored directory", "path", path)
				return filepath.SkipDir
			}
			return nil
		}

		if !c.isSource(d.Name()) {
			return nil
		}
		if path != abs && c.ignoredFile(rel, filepath.ToSlash(path)) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(files)
	c.logger.Debug("enumerated source files", "entry", abs, "count", len(files))
	return files, nil
}

func (c *Crawler) isSource(name string) bool {
	if strings.HasSuffix(name, ".d.ts") || strings.HasSuffix(name, ".d.mts") || strings.HasSuffix(name, ".d.cts") {
		return false
	}
	return c.extensions[filepath.Ext(name)]
}

func (c *Crawler) ignoredFile(rel, abs string) bool {
	for _, pattern := range c.ignored {
		if match(pattern, rel) || match(pattern, abs) {
			return true
		}
	}
	return false
}

// ignoredDir prunes a directory when a pattern matches everything below it.
func (c *Crawler) ignoredDir(rel, abs string) bool {
	for _, pattern := range c.ignored {
		if match(pattern, rel) || match(pattern, abs) {
			return true
		}
		if strings.HasSuffix(pattern, "/**") {
			dirPattern := strings.TrimSuffix(pattern, "/**")
			if match(dirPattern, rel) || match(dirPattern, abs) {
				return true
			}
		}
	}
	return false
}

func match(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}
