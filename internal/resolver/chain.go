package resolver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// ResolveStats counts specifier resolution outcomes.
type ResolveStats struct {
	Attempted int
	Resolved  int
	Skipped   int
}

func (s *ResolveStats) Add(o ResolveStats) {
	s.Attempted += o.Attempted
	s.Resolved += o.Resolved
	s.Skipped += o.Skipped
}

// SpecifierResolver turns an absolute, extension-less candidate path into a
// file on disk.
type SpecifierResolver interface {
	Name() string
	Resolve(candidate string) (string, bool)
}

// ResolverChain tries each resolver in order and stops at the first hit.
type ResolverChain struct {
	resolvers []SpecifierResolver
}

func NewResolverChain(resolvers ...SpecifierResolver) *ResolverChain {
	return &ResolverChain{resolvers: resolvers}
}

// DefaultExtensions are probed, in order, after the exact path.
var DefaultExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".json"}

// NewDefaultChain follows Node's lookup order: the file itself, the file with
// a known extension, TypeScript sources behind .js specifiers, then the
// directory's package.json main and index file.
func NewDefaultChain() *ResolverChain {
	files := &FileResolver{Extensions: DefaultExtensions}
	return NewResolverChain(
		files,
		&TSSourceResolver{},
		&DirectoryResolver{Files: files},
	)
}

func (c *ResolverChain) Resolve(candidate string) (string, string, bool) {
	for _, r := range c.resolvers {
		if path, ok := r.Resolve(candidate); ok {
			return path, r.Name(), true
		}
	}
	return "", "", false
}

// FileResolver matches the candidate itself or the candidate plus an extension.
type FileResolver struct {
	Extensions []string
}

func (r *FileResolver) Name() string {
	return "file"
}

func (r *FileResolver) Resolve(candidate string) (string, bool) {
	if strings.HasSuffix(candidate, string(filepath.Separator)) {
		return "", false
	}
	if isFile(candidate) {
		return candidate, true
	}
	for _, ext := range r.Extensions {
		if isFile(candidate + ext) {
			return candidate + ext, true
		}
	}
	return "", false
}

// TSSourceResolver maps compiled-output specifiers (./users.js) to the
// TypeScript source next to them (./users.ts).
type TSSourceResolver struct{}

func (r *TSSourceResolver) Name() string {
	return "ts-source"
}

var tsSourceExts = map[string][]string{
	".js":  {".ts", ".tsx"},
	".jsx": {".tsx"},
	".mjs": {".mts"},
	".cjs": {".cts"},
}

func (r *TSSourceResolver) Resolve(candidate string) (string, bool) {
	ext := filepath.Ext(candidate)
	alts, ok := tsSourceExts[ext]
	if !ok {
		return "", false
	}
	stem := strings.TrimSuffix(candidate, ext)
	for _, alt := range alts {
		if isFile(stem + alt) {
			return stem + alt, true
		}
	}
	return "", false
}

// DirectoryResolver resolves a directory through its package.json "main"
// field, falling back to an index file.
type DirectoryResolver struct {
	Files *FileResolver
}

func (r *DirectoryResolver) Name() string {
	return "directory"
}

func (r *DirectoryResolver) Resolve(candidate string) (string, bool) {
	dir := filepath.Clean(candidate)
	if !isDir(dir) {
		return "", false
	}
	if main, ok := packageMain(dir); ok {
		target := filepath.Join(dir, main)
		if path, ok := r.Files.Resolve(target); ok {
			return path, true
		}
		if path, ok := r.Files.Resolve(filepath.Join(target, "index")); ok {
			return path, true
		}
	}
	return r.Files.Resolve(filepath.Join(dir, "index"))
}

func packageMain(dir string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return "", false
	}
	var pkg struct {
		Main string `json:"main"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil || pkg.Main == "" {
		return "", false
	}
	return pkg.Main, true
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
