package resolver

import (
	"log/slog"
	"path/filepath"
	"strings"

	"inspector/internal/extractor"
	"inspector/internal/jsast"
)

// Bindings maps a local identifier (or the synthetic name of an inline
// require) to the absolute path of the file it was imported from.
type Bindings map[string]string

// ImportResolver builds per-file import maps for local modules.
type ImportResolver struct {
	chain  *ResolverChain
	logger *slog.Logger
}

func NewImportResolver(logger *slog.Logger) *ImportResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportResolver{chain: NewDefaultChain(), logger: logger}
}

// Resolve collects every require and import of a relative or absolute
// specifier in f. Bare package specifiers are ignored and specifiers that
// do not resolve to a file are skipped.
func (r *ImportResolver) Resolve(f *jsast.File) (Bindings, ResolveStats) {
	out := Bindings{}
	stats := ResolveStats{}
	if f == nil || f.Root.IsZero() {
		return out, stats
	}

	jsast.Walk(f.Root, func(n jsast.Node) bool {
		switch n.Kind() {
		case jsast.KindVariableDeclarator, jsast.KindImport:
			imp, ok := extractor.ParseModuleImport(n)
			if !ok || !IsLocalSpecifier(imp.Specifier) {
				return true
			}
			target, ok := r.resolveCounted(f.Path, imp.Specifier, &stats)
			if !ok {
				return true
			}
			for _, local := range imp.Locals() {
				out[local] = target
			}
		case jsast.KindCall:
			spec, ok := extractor.RequireSpecifier(n)
			if !ok || !IsLocalSpecifier(spec) {
				return true
			}
			if target, ok := r.ResolveSpecifier(f.Path, spec); ok {
				out[extractor.RequireName(spec)] = target
			}
		}
		return true
	})
	return out, stats
}

func (r *ImportResolver) resolveCounted(from, spec string, stats *ResolveStats) (string, bool) {
	stats.Attempted++
	target, ok := r.ResolveSpecifier(from, spec)
	if !ok {
		stats.Skipped++
		r.logger.Debug("unresolved import", "file", from, "specifier", spec)
		return "", false
	}
	stats.Resolved++
	return target, true
}

// ResolveSpecifier resolves spec as imported from the file fromFile.
func (r *ImportResolver) ResolveSpecifier(fromFile, spec string) (string, bool) {
	if !IsLocalSpecifier(spec) {
		return "", false
	}
	candidate := filepath.Clean(filepath.FromSlash(spec))
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(filepath.Dir(fromFile), candidate)
	}
	path, _, ok := r.chain.Resolve(candidate)
	if !ok {
		return "", false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, true
	}
	return abs, true
}

// IsLocalSpecifier reports whether spec names a file rather than a package.
func IsLocalSpecifier(spec string) bool {
	switch {
	case spec == "." || spec == "..":
		return true
	case strings.HasPrefix(spec, "./"), strings.HasPrefix(spec, "../"), strings.HasPrefix(spec, "/"):
		return true
	}
	return false
}
