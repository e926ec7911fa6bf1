// Package jsast parses JavaScript and TypeScript sources with tree-sitter and
// exposes the resulting syntax tree through a small, closed set of node kinds.
package jsast

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

var (
	// ErrSyntax is returned when the source contains syntax errors.
	ErrSyntax = errors.New("syntax error")
	// ErrUnsupportedLanguage is returned for files with no known dialect.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// Language is the dialect a file is parsed with.
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
)

// LanguageFromExtension maps a file extension (with leading dot) to a dialect.
func LanguageFromExtension(ext string) (Language, bool) {
	switch strings.ToLower(ext) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return LangJavaScript, true
	case ".ts", ".mts", ".cts":
		return LangTypeScript, true
	case ".tsx":
		return LangTSX, true
	default:
		return "", false
	}
}

func (l Language) grammar() (*sitter.Language, error) {
	switch l {
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, l)
	}
}

// File is one parsed source file.
type File struct {
	Path   string
	Lang   Language
	Source []byte
	Root   Node
}

// Parser turns source text into syntax trees. A fresh tree-sitter parser is
// created per call, so a single Parser is safe for concurrent use.
type Parser struct{}

// NewParser creates a new parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile reads and parses a single source file, picking the dialect from its extension.
func (p *Parser) ParseFile(ctx context.Context, path string) (*File, error) {
	lang, ok := LanguageFromExtension(filepath.Ext(path))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, path)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return p.Parse(ctx, path, source, lang)
}

// Parse parses source bytes with the given dialect.
func (p *Parser) Parse(ctx context.Context, path string, source []byte, lang Language) (*File, error) {
	grammar, err := lang.grammar()
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(grammar)
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", path, err)
	}

	root := tree.RootNode()
	if root.HasError() {
		line, col := firstErrorPosition(root)
		return nil, fmt.Errorf("%w in %s at %d:%d", ErrSyntax, path, line, col)
	}

	return &File{
		Path:   path,
		Lang:   lang,
		Source: source,
		Root:   Node{raw: root, src: source},
	}, nil
}

// firstErrorPosition returns the 1-based position of the first ERROR or missing node.
func firstErrorPosition(root *sitter.Node) (int, int) {
	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()

	for {
		n := cursor.CurrentNode()
		if n.Type() == "ERROR" || n.IsMissing() {
			pt := n.StartPoint()
			return int(pt.Row) + 1, int(pt.Column) + 1
		}
		if n.HasError() && cursor.GoToFirstChild() {
			continue
		}
		for !cursor.GoToNextSibling() {
			if !cursor.GoToParent() {
				pt := root.StartPoint()
				return int(pt.Row) + 1, int(pt.Column) + 1
			}
		}
	}
}
