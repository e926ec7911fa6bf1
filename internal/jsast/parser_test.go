package jsast

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageFromExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want Language
		ok   bool
	}{
		{".js", LangJavaScript, true},
		{".JSX", LangJavaScript, true},
		{".cjs", LangJavaScript, true},
		{".ts", LangTypeScript, true},
		{".mts", LangTypeScript, true},
		{".tsx", LangTSX, true},
		{".go", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := LanguageFromExtension(tt.ext)
		assert.Equal(t, tt.ok, ok, tt.ext)
		assert.Equal(t, tt.want, got, tt.ext)
	}
}

func TestParser_Parse(t *testing.T) {
	src := []byte("const app = express();\napp.get(`/a`, (req, res) => res.send('ok'));\n")

	f, err := NewParser().Parse(context.Background(), "app.js", src, LangJavaScript)
	require.NoError(t, err)
	assert.Equal(t, KindProgram, f.Root.Kind())

	var kinds []Kind
	Walk(f.Root, func(n Node) bool {
		kinds = append(kinds, n.Kind())
		return true
	})
	assert.Contains(t, kinds, KindVariableDeclarator)
	assert.Contains(t, kinds, KindCall)
	assert.Contains(t, kinds, KindMember)
	assert.Contains(t, kinds, KindTemplate)
	assert.Contains(t, kinds, KindFunction)

	t.Run("Call helpers", func(t *testing.T) {
		var call Node
		Walk(f.Root, func(n Node) bool {
			if n.Kind() == KindCall && call.IsZero() {
				if _, prop, ok := n.Callee().MemberParts(); ok && prop == "get" {
					call = n
				}
			}
			return true
		})
		require.False(t, call.IsZero())
		assert.Equal(t, 2, call.Line())
		assert.Len(t, call.Args(), 2)

		obj, prop, ok := call.Callee().MemberParts()
		require.True(t, ok)
		assert.Equal(t, "get", prop)
		assert.Equal(t, "app", obj.Name())
	})
}

func TestParser_TypeScript(t *testing.T) {
	src := []byte("import express, { Router } from 'express';\nconst router: Router = (express.Router() as Router);\n")

	f, err := NewParser().Parse(context.Background(), "routes.ts", src, LangTypeScript)
	require.NoError(t, err)

	var value Node
	Walk(f.Root, func(n Node) bool {
		if n.Kind() == KindVariableDeclarator {
			value = n.Field("value")
		}
		return true
	})
	require.False(t, value.IsZero())
	assert.Equal(t, KindCall, value.Unwrap().Kind())
}

func TestParser_SyntaxError(t *testing.T) {
	_, err := NewParser().Parse(context.Background(), "broken.js", []byte("const = = ;\napp.get("), LangJavaScript)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestParser_ParseFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("Unsupported extension", func(t *testing.T) {
		_, err := NewParser().ParseFile(context.Background(), filepath.Join(dir, "main.go"))
		assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	})

	t.Run("TSX file", func(t *testing.T) {
		path := filepath.Join(dir, "view.tsx")
		require.NoError(t, os.WriteFile(path, []byte("const el = <div>{name}</div>;\n"), 0o644))

		f, err := NewParser().ParseFile(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, LangTSX, f.Lang)
		assert.Equal(t, path, f.Path)
	})
}

func TestNode_ZeroValue(t *testing.T) {
	var n Node
	assert.True(t, n.IsZero())
	assert.Equal(t, KindUnknown, n.Kind())
	assert.Equal(t, "", n.Text())
	assert.Nil(t, n.Args())
	assert.True(t, n.Field("name").IsZero())
	assert.Equal(t, "unknown", n.Kind().String())
}
