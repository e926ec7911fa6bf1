package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"INSPECTOR_ENTRY", "INSPECTOR_FRAMEWORK", "INSPECTOR_IGNORE", "INSPECTOR_DB"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ".", cfg.Entry)
	assert.Equal(t, "express", cfg.Framework)
	assert.Equal(t, []string{"**/node_modules/**"}, cfg.Ignore)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, ".inspectorrc.yml", `
entry: ./src
framework: koa
ignore:
  - "**/dist/**"
concurrency: 4
openapi_info:
  title: Shop API
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, "./src", cfg.Entry)
	assert.Equal(t, "koa", cfg.Framework)
	assert.Equal(t, []string{"**/dist/**"}, cfg.Ignore)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "Shop API", cfg.OpenAPIInfo.Title)

	t.Run("Unset fields keep defaults", func(t *testing.T) {
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "1.0.0", cfg.OpenAPIInfo.Version)
	})
}

func TestLoad_JSONRc(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, ".inspectorrc", `{"framework": "fastify", "html": "routes.html"}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "fastify", cfg.Framework)
	assert.Equal(t, "routes.html", cfg.HTML)
}

func TestFind_SearchOrder(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, Find(dir))

	writeFile(t, dir, "inspector.config.yaml", "framework: koa\n")
	assert.Equal(t, filepath.Join(dir, "inspector.config.yaml"), Find(dir))

	writeFile(t, dir, ".inspectorrc.json", `{"framework": "express"}`)
	assert.Equal(t, filepath.Join(dir, ".inspectorrc.json"), Find(dir))

	writeFile(t, dir, ".inspectorrc", "framework: fastify\n")
	assert.Equal(t, filepath.Join(dir, ".inspectorrc"), Find(dir))
}

func TestLoadFile_SchemaRejects(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"unknown framework", "framework: hapi\n"},
		{"unknown key", "entrypoint: ./src\n"},
		{"ignore not a list", "ignore: '**/dist/**'\n"},
		{"negative concurrency", "concurrency: -1\n"},
		{"bad log level", "log_level: verbose\n"},
		{"malformed yaml", "framework: [express\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "bad.yaml", tt.content)
			_, err := LoadFile(path)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadFile_Empty(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.yaml", "")
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "express", cfg.Framework)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, ".inspectorrc.yaml", "framework: koa\nentry: ./from-file\n")

	t.Setenv("INSPECTOR_FRAMEWORK", "fastify")
	t.Setenv("INSPECTOR_IGNORE", "**/dist/**, ,**/*.spec.ts")
	t.Setenv("INSPECTOR_DB", "history.db")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "fastify", cfg.Framework)
	assert.Equal(t, "./from-file", cfg.Entry)
	assert.Equal(t, []string{"**/dist/**", "**/*.spec.ts"}, cfg.Ignore)
	assert.Equal(t, "history.db", cfg.DB)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	// .env never overrides a variable that is already set, even to "".
	require.NoError(t, os.Unsetenv("INSPECTOR_ENTRY"))
	dir := t.TempDir()
	writeFile(t, dir, ".env", "INSPECTOR_ENTRY=./from-dotenv\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "./from-dotenv", cfg.Entry)
}
