package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	require.Equal(t, ":8080", cfg.Listen)
	require.Equal(t, LogLevelInfo, cfg.LogLevel)
	require.Equal(t, "assets/recipes", cfg.Bundle.Dir)
	require.Equal(t, "recipe.json", cfg.Bundle.RecipeFileName)
	require.Equal(t, "recipe.md", cfg.Bundle.MarkdownFileName)
	require.Equal(t, 4, cfg.Bundle.ScanWorkers)
	require.NoError(t, cfg.Validate())
}

func TestMustLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
listen: ":9090"
log_level: "debug"
bundle:
  dir: "/srv/recipes"
  folder_overrides:
    data-loader-basics: "dataloader-basics"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := MustLoad(path)

	require.Equal(t, ":9090", cfg.Listen)
	require.Equal(t, LogLevelDebug, cfg.LogLevel)
	require.Equal(t, "/srv/recipes", cfg.Bundle.Dir)
	require.Equal(t, "dataloader-basics", cfg.Bundle.FolderOverrides["data-loader-basics"])

	// Unset fields still pick up defaults.
	require.Equal(t, "index.json", cfg.Bundle.IndexFileName)
}

func TestMustLoadMissingFileUsesDefaults(t *testing.T) {
	cfg := MustLoad(filepath.Join(t.TempDir(), "nope.yml"))
	require.Equal(t, ":8080", cfg.Listen)
}

func TestMustLoadInvalidLogLevelPanics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: loud\n"), 0644))

	require.Panics(t, func() { MustLoad(path) })
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(envListen, ":7070")
	t.Setenv(envRedisURL, "redis://cache:6379/1")

	cfg := MustLoad(filepath.Join(t.TempDir(), "nope.yml"))

	require.Equal(t, ":7070", cfg.Listen)
	require.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
}
