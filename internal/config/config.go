package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

const (
	envRedisURL = "RECIPEVAULT_REDIS_URL"
	envListen   = "RECIPEVAULT_LISTEN"
	envLogLevel = "RECIPEVAULT_LOG_LEVEL"
)

// BundleConfig locates the static read-only asset bundle and names the files
// the scanner recognizes inside each recipe folder.
type BundleConfig struct {
	Dir              string `yaml:"dir"`
	IndexFileName    string `yaml:"index_filename"`
	RecipeFileName   string `yaml:"recipe_filename"`
	MarkdownFileName string `yaml:"markdown_filename"`
	ScanWorkers      int    `yaml:"scan_workers"`

	// FolderOverrides corrects the few legacy records whose id does not
	// match their bundle folder name. Keyed by record id.
	FolderOverrides map[string]string `yaml:"folder_overrides"`
}

// ExportConfig holds export-side knobs.
type ExportConfig struct {
	ArchiveBaseName string `yaml:"archive_basename"`
	DumpFileName    string `yaml:"dump_filename"`
}

// ShareConfig configures the public share pages. An empty TemplateFile means
// the built-in page template.
type ShareConfig struct {
	TemplateFile string `yaml:"template_file"`
}

type Config struct {
	Listen   string       `yaml:"listen"`
	URL      string       `yaml:"url"`
	LogLevel LogLevel     `yaml:"log_level"`
	RedisURL string       `yaml:"redis_url"`
	Bundle   BundleConfig `yaml:"bundle"`
	Export   ExportConfig `yaml:"export"`
	Share    ShareConfig  `yaml:"share"`
}

// MustLoad reads the YAML config at path, layering defaults underneath and
// environment overrides (plus .env, if present) on top. A missing config
// file is fine - the defaults describe a working local setup - but an
// unreadable or invalid one panics, as does an invalid final config.
func MustLoad(path string) *Config {
	_ = godotenv.Load()

	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			panic(fmt.Errorf("cannot parse config %s: %w", path, err))
		}
	case os.IsNotExist(err):
		// Run on defaults.
	default:
		panic(fmt.Errorf("cannot read config %s: %w", path, err))
	}

	cfg.SetDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		panic(fmt.Errorf("invalid config %s: %w", path, err))
	}

	return &cfg
}

func (c *Config) SetDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.URL == "" {
		c.URL = "http://localhost:8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = LogLevelInfo
	}
	if c.RedisURL == "" {
		c.RedisURL = "redis://localhost:6379/0"
	}
	if c.Bundle.Dir == "" {
		c.Bundle.Dir = "assets/recipes"
	}
	if c.Bundle.IndexFileName == "" {
		c.Bundle.IndexFileName = "index.json"
	}
	if c.Bundle.RecipeFileName == "" {
		c.Bundle.RecipeFileName = "recipe.json"
	}
	if c.Bundle.MarkdownFileName == "" {
		c.Bundle.MarkdownFileName = "recipe.md"
	}
	if c.Bundle.ScanWorkers < 1 {
		c.Bundle.ScanWorkers = 4
	}
	if c.Export.ArchiveBaseName == "" {
		c.Export.ArchiveBaseName = "recipes-export"
	}
	if c.Export.DumpFileName == "" {
		c.Export.DumpFileName = "recipes-export.json"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envRedisURL); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv(envListen); v != "" {
		c.Listen = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		c.LogLevel = LogLevel(v)
	}
}

func (c *Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	if c.Bundle.Dir == "" {
		return fmt.Errorf("bundle dir must not be empty")
	}

	return nil
}
