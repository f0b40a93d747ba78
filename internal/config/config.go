// Package config provides configuration loading and structs for the tabemono server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug       bool              `yaml:"debug"`
	Server      ServerConfig      `yaml:"server"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Storage     StorageConfig     `yaml:"storage"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Vision      VisionConfig      `yaml:"vision"`
	Recognition RecognitionConfig `yaml:"recognition"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// CatalogConfig holds the food catalog settings.
type CatalogConfig struct {
	Path string `yaml:"path"`
	// Watch reloads the catalog when the file changes on disk.
	Watch bool `yaml:"watch"`
}

// StorageConfig selects and configures the entry/goal store.
type StorageConfig struct {
	// Backend is "json" (default) or "sqlite".
	Backend      string `yaml:"backend"`
	EntriesPath  string `yaml:"entries_path"`
	GoalsPath    string `yaml:"goals_path"`
	DatabasePath string `yaml:"database_path"`
}

// EmbeddingConfig holds local embedding backend settings.
type EmbeddingConfig struct {
	// Backend is "onnx", "mock", or "none". With "none" image recognition
	// falls through to the vision gateway when one is configured.
	Backend        string `yaml:"backend"`
	TextModelPath  string `yaml:"text_model_path"`
	ImageModelPath string `yaml:"image_model_path"`
	Dimensions     int    `yaml:"dimensions"`
	MaxTokens      int    `yaml:"max_tokens"`
	CacheSize      int    `yaml:"cache_size"`
	// CachePath is the persisted text-embedding artifact for the catalog.
	CachePath string `yaml:"cache_path"`
}

// VisionConfig holds remote multimodal inference settings.
type VisionConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RecognitionConfig holds query-time recognition settings.
type RecognitionConfig struct {
	DefaultTopK int  `yaml:"default_top_k"`
	MaxTopK     int  `yaml:"max_top_k"`
	Fuzzy       bool `yaml:"fuzzy"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Catalog.Path = expandPath(cfg.Catalog.Path, configDir)
	cfg.Storage.EntriesPath = expandPath(cfg.Storage.EntriesPath, configDir)
	cfg.Storage.GoalsPath = expandPath(cfg.Storage.GoalsPath, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Embedding.TextModelPath = expandPath(cfg.Embedding.TextModelPath, configDir)
	cfg.Embedding.ImageModelPath = expandPath(cfg.Embedding.ImageModelPath, configDir)
	cfg.Embedding.CachePath = expandPath(cfg.Embedding.CachePath, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
