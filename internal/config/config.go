// Package config loads gateway configuration from config.yaml and
// DESK_-prefixed environment variables.
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Storage    StorageConfig    `koanf:"storage"`
	Retrieval  RetrievalConfig  `koanf:"retrieval"`
	Generation GenerationConfig `koanf:"generation"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // memory, sqlite
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type RetrievalConfig struct {
	TopK      int    `koanf:"top_k"`
	IndexPath string `koanf:"index_path"` // JSON seed corpus, optional
}

type GenerationConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	// HistoryBudget caps the prompt history size in tokens.
	HistoryBudget int `koanf:"history_budget"`
}

// Load reads config.yaml (if present), applies DESK_ environment overrides,
// and fills in defaults.
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Environment variables override file config: DESK_SERVER__PORT=9090
	// becomes server.port.
	if err := k.Load(env.Provider("DESK_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "DESK_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("storage.type") {
		k.Set("storage.type", "memory")
	}
	if !k.Exists("storage.sqlite.path") {
		k.Set("storage.sqlite.path", "./data/sessions.db")
	}
	if !k.Exists("retrieval.top_k") {
		k.Set("retrieval.top_k", 3)
	}
	if !k.Exists("generation.base_url") {
		k.Set("generation.base_url", "http://localhost:11434")
	}
	if !k.Exists("generation.model") {
		k.Set("generation.model", "llama3.2")
	}
	if !k.Exists("generation.history_budget") {
		k.Set("generation.history_budget", 2048)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
