// Package config loads ragwire settings from an optional YAML file, a .env
// file and the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full set of settings for the server and the CLI.
type Config struct {
	DB             string        `yaml:"db"`
	Addr           string        `yaml:"addr"`
	BackendURL     string        `yaml:"backend_url"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	OpenAI   OpenAI   `yaml:"openai"`
	Pipeline Pipeline `yaml:"pipeline"`
}

// OpenAI configures the embedding and chat model endpoints.
type OpenAI struct {
	APIKey        string `yaml:"api_key"`
	BaseURL       string `yaml:"base_url"`
	EmbedProvider string `yaml:"embed_provider"`
	EmbedModel    string `yaml:"embed_model"`
	EmbedDims     int    `yaml:"embed_dims"`
	ChatModel     string `yaml:"chat_model"`
}

// Pipeline tunes chunking, retrieval and generation.
type Pipeline struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
	MaxTokens    int `yaml:"max_tokens"`
	Concurrency  int `yaml:"concurrency"`
}

// Default returns the built-in settings.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DB:             filepath.Join(home, ".ragwire", "ragwire.db"),
		Addr:           ":8000",
		BackendURL:     "http://localhost:8000",
		AllowedOrigins: []string{"http://localhost:3000"},
		RequestTimeout: 2 * time.Minute,
		OpenAI: OpenAI{
			EmbedProvider: "openai",
			EmbedModel:    "text-embedding-ada-002",
			EmbedDims:     1536,
			ChatModel:     "gpt-4o-mini",
		},
		Pipeline: Pipeline{
			ChunkSize:    1000,
			ChunkOverlap: 0,
			TopK:         3,
			MaxTokens:    150,
			Concurrency:  4,
		},
	}
}

// Load reads path (skipped when empty), then .env in the working directory,
// then environment variables. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("RAGWIRE_DB", &c.DB)
	str("RAGWIRE_ADDR", &c.Addr)
	str("RAGWIRE_BACKEND_URL", &c.BackendURL)
	str("OPENAI_API_KEY", &c.OpenAI.APIKey)
	str("RAGWIRE_OPENAI_BASE_URL", &c.OpenAI.BaseURL)
	str("RAGWIRE_EMBED_PROVIDER", &c.OpenAI.EmbedProvider)
	str("RAGWIRE_EMBED_MODEL", &c.OpenAI.EmbedModel)
	str("RAGWIRE_CHAT_MODEL", &c.OpenAI.ChatModel)

	if v, ok := lookup("RAGWIRE_ALLOWED_ORIGINS"); ok && v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("RAGWIRE_REQUEST_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("RAGWIRE_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = d
	}

	for key, dst := range map[string]*int{
		"RAGWIRE_CHUNK_SIZE": &c.Pipeline.ChunkSize,
		"RAGWIRE_TOP_K":      &c.Pipeline.TopK,
		"RAGWIRE_MAX_TOKENS": &c.Pipeline.MaxTokens,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.DB == "" {
		errs = append(errs, errors.New("db path is empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.Pipeline.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk_size must be positive, got %d", c.Pipeline.ChunkSize))
	}
	if c.Pipeline.ChunkOverlap < 0 || c.Pipeline.ChunkOverlap >= c.Pipeline.ChunkSize {
		errs = append(errs, fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d", c.Pipeline.ChunkOverlap))
	}
	if c.Pipeline.TopK <= 0 {
		errs = append(errs, fmt.Errorf("top_k must be positive, got %d", c.Pipeline.TopK))
	}
	if c.Pipeline.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max_tokens must be positive, got %d", c.Pipeline.MaxTokens))
	}
	if c.Pipeline.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("concurrency must be positive, got %d", c.Pipeline.Concurrency))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
