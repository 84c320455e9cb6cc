package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/patternlab/structmark/internal/core/diff"
)

type LLMConfig struct {
	Provider         string  `toml:"provider"`
	Model            string  `toml:"model"`
	APIKey           string  `toml:"api_key"`
	BaseURL          string  `toml:"base_url"`
	RateLimitSeconds float64 `toml:"rate_limit_seconds"`
	MaxRetries       int     `toml:"max_retries"`
}

type GraphConfig struct {
	Enabled  bool   `toml:"enabled"`
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type SandboxConfig struct {
	AssetsDir string `toml:"assets_dir"`
	Compiler  string `toml:"compiler"`
}

type QuizConfig struct {
	UseLLMFeedback bool `toml:"use_llm_feedback"`
}

type ServerConfig struct {
	// Origins allowed to call the API from a browser. "*" allows any
	// origin (without credentials); empty disables the CORS middleware.
	AllowedOrigins []string `toml:"allowed_origins"`
}

type Config struct {
	Server  ServerConfig  `toml:"server"`
	LLM     LLMConfig     `toml:"llm"`
	Grading diff.Weights  `toml:"grading"`
	Graph   GraphConfig   `toml:"graph"`
	Sandbox SandboxConfig `toml:"sandbox"`
	Quiz    QuizConfig    `toml:"quiz"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	if cfg.Grading == (diff.Weights{}) {
		cfg.Grading = diff.DefaultWeights()
	}

	return cfg, nil
}

// Default is the configuration used when no config file is present:
// no LLM provider, no graph store, default grading weights. The server can
// still canonicalize and grade with it; only LLM feedback and persistence
// are off.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			AllowedOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		},
		Grading: diff.DefaultWeights(),
		LLM: LLMConfig{
			RateLimitSeconds: 15,
			MaxRetries:       3,
		},
		Sandbox: SandboxConfig{
			AssetsDir: "assets",
			Compiler:  "g++",
		},
		Quiz: QuizConfig{UseLLMFeedback: true},
	}
}
