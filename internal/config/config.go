package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fngate/internal/trace"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Backend    BackendConfig    `toml:"backend"`
	Gateway    GatewayConfig    `toml:"gateway"`
	Generation GenerationConfig `toml:"generation"`
	Prompt     PromptConfig     `toml:"prompt"`
	DB         DBConfig         `toml:"db"`
	Trace      trace.Config     `toml:"trace"`
	Client     ClientConfig     `toml:"client"`
	Services   ServicesConfig   `toml:"services"`
}

// BackendConfig points at the OpenAI-compatible completions server that
// runs the model.
type BackendConfig struct {
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

type GatewayConfig struct {
	Addr string `toml:"addr"`
}

type GenerationConfig struct {
	MaxTokens  int      `toml:"max_tokens"`
	StopTokens []string `toml:"stop_tokens"`
}

type PromptConfig struct {
	KnowledgeCutoff string `toml:"knowledge_cutoff"`
	DefaultSystem   string `toml:"default_system"`
}

// DBConfig locates the completion log. An empty path disables it.
type DBConfig struct {
	Path string `toml:"path"`
}

// ClientConfig is used by the chat command.
type ClientConfig struct {
	BaseURL   string `toml:"base_url"`
	Model     string `toml:"model"`
	MaxRounds int    `toml:"max_rounds"`
}

type ServicesConfig struct {
	Brave BraveConfig `toml:"brave"`
}

type BraveConfig struct {
	APIKey string `toml:"api_key"`
}

func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Model:   "meta-llama/Meta-Llama-3.1-8B-Instruct",
			BaseURL: "http://127.0.0.1:8080/v1",
		},
		Gateway: GatewayConfig{
			Addr: ":8000",
		},
		Generation: GenerationConfig{
			MaxTokens:  1024,
			StopTokens: []string{"<|eot_id|>", "<|eom_id|>", "<|end_of_text|>"},
		},
		Prompt: PromptConfig{
			KnowledgeCutoff: "December 2023",
			DefaultSystem:   "You are a helpful Assistant.",
		},
		DB: DBConfig{
			Path: defaultDBPath(),
		},
		Client: ClientConfig{
			BaseURL:   "http://127.0.0.1:8000/v1",
			Model:     "meta-llama/Meta-Llama-3.1-8B-Instruct",
			MaxRounds: 4,
		},
	}
}

// Load reads the config file over the defaults. A missing file is not an
// error. FNGATE_CONFIG overrides the file location.
func Load() (*Config, error) {
	return LoadFile(configPath())
}

func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if key := os.Getenv("FNGATE_BACKEND_API_KEY"); key != "" {
		cfg.Backend.APIKey = key
	}
	if key := os.Getenv("BRAVE_API_KEY"); key != "" && cfg.Services.Brave.APIKey == "" {
		cfg.Services.Brave.APIKey = key
	}
	return cfg, nil
}

// Path is the config file location Load reads.
func Path() string { return configPath() }

// Save writes cfg to path as TOML. An existing file is left alone unless
// overwrite is set.
func Save(path string, cfg *Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, os.ErrExist)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return f.Close()
}

func configPath() string {
	if p := os.Getenv("FNGATE_CONFIG"); p != "" {
		return p
	}
	dir, _ := os.UserConfigDir()
	return filepath.Join(dir, "fngate", "config.toml")
}

func defaultDBPath() string {
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, ".local", "share", "fngate", "fngate.db")
}
