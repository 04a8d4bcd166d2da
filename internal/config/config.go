package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	VisionNone   = "none"
	VisionClaude = "claude"
	VisionOllama = "ollama"
)

type Config struct {
	DBPath        string `mapstructure:"db_path"`
	PhotoPath     string `mapstructure:"photo_path"`
	ListLimit     int    `mapstructure:"list_limit"`
	VisionBackend string `mapstructure:"vision_backend"`
	OllamaHost    string `mapstructure:"ollama_host"`
	OllamaModel   string `mapstructure:"ollama_model"`
	ClaudeAPIKey  string `mapstructure:"claude_api_key"`
	ClaudeModel   string `mapstructure:"claude_model"`
	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	LogFile       string `mapstructure:"log_file"`
}

var defaults = map[string]any{
	"db_path":        "./data/findit.db",
	"photo_path":     "./data/photos",
	"list_limit":     100,
	"vision_backend": VisionNone,
	"ollama_host":    "http://localhost:11434",
	"ollama_model":   "moondream",
	"claude_api_key": "",
	"claude_model":   "claude-haiku-4-5",
	"log_level":      "info",
	"log_format":     "json",
	"log_file":       "",
}

// Load reads configuration from the environment (DB_PATH, PHOTO_PATH, ...),
// an optional .env file in the working directory, and configFile if given.
// Environment variables win over the file.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.VisionBackend {
	case VisionNone, "":
	case VisionOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("OLLAMA_HOST is required when VISION_BACKEND=ollama")
		}
	case VisionClaude:
		if c.ClaudeAPIKey == "" {
			return fmt.Errorf("CLAUDE_API_KEY is required when VISION_BACKEND=claude")
		}
	default:
		return fmt.Errorf("unknown VISION_BACKEND %q", c.VisionBackend)
	}
	if c.ListLimit <= 0 {
		return fmt.Errorf("LIST_LIMIT must be positive, got %d", c.ListLimit)
	}
	return nil
}
