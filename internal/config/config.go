// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

const (
	SearchProviderGoogle = "google"
	SearchProviderTavily = "tavily"

	LMProviderOpenAI = "openai"
	LMProviderGemini = "gemini"
)

type ExtractionPolicy string

const (
	// PolicyFailFast fails the whole request on the first failed page fetch.
	PolicyFailFast ExtractionPolicy = "fail_fast"

	// PolicyBestEffort treats a failed page fetch as an empty excerpt.
	PolicyBestEffort ExtractionPolicy = "best_effort"
)

var (
	ErrMissingSecret  = errors.New("required secret is not set")
	ErrInvalidSetting = errors.New("invalid setting")
)

// Duration is a time.Duration read from strings like "30s" or "1m30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"'`)
	if s == "" {
		*d = 0
		return nil
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration '%s': %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type ServerConfig struct {
	ListenHost     string   `yaml:"listen_host"`
	ListenPort     int      `yaml:"listen_port"`
	RequestTimeout Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SearchConfig struct {
	Provider string            `yaml:"provider"`
	Endpoint string            `yaml:"endpoint"`
	Timeout  Duration          `yaml:"timeout"`
	Params   map[string]string `yaml:"params"`

	// Secrets, normally provided through the environment.
	APIKey   string `yaml:"api_key"`
	EngineID string `yaml:"engine_id"`
}

type ExtractConfig struct {
	Timeout      Duration `yaml:"timeout"`
	UserAgent    string   `yaml:"user_agent"`
	MaxPageBytes int64    `yaml:"max_page_bytes"`
}

type LLMConfig struct {
	Provider    string   `yaml:"provider"`
	Model       string   `yaml:"model"`
	BaseURL     string   `yaml:"base_url"`
	Timeout     Duration `yaml:"timeout"`
	Temperature *float32 `yaml:"temperature"`
	JSONMode    bool     `yaml:"json_mode"`

	APIKey string `yaml:"api_key"`
}

type PipelineConfig struct {
	MaxLinks         int              `yaml:"max_links"`
	ExtractionPolicy ExtractionPolicy `yaml:"extraction_policy"`
}

// Config is read once at startup and never mutated afterwards.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Search   SearchConfig   `yaml:"search"`
	Extract  ExtractConfig  `yaml:"extract"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenPort:     8080,
			RequestTimeout: Duration(2 * time.Minute),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Search: SearchConfig{
			Provider: SearchProviderGoogle,
			Timeout:  Duration(15 * time.Second),
		},
		Extract: ExtractConfig{
			Timeout:      Duration(15 * time.Second),
			UserAgent:    "webanswer/1.0",
			MaxPageBytes: 5 << 20,
		},
		LLM: LLMConfig{
			Provider: LMProviderOpenAI,
			Model:    "gpt-4o-mini",
			Timeout:  Duration(60 * time.Second),
			JSONMode: true,
		},
		Pipeline: PipelineConfig{
			MaxLinks:         2,
			ExtractionPolicy: PolicyFailFast,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at path,
// a .env file in the working directory and the process environment,
// in increasing order of precedence. The result is validated.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	conf := Default()
	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		if err := yaml.Unmarshal(file, &conf); err != nil {
			return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
		}
	}

	applyEnv(&conf, os.Getenv)

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("configuration loaded", "path", path, "search", conf.Search.Provider, "llm", conf.LLM.Provider, "model", conf.LLM.Model)
	return &conf, nil
}

func applyEnv(conf *Config, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	switch conf.Search.Provider {
	case SearchProviderTavily:
		set(&conf.Search.APIKey, "TAVILY_API_KEY")
	default:
		set(&conf.Search.APIKey, "GOOGLE_API_KEY")
		set(&conf.Search.EngineID, "GOOGLE_SEARCH_ENGINE_ID")
	}

	switch conf.LLM.Provider {
	case LMProviderGemini:
		set(&conf.LLM.APIKey, "GEMINI_API_KEY")
	default:
		set(&conf.LLM.APIKey, "OPENAI_API_KEY")
		set(&conf.LLM.BaseURL, "OPENAI_BASE_URL")
	}
}

// Validate reports the first invalid or missing setting.
func (c Config) Validate() error {
	if c.Server.ListenPort < 0 || c.Server.ListenPort > 65535 {
		return fmt.Errorf("%w: server.listen_port %d out of range", ErrInvalidSetting, c.Server.ListenPort)
	}

	switch c.Search.Provider {
	case SearchProviderGoogle:
		if c.Search.APIKey == "" {
			return fmt.Errorf("%w: GOOGLE_API_KEY", ErrMissingSecret)
		}
		if c.Search.EngineID == "" {
			return fmt.Errorf("%w: GOOGLE_SEARCH_ENGINE_ID", ErrMissingSecret)
		}
	case SearchProviderTavily:
		if c.Search.APIKey == "" {
			return fmt.Errorf("%w: TAVILY_API_KEY", ErrMissingSecret)
		}
	default:
		return fmt.Errorf("%w: unknown search.provider '%s'", ErrInvalidSetting, c.Search.Provider)
	}

	switch c.LLM.Provider {
	case LMProviderOpenAI:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingSecret)
		}
	case LMProviderGemini:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingSecret)
		}
	default:
		return fmt.Errorf("%w: unknown llm.provider '%s'", ErrInvalidSetting, c.LLM.Provider)
	}

	if c.LLM.Model == "" {
		return fmt.Errorf("%w: llm.model must not be empty", ErrInvalidSetting)
	}

	if c.Pipeline.MaxLinks < 1 {
		return fmt.Errorf("%w: pipeline.max_links must be at least 1", ErrInvalidSetting)
	}

	switch c.Pipeline.ExtractionPolicy {
	case PolicyFailFast, PolicyBestEffort:
	default:
		return fmt.Errorf("%w: unknown pipeline.extraction_policy '%s'", ErrInvalidSetting, c.Pipeline.ExtractionPolicy)
	}

	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

// ParseLogLevel maps the log.level setting to a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: unknown log.level '%s'", ErrInvalidSetting, level)
	}
}
