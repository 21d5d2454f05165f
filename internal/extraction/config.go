package extraction

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Supported inference providers.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config holds the inference provider settings and the transcript limits
// the extractor enforces around each call.
type Config struct {
	Provider            string  `toml:"provider"`
	BaseURL             string  `toml:"base_url"`
	Model               string  `toml:"model"`
	Token               string  `toml:"token"`
	Temperature         float64 `toml:"temperature"`
	MaxTokens           int     `toml:"max_tokens"`
	Timeout             string  `toml:"timeout"`
	MinTranscriptLength int     `toml:"min_transcript_length"`
	MaxTranscriptChars  int     `toml:"max_transcript_chars"`
	MaxCandidates       int     `toml:"max_candidates"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider            string
	BaseURL             string
	Model               string
	Token               string
	Timeout             string
	MinTranscriptLength string
	MaxTranscriptChars  string
	MaxCandidates       string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
	if overlay.Temperature != 0 {
		c.Temperature = overlay.Temperature
	}
	if overlay.MaxTokens != 0 {
		c.MaxTokens = overlay.MaxTokens
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MinTranscriptLength != 0 {
		c.MinTranscriptLength = overlay.MinTranscriptLength
	}
	if overlay.MaxTranscriptChars != 0 {
		c.MaxTranscriptChars = overlay.MaxTranscriptChars
	}
	if overlay.MaxCandidates != 0 {
		c.MaxCandidates = overlay.MaxCandidates
	}
}

// TimeoutDuration parses Timeout into a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderOllama
	}
	if c.BaseURL == "" {
		switch c.Provider {
		case ProviderOpenAI:
			c.BaseURL = "https://api.openai.com/v1"
		default:
			c.BaseURL = "http://localhost:11434"
		}
	}
	if c.Model == "" {
		c.Model = "llama3.1"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.1
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2048
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
	if c.MinTranscriptLength == 0 {
		c.MinTranscriptLength = 50
	}
	if c.MaxTranscriptChars == 0 {
		c.MaxTranscriptChars = 15000
	}
	if c.MaxCandidates == 0 {
		c.MaxCandidates = 20
	}
}

func (c *Config) loadEnv(env *Env) {
	str := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str(env.Provider, &c.Provider)
	str(env.BaseURL, &c.BaseURL)
	str(env.Model, &c.Model)
	str(env.Token, &c.Token)
	str(env.Timeout, &c.Timeout)
	num(env.MinTranscriptLength, &c.MinTranscriptLength)
	num(env.MaxTranscriptChars, &c.MaxTranscriptChars)
	num(env.MaxCandidates, &c.MaxCandidates)
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("unsupported provider: %s", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model required")
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MinTranscriptLength < 0 {
		return fmt.Errorf("min_transcript_length must be non-negative")
	}
	if c.MaxTranscriptChars < c.MinTranscriptLength {
		return fmt.Errorf("max_transcript_chars must be at least min_transcript_length")
	}
	if c.MaxCandidates < 1 {
		return fmt.Errorf("max_candidates must be positive")
	}
	return nil
}
