package priority

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// DefaultUrgencyKeywords are the phrases that make a commitment high priority
// regardless of its deadline.
var DefaultUrgencyKeywords = []string{
	"срочно",
	"сегодня обязательно",
	"как можно скорее",
	"в приоритете",
	"urgent",
	"asap",
}

// Config holds the windows and keywords the classifier evaluates.
type Config struct {
	UrgencyKeywords []string `toml:"urgency_keywords"`
	HighWindow      string   `toml:"high_window"`
	MediumWindow    string   `toml:"medium_window"`
}

// Env maps config fields to environment variable names for override injection.
// UrgencyKeywords is read as a comma-separated list.
type Env struct {
	UrgencyKeywords string
	HighWindow      string
	MediumWindow    string
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
	if len(overlay.UrgencyKeywords) > 0 {
		c.UrgencyKeywords = overlay.UrgencyKeywords
	}
	if overlay.HighWindow != "" {
		c.HighWindow = overlay.HighWindow
	}
	if overlay.MediumWindow != "" {
		c.MediumWindow = overlay.MediumWindow
	}
}

// HighWindowDuration parses HighWindow into a time.Duration.
func (c *Config) HighWindowDuration() time.Duration {
	d, _ := time.ParseDuration(c.HighWindow)
	return d
}

// MediumWindowDuration parses MediumWindow into a time.Duration.
func (c *Config) MediumWindowDuration() time.Duration {
	d, _ := time.ParseDuration(c.MediumWindow)
	return d
}

func (c *Config) loadDefaults() {
	if len(c.UrgencyKeywords) == 0 {
		c.UrgencyKeywords = DefaultUrgencyKeywords
	}
	if c.HighWindow == "" {
		c.HighWindow = "24h"
	}
	if c.MediumWindow == "" {
		c.MediumWindow = "72h"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.UrgencyKeywords != "" {
		if v := os.Getenv(env.UrgencyKeywords); v != "" {
			var keywords []string
			for k := range strings.SplitSeq(v, ",") {
				if k = strings.TrimSpace(k); k != "" {
					keywords = append(keywords, k)
				}
			}
			if len(keywords) > 0 {
				c.UrgencyKeywords = keywords
			}
		}
	}
	if env.HighWindow != "" {
		if v := os.Getenv(env.HighWindow); v != "" {
			c.HighWindow = v
		}
	}
	if env.MediumWindow != "" {
		if v := os.Getenv(env.MediumWindow); v != "" {
			c.MediumWindow = v
		}
	}
}

func (c *Config) validate() error {
	high, err := time.ParseDuration(c.HighWindow)
	if err != nil {
		return fmt.Errorf("invalid high_window: %w", err)
	}
	medium, err := time.ParseDuration(c.MediumWindow)
	if err != nil {
		return fmt.Errorf("invalid medium_window: %w", err)
	}
	if high <= 0 || medium < high {
		return fmt.Errorf("windows must satisfy 0 < high_window (%s) <= medium_window (%s)", high, medium)
	}
	return nil
}
