package deadline

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the calendar conventions used to anchor relative phrases.
type Config struct {
	BusinessDayEnd string `toml:"business_day_end"`
	WeekEnd        string `toml:"week_end"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BusinessDayEnd string
	WeekEnd        string
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
	if overlay.BusinessDayEnd != "" {
		c.BusinessDayEnd = overlay.BusinessDayEnd
	}
	if overlay.WeekEnd != "" {
		c.WeekEnd = overlay.WeekEnd
	}
}

// DayEnd returns the business-day end as hour and minute.
func (c *Config) DayEnd() (int, int) {
	t, err := time.Parse("15:04", c.BusinessDayEnd)
	if err != nil {
		return 18, 0
	}
	return t.Hour(), t.Minute()
}

// WeekEndDay returns the weekday that closes a calendar week.
func (c *Config) WeekEndDay() time.Weekday {
	if d, ok := englishWeekdays[strings.ToLower(c.WeekEnd)]; ok {
		return d
	}
	return time.Sunday
}

func (c *Config) loadDefaults() {
	if c.BusinessDayEnd == "" {
		c.BusinessDayEnd = "18:00"
	}
	if c.WeekEnd == "" {
		c.WeekEnd = "sunday"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BusinessDayEnd != "" {
		if v := os.Getenv(env.BusinessDayEnd); v != "" {
			c.BusinessDayEnd = v
		}
	}
	if env.WeekEnd != "" {
		if v := os.Getenv(env.WeekEnd); v != "" {
			c.WeekEnd = v
		}
	}
}

func (c *Config) validate() error {
	if _, err := time.Parse("15:04", c.BusinessDayEnd); err != nil {
		return fmt.Errorf("invalid business_day_end: %w", err)
	}
	if _, ok := englishWeekdays[strings.ToLower(c.WeekEnd)]; !ok {
		return fmt.Errorf("invalid week_end: %s", c.WeekEnd)
	}
	return nil
}
