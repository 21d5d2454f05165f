package scheduler

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"
)

// Config holds job intervals, the daily summary time, and the dispatch
// bounds applied to each unit of work. Durations are Go duration strings.
type Config struct {
	Disabled           bool   `toml:"disabled"`
	Timezone           string `toml:"timezone"`
	ReminderInterval   string `toml:"reminder_interval"`
	ReminderLead       string `toml:"reminder_lead"`
	OverdueInterval    string `toml:"overdue_interval"`
	EscalationInterval string `toml:"escalation_interval"`
	SummaryAt          string `toml:"summary_at"`
	StartupGrace       string `toml:"startup_grace"`
	MaxJitter          string `toml:"max_jitter"`
	DispatchTimeout    string `toml:"dispatch_timeout"`
	LeaseTTL           string `toml:"lease_ttl"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Disabled           string
	Timezone           string
	ReminderInterval   string
	ReminderLead       string
	OverdueInterval    string
	EscalationInterval string
	SummaryAt          string
	StartupGrace       string
	DispatchTimeout    string
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
	if overlay.Disabled {
		c.Disabled = true
	}
	merge := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	merge(&c.Timezone, overlay.Timezone)
	merge(&c.ReminderInterval, overlay.ReminderInterval)
	merge(&c.ReminderLead, overlay.ReminderLead)
	merge(&c.OverdueInterval, overlay.OverdueInterval)
	merge(&c.EscalationInterval, overlay.EscalationInterval)
	merge(&c.SummaryAt, overlay.SummaryAt)
	merge(&c.StartupGrace, overlay.StartupGrace)
	merge(&c.MaxJitter, overlay.MaxJitter)
	merge(&c.DispatchTimeout, overlay.DispatchTimeout)
	merge(&c.LeaseTTL, overlay.LeaseTTL)
}

// Location loads Timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SummaryClock returns the hour and minute of SummaryAt.
func (c *Config) SummaryClock() (int, int) {
	t, _ := time.Parse("15:04", c.SummaryAt)
	return t.Hour(), t.Minute()
}

func (c *Config) ReminderIntervalDuration() time.Duration   { return duration(c.ReminderInterval) }
func (c *Config) ReminderLeadDuration() time.Duration       { return duration(c.ReminderLead) }
func (c *Config) OverdueIntervalDuration() time.Duration    { return duration(c.OverdueInterval) }
func (c *Config) EscalationIntervalDuration() time.Duration { return duration(c.EscalationInterval) }
func (c *Config) StartupGraceDuration() time.Duration       { return duration(c.StartupGrace) }
func (c *Config) MaxJitterDuration() time.Duration          { return duration(c.MaxJitter) }
func (c *Config) DispatchTimeoutDuration() time.Duration    { return duration(c.DispatchTimeout) }
func (c *Config) LeaseTTLDuration() time.Duration           { return duration(c.LeaseTTL) }

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func (c *Config) loadDefaults() {
	if c.Timezone == "" {
		c.Timezone = "Europe/Moscow"
	}
	if c.ReminderInterval == "" {
		c.ReminderInterval = "30m"
	}
	if c.ReminderLead == "" {
		c.ReminderLead = "2h"
	}
	if c.OverdueInterval == "" {
		c.OverdueInterval = "1h"
	}
	if c.EscalationInterval == "" {
		c.EscalationInterval = "1h"
	}
	if c.SummaryAt == "" {
		c.SummaryAt = "18:00"
	}
	if c.StartupGrace == "" {
		c.StartupGrace = "10s"
	}
	if c.MaxJitter == "" {
		c.MaxJitter = "30s"
	}
	if c.DispatchTimeout == "" {
		c.DispatchTimeout = "30s"
	}
	if c.LeaseTTL == "" {
		c.LeaseTTL = "5m"
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

	if env.Disabled != "" {
		if v := os.Getenv(env.Disabled); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Disabled = b
			}
		}
	}
	str(env.Timezone, &c.Timezone)
	str(env.ReminderInterval, &c.ReminderInterval)
	str(env.ReminderLead, &c.ReminderLead)
	str(env.OverdueInterval, &c.OverdueInterval)
	str(env.EscalationInterval, &c.EscalationInterval)
	str(env.SummaryAt, &c.SummaryAt)
	str(env.StartupGrace, &c.StartupGrace)
	str(env.DispatchTimeout, &c.DispatchTimeout)
}

func (c *Config) validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	if _, err := time.Parse("15:04", c.SummaryAt); err != nil {
		return fmt.Errorf("invalid summary_at %q: want HH:MM", c.SummaryAt)
	}

	positive := []struct {
		name  string
		value string
	}{
		{"reminder_interval", c.ReminderInterval},
		{"reminder_lead", c.ReminderLead},
		{"overdue_interval", c.OverdueInterval},
		{"escalation_interval", c.EscalationInterval},
		{"dispatch_timeout", c.DispatchTimeout},
		{"lease_ttl", c.LeaseTTL},
	}
	for _, p := range positive {
		d, err := time.ParseDuration(p.value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", p.name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", p.name)
		}
	}

	for _, p := range []struct{ name, value string }{
		{"startup_grace", c.StartupGrace},
		{"max_jitter", c.MaxJitter},
	} {
		d, err := time.ParseDuration(p.value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", p.name, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative", p.name)
		}
	}

	if c.LeaseTTLDuration() < c.DispatchTimeoutDuration() {
		return fmt.Errorf("lease_ttl must be at least dispatch_timeout")
	}
	return nil
}
