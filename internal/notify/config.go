package notify

import (
	"fmt"
	"maps"
	"os"
	"strconv"
	"strings"
	"time"
)

// Sink kinds.
const (
	SinkLog  = "log"
	SinkNATS = "nats"
)

// Directory kinds.
const (
	DirectoryStatic = "static"
	DirectoryRedis  = "redis"
)

// Config holds the sink, the agent directory, and dispatch throttling.
type Config struct {
	Sink             string          `toml:"sink"`
	SendTimeout      string          `toml:"send_timeout"`
	RatePerSecond    float64         `toml:"rate_per_second"`
	Burst            int             `toml:"burst"`
	TopItems         int             `toml:"top_items"`
	SummaryRecipient string          `toml:"summary_recipient"`
	NATS             NATSConfig      `toml:"nats"`
	Directory        DirectoryConfig `toml:"directory"`
}

// NATSConfig configures the request/reply sink.
type NATSConfig struct {
	URL           string `toml:"url"`
	SubjectPrefix string `toml:"subject_prefix"`
	Name          string `toml:"name"`
}

// DirectoryConfig configures the agent-to-manager lookup.
type DirectoryConfig struct {
	Kind     string            `toml:"kind"`
	Managers map[string]string `toml:"managers"`
	Redis    RedisConfig       `toml:"redis"`
}

// RedisConfig locates the hash mapping agent ids to manager ids.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Key      string `toml:"key"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Sink             string
	SendTimeout      string
	RatePerSecond    string
	Burst            string
	SummaryRecipient string
	NATSURL          string
	NATSPrefix       string
	DirectoryKind    string
	RedisAddr        string
	RedisPassword    string
	RedisDB          string
	RedisKey         string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		if err := c.loadEnv(env); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Static managers are merged
// key by key.
func (c *Config) Merge(overlay *Config) {
	if overlay.Sink != "" {
		c.Sink = overlay.Sink
	}
	if overlay.SendTimeout != "" {
		c.SendTimeout = overlay.SendTimeout
	}
	if overlay.RatePerSecond != 0 {
		c.RatePerSecond = overlay.RatePerSecond
	}
	if overlay.Burst != 0 {
		c.Burst = overlay.Burst
	}
	if overlay.TopItems != 0 {
		c.TopItems = overlay.TopItems
	}
	if overlay.SummaryRecipient != "" {
		c.SummaryRecipient = overlay.SummaryRecipient
	}
	if overlay.NATS.URL != "" {
		c.NATS.URL = overlay.NATS.URL
	}
	if overlay.NATS.SubjectPrefix != "" {
		c.NATS.SubjectPrefix = overlay.NATS.SubjectPrefix
	}
	if overlay.NATS.Name != "" {
		c.NATS.Name = overlay.NATS.Name
	}
	if overlay.Directory.Kind != "" {
		c.Directory.Kind = overlay.Directory.Kind
	}
	if len(overlay.Directory.Managers) > 0 {
		if c.Directory.Managers == nil {
			c.Directory.Managers = make(map[string]string, len(overlay.Directory.Managers))
		}
		maps.Copy(c.Directory.Managers, overlay.Directory.Managers)
	}
	if overlay.Directory.Redis.Addr != "" {
		c.Directory.Redis.Addr = overlay.Directory.Redis.Addr
	}
	if overlay.Directory.Redis.Password != "" {
		c.Directory.Redis.Password = overlay.Directory.Redis.Password
	}
	if overlay.Directory.Redis.DB != 0 {
		c.Directory.Redis.DB = overlay.Directory.Redis.DB
	}
	if overlay.Directory.Redis.Key != "" {
		c.Directory.Redis.Key = overlay.Directory.Redis.Key
	}
}

// SendTimeoutDuration parses SendTimeout into a time.Duration.
func (c *Config) SendTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.SendTimeout)
	return d
}

func (c *Config) loadDefaults() {
	if c.Sink == "" {
		c.Sink = SinkLog
	}
	if c.SendTimeout == "" {
		c.SendTimeout = "10s"
	}
	if c.RatePerSecond == 0 {
		c.RatePerSecond = 5
	}
	if c.Burst == 0 {
		c.Burst = 10
	}
	if c.TopItems == 0 {
		c.TopItems = 5
	}
	if c.SummaryRecipient == "" {
		c.SummaryRecipient = "operations"
	}
	if c.NATS.URL == "" {
		c.NATS.URL = "nats://127.0.0.1:4222"
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = "pledge.notify"
	}
	if c.NATS.Name == "" {
		c.NATS.Name = "pledge"
	}
	if c.Directory.Kind == "" {
		c.Directory.Kind = DirectoryStatic
	}
	if c.Directory.Redis.Addr == "" {
		c.Directory.Redis.Addr = "localhost:6379"
	}
	if c.Directory.Redis.Key == "" {
		c.Directory.Redis.Key = "pledge:managers"
	}
}

func (c *Config) loadEnv(env *Env) error {
	str := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	str(env.Sink, &c.Sink)
	str(env.SendTimeout, &c.SendTimeout)
	str(env.SummaryRecipient, &c.SummaryRecipient)
	str(env.NATSURL, &c.NATS.URL)
	str(env.NATSPrefix, &c.NATS.SubjectPrefix)
	str(env.DirectoryKind, &c.Directory.Kind)
	str(env.RedisAddr, &c.Directory.Redis.Addr)
	str(env.RedisPassword, &c.Directory.Redis.Password)
	str(env.RedisKey, &c.Directory.Redis.Key)

	if env.RatePerSecond != "" {
		if v := os.Getenv(env.RatePerSecond); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid rate_per_second: %w", err)
			}
			c.RatePerSecond = f
		}
	}
	if env.Burst != "" {
		if v := os.Getenv(env.Burst); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid burst: %w", err)
			}
			c.Burst = n
		}
	}
	if env.RedisDB != "" {
		if v := os.Getenv(env.RedisDB); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid redis db: %w", err)
			}
			c.Directory.Redis.DB = n
		}
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Sink {
	case SinkLog, SinkNATS:
	default:
		return fmt.Errorf("unsupported sink: %s", c.Sink)
	}
	switch c.Directory.Kind {
	case DirectoryStatic, DirectoryRedis:
	default:
		return fmt.Errorf("unsupported directory: %s", c.Directory.Kind)
	}

	d, err := time.ParseDuration(c.SendTimeout)
	if err != nil {
		return fmt.Errorf("invalid send_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("send_timeout must be positive")
	}
	if c.RatePerSecond <= 0 {
		return fmt.Errorf("rate_per_second must be positive")
	}
	if c.Burst < 1 {
		return fmt.Errorf("burst must be positive")
	}
	if c.TopItems < 1 {
		return fmt.Errorf("top_items must be positive")
	}
	if strings.ContainsAny(c.NATS.SubjectPrefix, " *>") {
		return fmt.Errorf("invalid subject_prefix: %q", c.NATS.SubjectPrefix)
	}
	return nil
}
