package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/pledge/internal/deadline"
	"github.com/JaimeStill/pledge/internal/extraction"
	"github.com/JaimeStill/pledge/internal/notify"
	"github.com/JaimeStill/pledge/internal/priority"
	"github.com/JaimeStill/pledge/internal/scheduler"
	"github.com/JaimeStill/pledge/pkg/database"
	"github.com/JaimeStill/pledge/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvPledgeEnv             = "PLEDGE_ENV"
	EnvPledgeShutdownTimeout = "PLEDGE_SHUTDOWN_TIMEOUT"
	EnvPledgeVersion         = "PLEDGE_VERSION"
	EnvPledgeStore           = "PLEDGE_STORE"
)

// Store kinds.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

var databaseEnv = &database.Env{
	Host:            "PLEDGE_DB_HOST",
	Port:            "PLEDGE_DB_PORT",
	Name:            "PLEDGE_DB_NAME",
	User:            "PLEDGE_DB_USER",
	Password:        "PLEDGE_DB_PASSWORD",
	SSLMode:         "PLEDGE_DB_SSL_MODE",
	MaxOpenConns:    "PLEDGE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "PLEDGE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "PLEDGE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "PLEDGE_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "PLEDGE_STORAGE_CONTAINER_NAME",
	ConnectionString: "PLEDGE_STORAGE_CONNECTION_STRING",
	MaxBlobSize:      "PLEDGE_STORAGE_MAX_BLOB_SIZE",
}

var deadlineEnv = &deadline.Env{
	BusinessDayEnd: "PLEDGE_DEADLINE_BUSINESS_DAY_END",
	WeekEnd:        "PLEDGE_DEADLINE_WEEK_END",
}

var priorityEnv = &priority.Env{
	UrgencyKeywords: "PLEDGE_PRIORITY_URGENCY_KEYWORDS",
	HighWindow:      "PLEDGE_PRIORITY_HIGH_WINDOW",
	MediumWindow:    "PLEDGE_PRIORITY_MEDIUM_WINDOW",
}

var extractionEnv = &extraction.Env{
	Provider:            "PLEDGE_EXTRACTION_PROVIDER",
	BaseURL:             "PLEDGE_EXTRACTION_BASE_URL",
	Model:               "PLEDGE_EXTRACTION_MODEL",
	Token:               "PLEDGE_EXTRACTION_TOKEN",
	Timeout:             "PLEDGE_EXTRACTION_TIMEOUT",
	MinTranscriptLength: "PLEDGE_EXTRACTION_MIN_TRANSCRIPT_LENGTH",
	MaxTranscriptChars:  "PLEDGE_EXTRACTION_MAX_TRANSCRIPT_CHARS",
	MaxCandidates:       "PLEDGE_EXTRACTION_MAX_CANDIDATES",
}

var notifyEnv = &notify.Env{
	Sink:             "PLEDGE_NOTIFY_SINK",
	SendTimeout:      "PLEDGE_NOTIFY_SEND_TIMEOUT",
	RatePerSecond:    "PLEDGE_NOTIFY_RATE_PER_SECOND",
	Burst:            "PLEDGE_NOTIFY_BURST",
	SummaryRecipient: "PLEDGE_NOTIFY_SUMMARY_RECIPIENT",
	NATSURL:          "PLEDGE_NATS_URL",
	NATSPrefix:       "PLEDGE_NATS_SUBJECT_PREFIX",
	DirectoryKind:    "PLEDGE_DIRECTORY_KIND",
	RedisAddr:        "PLEDGE_REDIS_ADDR",
	RedisPassword:    "PLEDGE_REDIS_PASSWORD",
	RedisDB:          "PLEDGE_REDIS_DB",
	RedisKey:         "PLEDGE_REDIS_KEY",
}

var schedulerEnv = &scheduler.Env{
	Disabled:           "PLEDGE_SCHEDULER_DISABLED",
	Timezone:           "PLEDGE_SCHEDULER_TIMEZONE",
	ReminderInterval:   "PLEDGE_SCHEDULER_REMINDER_INTERVAL",
	ReminderLead:       "PLEDGE_SCHEDULER_REMINDER_LEAD",
	OverdueInterval:    "PLEDGE_SCHEDULER_OVERDUE_INTERVAL",
	EscalationInterval: "PLEDGE_SCHEDULER_ESCALATION_INTERVAL",
	SummaryAt:          "PLEDGE_SCHEDULER_SUMMARY_AT",
	StartupGrace:       "PLEDGE_SCHEDULER_STARTUP_GRACE",
	DispatchTimeout:    "PLEDGE_SCHEDULER_DISPATCH_TIMEOUT",
}

// Config is the root configuration for the Pledge service.
type Config struct {
	Server          ServerConfig      `toml:"server"`
	API             APIConfig         `toml:"api"`
	Database        database.Config   `toml:"database"`
	Storage         storage.Config    `toml:"storage"`
	Deadline        deadline.Config   `toml:"deadline"`
	Priority        priority.Config   `toml:"priority"`
	Extraction      extraction.Config `toml:"extraction"`
	Notify          notify.Config     `toml:"notify"`
	Scheduler       scheduler.Config  `toml:"scheduler"`
	Store           string            `toml:"store"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	Version         string            `toml:"version"`
}

// Env returns the PLEDGE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvPledgeEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// UsesDatabase reports whether commitments persist in Postgres.
func (c *Config) UsesDatabase() bool {
	return c.Store == StorePostgres
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	return LoadFile(BaseConfigFile)
}

// LoadFile is Load with an explicit base config path.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if overlay := overlayPath(); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.Store != "" {
		c.Store = overlay.Store
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.API.Merge(&overlay.API)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Deadline.Merge(&overlay.Deadline)
	c.Priority.Merge(&overlay.Priority)
	c.Extraction.Merge(&overlay.Extraction)
	c.Notify.Merge(&overlay.Notify)
	c.Scheduler.Merge(&overlay.Scheduler)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if c.UsesDatabase() {
		if err := c.Database.Finalize(databaseEnv); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Deadline.Finalize(deadlineEnv); err != nil {
		return fmt.Errorf("deadline: %w", err)
	}
	if err := c.Priority.Finalize(priorityEnv); err != nil {
		return fmt.Errorf("priority: %w", err)
	}
	if err := c.Extraction.Finalize(extractionEnv); err != nil {
		return fmt.Errorf("extraction: %w", err)
	}
	if err := c.Notify.Finalize(notifyEnv); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if err := c.Scheduler.Finalize(schedulerEnv); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.Store == "" {
		c.Store = StorePostgres
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvPledgeStore); v != "" {
		c.Store = v
	}
	if v := os.Getenv(EnvPledgeShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvPledgeVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if c.Store != StorePostgres && c.Store != StoreMemory {
		return fmt.Errorf("invalid store %q: want %s or %s", c.Store, StorePostgres, StoreMemory)
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvPledgeEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
