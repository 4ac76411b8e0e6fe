// Package config loads the responder's settings.
//
// Settings come from an optional file named by SECRETARY_CONFIG (TOML, or
// YAML when the extension is .yaml/.yml) and from SECRETARY_* environment
// variables. Environment variables win over the file. The contacts and
// replies tables can only be set in the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ApproverID      string        // SECRETARY_APPROVER_ID (required)
	PendingTimeout  time.Duration // SECRETARY_PENDING_TIMEOUT (default 35s)
	SessionDuration time.Duration // SECRETARY_SESSION_DURATION (default 10m)
	MaxPending      int           // SECRETARY_MAX_PENDING (default 64)

	HTTPAddr  string // SECRETARY_HTTP_ADDR (default ":8080")
	AuthToken string // SECRETARY_AUTH_TOKEN (optional, empty = auth disabled)
	LogLevel  string // SECRETARY_LOG_LEVEL (default "info")

	NATSURL         string // SECRETARY_NATS_URL (default "nats://127.0.0.1:4222")
	InboundSubject  string // SECRETARY_INBOUND_SUBJECT (default "chat.inbound")
	OutboundSubject string // SECRETARY_OUTBOUND_SUBJECT (default "chat.outbound")
	EventsEnabled   bool   // SECRETARY_EVENTS (default true)

	// Identity persistence; at most one backend may be set. Neither means
	// profiles live in memory only.
	DatabaseURL   string // SECRETARY_DATABASE_URL
	RedisAddr     string // SECRETARY_REDIS_ADDR
	RedisPassword string // SECRETARY_REDIS_PASSWORD
	RedisDB       int    // SECRETARY_REDIS_DB

	ReplyTemplate string            // SECRETARY_REPLY_TEMPLATE
	Replies       map[string]string // file only: per-sender reply templates
	Contacts      map[string]string // file only: sender id -> saved name

	// Export settings
	SyncInterval   time.Duration // SECRETARY_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncFile       string        // SECRETARY_SYNC_FILE (enables a local JSONL file when set)
	SyncS3Bucket   string        // SECRETARY_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // SECRETARY_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // SECRETARY_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // SECRETARY_SYNC_S3_KEY (default "secretary/identities.jsonl")
	SyncS3Daily    bool          // SECRETARY_SYNC_S3_DAILY
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		PendingTimeout:  35 * time.Second,
		SessionDuration: 10 * time.Minute,
		MaxPending:      64,
		HTTPAddr:        ":8080",
		LogLevel:        "info",
		NATSURL:         "nats://127.0.0.1:4222",
		InboundSubject:  "chat.inbound",
		OutboundSubject: "chat.outbound",
		EventsEnabled:   true,
		SyncInterval:    3 * time.Minute,
		SyncS3Region:    "us-east-1",
		SyncS3Key:       "secretary/identities.jsonl",
	}
}

// Load builds the configuration from the optional file and the environment.
func Load() (*Config, error) {
	c := Default()
	if path := os.Getenv("SECRETARY_CONFIG"); path != "" {
		if err := c.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := c.mergeEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks required settings and ranges.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ApproverID) == "" {
		errs = append(errs, errors.New("SECRETARY_APPROVER_ID is required"))
	}
	if c.PendingTimeout <= 0 {
		errs = append(errs, errors.New("pending timeout must be positive"))
	}
	if c.SessionDuration <= 0 {
		errs = append(errs, errors.New("session duration must be positive"))
	}
	if c.MaxPending <= 0 {
		errs = append(errs, errors.New("max pending must be positive"))
	}
	if c.SyncInterval < 0 {
		errs = append(errs, errors.New("sync interval must not be negative"))
	}
	if c.DatabaseURL != "" && c.RedisAddr != "" {
		errs = append(errs, errors.New("set only one of SECRETARY_DATABASE_URL and SECRETARY_REDIS_ADDR"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("SECRETARY_LOG_LEVEL: %w", err)
	}
	return level, nil
}

func (c *Config) mergeEnv() error {
	c.ApproverID = envOrDefault("SECRETARY_APPROVER_ID", c.ApproverID)
	c.HTTPAddr = envOrDefault("SECRETARY_HTTP_ADDR", c.HTTPAddr)
	c.AuthToken = envOrDefault("SECRETARY_AUTH_TOKEN", c.AuthToken)
	c.LogLevel = envOrDefault("SECRETARY_LOG_LEVEL", c.LogLevel)
	c.NATSURL = envOrDefault("SECRETARY_NATS_URL", c.NATSURL)
	c.InboundSubject = envOrDefault("SECRETARY_INBOUND_SUBJECT", c.InboundSubject)
	c.OutboundSubject = envOrDefault("SECRETARY_OUTBOUND_SUBJECT", c.OutboundSubject)
	c.DatabaseURL = envOrDefault("SECRETARY_DATABASE_URL", c.DatabaseURL)
	c.RedisAddr = envOrDefault("SECRETARY_REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = envOrDefault("SECRETARY_REDIS_PASSWORD", c.RedisPassword)
	c.ReplyTemplate = envOrDefault("SECRETARY_REPLY_TEMPLATE", c.ReplyTemplate)
	c.SyncFile = envOrDefault("SECRETARY_SYNC_FILE", c.SyncFile)
	c.SyncS3Bucket = envOrDefault("SECRETARY_SYNC_S3_BUCKET", c.SyncS3Bucket)
	c.SyncS3Endpoint = envOrDefault("SECRETARY_SYNC_S3_ENDPOINT", c.SyncS3Endpoint)
	c.SyncS3Region = envOrDefault("SECRETARY_SYNC_S3_REGION", c.SyncS3Region)
	c.SyncS3Key = envOrDefault("SECRETARY_SYNC_S3_KEY", c.SyncS3Key)

	var err error
	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"SECRETARY_PENDING_TIMEOUT", &c.PendingTimeout},
		{"SECRETARY_SESSION_DURATION", &c.SessionDuration},
		{"SECRETARY_SYNC_INTERVAL", &c.SyncInterval},
	} {
		if v := os.Getenv(d.key); v != "" {
			if *d.dst, err = time.ParseDuration(v); err != nil {
				return fmt.Errorf("%s: %w", d.key, err)
			}
		}
	}
	for _, n := range []struct {
		key string
		dst *int
	}{
		{"SECRETARY_MAX_PENDING", &c.MaxPending},
		{"SECRETARY_REDIS_DB", &c.RedisDB},
	} {
		if v := os.Getenv(n.key); v != "" {
			if *n.dst, err = strconv.Atoi(v); err != nil {
				return fmt.Errorf("%s: %w", n.key, err)
			}
		}
	}
	for _, b := range []struct {
		key string
		dst *bool
	}{
		{"SECRETARY_EVENTS", &c.EventsEnabled},
		{"SECRETARY_SYNC_S3_DAILY", &c.SyncS3Daily},
	} {
		if v := os.Getenv(b.key); v != "" {
			if *b.dst, err = strconv.ParseBool(v); err != nil {
				return fmt.Errorf("%s: %w", b.key, err)
			}
		}
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// fileConfig is the on-disk shape. Durations are strings such as "35s".
type fileConfig struct {
	ApproverID      string            `toml:"approver_id" yaml:"approver_id"`
	PendingTimeout  string            `toml:"pending_timeout" yaml:"pending_timeout"`
	SessionDuration string            `toml:"session_duration" yaml:"session_duration"`
	MaxPending      int               `toml:"max_pending" yaml:"max_pending"`
	HTTPAddr        string            `toml:"http_addr" yaml:"http_addr"`
	AuthToken       string            `toml:"auth_token" yaml:"auth_token"`
	LogLevel        string            `toml:"log_level" yaml:"log_level"`
	ReplyTemplate   string            `toml:"reply_template" yaml:"reply_template"`
	Contacts        map[string]string `toml:"contacts" yaml:"contacts"`
	Replies         map[string]string `toml:"replies" yaml:"replies"`

	NATS struct {
		URL             string `toml:"url" yaml:"url"`
		InboundSubject  string `toml:"inbound_subject" yaml:"inbound_subject"`
		OutboundSubject string `toml:"outbound_subject" yaml:"outbound_subject"`
		Events          *bool  `toml:"events" yaml:"events"`
	} `toml:"nats" yaml:"nats"`

	Store struct {
		DatabaseURL   string `toml:"database_url" yaml:"database_url"`
		RedisAddr     string `toml:"redis_addr" yaml:"redis_addr"`
		RedisPassword string `toml:"redis_password" yaml:"redis_password"`
		RedisDB       int    `toml:"redis_db" yaml:"redis_db"`
	} `toml:"store" yaml:"store"`

	Sync struct {
		Interval   string `toml:"interval" yaml:"interval"`
		File       string `toml:"file" yaml:"file"`
		S3Bucket   string `toml:"s3_bucket" yaml:"s3_bucket"`
		S3Endpoint string `toml:"s3_endpoint" yaml:"s3_endpoint"`
		S3Region   string `toml:"s3_region" yaml:"s3_region"`
		S3Key      string `toml:"s3_key" yaml:"s3_key"`
		S3Daily    bool   `toml:"s3_daily" yaml:"s3_daily"`
	} `toml:"sync" yaml:"sync"`
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var f fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if _, err := toml.Decode(string(data), &f); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.ApproverID, f.ApproverID)
	set(&c.HTTPAddr, f.HTTPAddr)
	set(&c.AuthToken, f.AuthToken)
	set(&c.LogLevel, f.LogLevel)
	set(&c.ReplyTemplate, f.ReplyTemplate)
	set(&c.NATSURL, f.NATS.URL)
	set(&c.InboundSubject, f.NATS.InboundSubject)
	set(&c.OutboundSubject, f.NATS.OutboundSubject)
	set(&c.DatabaseURL, f.Store.DatabaseURL)
	set(&c.RedisAddr, f.Store.RedisAddr)
	set(&c.RedisPassword, f.Store.RedisPassword)
	set(&c.SyncFile, f.Sync.File)
	set(&c.SyncS3Bucket, f.Sync.S3Bucket)
	set(&c.SyncS3Endpoint, f.Sync.S3Endpoint)
	set(&c.SyncS3Region, f.Sync.S3Region)
	set(&c.SyncS3Key, f.Sync.S3Key)

	if f.MaxPending != 0 {
		c.MaxPending = f.MaxPending
	}
	if f.Store.RedisDB != 0 {
		c.RedisDB = f.Store.RedisDB
	}
	if f.NATS.Events != nil {
		c.EventsEnabled = *f.NATS.Events
	}
	if f.Sync.S3Daily {
		c.SyncS3Daily = true
	}
	if len(f.Contacts) > 0 {
		c.Contacts = f.Contacts
	}
	if len(f.Replies) > 0 {
		c.Replies = f.Replies
	}

	for _, d := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"pending_timeout", f.PendingTimeout, &c.PendingTimeout},
		{"session_duration", f.SessionDuration, &c.SessionDuration},
		{"sync.interval", f.Sync.Interval, &c.SyncInterval},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", path, d.name, err)
		}
		*d.dst = v
	}
	return nil
}
