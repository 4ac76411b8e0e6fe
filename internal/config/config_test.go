package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// allEnvVars lists every variable Load reads; tests clear them all.
var allEnvVars = []string{
	"SECRETARY_CONFIG", "SECRETARY_APPROVER_ID", "SECRETARY_PENDING_TIMEOUT",
	"SECRETARY_SESSION_DURATION", "SECRETARY_MAX_PENDING", "SECRETARY_HTTP_ADDR",
	"SECRETARY_AUTH_TOKEN", "SECRETARY_LOG_LEVEL", "SECRETARY_NATS_URL",
	"SECRETARY_INBOUND_SUBJECT", "SECRETARY_OUTBOUND_SUBJECT", "SECRETARY_EVENTS",
	"SECRETARY_DATABASE_URL", "SECRETARY_REDIS_ADDR", "SECRETARY_REDIS_PASSWORD",
	"SECRETARY_REDIS_DB", "SECRETARY_REPLY_TEMPLATE", "SECRETARY_SYNC_INTERVAL",
	"SECRETARY_SYNC_FILE", "SECRETARY_SYNC_S3_BUCKET", "SECRETARY_SYNC_S3_ENDPOINT",
	"SECRETARY_SYNC_S3_REGION", "SECRETARY_SYNC_S3_KEY", "SECRETARY_SYNC_S3_DAILY",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "MissingApprover",
			env:     map[string]string{},
			wantErr: "SECRETARY_APPROVER_ID is required",
		},
		{
			name: "BadTimeout",
			env: map[string]string{
				"SECRETARY_APPROVER_ID":     "owner",
				"SECRETARY_PENDING_TIMEOUT": "soon",
			},
			wantErr: "SECRETARY_PENDING_TIMEOUT",
		},
		{
			name: "BadMaxPending",
			env: map[string]string{
				"SECRETARY_APPROVER_ID": "owner",
				"SECRETARY_MAX_PENDING": "lots",
			},
			wantErr: "SECRETARY_MAX_PENDING",
		},
		{
			name: "NegativeMaxPending",
			env: map[string]string{
				"SECRETARY_APPROVER_ID": "owner",
				"SECRETARY_MAX_PENDING": "-1",
			},
			wantErr: "max pending",
		},
		{
			name: "TwoStores",
			env: map[string]string{
				"SECRETARY_APPROVER_ID":  "owner",
				"SECRETARY_DATABASE_URL": "postgres://localhost/secretary",
				"SECRETARY_REDIS_ADDR":   "localhost:6379",
			},
			wantErr: "only one",
		},
		{
			name: "BadLogLevel",
			env: map[string]string{
				"SECRETARY_APPROVER_ID": "owner",
				"SECRETARY_LOG_LEVEL":   "chatty",
			},
			wantErr: "SECRETARY_LOG_LEVEL",
		},
		{
			name: "Minimal",
			env:  map[string]string{"SECRETARY_APPROVER_ID": "owner"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.wantErr != "" {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("error %q does not mention %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.ApproverID != "owner" {
				t.Errorf("ApproverID = %q", cfg.ApproverID)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("SECRETARY_APPROVER_ID", "owner")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PendingTimeout != 35*time.Second {
		t.Errorf("PendingTimeout = %v, want 35s", cfg.PendingTimeout)
	}
	if cfg.SessionDuration != 600*time.Second {
		t.Errorf("SessionDuration = %v, want 600s", cfg.SessionDuration)
	}
	if cfg.MaxPending != 64 {
		t.Errorf("MaxPending = %d, want 64", cfg.MaxPending)
	}
	if cfg.HTTPAddr != ":8080" || cfg.InboundSubject != "chat.inbound" || cfg.OutboundSubject != "chat.outbound" {
		t.Errorf("addresses = %q %q %q", cfg.HTTPAddr, cfg.InboundSubject, cfg.OutboundSubject)
	}
	if !cfg.EventsEnabled {
		t.Error("EventsEnabled should default to true")
	}
	if cfg.SyncInterval != 3*time.Minute || cfg.SyncS3Region != "us-east-1" || cfg.SyncS3Key != "secretary/identities.jsonl" {
		t.Errorf("sync defaults = %v %q %q", cfg.SyncInterval, cfg.SyncS3Region, cfg.SyncS3Key)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("SECRETARY_APPROVER_ID", "owner")
	t.Setenv("SECRETARY_PENDING_TIMEOUT", "1m")
	t.Setenv("SECRETARY_SESSION_DURATION", "1h")
	t.Setenv("SECRETARY_MAX_PENDING", "8")
	t.Setenv("SECRETARY_EVENTS", "false")
	t.Setenv("SECRETARY_REDIS_ADDR", "redis:6379")
	t.Setenv("SECRETARY_REDIS_DB", "2")
	t.Setenv("SECRETARY_SYNC_INTERVAL", "0")
	t.Setenv("SECRETARY_SYNC_S3_DAILY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PendingTimeout != time.Minute || cfg.SessionDuration != time.Hour || cfg.MaxPending != 8 {
		t.Errorf("gate settings = %v %v %d", cfg.PendingTimeout, cfg.SessionDuration, cfg.MaxPending)
	}
	if cfg.EventsEnabled {
		t.Error("EventsEnabled should be false")
	}
	if cfg.RedisAddr != "redis:6379" || cfg.RedisDB != 2 {
		t.Errorf("redis = %q db %d", cfg.RedisAddr, cfg.RedisDB)
	}
	if cfg.SyncInterval != 0 || !cfg.SyncS3Daily {
		t.Errorf("sync = %v daily=%v", cfg.SyncInterval, cfg.SyncS3Daily)
	}
}

func TestLoadTOMLFile(t *testing.T) {
	clearAllEnv(t)
	path := writeFile(t, "secretary.toml", `
approver_id = "966500000000"
pending_timeout = "20s"
max_pending = 10
reply_template = "Hello {{.Name}}"

[contacts]
"966511111111" = "Mom"
"966522222222" = "Dad"

[replies]
"966522222222" = "سم يا بوي"

[nats]
url = "nats://bus:4222"
events = false

[sync]
interval = "5m"
file = "/var/lib/secretary/identities.jsonl"
`)
	t.Setenv("SECRETARY_CONFIG", path)
	// The environment wins over the file.
	t.Setenv("SECRETARY_MAX_PENDING", "12")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ApproverID != "966500000000" || cfg.PendingTimeout != 20*time.Second {
		t.Errorf("approver %q timeout %v", cfg.ApproverID, cfg.PendingTimeout)
	}
	if cfg.MaxPending != 12 {
		t.Errorf("MaxPending = %d, want env value 12", cfg.MaxPending)
	}
	if cfg.Contacts["966511111111"] != "Mom" || len(cfg.Contacts) != 2 {
		t.Errorf("Contacts = %v", cfg.Contacts)
	}
	if cfg.Replies["966522222222"] != "سم يا بوي" {
		t.Errorf("Replies = %v", cfg.Replies)
	}
	if cfg.NATSURL != "nats://bus:4222" || cfg.EventsEnabled {
		t.Errorf("nats = %q events=%v", cfg.NATSURL, cfg.EventsEnabled)
	}
	if cfg.SyncInterval != 5*time.Minute || cfg.SyncFile == "" {
		t.Errorf("sync = %v %q", cfg.SyncInterval, cfg.SyncFile)
	}
	if cfg.ReplyTemplate != "Hello {{.Name}}" {
		t.Errorf("ReplyTemplate = %q", cfg.ReplyTemplate)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	clearAllEnv(t)
	path := writeFile(t, "secretary.yaml", `
approver_id: owner
session_duration: 15m
contacts:
  "111": Mom
store:
  database_url: postgres://db/secretary
sync:
  s3_bucket: backups
  s3_daily: true
`)
	t.Setenv("SECRETARY_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SessionDuration != 15*time.Minute {
		t.Errorf("SessionDuration = %v", cfg.SessionDuration)
	}
	if cfg.Contacts["111"] != "Mom" {
		t.Errorf("Contacts = %v", cfg.Contacts)
	}
	if cfg.DatabaseURL != "postgres://db/secretary" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.SyncS3Bucket != "backups" || !cfg.SyncS3Daily {
		t.Errorf("sync = %q daily=%v", cfg.SyncS3Bucket, cfg.SyncS3Daily)
	}
}

func TestLoadFileErrors(t *testing.T) {
	for _, tc := range []struct {
		name, file, content string
	}{
		{"BadTOML", "c.toml", "approver_id = "},
		{"BadYAML", "c.yml", "approver_id: [unclosed"},
		{"BadDuration", "c.toml", "approver_id = \"x\"\npending_timeout = \"forever\""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			t.Setenv("SECRETARY_CONFIG", writeFile(t, tc.file, tc.content))
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	t.Run("Missing", func(t *testing.T) {
		clearAllEnv(t)
		t.Setenv("SECRETARY_CONFIG", filepath.Join(t.TempDir(), "absent.toml"))
		if _, err := Load(); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	} {
		got, err := ParseLevel(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}
