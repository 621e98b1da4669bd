package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("DHIS2_BASE_URL", "https://dhis2.example.org")
	t.Setenv("DHIS2_USERNAME", "admin")
	t.Setenv("PORT", "")
	t.Setenv("DHIS2_API_VERSION", "")
	t.Setenv("SYNC_JOB_TIMEOUT_MINUTES", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q want %q", cfg.Port, "8080")
	}
	if cfg.DHIS2APIVersion != "40" {
		t.Fatalf("DHIS2APIVersion mismatch: got %q want %q", cfg.DHIS2APIVersion, "40")
	}
	if cfg.SyncJobTimeout != 10*time.Minute {
		t.Fatalf("SyncJobTimeout mismatch: got %v want %v", cfg.SyncJobTimeout, 10*time.Minute)
	}
	if cfg.RateLimitPerMin != 100 || cfg.ImportRateLimitPerMin != 10 || cfg.SyncRateLimitPerMin != 5 {
		t.Fatalf("rate limit defaults mismatch: %d/%d/%d",
			cfg.RateLimitPerMin, cfg.ImportRateLimitPerMin, cfg.SyncRateLimitPerMin)
	}
	if cfg.AuditRetention != 90*24*time.Hour {
		t.Fatalf("AuditRetention mismatch: got %v", cfg.AuditRetention)
	}
}

func TestLoadConfigHonorsOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("DHIS2_BASE_URL", "https://dhis2.example.org")
	t.Setenv("DHIS2_USERNAME", "admin")
	t.Setenv("DHIS2_TIMEOUT_SECONDS", "5")
	t.Setenv("SYNC_BATCH_SIZE", "25")
	t.Setenv("AUDIT_RETENTION_DAYS", "7")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DHIS2Timeout != 5*time.Second {
		t.Fatalf("DHIS2Timeout mismatch: got %v", cfg.DHIS2Timeout)
	}
	if cfg.SyncBatchSize != 25 {
		t.Fatalf("SyncBatchSize mismatch: got %d", cfg.SyncBatchSize)
	}
	if cfg.AuditRetention != 7*24*time.Hour {
		t.Fatalf("AuditRetention mismatch: got %v", cfg.AuditRetention)
	}
}

func TestLoadConfigRequiredValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing database url": {
			"DATABASE_URL":   "",
			"DHIS2_BASE_URL": "https://dhis2.example.org",
			"DHIS2_USERNAME": "admin",
		},
		"missing registry url": {
			"DATABASE_URL":   "postgres://example",
			"DHIS2_BASE_URL": "",
			"DHIS2_USERNAME": "admin",
		},
		"missing registry username": {
			"DATABASE_URL":   "postgres://example",
			"DHIS2_BASE_URL": "https://dhis2.example.org",
			"DHIS2_USERNAME": "",
		},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Fatal("LoadConfig succeeded, want error")
			}
		})
	}
}
