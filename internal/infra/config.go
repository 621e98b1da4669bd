package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	DHIS2BaseURL       string
	DHIS2Username      string
	DHIS2Password      string
	DHIS2APIVersion    string
	DHIS2Timeout       time.Duration
	DHIS2MaxTries      int
	DHIS2RetryInterval time.Duration

	DHIS2OrgUnit           string
	DHIS2ElementBloodType  string
	DHIS2ElementVolume     string
	DHIS2ElementInventory  string
	DHIS2TrackedEntityType string
	DHIS2AttrDonorID       string
	DHIS2AttrDonorAge      string
	DHIS2AttrDonorGender   string

	SyncJobTimeout time.Duration
	SyncBatchSize  int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	RateLimitPerMin       int
	ImportRateLimitPerMin int
	SyncRateLimitPerMin   int

	AuditRetention time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		DHIS2BaseURL:       os.Getenv("DHIS2_BASE_URL"),
		DHIS2Username:      os.Getenv("DHIS2_USERNAME"),
		DHIS2Password:      os.Getenv("DHIS2_PASSWORD"),
		DHIS2APIVersion:    getEnv("DHIS2_API_VERSION", "40"),
		DHIS2Timeout:       time.Second * time.Duration(getEnvInt("DHIS2_TIMEOUT_SECONDS", 30)),
		DHIS2MaxTries:      getEnvInt("DHIS2_MAX_TRIES", 3),
		DHIS2RetryInterval: time.Millisecond * time.Duration(getEnvInt("DHIS2_RETRY_INTERVAL_MS", 500)),

		DHIS2OrgUnit:           getEnv("DHIS2_ORG_UNIT", "DEFAULT_ORG"),
		DHIS2ElementBloodType:  getEnv("DHIS2_ELEMENT_BLOOD_TYPE", "BLOOD_TYPE_ELEMENT"),
		DHIS2ElementVolume:     getEnv("DHIS2_ELEMENT_VOLUME", "VOLUME_ELEMENT"),
		DHIS2ElementInventory:  getEnv("DHIS2_ELEMENT_INVENTORY", "INVENTORY_COUNT_ELEMENT"),
		DHIS2TrackedEntityType: getEnv("DHIS2_TRACKED_ENTITY_TYPE", "DONOR_ENTITY_TYPE"),
		DHIS2AttrDonorID:       getEnv("DHIS2_ATTR_DONOR_ID", "DONOR_ID_ATTR"),
		DHIS2AttrDonorAge:      getEnv("DHIS2_ATTR_DONOR_AGE", "DONOR_AGE_ATTR"),
		DHIS2AttrDonorGender:   getEnv("DHIS2_ATTR_DONOR_GENDER", "DONOR_GENDER_ATTR"),

		SyncJobTimeout: time.Minute * time.Duration(getEnvInt("SYNC_JOB_TIMEOUT_MINUTES", 10)),
		SyncBatchSize:  getEnvInt("SYNC_BATCH_SIZE", 50),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),

		RateLimitPerMin:       getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
		ImportRateLimitPerMin: getEnvInt("IMPORT_RATE_LIMIT_PER_MINUTE", 10),
		SyncRateLimitPerMin:   getEnvInt("SYNC_RATE_LIMIT_PER_MINUTE", 5),

		AuditRetention: 24 * time.Hour * time.Duration(getEnvInt("AUDIT_RETENTION_DAYS", 90)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.DHIS2BaseURL == "" {
		return nil, fmt.Errorf("DHIS2_BASE_URL is required")
	}

	if cfg.DHIS2Username == "" {
		return nil, fmt.Errorf("DHIS2_USERNAME is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
