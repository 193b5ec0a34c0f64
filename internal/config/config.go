// Package config loads pbq settings from the environment and from named
// server profiles.
package config

import (
	"fmt"
	"os"
	"time"
)

// DefaultURL is the address of a locally running PocketBase server.
const DefaultURL = "http://127.0.0.1:8090"

type Config struct {
	URL         string        // PBQ_URL (default active profile, then DefaultURL)
	Token       string        // PBQ_TOKEN (default active profile)
	NATSURL     string        // PBQ_NATS_URL (default active profile; empty = no events)
	SchemaFile  string        // PBQ_SCHEMA_FILE (optional TOML collection schema)
	DatabaseURL string        // PBQ_DATABASE_URL (optional schema cache)
	Timeout     time.Duration // PBQ_TIMEOUT (default 30s)

	// Export settings
	ExportInterval   time.Duration // PBQ_EXPORT_INTERVAL (default 0 = run once)
	ExportS3Bucket   string        // PBQ_EXPORT_S3_BUCKET (enables S3 when set)
	ExportS3Endpoint string        // PBQ_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)
	ExportS3Region   string        // PBQ_EXPORT_S3_REGION (default "us-east-1")
	ExportS3Key      string        // PBQ_EXPORT_S3_KEY (default "pbquery/export.jsonl")

	// Profile is the name of the active profile the values came from, if any.
	Profile string
}

// Load reads the environment. Connection settings missing from the
// environment fall back to the active profile in profiles.toml.
func Load() (*Config, error) {
	profiles, err := LoadProfiles()
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	active, _ := profiles.ActiveProfile()

	c := &Config{
		URL:              envOrDefault("PBQ_URL", orDefault(active.URL, DefaultURL)),
		Token:            envOrDefault("PBQ_TOKEN", active.Token),
		NATSURL:          envOrDefault("PBQ_NATS_URL", active.NATSURL),
		SchemaFile:       os.Getenv("PBQ_SCHEMA_FILE"),
		DatabaseURL:      os.Getenv("PBQ_DATABASE_URL"),
		ExportS3Bucket:   os.Getenv("PBQ_EXPORT_S3_BUCKET"),
		ExportS3Endpoint: os.Getenv("PBQ_EXPORT_S3_ENDPOINT"),
		ExportS3Region:   envOrDefault("PBQ_EXPORT_S3_REGION", "us-east-1"),
		ExportS3Key:      envOrDefault("PBQ_EXPORT_S3_KEY", "pbquery/export.jsonl"),
	}
	if active.URL != "" {
		c.Profile = profiles.Active
	}

	if c.Timeout, err = envDuration("PBQ_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if c.ExportInterval, err = envDuration("PBQ_EXPORT_INTERVAL", "0"); err != nil {
		return nil, err
	}
	if c.Timeout < 0 || c.ExportInterval < 0 {
		return nil, fmt.Errorf("PBQ_TIMEOUT and PBQ_EXPORT_INTERVAL must not be negative")
	}

	return c, nil
}

func envDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
