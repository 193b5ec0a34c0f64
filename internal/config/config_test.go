package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allEnvVars = []string{
	"PBQ_URL", "PBQ_TOKEN", "PBQ_NATS_URL", "PBQ_SCHEMA_FILE", "PBQ_DATABASE_URL",
	"PBQ_TIMEOUT", "PBQ_EXPORT_INTERVAL", "PBQ_EXPORT_S3_BUCKET",
	"PBQ_EXPORT_S3_ENDPOINT", "PBQ_EXPORT_S3_REGION", "PBQ_EXPORT_S3_KEY",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name        string
		env         map[string]string
		wantErr     bool
		wantURL     string
		wantToken   string
		wantNATSURL string
		wantTimeout time.Duration
	}{
		{
			name:        "Defaults",
			env:         map[string]string{},
			wantURL:     DefaultURL,
			wantTimeout: 30 * time.Second,
		},
		{
			name: "Custom",
			env: map[string]string{
				"PBQ_URL":      "https://pb.example.com",
				"PBQ_TOKEN":    "tok",
				"PBQ_NATS_URL": "nats://localhost:4222",
				"PBQ_TIMEOUT":  "5s",
			},
			wantURL:     "https://pb.example.com",
			wantToken:   "tok",
			wantNATSURL: "nats://localhost:4222",
			wantTimeout: 5 * time.Second,
		},
		{
			name:    "InvalidTimeout",
			env:     map[string]string{"PBQ_TIMEOUT": "soon"},
			wantErr: true,
		},
		{
			name:    "NegativeTimeout",
			env:     map[string]string{"PBQ_TIMEOUT": "-1s"},
			wantErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.URL != tc.wantURL {
				t.Errorf("URL = %q, want %q", cfg.URL, tc.wantURL)
			}
			if cfg.Token != tc.wantToken {
				t.Errorf("Token = %q, want %q", cfg.Token, tc.wantToken)
			}
			if cfg.NATSURL != tc.wantNATSURL {
				t.Errorf("NATSURL = %q, want %q", cfg.NATSURL, tc.wantNATSURL)
			}
			if cfg.Timeout != tc.wantTimeout {
				t.Errorf("Timeout = %v, want %v", cfg.Timeout, tc.wantTimeout)
			}
		})
	}
}

func TestLoad_ExportDefaults(t *testing.T) {
	clearAllEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ExportInterval != 0 {
		t.Errorf("ExportInterval = %v, want 0", cfg.ExportInterval)
	}
	if cfg.ExportS3Bucket != "" {
		t.Errorf("ExportS3Bucket = %q, want empty", cfg.ExportS3Bucket)
	}
	if cfg.ExportS3Region != "us-east-1" {
		t.Errorf("ExportS3Region = %q, want us-east-1", cfg.ExportS3Region)
	}
	if cfg.ExportS3Key != "pbquery/export.jsonl" {
		t.Errorf("ExportS3Key = %q, want pbquery/export.jsonl", cfg.ExportS3Key)
	}
}

func TestLoad_ExportInterval(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("PBQ_EXPORT_INTERVAL", "10m")
	t.Setenv("PBQ_EXPORT_S3_BUCKET", "backups")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ExportInterval != 10*time.Minute {
		t.Errorf("ExportInterval = %v, want 10m", cfg.ExportInterval)
	}
	if cfg.ExportS3Bucket != "backups" {
		t.Errorf("ExportS3Bucket = %q", cfg.ExportS3Bucket)
	}
}

func TestLoad_ActiveProfileFallback(t *testing.T) {
	clearAllEnv(t)
	err := SaveProfiles(Profiles{
		Active: "prod",
		Profiles: map[string]Profile{
			"prod": {URL: "https://prod.example.com", Token: "ptok", NATSURL: "nats://prod:4222"},
		},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.URL != "https://prod.example.com" || cfg.Token != "ptok" || cfg.NATSURL != "nats://prod:4222" {
		t.Errorf("config = %+v, want prod profile values", cfg)
	}
	if cfg.Profile != "prod" {
		t.Errorf("Profile = %q, want prod", cfg.Profile)
	}

	// The environment still wins over the profile.
	t.Setenv("PBQ_URL", "http://override:8090")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.URL != "http://override:8090" {
		t.Errorf("URL = %q, want env override", cfg.URL)
	}
	if cfg.Token != "ptok" {
		t.Errorf("Token = %q, want profile token", cfg.Token)
	}
}

func TestLoad_MalformedProfiles(t *testing.T) {
	clearAllEnv(t)
	path, err := ProfilesPath()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("active = [\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed profiles.toml")
	}
}

func TestProfiles_SaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	in := Profiles{
		Active: "prod",
		Profiles: map[string]Profile{
			"prod":  {URL: "https://prod.example.com", Token: "tok_abc", NATSURL: "nats://prod:4222"},
			"local": {URL: DefaultURL},
		},
	}
	if err := SaveProfiles(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := LoadProfiles()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Active != "prod" {
		t.Errorf("Active = %q, want prod", got.Active)
	}
	prof, ok := got.ActiveProfile()
	if !ok || prof.Token != "tok_abc" {
		t.Errorf("ActiveProfile() = %+v, %v", prof, ok)
	}
	if names := got.Names(); len(names) != 2 || names[0] != "local" || names[1] != "prod" {
		t.Errorf("Names() = %v, want [local prod]", names)
	}
}

func TestProfiles_NoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	p, err := LoadProfiles()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Active != "" || len(p.Profiles) != 0 || p.Profiles == nil {
		t.Errorf("expected empty non-nil profiles, got %+v", p)
	}
	if _, ok := p.ActiveProfile(); ok {
		t.Error("ActiveProfile() should be false with no active profile")
	}
}

func TestProfiles_Permissions(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := SaveProfiles(Profiles{Profiles: map[string]Profile{}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	path, _ := ProfilesPath()
	check := func(p string, want os.FileMode) {
		t.Helper()
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
		if got := info.Mode().Perm(); got != want {
			t.Errorf("%s permissions = %04o, want %04o", p, got, want)
		}
	}
	check(path, 0o600)
	check(filepath.Dir(path), 0o700)
}

func TestProfiles_UseRemove(t *testing.T) {
	p := Profiles{Profiles: map[string]Profile{"dev": {URL: DefaultURL}}}

	if err := p.Use("ghost"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("Use(ghost) error = %v, want ErrProfileNotFound", err)
	}
	if err := p.Use("dev"); err != nil || p.Active != "dev" {
		t.Fatalf("Use(dev) = %v, active %q", err, p.Active)
	}
	if err := p.Remove("dev"); err != nil {
		t.Fatalf("Remove(dev) = %v", err)
	}
	if p.Active != "" {
		t.Errorf("Active = %q, want cleared after removal", p.Active)
	}
	if err := p.Remove("dev"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("second Remove error = %v, want ErrProfileNotFound", err)
	}
	if err := p.Use(""); err != nil {
		t.Errorf("Use(\"\") = %v, want nil", err)
	}
}
