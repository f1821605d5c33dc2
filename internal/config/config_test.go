package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("INTERNHUB_API_URL", "")
	t.Setenv("INTERNHUB_CREATE_STATUS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Backend.BaseURL != "http://localhost:5000/api" {
		t.Errorf("unexpected default base URL: %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 15*time.Second {
		t.Errorf("unexpected default timeout: %s", cfg.Backend.Timeout)
	}
	if cfg.Moderation.DefaultCreateStatus != "pending" {
		t.Errorf("unexpected default create status: %s", cfg.Moderation.DefaultCreateStatus)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("unexpected default log level: %s", cfg.Logging.Level)
	}
}

func TestLoad_InvalidCreateStatus(t *testing.T) {
	t.Setenv("INTERNHUB_CREATE_STATUS", "approved")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for INTERNHUB_CREATE_STATUS=approved, got nil")
	}
	if !strings.Contains(err.Error(), "INTERNHUB_CREATE_STATUS") {
		t.Errorf("expected error to mention INTERNHUB_CREATE_STATUS, got: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("INTERNHUB_API_URL", "https://api.internhub.example/api")
	t.Setenv("INTERNHUB_API_TIMEOUT_SECONDS", "30")
	t.Setenv("INTERNHUB_CREATE_STATUS", "active")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Backend.BaseURL != "https://api.internhub.example/api" {
		t.Errorf("base URL override not applied: %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 30*time.Second {
		t.Errorf("timeout override not applied: %s", cfg.Backend.Timeout)
	}
	if cfg.Moderation.DefaultCreateStatus != "active" {
		t.Errorf("create status override not applied: %s", cfg.Moderation.DefaultCreateStatus)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/.env"
	content := "# comment\nINTERNHUB_TEST_KEY=from-file\nINTERNHUB_TEST_QUOTED=\"quoted value\"\nINTERNHUB_TEST_EXISTING=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("INTERNHUB_TEST_EXISTING", "from-env")
	defer os.Unsetenv("INTERNHUB_TEST_KEY")
	defer os.Unsetenv("INTERNHUB_TEST_QUOTED")

	LoadEnvFile(path)

	if got := os.Getenv("INTERNHUB_TEST_KEY"); got != "from-file" {
		t.Errorf("INTERNHUB_TEST_KEY = %q, want %q", got, "from-file")
	}
	if got := os.Getenv("INTERNHUB_TEST_QUOTED"); got != "quoted value" {
		t.Errorf("INTERNHUB_TEST_QUOTED = %q, want %q", got, "quoted value")
	}
	if got := os.Getenv("INTERNHUB_TEST_EXISTING"); got != "from-env" {
		t.Errorf("existing env var was overwritten: %q", got)
	}
}
