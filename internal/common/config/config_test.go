package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"MNMETRO_CONFIG_FILE", "DB_HOST", "DB_PORT", "DB_NAME", "DB_SSLMODE", "DB_BATCH_SIZE", "LOG_LEVEL", "LOG_FILE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Metro.FilePath != "metro_config.xml" {
		t.Errorf("Expected default file path, got %q", cfg.Metro.FilePath)
	}
	if cfg.Database.BatchSize != 1000 {
		t.Errorf("Expected default batch size 1000, got %d", cfg.Database.BatchSize)
	}
	if err := cfg.Database.Validate(); err != nil {
		t.Errorf("Default database config should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MNMETRO_CONFIG_FILE", "/data/metro_config.xml")
	t.Setenv("DB_BATCH_SIZE", "250")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Metro.FilePath != "/data/metro_config.xml" {
		t.Errorf("Expected file path from env, got %q", cfg.Metro.FilePath)
	}
	if cfg.Database.BatchSize != 250 {
		t.Errorf("Expected batch size 250, got %d", cfg.Database.BatchSize)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "chatty")

	if _, err := Load(); err == nil {
		t.Error("Expected error for unknown log level")
	}
}

func TestDatabaseValidate(t *testing.T) {
	valid := DatabaseConfig{Host: "db", Port: "5432", User: "u", DBName: "mnmetro", SSLMode: "disable", BatchSize: 10}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	tests := map[string]func(c *DatabaseConfig){
		"missing host":   func(c *DatabaseConfig) { c.Host = "" },
		"bad port":       func(c *DatabaseConfig) { c.Port = "pg" },
		"bad sslmode":    func(c *DatabaseConfig) { c.SSLMode = "maybe" },
		"zero batch":     func(c *DatabaseConfig) { c.BatchSize = 0 },
		"missing dbname": func(c *DatabaseConfig) { c.DBName = "" },
	}
	for name, mutate := range tests {
		c := valid
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestMetroValidate(t *testing.T) {
	if err := (&MetroConfig{}).Validate(); err == nil {
		t.Error("Expected error for empty file path")
	}
	if err := (&MetroConfig{FilePath: "metro_config.xml"}).Validate(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestConnectionString(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5433", User: "u", Password: "p", DBName: "mnmetro", SSLMode: "require"}
	got := c.ConnectionString()
	want := "host=db port=5433 user=u password=p dbname=mnmetro sslmode=require"
	if got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("MNMETRO_TEST_VALUE=corridors\n"), 0o600); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Setenv("MNMETRO_TEST_VALUE", "")
	os.Unsetenv("MNMETRO_TEST_VALUE")

	if err := LoadEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}
	if got := os.Getenv("MNMETRO_TEST_VALUE"); got != "corridors" {
		t.Errorf("Expected value from env file, got %q", got)
	}
}
