package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_PASS",
		"DB_NAME", "DB_SSLMODE", "DB_PATH", "HTTP_ADDR", "CORS_ORIGINS",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	want := &Config{
		DBDriver:    "postgres",
		DBHost:      "localhost",
		DBPort:      5432,
		DBUser:      "postgres",
		DBName:      "postgres",
		DBSSLMode:   "disable",
		DBPath:      "tasks.db",
		HTTPAddr:    "localhost:8000",
		CORSOrigins: []string{"*"},
		LogLevel:    "info",
		LogFormat:   "console",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_PASS", "legacy")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBHost != "db.internal" || cfg.DBPort != 6543 || cfg.DBPassword != "legacy" || cfg.LogFormat != "json" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if diff := cmp.Diff([]string{"https://a.example", "https://b.example"}, cfg.CORSOrigins); diff != "" {
		t.Errorf("cors origins (-want +got):\n%s", diff)
	}

	t.Setenv("DB_PASSWORD", "current")
	cfg, err = Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBPassword != "current" {
		t.Errorf("DB_PASSWORD should win over DB_PASS, got %q", cfg.DBPassword)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "taskd.yaml")
	content := "db_driver: sqlite\ndb_path: /var/lib/taskd/tasks.db\nhttp_addr: \":9000\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HTTP_ADDR", ":9100")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBDriver != "sqlite" || cfg.DSN() != "/var/lib/taskd/tasks.db" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.HTTPAddr != ":9100" {
		t.Errorf("http_addr = %q, env should win", cfg.HTTPAddr)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"DB_DRIVER":  "mysql",
		"DB_PORT":    "70000",
		"LOG_FORMAT": "xml",
	}
	for k, v := range tests {
		t.Run(k, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(k, v)
			if _, err := Load(""); err == nil {
				t.Errorf("%s=%s accepted", k, v)
			}
		})
	}

	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing config file accepted")
	}
}

func TestConnString(t *testing.T) {
	cfg := &Config{
		DBHost: "localhost", DBPort: 5432, DBUser: "app",
		DBPassword: "it's secret", DBName: "tasks", DBSSLMode: "disable",
	}
	want := `host=localhost port=5432 user=app password='it\'s secret' dbname=tasks sslmode=disable`
	if got := cfg.ConnString(); got != want {
		t.Errorf("ConnString = %s\nwant          %s", got, want)
	}

	cfg.DBPassword = ""
	if got := cfg.ConnString(); !strings.Contains(got, "password='' ") {
		t.Errorf("empty password not quoted: %s", got)
	}
}

func TestWriteYAMLRedactsPassword(t *testing.T) {
	cfg := &Config{DBPassword: "hunter2", DBDriver: "postgres"}

	var buf bytes.Buffer
	if err := cfg.WriteYAML(&buf); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "hunter2") {
		t.Fatalf("password leaked:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "db_driver: postgres") {
		t.Errorf("unexpected yaml:\n%s", buf.String())
	}
	if cfg.DBPassword != "hunter2" {
		t.Error("Redacted modified the original")
	}
}
