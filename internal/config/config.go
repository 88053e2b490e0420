package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"taskd/internal/db"
)

type Config struct {
	DBDriver   string `mapstructure:"db_driver" yaml:"db_driver"`
	DBHost     string `mapstructure:"db_host" yaml:"db_host"`
	DBPort     int    `mapstructure:"db_port" yaml:"db_port"`
	DBUser     string `mapstructure:"db_user" yaml:"db_user"`
	DBPassword string `mapstructure:"db_password" yaml:"db_password"`
	DBName     string `mapstructure:"db_name" yaml:"db_name"`
	DBSSLMode  string `mapstructure:"db_sslmode" yaml:"db_sslmode"`
	DBPath     string `mapstructure:"db_path" yaml:"db_path"`

	HTTPAddr    string   `mapstructure:"http_addr" yaml:"http_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// There is deliberately no password default: an empty one makes a missing
// DB_PASSWORD fail loudly at connect time.
var defaults = map[string]any{
	"db_driver":    "postgres",
	"db_host":      "localhost",
	"db_port":      5432,
	"db_user":      "postgres",
	"db_password":  "",
	"db_name":      "postgres",
	"db_sslmode":   "disable",
	"db_path":      "tasks.db",
	"http_addr":    "localhost:8000",
	"cors_origins": []string{"*"},
	"log_level":    "info",
	"log_format":   "console",
}

// Load reads defaults, then the optional YAML file at path, then environment
// variables (DB_HOST, DB_PORT, ...). Later sources win.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// older deployments export DB_PASS
	if err := v.BindEnv("db_password", "DB_PASSWORD", "DB_PASS"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORSOrigins = splitList(cfg.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := db.ParseDialect(c.DBDriver); err != nil {
		errs = append(errs, err)
	}
	if c.DBPort <= 0 || c.DBPort > 65535 {
		errs = append(errs, fmt.Errorf("db_port %d out of range", c.DBPort))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http_addr is empty"))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

func (c *Config) Dialect() db.Dialect {
	d, _ := db.ParseDialect(c.DBDriver)
	return d
}

// ConnString is the lib/pq key=value DSN.
func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		quote(c.DBHost), c.DBPort, quote(c.DBUser), quote(c.DBPassword), quote(c.DBName), quote(c.DBSSLMode),
	)
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.Dialect() == db.SQLite {
		return c.DBPath
	}
	return c.ConnString()
}

// Redacted is a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	if out.DBPassword != "" {
		out.DBPassword = "******"
	}
	return out
}

func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c.Redacted()); err != nil {
		return err
	}
	return enc.Close()
}

// quote wraps a DSN value in single quotes when it needs them.
func quote(s string) string {
	if s != "" && !strings.ContainsAny(s, ` '\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// splitList accepts CORS_ORIGINS="a, b" from the environment as well as a
// YAML list.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
