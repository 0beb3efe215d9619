// Package config holds the process configuration. Values come from
// built-in defaults, then an optional TOML file, then the environment.
// A Config is never modified after Load returns.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileEnv names the env var pointing at an optional TOML config file.
const FileEnv = "FUNCTIONS_CONFIG"

// Duration accepts "10m"-style strings in TOML.
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

type Config struct {
	Service       string `toml:"service"`
	ListenAddress string `toml:"listen_address"` // host:port, wins over bind_address/port
	BindAddress   string `toml:"bind_address"`
	Port          int    `toml:"port"`
	TLSCert       string `toml:"tls_cert"`
	TLSKey        string `toml:"tls_key"`

	FunctionDir     string   `toml:"function_dir"`
	FunctionExt     string   `toml:"function_ext"`
	RefreshInterval Duration `toml:"refresh_interval"`
	FunctionTimeout Duration `toml:"function_timeout"` // 0 disables
	MaxBodyBytes    int64    `toml:"max_body_bytes"`

	DatabaseURL string `toml:"database_url"`

	LogDir       string   `toml:"log_dir"`
	LogBodyPaths []string `toml:"log_body_paths"`
	MetricsPath  string   `toml:"metrics_path"`
}

func Default() Config {
	return Config{
		Service:         "steeze-fn",
		BindAddress:     "0.0.0.0",
		Port:            8080,
		FunctionDir:     "functions",
		FunctionExt:     ".lua",
		RefreshInterval: Duration{10 * time.Minute},
		FunctionTimeout: Duration{30 * time.Second},
		MaxBodyBytes:    10 << 20,
		LogDir:          "log",
		MetricsPath:     "/metrics",
	}
}

// Addr is the address the listener binds.
func (c Config) Addr() string {
	if c.ListenAddress != "" {
		return c.ListenAddress
	}
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(c.Port))
}

// TLSEnabled reports whether both TLS files are configured and present.
func (c Config) TLSEnabled() bool {
	return fileExists(c.TLSCert) && fileExists(c.TLSKey)
}

// FromEnv loads the file named by FUNCTIONS_CONFIG (if any) and the environment.
func FromEnv() (Config, error) {
	return Load(os.Getenv(FileEnv))
}

// Load applies path (may be empty) and then the environment over Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(k string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			*dst = v
		}
	}
	str("SERVICE_NAME", &c.Service)
	str("SERVER_LISTEN_ADDRESS", &c.ListenAddress)
	str("BIND_ADDRESS", &c.BindAddress)
	str("SSL_SERVER_CERTIFICATE", &c.TLSCert)
	str("SSL_SERVER_KEY", &c.TLSKey)
	str("FUNCTION_DIR", &c.FunctionDir)
	str("FUNCTION_EXT", &c.FunctionExt)
	str("DATABASE_URL", &c.DatabaseURL)
	str("LOG_DIR", &c.LogDir)
	str("METRICS_PATH", &c.MetricsPath)

	if v := strings.TrimSpace(os.Getenv("LOG_BODY_PATHS")); v != "" {
		c.LogBodyPaths = splitCSV(v)
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Port = n
	}
	if v := strings.TrimSpace(os.Getenv("MAX_BODY_BYTES")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_BODY_BYTES: %w", err)
		}
		c.MaxBodyBytes = n
	}
	for k, dst := range map[string]*Duration{
		"REFRESH_INTERVAL": &c.RefreshInterval,
		"FUNCTION_TIMEOUT": &c.FunctionTimeout,
	} {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
	}
	return nil
}

func (c *Config) normalize() {
	if c.FunctionExt != "" && !strings.HasPrefix(c.FunctionExt, ".") {
		c.FunctionExt = "." + c.FunctionExt
	}
	if c.MetricsPath != "" && !strings.HasPrefix(c.MetricsPath, "/") {
		c.MetricsPath = "/" + c.MetricsPath
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.FunctionDir) == "" {
		return errors.New("function_dir is required")
	}
	if c.FunctionExt == "" || c.FunctionExt == "." {
		return errors.New("function_ext is required")
	}
	if c.ListenAddress == "" && (c.Port <= 0 || c.Port > 65535) {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.RefreshInterval.Duration <= 0 {
		return errors.New("refresh_interval must be > 0")
	}
	if c.FunctionTimeout.Duration < 0 {
		return errors.New("function_timeout must be >= 0")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("max_body_bytes must be > 0")
	}
	if c.MetricsPath == "" || c.MetricsPath == "/" {
		return errors.New("metrics_path must name a path below /")
	}
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if x := strings.TrimSpace(p); x != "" {
			out = append(out, x)
		}
	}
	return out
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
