package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigFile = "imagefetch.yaml"
	defaultMaxBytes   = 4194304 // 4 MiB
	defaultTimeout    = 30 * time.Second

	maxMaxBytes = 1 << 30 // refuse configs that would buffer >1 GiB in memory
	maxTimeout  = 10 * time.Minute
)

type Config struct {
	HTTPAddr       string
	ConfigFile     string
	Whitelist      []string // from WHITELIST env; overrides the file and disables reload
	MaxBytes       int64
	Timeout        time.Duration
	ReloadInterval time.Duration // 0 disables periodic reload
}

// fileConfig is the YAML shape of the config file. The whitelist key is
// also re-read by the reloader; max_bytes/timeout_ms apply at startup only.
type fileConfig struct {
	Whitelist []string `yaml:"whitelist"`
	MaxBytes  int64    `yaml:"max_bytes"`
	TimeoutMS int      `yaml:"timeout_ms"`
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load builds the config from the environment plus an optional YAML
// file. Precedence: env > file > defaults. A CONFIG_FILE that is set
// explicitly must exist; the default file name may be absent.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:   getenv("HTTP_ADDR", ":8080"),
		ConfigFile: getenv("CONFIG_FILE", defaultConfigFile),
		MaxBytes:   defaultMaxBytes,
		Timeout:    defaultTimeout,
	}

	fc, err := loadFile(cfg.ConfigFile, os.Getenv("CONFIG_FILE") != "")
	if err != nil {
		return Config{}, err
	}
	if fc.MaxBytes > 0 {
		cfg.MaxBytes = fc.MaxBytes
	}
	if fc.TimeoutMS > 0 {
		cfg.Timeout = time.Duration(fc.TimeoutMS) * time.Millisecond
	}

	if v := os.Getenv("MAX_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MAX_BYTES=%q: %w", v, err)
		}
		cfg.MaxBytes = n
	}
	if cfg.MaxBytes <= 0 || cfg.MaxBytes > maxMaxBytes {
		return Config{}, fmt.Errorf("MAX_BYTES out of range (%d), must be 1..%d", cfg.MaxBytes, int64(maxMaxBytes))
	}

	if v := os.Getenv("TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TIMEOUT_MS=%q: %w", v, err)
		}
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	if cfg.Timeout <= 0 || cfg.Timeout > maxTimeout {
		return Config{}, fmt.Errorf("timeout out of range (%s), must be >0 and <=%s", cfg.Timeout, maxTimeout)
	}

	// The file whitelist is loaded through the whitelist source, not here;
	// WHITELIST in the environment takes over completely when set.
	if v := os.Getenv("WHITELIST"); v != "" {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Whitelist = append(cfg.Whitelist, p)
			}
		}
	}

	intervalStr := getenv("RELOAD_INTERVAL", "5m")
	d, err := time.ParseDuration(intervalStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid RELOAD_INTERVAL=%q: %w", intervalStr, err)
	}
	if d < 0 {
		return Config{}, fmt.Errorf("RELOAD_INTERVAL must not be negative (%s)", d)
	}
	if d > 0 && d < 30*time.Second {
		return Config{}, fmt.Errorf("RELOAD_INTERVAL too small (%s), must be >=30s or 0 to disable", d)
	}
	cfg.ReloadInterval = d

	return cfg, nil
}

func loadFile(path string, required bool) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return fileConfig{}, nil
		}
		return fileConfig{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}
