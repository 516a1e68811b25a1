package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultHost               = "0.0.0.0"
	defaultPort               = 2323
	defaultHostKeyPath        = ".data/host_ed25519"
	defaultIdleTimeout        = 10 * time.Minute
	defaultMaxSessions        = 32
	defaultRateLimitPerMinute = 30
	defaultRateLimitBurst     = 10
	defaultThemePollInterval  = 5 * time.Second
	defaultLogLevel           = "info"
	maximumConfiguredSessions = 1024
)

// EnvConfigFile names an optional YAML file whose values replace the built-in
// defaults. Environment variables still win over the file.
const EnvConfigFile = "FOLIO_CONFIG_FILE"

// Config captures startup settings for the entrypoints.
type Config struct {
	Host               string
	Port               int
	HostKeyPath        string
	IdleTimeout        time.Duration
	MaxSessions        int
	RateLimitPerMinute int
	RateLimitBurst     int

	// ThemeStorePath is the JSON file holding persisted theme choices.
	// Empty means the per-user default location.
	ThemeStorePath string
	// ThemePollInterval is how often the environment color scheme is
	// re-checked. Zero disables following the environment after startup.
	ThemePollInterval time.Duration
	LogLevel          string
}

// fileConfig mirrors Config for the YAML file. Pointer fields distinguish
// "unset" from zero values.
type fileConfig struct {
	Host               *string `yaml:"host"`
	Port               *int    `yaml:"port"`
	HostKeyPath        *string `yaml:"host_key_path"`
	IdleTimeout        *string `yaml:"idle_timeout"`
	MaxSessions        *int    `yaml:"max_sessions"`
	RateLimitPerMinute *int    `yaml:"rate_limit_per_minute"`
	RateLimitBurst     *int    `yaml:"rate_limit_burst"`
	Theme              struct {
		StorePath    *string `yaml:"store_path"`
		PollInterval *string `yaml:"poll_interval"`
	} `yaml:"theme"`
	LogLevel *string `yaml:"log_level"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Host:               defaultHost,
		Port:               defaultPort,
		HostKeyPath:        defaultHostKeyPath,
		IdleTimeout:        defaultIdleTimeout,
		MaxSessions:        defaultMaxSessions,
		RateLimitPerMinute: defaultRateLimitPerMinute,
		RateLimitBurst:     defaultRateLimitBurst,
		ThemePollInterval:  defaultThemePollInterval,
		LogLevel:           defaultLogLevel,
	}
}

// LoadFromEnv loads runtime configuration from FOLIO_CONFIG_FILE (if set)
// and environment variables.
func LoadFromEnv() (Config, error) {
	base := Defaults()
	if path, ok := os.LookupEnv(EnvConfigFile); ok && strings.TrimSpace(path) != "" {
		var err error
		base, err = LoadFile(path, base)
		if err != nil {
			return Config{}, err
		}
	}

	host, err := readRequiredOrDefault("FOLIO_SSH_HOST", base.Host)
	if err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(host) == "" {
		return Config{}, fmt.Errorf("FOLIO_SSH_HOST must not be blank")
	}

	port, err := readInt("FOLIO_SSH_PORT", base.Port, 1, 65535)
	if err != nil {
		return Config{}, err
	}

	hostKeyPath, err := readRequiredOrDefault("FOLIO_SSH_HOST_KEY_PATH", base.HostKeyPath)
	if err != nil {
		return Config{}, err
	}
	cleanHostKeyPath := filepath.Clean(hostKeyPath)
	if cleanHostKeyPath == "." {
		return Config{}, fmt.Errorf("FOLIO_SSH_HOST_KEY_PATH must not resolve to current directory")
	}

	idleTimeout, err := readDuration("FOLIO_SSH_IDLE_TIMEOUT", base.IdleTimeout, false)
	if err != nil {
		return Config{}, err
	}

	maxSessions, err := readInt("FOLIO_SSH_MAX_SESSIONS", base.MaxSessions, 1, maximumConfiguredSessions)
	if err != nil {
		return Config{}, err
	}

	rateLimit, err := readInt("FOLIO_SSH_RATE_LIMIT_PER_MINUTE", base.RateLimitPerMinute, 1, 10000)
	if err != nil {
		return Config{}, err
	}

	burst, err := readInt("FOLIO_SSH_RATE_LIMIT_BURST", base.RateLimitBurst, 1, 1000)
	if err != nil {
		return Config{}, err
	}

	storePath := base.ThemeStorePath
	if raw, ok := os.LookupEnv("FOLIO_THEME_STORE"); ok {
		storePath = strings.TrimSpace(raw)
	}
	if storePath != "" {
		storePath = filepath.Clean(storePath)
	}

	pollInterval, err := readDuration("FOLIO_THEME_POLL_INTERVAL", base.ThemePollInterval, true)
	if err != nil {
		return Config{}, err
	}

	logLevel, err := readRequiredOrDefault("FOLIO_LOG_LEVEL", base.LogLevel)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Host:               host,
		Port:               port,
		HostKeyPath:        cleanHostKeyPath,
		IdleTimeout:        idleTimeout,
		MaxSessions:        maxSessions,
		RateLimitPerMinute: rateLimit,
		RateLimitBurst:     burst,
		ThemeStorePath:     storePath,
		ThemePollInterval:  pollInterval,
		LogLevel:           strings.ToLower(strings.TrimSpace(logLevel)),
	}, nil
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadFile overlays the YAML file at path onto base.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}

	out := base
	if fc.Host != nil {
		out.Host = *fc.Host
	}
	if fc.Port != nil {
		out.Port = *fc.Port
	}
	if fc.HostKeyPath != nil {
		out.HostKeyPath = *fc.HostKeyPath
	}
	if fc.IdleTimeout != nil {
		d, err := parseDuration("idle_timeout", *fc.IdleTimeout, false)
		if err != nil {
			return Config{}, err
		}
		out.IdleTimeout = d
	}
	if fc.MaxSessions != nil {
		out.MaxSessions = *fc.MaxSessions
	}
	if fc.RateLimitPerMinute != nil {
		out.RateLimitPerMinute = *fc.RateLimitPerMinute
	}
	if fc.RateLimitBurst != nil {
		out.RateLimitBurst = *fc.RateLimitBurst
	}
	if fc.Theme.StorePath != nil {
		out.ThemeStorePath = *fc.Theme.StorePath
	}
	if fc.Theme.PollInterval != nil {
		d, err := parseDuration("theme.poll_interval", *fc.Theme.PollInterval, true)
		if err != nil {
			return Config{}, err
		}
		out.ThemePollInterval = d
	}
	if fc.LogLevel != nil {
		out.LogLevel = *fc.LogLevel
	}
	return out, nil
}

func readRequiredOrDefault(key, fallback string) (string, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	if raw == "" {
		return "", fmt.Errorf("%s must not be empty", key)
	}

	return raw, nil
}

func readInt(key string, fallback, min, max int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		if fallback < min || fallback > max {
			return 0, fmt.Errorf("%s must be between %d and %d", key, min, max)
		}
		return fallback, nil
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	if parsed < min || parsed > max {
		return 0, fmt.Errorf("%s must be between %d and %d", key, min, max)
	}

	return parsed, nil
}

func readDuration(key string, fallback time.Duration, allowZero bool) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	return parseDuration(key, raw, allowZero)
}

var errNonPositive = errors.New("must be greater than 0")

func parseDuration(key, raw string, allowZero bool) (time.Duration, error) {
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if parsed < 0 || (parsed == 0 && !allowZero) {
		return 0, fmt.Errorf("%s %w", key, errNonPositive)
	}

	return parsed, nil
}
