// Package config provides configuration management for twiglight using
// Viper for flexible loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports YAML files (.twiglight.yml),
// environment variable overrides with the TWIGLIGHT_ prefix, defaults and
// validation. It covers render caching, value loading, file watching, the
// preview server and logging.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cache backends.
const (
	CacheBackendNone   = "none"
	CacheBackendMemory = "memory"
	CacheBackendSQLite = "sqlite"
)

// HTML sanitizing policies applied to values before rendering.
const (
	SanitizeNone   = "none"
	SanitizeStrict = "strict"
	SanitizeUGC    = "ugc"
)

// Unicode normalisation modes applied to values before rendering.
const (
	NormalizeNone = "none"
	NormalizeNFC  = "nfc"
)

type Config struct {
	Render RenderConfig `mapstructure:"render"`
	Values ValuesConfig `mapstructure:"values"`
	Watch  WatchConfig  `mapstructure:"watch"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

type RenderConfig struct {
	CacheTimeout     time.Duration `mapstructure:"cache_timeout"`
	CacheKey         string        `mapstructure:"cache_key"`
	ForceCacheUpdate bool          `mapstructure:"force_cache_update"`
	CacheBackend     string        `mapstructure:"cache_backend"`
	CachePath        string        `mapstructure:"cache_path"`
	CacheMaxBytes    int64         `mapstructure:"cache_max_bytes"`
	MaxDepth         int           `mapstructure:"max_depth"`
	Strict           bool          `mapstructure:"strict"`
}

type ValuesConfig struct {
	Files        []string `mapstructure:"files"`
	Set          []string `mapstructure:"set"`
	SanitizeHTML string   `mapstructure:"sanitize_html"`
	Normalize    string   `mapstructure:"normalize"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	Paths    []string      `mapstructure:"paths"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	LiveReload     bool     `mapstructure:"live_reload"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers default values on v. Registering every key also
// lets AutomaticEnv resolve TWIGLIGHT_* overrides for it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("render.cache_timeout", time.Duration(0))
	v.SetDefault("render.cache_key", "")
	v.SetDefault("render.force_cache_update", false)
	v.SetDefault("render.cache_backend", CacheBackendNone)
	v.SetDefault("render.cache_path", ".twiglight/cache.db")
	v.SetDefault("render.cache_max_bytes", int64(16<<20))
	v.SetDefault("render.max_depth", 256)
	v.SetDefault("render.strict", false)

	v.SetDefault("values.files", []string{})
	v.SetDefault("values.set", []string{})
	v.SetDefault("values.sanitize_html", SanitizeNone)
	v.SetDefault("values.normalize", NormalizeNone)

	v.SetDefault("watch.debounce", 200*time.Millisecond)
	v.SetDefault("watch.paths", []string{})

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.live_reload", true)
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration from v, applying defaults and validation.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Render.CacheBackend = strings.ToLower(config.Render.CacheBackend)
	config.Values.SanitizeHTML = strings.ToLower(config.Values.SanitizeHTML)
	config.Values.Normalize = strings.ToLower(config.Values.Normalize)

	// Validate configuration values
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateRenderConfig(&config.Render); err != nil {
		return fmt.Errorf("render config: %w", err)
	}

	if err := validateValuesConfig(&config.Values); err != nil {
		return fmt.Errorf("values config: %w", err)
	}

	if err := validateWatchConfig(&config.Watch); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	return validateLogConfig(&config.Log)
}

// validateRenderConfig validates render and cache settings
func validateRenderConfig(config *RenderConfig) error {
	if config.CacheTimeout < 0 {
		return fmt.Errorf("cache_timeout must not be negative: %s", config.CacheTimeout)
	}

	switch config.CacheBackend {
	case CacheBackendNone, CacheBackendMemory, CacheBackendSQLite:
	default:
		return fmt.Errorf("unknown cache_backend %q (supported: none, memory, sqlite)", config.CacheBackend)
	}

	// cache_path is checked whenever it is set, whatever the backend.
	if config.CachePath != "" || config.CacheBackend == CacheBackendSQLite {
		if err := validatePath(config.CachePath); err != nil {
			return fmt.Errorf("invalid cache_path '%s': %w", config.CachePath, err)
		}
	}

	if config.CacheMaxBytes < 0 {
		return fmt.Errorf("cache_max_bytes must not be negative: %d", config.CacheMaxBytes)
	}

	return nil
}

// validateValuesConfig validates value loading settings
func validateValuesConfig(config *ValuesConfig) error {
	for _, path := range config.Files {
		if err := validatePath(path); err != nil {
			return fmt.Errorf("invalid values file '%s': %w", path, err)
		}
	}

	switch config.SanitizeHTML {
	case SanitizeNone, SanitizeStrict, SanitizeUGC:
	default:
		return fmt.Errorf("unknown sanitize_html policy %q (supported: none, strict, ugc)", config.SanitizeHTML)
	}

	switch config.Normalize {
	case NormalizeNone, NormalizeNFC:
	default:
		return fmt.Errorf("unknown normalize mode %q (supported: none, nfc)", config.Normalize)
	}

	return nil
}

// validateWatchConfig validates file watching settings
func validateWatchConfig(config *WatchConfig) error {
	if config.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative: %s", config.Debounce)
	}
	for _, path := range config.Paths {
		if err := validatePath(path); err != nil {
			return fmt.Errorf("invalid watch path '%s': %w", path, err)
		}
	}
	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\", " "}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %q", char)
			}
		}
	}

	return nil
}

// validateLogConfig validates logging settings
func validateLogConfig(config *LogConfig) error {
	switch strings.ToLower(config.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log config: unknown format %q (supported: text, json)", config.Format)
	}
	return nil
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	// Reject path traversal attempts
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\"", "'", "\x00"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %q", char)
		}
	}

	return nil
}
