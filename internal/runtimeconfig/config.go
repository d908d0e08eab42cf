package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/internal/permissions"
)

var ErrDefaultLocaleInvalid = errors.New("cms config: default locale must be ar or en")
var ErrLocaleInvalid = errors.New("cms config: locale is invalid")
var ErrDefaultLocaleNotListed = errors.New("cms config: default locale must be listed in locales")
var ErrStorageProviderUnknown = errors.New("cms config: storage provider is invalid")
var ErrStorageDriverUnknown = errors.New("cms config: storage driver is invalid")
var ErrStorageDSNRequired = errors.New("cms config: storage dsn is required for the bun provider")

// ErrCacheRequiresBunStorage keeps the read cache in front of database storage only.
var ErrCacheRequiresBunStorage = errors.New("cms config: cache requires the bun storage provider")
var ErrCacheTTLInvalid = errors.New("cms config: cache ttl must not be negative")
var ErrAutoSaveIntervalRequired = errors.New("cms config: autosave interval is required when autosave is enabled")
var ErrAutoSaveDurationInvalid = errors.New("cms config: autosave durations must not be negative")
var ErrAutoSaveRetriesInvalid = errors.New("cms config: autosave max retries must be between 0 and 20")
var ErrAutoSaveBackoffInvalid = errors.New("cms config: autosave max backoff must not be lower than retry backoff")
var ErrScopeStrategyUnknown = errors.New("cms config: permission scope strategy is invalid")
var ErrSaveTimeoutInvalid = errors.New("cms config: save timeout must not be negative")
var ErrLoggingProviderRequired = errors.New("cms config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("cms config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("cms config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("cms config: logging format is invalid")

const (
	StorageMemory = "memory"
	StorageBun    = "bun"

	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	maxAutoSaveRetries = 20
)

// Config aggregates feature flags and adapter bindings for the editing runtime.
type Config struct {
	Enabled       bool           `toml:"enabled"`
	DefaultLocale string         `toml:"default_locale"`
	Locales       []string       `toml:"locales"`
	Storage       StorageConfig  `toml:"storage"`
	Cache         CacheConfig    `toml:"cache"`
	AutoSave      AutoSaveConfig `toml:"autosave"`
	Editing       EditingConfig  `toml:"editing"`
	Logging       LoggingConfig  `toml:"logging"`
	Features      Features       `toml:"features"`
}

// StorageConfig selects the element repository.
type StorageConfig struct {
	Provider string `toml:"provider"`
	Driver   string `toml:"driver"`
	DSN      string `toml:"dsn"`
}

// CacheConfig captures cache behaviour toggles.
type CacheConfig struct {
	Enabled    bool     `toml:"enabled"`
	DefaultTTL Duration `toml:"default_ttl"`
}

// AutoSaveConfig mirrors the autosave manager settings.
type AutoSaveConfig struct {
	Enabled          bool     `toml:"enabled"`
	Interval         Duration `toml:"interval"`
	DebounceTime     Duration `toml:"debounce_time"`
	MaxRetries       int      `toml:"max_retries"`
	OnlyOnUserAction bool     `toml:"only_on_user_action"`
	RetryBackoff     Duration `toml:"retry_backoff"`
	MaxBackoff       Duration `toml:"max_backoff"`
}

// EditingConfig captures session behaviour.
type EditingConfig struct {
	// RevisionCheck sends the last seen revision with every save so
	// concurrent edits surface as conflicts.
	RevisionCheck bool `toml:"revision_check"`
	// PageScopedPermissions enables "permission@page" tokens.
	PageScopedPermissions bool     `toml:"page_scoped_permissions"`
	ScopeStrategy         string   `toml:"scope_strategy"`
	SaveTimeout           Duration `toml:"save_timeout"`
	NotificationBuffer    int      `toml:"notification_buffer"`
}

// Features toggles optional integrations.
type Features struct {
	Logger    bool `toml:"logger"`
	Telemetry bool `toml:"telemetry"`
	Activity  bool `toml:"activity"`
	RichText  bool `toml:"rich_text"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `toml:"provider"`
	Level     string   `toml:"level"`
	Format    string   `toml:"format"`
	AddSource bool     `toml:"add_source"`
	Focus     []string `toml:"focus"`
}

// DefaultConfig returns the editing defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		DefaultLocale: string(domain.LocaleEnglish),
		Locales:       []string{string(domain.LocaleArabic), string(domain.LocaleEnglish)},
		Storage: StorageConfig{
			Provider: StorageMemory,
		},
		Cache: CacheConfig{
			Enabled:    false,
			DefaultTTL: Duration(time.Minute),
		},
		AutoSave: AutoSaveConfig{
			Enabled:          true,
			Interval:         Duration(30 * time.Second),
			DebounceTime:     Duration(2 * time.Second),
			MaxRetries:       3,
			OnlyOnUserAction: true,
			RetryBackoff:     Duration(time.Second),
			MaxBackoff:       Duration(30 * time.Second),
		},
		Editing: EditingConfig{
			RevisionCheck:      true,
			ScopeStrategy:      permissions.StrategyPageFirst,
			SaveTimeout:        Duration(15 * time.Second),
			NotificationBuffer: 32,
		},
		Features: Features{
			RichText: true,
		},
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	locale, ok := domain.ParseLocale(cfg.DefaultLocale)
	if !ok {
		return fmt.Errorf("%w: %q", ErrDefaultLocaleInvalid, cfg.DefaultLocale)
	}
	if len(cfg.Locales) > 0 {
		listed := false
		for _, code := range cfg.Locales {
			parsed, ok := domain.ParseLocale(code)
			if !ok {
				return fmt.Errorf("%w: %q", ErrLocaleInvalid, code)
			}
			listed = listed || parsed == locale
		}
		if !listed {
			return ErrDefaultLocaleNotListed
		}
	}

	provider := normalizeProvider(cfg.Storage.Provider)
	switch provider {
	case "", StorageMemory:
	case StorageBun:
		if !isSupportedDriver(cfg.Storage.Driver) {
			return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Storage.Driver)
		}
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, provider)
	}
	if cfg.Cache.Enabled && provider != StorageBun {
		return ErrCacheRequiresBunStorage
	}
	if cfg.Cache.DefaultTTL < 0 {
		return ErrCacheTTLInvalid
	}

	if err := cfg.AutoSave.validate(); err != nil {
		return err
	}

	if strategy := normalizeProvider(cfg.Editing.ScopeStrategy); strategy != "" &&
		strategy != permissions.StrategyPageFirst && strategy != permissions.StrategyGlobalFirst {
		return fmt.Errorf("%w: %s", ErrScopeStrategyUnknown, strategy)
	}
	if cfg.Editing.SaveTimeout < 0 {
		return ErrSaveTimeoutInvalid
	}

	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func (a AutoSaveConfig) validate() error {
	if a.Interval < 0 || a.DebounceTime < 0 || a.RetryBackoff < 0 || a.MaxBackoff < 0 {
		return ErrAutoSaveDurationInvalid
	}
	if a.Enabled && a.Interval == 0 {
		return ErrAutoSaveIntervalRequired
	}
	if a.MaxRetries < 0 || a.MaxRetries > maxAutoSaveRetries {
		return fmt.Errorf("%w: %d", ErrAutoSaveRetriesInvalid, a.MaxRetries)
	}
	if a.MaxBackoff > 0 && a.MaxBackoff < a.RetryBackoff {
		return ErrAutoSaveBackoffInvalid
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedDriver(driver string) bool {
	switch normalizeProvider(driver) {
	case DriverSQLite, DriverPostgres:
		return true
	default:
		return false
	}
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "gologger", "noop":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
