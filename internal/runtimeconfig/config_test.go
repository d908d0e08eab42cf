package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-cms-inline/internal/runtimeconfig"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := runtimeconfig.DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RejectsUnknownDefaultLocale(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.DefaultLocale = "fr"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrDefaultLocaleInvalid) {
		t.Fatalf("expected ErrDefaultLocaleInvalid, got %v", err)
	}
}

func TestConfigValidate_RequiresDefaultLocaleListed(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.DefaultLocale = "ar"
	cfg.Locales = []string{"en"}

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrDefaultLocaleNotListed) {
		t.Fatalf("expected ErrDefaultLocaleNotListed, got %v", err)
	}
}

func TestConfigValidate_BunStorageNeedsDriverAndDSN(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Provider = runtimeconfig.StorageBun
	cfg.Storage.Driver = "mysql"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrStorageDriverUnknown) {
		t.Fatalf("expected ErrStorageDriverUnknown, got %v", err)
	}

	cfg.Storage.Driver = runtimeconfig.DriverSQLite
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrStorageDSNRequired) {
		t.Fatalf("expected ErrStorageDSNRequired, got %v", err)
	}

	cfg.Storage.DSN = "file::memory:?cache=shared"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid bun config, got %v", err)
	}
}

func TestConfigValidate_CacheRequiresBunStorage(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Cache.Enabled = true

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrCacheRequiresBunStorage) {
		t.Fatalf("expected ErrCacheRequiresBunStorage, got %v", err)
	}
}

func TestConfigValidate_AutoSaveBounds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*runtimeconfig.AutoSaveConfig)
		want   error
	}{
		{"interval required", func(a *runtimeconfig.AutoSaveConfig) { a.Interval = 0 }, runtimeconfig.ErrAutoSaveIntervalRequired},
		{"negative debounce", func(a *runtimeconfig.AutoSaveConfig) { a.DebounceTime = -1 }, runtimeconfig.ErrAutoSaveDurationInvalid},
		{"too many retries", func(a *runtimeconfig.AutoSaveConfig) { a.MaxRetries = 21 }, runtimeconfig.ErrAutoSaveRetriesInvalid},
		{"backoff inverted", func(a *runtimeconfig.AutoSaveConfig) {
			a.RetryBackoff = runtimeconfig.Duration(10 * time.Second)
			a.MaxBackoff = runtimeconfig.Duration(time.Second)
		}, runtimeconfig.ErrAutoSaveBackoffInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			tc.mutate(&cfg.AutoSave)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestConfigValidate_DisabledAutoSaveAllowsZeroInterval(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.AutoSave.Enabled = false
	cfg.AutoSave.Interval = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RejectsUnknownScopeStrategy(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Editing.ScopeStrategy = "tenant_first"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrScopeStrategyUnknown) {
		t.Fatalf("expected ErrScopeStrategyUnknown, got %v", err)
	}
}

func TestConfigValidate_RequiresLoggingProviderWhenFeatureEnabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = ""

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingProviderRequired) {
		t.Fatalf("expected ErrLoggingProviderRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownLoggingProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "syslog"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "xml"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingLevel(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Level = "verbose"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingLevelInvalid) {
		t.Fatalf("expected ErrLoggingLevelInvalid, got %v", err)
	}
}

const sampleConfig = `
default_locale = "ar"

[storage]
provider = "bun"
driver = "sqlite3"
dsn = "file::memory:?cache=shared"

[cache]
enabled = true
default_ttl = "90s"

[autosave]
debounce_time = "1500ms"
max_retries = 5

[editing]
revision_check = false
scope_strategy = "global_first"

[features]
logger = true
telemetry = true
`

func TestLoadOverlaysDefaults(t *testing.T) {
	cfg, err := runtimeconfig.Load(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DefaultLocale != "ar" {
		t.Fatalf("expected default locale ar, got %q", cfg.DefaultLocale)
	}
	if got := cfg.AutoSave.DebounceTime.Std(); got != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s debounce, got %v", got)
	}
	if got := cfg.AutoSave.Interval.Std(); got != 30*time.Second {
		t.Fatalf("expected default interval to survive, got %v", got)
	}
	if cfg.AutoSave.MaxRetries != 5 {
		t.Fatalf("expected 5 retries, got %d", cfg.AutoSave.MaxRetries)
	}
	if got := cfg.Cache.DefaultTTL.Std(); got != 90*time.Second {
		t.Fatalf("expected 90s ttl, got %v", got)
	}
	if cfg.Editing.RevisionCheck {
		t.Fatalf("expected revision check disabled")
	}
	if !cfg.Features.Telemetry || !cfg.Features.Logger {
		t.Fatalf("expected features enabled, got %+v", cfg.Features)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	if _, err := runtimeconfig.Load(strings.NewReader("[autosave]\nspeed = 3\n")); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	if _, err := runtimeconfig.Load(strings.NewReader("[autosave]\ninterval = \"soon\"\n")); err == nil {
		t.Fatalf("expected duration parse error")
	}
}

func TestLoadValidates(t *testing.T) {
	_, err := runtimeconfig.Load(strings.NewReader("default_locale = \"de\"\n"))
	if !errors.Is(err, runtimeconfig.ErrDefaultLocaleInvalid) {
		t.Fatalf("expected ErrDefaultLocaleInvalid, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cms.toml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := runtimeconfig.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Storage.Provider != runtimeconfig.StorageBun {
		t.Fatalf("expected bun provider, got %q", cfg.Storage.Provider)
	}

	if _, err := runtimeconfig.LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected missing file error")
	}
}
