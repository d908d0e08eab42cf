package cmsinline

import "github.com/goliatone/go-cms-inline/internal/runtimeconfig"

var (
	ErrDefaultLocaleInvalid     = runtimeconfig.ErrDefaultLocaleInvalid
	ErrDefaultLocaleNotListed   = runtimeconfig.ErrDefaultLocaleNotListed
	ErrStorageProviderUnknown   = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDriverUnknown     = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired       = runtimeconfig.ErrStorageDSNRequired
	ErrCacheRequiresBunStorage  = runtimeconfig.ErrCacheRequiresBunStorage
	ErrAutoSaveIntervalRequired = runtimeconfig.ErrAutoSaveIntervalRequired
	ErrAutoSaveRetriesInvalid   = runtimeconfig.ErrAutoSaveRetriesInvalid
	ErrScopeStrategyUnknown     = runtimeconfig.ErrScopeStrategyUnknown
	ErrLoggingProviderRequired  = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown   = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid      = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid     = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config         = runtimeconfig.Config
	StorageConfig  = runtimeconfig.StorageConfig
	CacheConfig    = runtimeconfig.CacheConfig
	AutoSaveConfig = runtimeconfig.AutoSaveConfig
	EditingConfig  = runtimeconfig.EditingConfig
	LoggingConfig  = runtimeconfig.LoggingConfig
	Features       = runtimeconfig.Features
	Duration       = runtimeconfig.Duration
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a TOML file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.LoadFile(path)
}
