package autosave

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config controls when and how a session persists drafts on its own.
type Config struct {
	Enabled bool `json:"enabled" toml:"enabled"`
	// Interval is the periodic safety flush while the session is dirty.
	Interval time.Duration `json:"interval" toml:"interval"`
	// DebounceTime is the quiet period after the last edit before a save.
	DebounceTime time.Duration `json:"debounce_time" toml:"debounce_time"`
	// MaxRetries bounds the retries after the first failed attempt.
	MaxRetries int `json:"max_retries" toml:"max_retries"`
	// OnlyOnUserAction ignores externally driven updates such as hydration.
	OnlyOnUserAction bool          `json:"only_on_user_action" toml:"only_on_user_action"`
	RetryBackoff     time.Duration `json:"retry_backoff" toml:"retry_backoff"`
	MaxBackoff       time.Duration `json:"max_backoff" toml:"max_backoff"`
}

// DefaultConfig returns the editing defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		Interval:         30 * time.Second,
		DebounceTime:     2 * time.Second,
		MaxRetries:       3,
		OnlyOnUserAction: true,
		RetryBackoff:     time.Second,
		MaxBackoff:       30 * time.Second,
	}
}

// Validate reports invalid durations and retry bounds.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Interval, validation.When(c.Enabled, validation.Required), validation.Min(time.Duration(0))),
		validation.Field(&c.DebounceTime, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxRetries, validation.Min(0), validation.Max(20)),
		validation.Field(&c.RetryBackoff, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxBackoff, validation.Min(time.Duration(0))),
	)
}

// Backoff returns the delay before retry number attempt (1-based): the base
// doubles per attempt and is capped at MaxBackoff.
func (c Config) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := c.RetryBackoff
	if delay <= 0 {
		return 0
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if c.MaxBackoff > 0 && delay >= c.MaxBackoff {
			return c.MaxBackoff
		}
	}
	if c.MaxBackoff > 0 && delay > c.MaxBackoff {
		return c.MaxBackoff
	}
	return delay
}
