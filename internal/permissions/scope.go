package permissions

import (
	"context"
	"strings"
	"sync/atomic"
)

// Strategy resolves permission tokens for a page scope.
type Strategy interface {
	Resolve(permission, pageKey string) []string
}

// StrategyFunc adapts a function into a Strategy.
type StrategyFunc func(permission, pageKey string) []string

func (fn StrategyFunc) Resolve(permission, pageKey string) []string {
	if fn == nil {
		return nil
	}
	return fn(permission, pageKey)
}

const (
	StrategyPageFirst   = "page_first"
	StrategyGlobalFirst = "global_first"
	StrategyCustom      = "custom"
)

var (
	PageFirstStrategy Strategy = StrategyFunc(func(permission, pageKey string) []string {
		if permission == "" {
			return nil
		}
		scoped := scopePermission(permission, pageKey)
		if scoped == permission {
			return []string{permission}
		}
		return []string{scoped, permission}
	})
	GlobalFirstStrategy Strategy = StrategyFunc(func(permission, pageKey string) []string {
		if permission == "" {
			return nil
		}
		scoped := scopePermission(permission, pageKey)
		if scoped == permission {
			return []string{permission}
		}
		return []string{permission, scoped}
	})
)

// PageScopeConfig configures page-scoped permission resolution
// ("elements:update@home").
type PageScopeConfig struct {
	Enabled  bool
	Strategy Strategy
}

var (
	defaultPageScopeConfig = PageScopeConfig{
		Enabled:  false,
		Strategy: PageFirstStrategy,
	}
	pageScopeConfig atomic.Value
)

// ConfigurePageScope updates the global page permission scope configuration.
func ConfigurePageScope(cfg PageScopeConfig) {
	if cfg.Strategy == nil {
		cfg.Strategy = PageFirstStrategy
	}
	pageScopeConfig.Store(cfg)
}

// StrategyByName returns a built-in strategy, defaulting to page first.
func StrategyByName(name string) Strategy {
	switch normalizeToken(name) {
	case StrategyGlobalFirst:
		return GlobalFirstStrategy
	default:
		return PageFirstStrategy
	}
}

func currentPageScopeConfig() PageScopeConfig {
	if value := pageScopeConfig.Load(); value != nil {
		if cfg, ok := value.(PageScopeConfig); ok {
			return cfg
		}
	}
	return defaultPageScopeConfig
}

type pageKeyContextKey string

const pageKeyContext pageKeyContextKey = "cms.permissions.page_key"

// WithPageKey stores the page being edited on the context for permission checks.
func WithPageKey(ctx context.Context, key string) context.Context {
	if ctx == nil {
		return ctx
	}
	normalized := normalizePageKey(key)
	if normalized == "" {
		return ctx
	}
	return context.WithValue(ctx, pageKeyContext, normalized)
}

// PageKeyFromContext returns the stored page key, if any.
func PageKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value := ctx.Value(pageKeyContext); value != nil {
		if key, ok := value.(string); ok {
			return normalizePageKey(key)
		}
	}
	return ""
}

func normalizePageKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func resolveScopedPermission(ctx context.Context, permission string) (string, string) {
	base, page := splitPermissionScope(permission)
	base = normalizePermission(base)
	if base == "" {
		return "", ""
	}
	page = normalizePageKey(page)
	if page == "" {
		page = PageKeyFromContext(ctx)
	}
	return base, page
}

func splitPermissionScope(permission string) (string, string) {
	if permission == "" {
		return "", ""
	}
	parts := strings.SplitN(permission, "@", 2)
	if len(parts) == 2 {
		page := strings.TrimSpace(parts[1])
		if page != "" {
			return parts[0], page
		}
	}
	return permission, ""
}

func scopePermission(permission, pageKey string) string {
	if permission == "" || pageKey == "" {
		return permission
	}
	if strings.Contains(permission, "@") {
		return permission
	}
	return permission + "@" + pageKey
}

func allowedWithScope(ctx context.Context, checker Checker, permission string) bool {
	if checker == nil {
		return true
	}
	base, pageKey := resolveScopedPermission(ctx, permission)
	if base == "" {
		return true
	}
	cfg := currentPageScopeConfig()
	if !cfg.Enabled || pageKey == "" {
		return checker.Allowed(base)
	}
	strategy := cfg.Strategy
	if strategy == nil {
		strategy = PageFirstStrategy
	}
	for _, candidate := range strategy.Resolve(base, pageKey) {
		normalized := normalizePermission(candidate)
		if normalized == "" {
			continue
		}
		if checker.Allowed(normalized) {
			return true
		}
	}
	return false
}
