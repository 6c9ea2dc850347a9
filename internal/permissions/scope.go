package permissions

import (
	"context"
	"strings"
	"sync/atomic"
)

// Strategy resolves permission tokens for a family scope.
type Strategy interface {
	Resolve(permission, familyKey string) []string
}

// StrategyFunc adapts a function into a Strategy.
type StrategyFunc func(permission, familyKey string) []string

func (fn StrategyFunc) Resolve(permission, familyKey string) []string {
	if fn == nil {
		return nil
	}
	return fn(permission, familyKey)
}

const (
	StrategyFamilyFirst = "family_first"
	StrategyGlobalFirst = "global_first"
	StrategyCustom      = "custom"
)

var (
	// FamilyFirstStrategy prefers the family-scoped token and falls back to
	// the global token, matching how row level policies shadow table grants.
	FamilyFirstStrategy Strategy = StrategyFunc(func(permission, familyKey string) []string {
		if permission == "" {
			return nil
		}
		if familyKey == "" {
			return []string{permission}
		}
		scoped := scopePermission(permission, familyKey)
		if scoped == permission {
			return []string{permission}
		}
		return []string{scoped, permission}
	})
	GlobalFirstStrategy Strategy = StrategyFunc(func(permission, familyKey string) []string {
		if permission == "" {
			return nil
		}
		if familyKey == "" {
			return []string{permission}
		}
		scoped := scopePermission(permission, familyKey)
		if scoped == permission {
			return []string{permission}
		}
		return []string{permission, scoped}
	})
)

// FamilyScopeConfig configures family-scoped permission resolution.
type FamilyScopeConfig struct {
	Enabled  bool
	Strategy Strategy
}

var (
	defaultFamilyScopeConfig = FamilyScopeConfig{
		Enabled:  true,
		Strategy: FamilyFirstStrategy,
	}
	familyScopeConfig atomic.Value
)

// ConfigureFamilyScope updates the global family permission scope configuration.
func ConfigureFamilyScope(cfg FamilyScopeConfig) {
	if cfg.Strategy == nil {
		cfg.Strategy = FamilyFirstStrategy
	}
	familyScopeConfig.Store(cfg)
}

func currentFamilyScopeConfig() FamilyScopeConfig {
	if value := familyScopeConfig.Load(); value != nil {
		if cfg, ok := value.(FamilyScopeConfig); ok {
			return cfg
		}
	}
	return defaultFamilyScopeConfig
}

type familyKeyContextKey string

const familyKeyContext familyKeyContextKey = "nestsync.permissions.family_key"

// WithFamilyKey stores the family key on the context for permission checks.
func WithFamilyKey(ctx context.Context, key string) context.Context {
	if ctx == nil {
		return ctx
	}
	normalized := normalizeFamilyKey(key)
	if normalized == "" {
		return ctx
	}
	return context.WithValue(ctx, familyKeyContext, normalized)
}

// FamilyKeyFromContext returns the stored family key, if any.
func FamilyKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value := ctx.Value(familyKeyContext); value != nil {
		if key, ok := value.(string); ok {
			return normalizeFamilyKey(key)
		}
	}
	return ""
}

func normalizeFamilyKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func resolveScopedPermission(ctx context.Context, permission string) (string, string) {
	base, family := splitPermissionScope(permission)
	base = normalizePermission(base)
	if base == "" {
		return "", ""
	}
	family = normalizeFamilyKey(family)
	if family == "" {
		family = FamilyKeyFromContext(ctx)
	}
	return base, family
}

func splitPermissionScope(permission string) (string, string) {
	if permission == "" {
		return "", ""
	}
	parts := strings.SplitN(permission, "@", 2)
	if len(parts) == 2 {
		family := strings.TrimSpace(parts[1])
		if family != "" {
			return parts[0], family
		}
	}
	return permission, ""
}

func scopePermission(permission, familyKey string) string {
	if permission == "" || familyKey == "" {
		return permission
	}
	if strings.Contains(permission, "@") {
		return permission
	}
	return permission + "@" + familyKey
}

func allowedWithScope(ctx context.Context, checker Checker, permission string) bool {
	if checker == nil {
		return true
	}
	base, familyKey := resolveScopedPermission(ctx, permission)
	if base == "" {
		return true
	}
	cfg := currentFamilyScopeConfig()
	if !cfg.Enabled || familyKey == "" {
		return checker.Allowed(base)
	}
	strategy := cfg.Strategy
	if strategy == nil {
		strategy = FamilyFirstStrategy
	}
	for _, candidate := range strategy.Resolve(base, familyKey) {
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
