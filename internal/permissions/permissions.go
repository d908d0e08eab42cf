package permissions

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

type Action string

const (
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionPublish Action = "publish"
)

const (
	ResourceElements    = "elements"
	ResourceCollections = "collections"
)

const (
	ElementsRead    = "elements:read"
	ElementsUpdate  = "elements:update"
	ElementsPublish = "elements:publish"

	CollectionsRead    = "collections:read"
	CollectionsUpdate  = "collections:update"
	CollectionsPublish = "collections:publish"
)

var ErrPermissionDenied = errors.New("permissions: denied")

type Error struct {
	Permission string
}

func (e Error) Error() string {
	if strings.TrimSpace(e.Permission) == "" {
		return "permission denied"
	}
	return "permission denied: " + e.Permission
}

func (e Error) Unwrap() error {
	return ErrPermissionDenied
}

// PermissionSet captures the editing tokens of one resource.
type PermissionSet struct {
	Read    string `json:"read,omitempty"`
	Update  string `json:"update,omitempty"`
	Publish string `json:"publish,omitempty"`
}

// ElementPermissions returns the permission set for inline element editing.
func ElementPermissions() PermissionSet {
	return ResourcePermissions(ResourceElements)
}

// CollectionPermissions returns the permission set for element collections.
func CollectionPermissions() PermissionSet {
	return ResourcePermissions(ResourceCollections)
}

// ResourcePermissions creates a permission set for a resource.
func ResourcePermissions(resource string) PermissionSet {
	normalized := normalizeToken(resource)
	return PermissionSet{
		Read:    Join(normalized, ActionRead),
		Update:  Join(normalized, ActionUpdate),
		Publish: Join(normalized, ActionPublish),
	}
}

// Join builds a permission token from resource and action.
func Join(resource string, action Action) string {
	res := normalizeToken(resource)
	act := normalizeToken(string(action))
	if res == "" || act == "" {
		return ""
	}
	return res + ":" + act
}

// List returns the non-empty permissions in the set.
func (p PermissionSet) List() []string {
	out := make([]string, 0, 3)
	for _, perm := range []string{p.Read, p.Update, p.Publish} {
		if perm != "" {
			out = append(out, perm)
		}
	}
	return out
}

type Checker interface {
	Allowed(permission string) bool
}

type CheckerFunc func(permission string) bool

func (fn CheckerFunc) Allowed(permission string) bool {
	return fn(permission)
}

type Set map[string]struct{}

func NewSet(perms ...string) Set {
	set := Set{}
	for _, perm := range perms {
		normalized := normalizePermission(perm)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}

func (s Set) Allowed(permission string) bool {
	if len(s) == 0 {
		return false
	}
	normalized := normalizePermission(permission)
	if normalized == "" {
		return false
	}
	if _, ok := s[normalized]; ok {
		return true
	}
	resource, _ := splitPermission(normalized)
	if resource != "" {
		if _, ok := s[resource+":*"]; ok {
			return true
		}
	}
	if _, ok := s["*"]; ok {
		return true
	}
	return false
}

// Permissioner is implemented by host session types that expose permission checks.
type Permissioner interface {
	HasPermission(permission string) bool
}

type contextKey string

const checkerKey contextKey = "cms.permissions.checker"

// WithChecker stores a permission checker on the context.
func WithChecker(ctx context.Context, checker Checker) context.Context {
	if ctx == nil || checker == nil {
		return ctx
	}
	return context.WithValue(ctx, checkerKey, checker)
}

// WithPermissions stores a static permission set on the context.
func WithPermissions(ctx context.Context, perms ...string) context.Context {
	if ctx == nil || len(perms) == 0 {
		return ctx
	}
	return WithChecker(ctx, NewSet(perms...))
}

// WithPermissioner stores a host session on the context for permission checks.
func WithPermissioner(ctx context.Context, p Permissioner) context.Context {
	if ctx == nil || p == nil {
		return ctx
	}
	return context.WithValue(ctx, checkerKey, p)
}

// CheckerFromContext returns the configured permission checker if available.
func CheckerFromContext(ctx context.Context) Checker {
	if ctx == nil {
		return nil
	}
	value := ctx.Value(checkerKey)
	if value == nil {
		return nil
	}
	switch typed := value.(type) {
	case Checker:
		return typed
	case Permissioner:
		return CheckerFunc(typed.HasPermission)
	default:
		return nil
	}
}

// Allowed reports whether the provided permission is allowed for the context.
// Contexts without a checker are allowed.
func Allowed(ctx context.Context, permission string) bool {
	return allowedWithScope(ctx, CheckerFromContext(ctx), permission)
}

// Require enforces a permission requirement when a checker is available on the context.
func Require(ctx context.Context, permission string) error {
	normalized := normalizePermission(permission)
	if normalized == "" {
		return nil
	}
	if allowedWithScope(ctx, CheckerFromContext(ctx), normalized) {
		return nil
	}
	return Error{Permission: normalized}
}

// Gate builds a capability gate for the permission. Unlike Allowed, a context
// without a checker is denied: editing is never granted implicitly.
func Gate(permission string) interfaces.CapabilityGate {
	return interfaces.CapabilityGateFunc(func(ctx context.Context) bool {
		checker := CheckerFromContext(ctx)
		if checker == nil {
			return false
		}
		return allowedWithScope(ctx, checker, permission)
	})
}

// StaticGate returns a gate that always answers allowed.
func StaticGate(allowed bool) interfaces.CapabilityGate {
	return interfaces.CapabilityGateFunc(func(context.Context) bool { return allowed })
}

func splitPermission(permission string) (string, Action) {
	normalized := normalizePermission(permission)
	if normalized == "" {
		return "", ""
	}
	parts := strings.SplitN(normalized, ":", 2)
	resource := normalizeToken(parts[0])
	if len(parts) == 1 {
		return resource, ""
	}
	return resource, Action(normalizeToken(parts[1]))
}

func normalizePermission(permission string) string {
	trimmed := strings.TrimSpace(permission)
	if trimmed == "" {
		return ""
	}
	return strings.ToLower(trimmed)
}

func normalizeToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
