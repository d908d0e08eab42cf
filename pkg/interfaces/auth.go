package interfaces

import "context"

// CapabilityGate answers whether the current viewer may edit content. It is
// resolved by the host identity system and treated as an opaque predicate.
type CapabilityGate interface {
	CanEdit(ctx context.Context) bool
}

// CapabilityGateFunc adapts a function into a CapabilityGate.
type CapabilityGateFunc func(ctx context.Context) bool

func (fn CapabilityGateFunc) CanEdit(ctx context.Context) bool {
	if fn == nil {
		return false
	}
	return fn(ctx)
}

// Confirmer asks the editor to confirm a destructive action such as discarding
// unsaved changes. Returning false keeps the current state.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmerFunc adapts a function into a Confirmer.
type ConfirmerFunc func(ctx context.Context, prompt string) bool

func (fn ConfirmerFunc) Confirm(ctx context.Context, prompt string) bool {
	if fn == nil {
		return false
	}
	return fn(ctx, prompt)
}
