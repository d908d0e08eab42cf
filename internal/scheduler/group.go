package scheduler

import (
	"sync"

	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

// Group tracks handles owned by one editing session so teardown can cancel all
// of them at once.
type Group struct {
	mu      sync.Mutex
	handles map[string]interfaces.TaskHandle
	closed  bool
}

// NewGroup returns an empty handle group.
func NewGroup() *Group {
	return &Group{handles: make(map[string]interfaces.TaskHandle)}
}

// Replace stores handle under name, cancelling whatever was stored there before.
// After Close every new handle is cancelled immediately.
func (g *Group) Replace(name string, handle interfaces.TaskHandle) {
	if handle == nil {
		return
	}
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		handle.Cancel()
		return
	}
	previous := g.handles[name]
	g.handles[name] = handle
	g.mu.Unlock()

	if previous != nil {
		previous.Cancel()
	}
}

// Cancel stops the named handle if present.
func (g *Group) Cancel(name string) bool {
	g.mu.Lock()
	handle, ok := g.handles[name]
	delete(g.handles, name)
	g.mu.Unlock()
	if !ok {
		return false
	}
	return handle.Cancel()
}

// Has reports whether a handle is registered under name.
func (g *Group) Has(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.handles[name]
	return ok
}

// Close cancels every handle and rejects future registrations.
func (g *Group) Close() {
	g.mu.Lock()
	handles := g.handles
	g.handles = make(map[string]interfaces.TaskHandle)
	g.closed = true
	g.mu.Unlock()

	for _, handle := range handles {
		handle.Cancel()
	}
}
