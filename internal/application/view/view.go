// Package view holds the plumbing shared by every screen-level service:
// all-or-nothing parallel loading, per-mount cancellation, and the
// "not found or removed" error that sends the user back to a list.
package view

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// All runs fns in parallel and waits for every one of them. The first
// failure cancels the shared context and is returned; callers must then
// discard whatever the other functions produced.
func All(ctx context.Context, fns ...func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		g.Go(func() error { return fn(gctx) })
	}
	return g.Wait()
}

// GoneError reports that an entity could not be loaded and the view should
// redirect instead of rendering an inline error.
type GoneError struct {
	Resource   string
	ID         int64
	RedirectTo string
	Err        error
}

func (e *GoneError) Error() string {
	return fmt.Sprintf("%s %d does not exist or was removed", e.Resource, e.ID)
}

func (e *GoneError) Unwrap() error {
	return e.Err
}

// Gone wraps err as a GoneError
func Gone(resource string, id int64, redirectTo string, err error) *GoneError {
	return &GoneError{Resource: resource, ID: id, RedirectTo: redirectTo, Err: err}
}

// AsGone returns the GoneError in err's chain
func AsGone(err error) (*GoneError, bool) {
	var gone *GoneError
	if errors.As(err, &gone) {
		return gone, true
	}
	return nil, false
}

// Scope tracks the lifetime of one view. Each Mount cancels the previous
// one, and Unmount cancels the current one, so responses that arrive late
// never update a view the user has left.
type Scope struct {
	parent context.Context

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewScope creates a scope whose mounts derive from parent
func NewScope(parent context.Context) *Scope {
	return &Scope{parent: parent}
}

// Mount starts a new view lifetime
func (s *Scope) Mount() *Mount {
	ctx, cancel := context.WithCancel(s.parent)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	s.cancel = cancel
	return &Mount{ctx: ctx, gen: s.gen, scope: s}
}

// Unmount ends the current view lifetime and cancels its requests
func (s *Scope) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

// Mount is one view lifetime
type Mount struct {
	ctx   context.Context
	gen   uint64
	scope *Scope
}

// Context is cancelled when the mount ends
func (m *Mount) Context() context.Context {
	return m.ctx
}

// Active reports whether this is still the current mount
func (m *Mount) Active() bool {
	m.scope.mu.Lock()
	defer m.scope.mu.Unlock()
	return m.gen == m.scope.gen
}

// Commit runs apply only while the mount is current and reports whether it
// ran. apply executes under the scope lock, so an Unmount cannot interleave.
func (m *Mount) Commit(apply func()) bool {
	m.scope.mu.Lock()
	defer m.scope.mu.Unlock()
	if m.gen != m.scope.gen {
		return false
	}
	apply()
	return true
}
