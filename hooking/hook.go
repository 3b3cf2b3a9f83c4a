// Package hooking lets observers attach to the points where the engine
// produces something worth seeing, such as a fault report or a scrub
// warning.
package hooking

import "sync"

// HookPos names a place a hook can fire from. Positions are compared by
// pointer, so each one is declared once as a package variable.
type HookPos struct {
	Name string
}

// HookCtx describes one firing.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos

	// Item is what the position is about: a *fault.Report for fault
	// positions, a scrub.Setting for scrub warnings.
	Item any

	// Detail is a free-form note, nil when the site has nothing to add.
	Detail any
}

// Hookable is implemented by engine parts that publish hook positions.
type Hookable interface {
	AcceptHook(hook Hook)
	InvokeHook(ctx HookCtx)
}

// Hook receives the firings of every Hookable it is attached to.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc adapts a function to Hook. Attach a pointer to it, as function
// values are not comparable and duplicate detection needs comparison.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f *HookFunc) Func(ctx HookCtx) {
	(*f)(ctx)
}

// HookableBase keeps the hook list of a Hookable. Fault servicing can run on
// a monitor goroutine while the CLI attaches hooks, so the list is guarded.
type HookableBase struct {
	mu    sync.RWMutex
	hooks []Hook
}

// NewHookableBase returns an empty hook list.
func NewHookableBase() *HookableBase {
	return &HookableBase{}
}

// NumHooks returns how many hooks are attached.
func (h *HookableBase) NumHooks() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.hooks)
}

// AcceptHook attaches a hook. Attaching the same hook twice is a wiring bug
// and panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, attached := range h.hooks {
		if attached == hook {
			panic("hooking: hook attached twice")
		}
	}

	h.hooks = append(h.hooks, hook)
}

// InvokeHook calls the attached hooks in the order they were attached.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	h.mu.RLock()
	hooks := h.hooks
	h.mu.RUnlock()

	for _, hook := range hooks {
		hook.Func(ctx)
	}
}

var _ Hookable = (*HookableBase)(nil)
