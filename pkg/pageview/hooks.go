package pageview

import "sync"

// Unload notifies subscribers when the page goes away.
type Unload interface {
	OnUnload(fn func())
}

// Hooks is an Unload the host fires itself, typically when a request or a
// rendering session ends. Callbacks run once, in registration order.
type Hooks struct {
	mu    sync.Mutex
	fns   []func()
	fired bool
}

// OnUnload registers fn to run when Fire is called.
func (h *Hooks) OnUnload(fn func()) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fired {
		return
	}
	h.fns = append(h.fns, fn)
}

// Fire runs the registered callbacks. Later calls do nothing.
func (h *Hooks) Fire() {
	h.mu.Lock()
	if h.fired {
		h.mu.Unlock()
		return
	}
	h.fired = true
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of pending callbacks.
func (h *Hooks) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.fns)
}
