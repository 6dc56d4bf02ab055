package session

import (
	"strings"
	"sync"
)

// Registry holds one Controller per wallet address for the process lifetime.
type Registry struct {
	mu          sync.Mutex
	controllers map[string]*Controller
	build       func(address string) *Controller
}

// NewRegistry uses build to create a controller the first time an address is seen.
func NewRegistry(build func(address string) *Controller) *Registry {
	return &Registry{
		controllers: make(map[string]*Controller),
		build:       build,
	}
}

// Get returns the controller for address, creating it if needed. Addresses
// are matched case-insensitively.
func (r *Registry) Get(address string) *Controller {
	key := strings.ToLower(address)
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.controllers[key]; ok {
		return c
	}
	c := r.build(key)
	r.controllers[key] = c
	return c
}

// Lookup returns the controller for address without creating one.
func (r *Registry) Lookup(address string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.controllers[strings.ToLower(address)]
	return c, ok
}

// Close closes every controller.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.controllers {
		c.Close()
	}
}
