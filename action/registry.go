package action

import "sync"

// Registry maps a service key ("gmail", "slack", "shopify", ...) to the
// handler implementing it. New integrations register a handler; the engine
// never needs to know what concrete services exist.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

func (r *Registry) Register(service string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[service] = h
}

func (r *Registry) Get(service string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[service]
	return h, ok
}
