package schema

import "sync"

type Registry struct {
	mu      sync.RWMutex
	screens map[string]*Screen
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{screens: make(map[string]*Screen)}
}

// GetScreen returns the screen with the given name, or nil.
func (r *Registry) GetScreen(name string) *Screen {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.screens[name]
}

// AllScreens returns all registered screens in registration order.
func (r *Registry) AllScreens() []*Screen {
	r.mu.RLock()
	defer r.mu.RUnlock()
	screens := make([]*Screen, 0, len(r.order))
	for _, name := range r.order {
		screens = append(screens, r.screens[name])
	}
	return screens
}

// Load replaces all screens in the registry.
func (r *Registry) Load(screens []*Screen) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screens = make(map[string]*Screen, len(screens))
	r.order = r.order[:0]
	for _, s := range screens {
		r.screens[s.Name] = s
		r.order = append(r.order, s.Name)
	}
}
