// Package static is an in-memory module registry: a catalog of known modules
// and the subset of them that is loaded.
package static

import (
	"strings"
	"sync"

	"modscan/internal/engine/module"
)

type Registry struct {
	mu sync.RWMutex

	catalog map[string]module.Module // key -> module
	order   []string                 // catalog keys in registration order

	loaded    map[string]bool
	loadOrder []string

	entry string
}

var (
	_ module.Registry      = (*Registry)(nil)
	_ module.EntryProvider = (*Registry)(nil)
)

func New(mods ...module.Module) *Registry {
	r := &Registry{
		catalog: make(map[string]module.Module),
		loaded:  make(map[string]bool),
	}
	r.Add(mods...)
	return r
}

// Add registers modules as resolvable. A module with an identity already in
// the catalog replaces the earlier definition. Empty names are skipped.
func (r *Registry) Add(mods ...module.Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range mods {
		if strings.TrimSpace(m.Name) == "" {
			continue
		}
		key := module.Key(m.Name)
		if _, exists := r.catalog[key]; !exists {
			r.order = append(r.order, key)
		}
		m.Refs = append([]string(nil), m.Refs...)
		r.catalog[key] = m
	}
}

// Preload marks modules as already loaded, as if the host had loaded them
// before the scan.
func (r *Registry) Preload(ids ...string) error {
	for _, id := range ids {
		if _, err := r.Load(id); err != nil {
			return err
		}
	}
	return nil
}

// SetEntry records the module that started the host.
func (r *Registry) SetEntry(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := module.Key(id)
	if _, ok := r.catalog[key]; !ok {
		return module.NotFound(id)
	}
	r.entry = key
	return nil
}

func (r *Registry) Entry() (module.Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.entry == "" {
		return nil, false
	}
	return r.catalog[r.entry], true
}

// Loaded returns a snapshot of the loaded modules in load order.
func (r *Registry) Loaded() []module.Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]module.Handle, 0, len(r.loadOrder))
	for _, key := range r.loadOrder {
		out = append(out, r.catalog[key])
	}
	return out
}

// Load resolves id case-insensitively and marks it loaded. Loading a module
// twice is a no-op.
func (r *Registry) Load(id string) (module.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := module.Key(id)
	m, ok := r.catalog[key]
	if !ok {
		return nil, module.NotFound(id)
	}
	if !r.loaded[key] {
		r.loaded[key] = true
		r.loadOrder = append(r.loadOrder, key)
	}
	return m, nil
}

func (r *Registry) IsLoaded(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded[module.Key(id)]
}

// Modules lists the whole catalog in registration order.
func (r *Registry) Modules() []module.Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]module.Module, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.catalog[key])
	}
	return out
}
