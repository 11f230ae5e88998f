// Package registry holds the per-process map from entity names to their
// bindings and relation fetchers. The registry is built once at startup and
// injected into every engine that needs cross-entity lookups; nothing in
// this module reaches for process-global state.
package registry

import (
	"sync"

	"relmap"
	"relmap/schema"
)

// Registry resolves entity names to bindings and fetchers. Safe for
// concurrent readers after registration; Register calls are expected to
// happen during startup wiring.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]*schema.Binding
}

func New() *Registry {
	return &Registry{bindings: make(map[string]*schema.Binding)}
}

// Register adds an entity binding. Names are normalized so "UserProfile",
// "user_profile", and "userProfile" resolve to the same entry; registering
// the same entity twice is a validation error.
func (r *Registry) Register(b *schema.Binding) error {
	if b == nil || b.Meta == nil {
		return relmap.Validationf("binding requires entity metadata")
	}
	if b.NewRecord == nil {
		return relmap.Validationf("binding for entity %q lacks a record constructor", b.Meta.Name)
	}
	name := schema.NormalizeEntityName(b.Meta.Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.bindings[name]; dup {
		return relmap.Validationf("entity %q registered twice", b.Meta.Name)
	}
	r.bindings[name] = b
	return nil
}

// Binding resolves an entity's binding by name.
func (r *Registry) Binding(entity string) (*schema.Binding, error) {
	r.mu.RLock()
	b, ok := r.bindings[schema.NormalizeEntityName(entity)]
	r.mu.RUnlock()
	if !ok {
		return nil, &relmap.EntityNotRegisteredError{Entity: entity}
	}
	return b, nil
}

// Metadata resolves an entity's descriptor table by name.
func (r *Registry) Metadata(entity string) (*schema.EntityMetadata, error) {
	b, err := r.Binding(entity)
	if err != nil {
		return nil, err
	}
	return b.Meta, nil
}

// Fetcher resolves the relation fetcher for a target entity. The error is
// distinct from an unregistered entity so callers can tell a misconfigured
// registry apart from a typo in a relation descriptor.
func (r *Registry) Fetcher(entity string) (Fetcher, error) {
	r.mu.RLock()
	b, ok := r.bindings[schema.NormalizeEntityName(entity)]
	r.mu.RUnlock()
	if !ok || b.NewRecord == nil {
		return nil, &relmap.EntityFetcherMissingError{Entity: entity}
	}
	return &sqlFetcher{binding: b}, nil
}

// Entities returns the registered entity names, unordered.
func (r *Registry) Entities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.bindings))
	for name := range r.bindings {
		names = append(names, name)
	}
	return names
}
