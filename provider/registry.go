package provider

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// AdapterFactory builds an adapter that takes ownership of creds.
type AdapterFactory func(creds Credentials) (Adapter, error)

// FactoryRegistry maps provider ids to adapter factories. Adapter packages
// fill DefaultFactories from their init functions.
type FactoryRegistry struct {
	factories map[string]AdapterFactory
	mu        sync.RWMutex
}

// NewFactoryRegistry creates an empty factory registry
func NewFactoryRegistry() *FactoryRegistry {
	return &FactoryRegistry{
		factories: make(map[string]AdapterFactory),
	}
}

// Register adds an adapter factory
func (r *FactoryRegistry) Register(name string, factory AdapterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = factory
}

// Get retrieves an adapter factory by name
func (r *FactoryRegistry) Get(name string) (AdapterFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[strings.ToLower(name)]
	if !exists {
		return nil, &UnknownProviderError{Provider: name}
	}
	return factory, nil
}

// Names returns every registered factory name, sorted
func (r *FactoryRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultFactories is the global factory registry
var DefaultFactories = NewFactoryRegistry()

// RegisterFactory registers an adapter factory with the default registry
func RegisterFactory(name string, factory AdapterFactory) {
	DefaultFactories.Register(name, factory)
}

// NewAdapter builds an adapter from the default registry. The adapter
// receives its own copy of creds.
func NewAdapter(name string, creds Credentials) (Adapter, error) {
	factory, err := DefaultFactories.Get(name)
	if err != nil {
		return nil, err
	}
	return factory(creds.Clone())
}

// Registry holds the configured adapters. Registration happens at startup;
// resolution is read-only and safe for concurrent callers.
type Registry struct {
	adapters map[string]Adapter
	mu       sync.RWMutex
}

// NewRegistry creates an empty adapter registry
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
	}
}

// Register adds a configured adapter under id
func (r *Registry) Register(id string, adapter Adapter) error {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return fmt.Errorf("provider id cannot be empty")
	}
	if adapter == nil {
		return fmt.Errorf("adapter for '%s' cannot be nil", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[id]; exists {
		return fmt.Errorf("payment provider '%s' is already registered", id)
	}
	r.adapters[id] = adapter
	return nil
}

// Resolve returns the adapter registered under id
func (r *Registry) Resolve(id string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, exists := r.adapters[strings.ToLower(id)]
	if !exists {
		return nil, &UnknownProviderError{Provider: id}
	}
	return adapter, nil
}

// Names returns the registered provider ids, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildRegistry constructs and registers one adapter per configured
// provider. Credentials are validated against each adapter's required
// fields; the first failure aborts startup.
func BuildRegistry(configs map[string]Credentials) (*Registry, error) {
	registry := NewRegistry()

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		adapter, err := NewAdapter(name, configs[name])
		if err != nil {
			return nil, err
		}
		if err := registry.Register(name, adapter); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// FactoryNames lists the provider ids adapter packages have registered
func FactoryNames() []string {
	return DefaultFactories.Names()
}
