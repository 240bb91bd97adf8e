package providers

import (
	"fmt"
	"sort"
	"sync"
)

// registry maps provider type names to factories.  Adapters register
// themselves from init so the aggregator and app wiring depend only on
// the Provider interface, never on concrete adapter types.
var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a provider factory available under name.  Registering
// the same name twice is a programming error.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("providers: duplicate registration for %q", name))
	}
	registry[name] = factory
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider type %q (registered: %v)", name, registeredLocked())
	}
	return factory, nil
}

// Registered returns the sorted names of all registered provider types.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registeredLocked()
}

func registeredLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
