package backend

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/texdecode"
	"github.com/gogpu/texdecode/gpucore"
)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for default selection (first device that opens wins).
	// Real GPU first, CPU emulation as fallback. Noop is never a default.
	backendPriority = []string{BackendVulkan, BackendSoftware}
)

// Register registers a device factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Open opens a device on the named backend.
func Open(name string) (gpucore.Device, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrBackendNotAvailable, name, Available())
	}
	dev, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend: open %s: %w", name, err)
	}
	texdecode.Logger().Info("backend selected", "backend", name)
	return dev, nil
}

// OpenDefault opens the best available device based on priority.
// Priority order: vulkan > software.
func OpenDefault() (gpucore.Device, error) {
	var errs []error
	for _, name := range backendPriority {
		if !IsRegistered(name) {
			continue
		}
		dev, err := Open(name)
		if err == nil {
			return dev, nil
		}
		texdecode.Logger().Debug("backend unavailable", "backend", name, "err", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrBackendNotAvailable
	}
	return nil, fmt.Errorf("%w: %w", ErrBackendNotAvailable, errors.Join(errs...))
}
