// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"sort"
	"sync"

	"github.com/gogpu/wgpu/hal"
)

// Options configures target creation.
type Options struct {
	// Width is the target width in pixels.
	Width int

	// Height is the target height in pixels.
	Height int

	// Label is an optional debug name carried by GPU-backed targets.
	Label string

	// Device is the HAL device for GPU-backed targets. CPU backends
	// ignore it; GPU backends fail without it.
	Device hal.Device

	// Queue is the HAL queue used for pixel uploads to GPU targets.
	Queue hal.Queue
}

// TargetFactory creates a Target with the given options.
// Implementations should validate options and return descriptive errors.
type TargetFactory func(opts Options) (Target, error)

// RegistryEntry represents a registered target backend.
type RegistryEntry struct {
	// Name is the unique identifier for this backend.
	Name string

	// Priority determines selection order (higher = preferred).
	// Standard priorities:
	//   - 100: GPU texture backends
	//   - 10: pure software backends
	Priority int

	// Factory creates target instances.
	Factory TargetFactory

	// Available reports if the backend is usable with the given options.
	Available func(opts Options) bool
}

// globalRegistry is the default registry.
var globalRegistry = &Registry{}

// Registry manages registered target backends.
//
// The registry lets hosts ship their own target backends without changes
// to this package. Overlays created from the compositor resolve their
// target through the registry: by explicit backend name, or best available.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*RegistryEntry
}

// NewRegistry creates a new empty registry.
// Most code should use the global registry via Register and NewTarget.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*RegistryEntry)}
}

// Register adds a backend to the global registry.
//
// If available is nil, the backend is assumed always available.
// Registering a name that already exists replaces the previous entry.
func Register(name string, priority int, factory TargetFactory, available func(Options) bool) {
	globalRegistry.Register(name, priority, factory, available)
}

// Unregister removes a backend from the global registry.
func Unregister(name string) {
	globalRegistry.Unregister(name)
}

// List returns all registered backend names sorted by priority (highest first).
func List() []string {
	return globalRegistry.List()
}

// Get returns information about a specific backend.
func Get(name string) (*RegistryEntry, bool) {
	return globalRegistry.Get(name)
}

// NewTarget creates a target using the best backend available for opts.
func NewTarget(opts Options) (Target, error) {
	return globalRegistry.NewTarget(opts)
}

// NewTargetByName creates a target using a specific named backend.
func NewTargetByName(name string, opts Options) (Target, error) {
	return globalRegistry.NewTargetByName(name, opts)
}

// Register adds a backend to this registry.
func (r *Registry) Register(name string, priority int, factory TargetFactory, available func(Options) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]*RegistryEntry)
	}
	if available == nil {
		available = func(Options) bool { return true }
	}

	r.entries[name] = &RegistryEntry{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// Unregister removes a backend from this registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, name)
}

// List returns all registered backend names sorted by priority.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(Options{}, false)
}

// Available returns names of backends available for opts, sorted by priority.
func (r *Registry) Available(opts Options) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(opts, true)
}

// Get returns information about a specific backend.
func (r *Registry) Get(name string) (*RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}

	// Return a copy to prevent modification
	entryCopy := *entry
	return &entryCopy, true
}

// NewTarget creates a target using the best backend available for opts.
// Backends are tried in priority order until one succeeds.
func (r *Registry) NewTarget(opts Options) (Target, error) {
	r.mu.RLock()
	available := r.sortedNames(opts, true)
	r.mu.RUnlock()

	if len(available) == 0 {
		return nil, ErrNoBackendAvailable
	}

	var lastErr error
	for _, name := range available {
		t, err := r.NewTargetByName(name, opts)
		if err == nil {
			return t, nil
		}
		logger().Debug("render: backend failed, trying next", "backend", name, "err", err)
		lastErr = err
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNoBackendAvailable
}

// NewTargetByName creates a target using a specific backend.
func (r *Registry) NewTargetByName(name string, opts Options) (Target, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &BackendNotFoundError{Name: name}
	}
	if !entry.Available(opts) {
		return nil, &BackendUnavailableError{Name: name}
	}
	return entry.Factory(opts)
}

// sortedNames returns backend names sorted by priority (highest first).
// If onlyAvailable is true, filters to backends available for opts.
// Must be called with lock held.
func (r *Registry) sortedNames(opts Options, onlyAvailable bool) []string {
	if len(r.entries) == 0 {
		return nil
	}

	type entry struct {
		name     string
		priority int
	}

	entries := make([]entry, 0, len(r.entries))
	for name, e := range r.entries {
		if onlyAvailable && !e.Available(opts) {
			continue
		}
		entries = append(entries, entry{name: name, priority: e.Priority})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].priority > entries[j].priority
	})

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// init registers the built-in backends.
func init() {
	Register("pixmap", 10, func(opts Options) (Target, error) {
		return NewPixmapTarget(opts.Width, opts.Height)
	}, nil)

	Register("hal", 100, func(opts Options) (Target, error) {
		return NewTextureTarget(opts)
	}, func(opts Options) bool {
		return opts.Device != nil
	})
}
