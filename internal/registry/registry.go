// Package registry maps device identifiers to devices and owns the per-device locks
// that serialize mutation.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/rfcontrol/internal/device"
	"github.com/RMahshie/rfcontrol/internal/rferr"
)

// DefaultFallbackID is the id of the always-present simulated device
const DefaultFallbackID = "mock"

// Entry guards one registered device
type Entry struct {
	id  string
	mu  sync.RWMutex
	dev device.Device
}

// ID returns the id the device was registered under
func (e *Entry) ID() string { return e.id }

// Update runs fn with exclusive access to the device.
func (e *Entry) Update(fn func(d device.Device)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.dev)
}

// View runs fn with shared access to the device. Concurrent Update calls are
// excluded, so fn observes a consistent snapshot.
func (e *Entry) View(fn func(d device.Device)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.dev)
}

// Registry is a process-scoped set of devices
type Registry struct {
	mu         sync.RWMutex
	entries    map[string]*Entry
	fallbackID string
}

// New creates a registry containing only the simulated fallback device
func New(fallbackID string) *Registry {
	if fallbackID == "" {
		fallbackID = DefaultFallbackID
	}
	r := &Registry{
		entries:    make(map[string]*Entry),
		fallbackID: fallbackID,
	}
	r.Register(fallbackID, device.NewSimulated(fallbackID))
	return r
}

// Populate builds a registry from hardware probers and then injects the fallback.
// A failing prober is logged and skipped.
func Populate(ctx context.Context, fallbackID string, probers ...device.Prober) *Registry {
	r := &Registry{entries: make(map[string]*Entry), fallbackID: fallbackID}
	if r.fallbackID == "" {
		r.fallbackID = DefaultFallbackID
	}

	for _, p := range probers {
		devices, err := p.Probe(ctx)
		if err != nil {
			log.Warn().Err(err).Str("prober", p.Name()).Msg("Device probe failed, continuing without it")
			continue
		}
		for id, dev := range devices {
			log.Info().Str("prober", p.Name()).Str("device_id", id).Msg("Found device")
			r.Register(id, dev)
		}
	}

	if _, ok := r.entries[r.fallbackID]; !ok {
		r.Register(r.fallbackID, device.NewSimulated(r.fallbackID))
	}
	return r
}

// Register adds or replaces the device stored under id
func (r *Registry) Register(id string, dev device.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &Entry{id: id, dev: dev}
}

// Resolve returns the entry for id or a DeviceNotFound error naming the fallback
func (r *Registry) Resolve(id string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, rferr.NotFound(id, r.fallbackID)
	}
	return e, nil
}

// FallbackID returns the id of the always-present simulated device
func (r *Registry) FallbackID() string { return r.fallbackID }

// IDs returns the registered ids in sorted order
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
