// Package nav exposes the navigable-surface queries used by pursuit: projecting
// a point onto the walkable area and computing waypoint paths across it.
package nav

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"
)

var (
	// ErrProfileNotFound is returned when no mesh is registered under a name.
	ErrProfileNotFound = errors.New("nav: profile not found")
	// ErrNoNearestPoint reports that nothing walkable lies within the search
	// radius of the requested point.
	ErrNoNearestPoint = errors.New("nav: no navigable point in range")
	// ErrNoPath reports that the goal cannot be reached from the start.
	ErrNoPath = errors.New("nav: no path")
)

// Mesh answers navigable-surface queries.
type Mesh interface {
	// NearestPoint projects position onto the walkable surface within
	// searchRadius.
	NearestPoint(position geom.Vec3, searchRadius float64) (geom.Vec3, bool)
	// Path returns the ordered waypoints leading from from to to, ending at
	// to.
	Path(from, to geom.Vec3) ([]geom.Vec3, bool)
}

// Resolver looks meshes up by profile name.
type Resolver interface {
	Lookup(ctx context.Context, name string) (Mesh, error)
}

// Registry maps profile names to meshes. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Mesh
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{profiles: make(map[string]Mesh)}
}

// Register installs mesh under name, replacing any previous registration.
func (r *Registry) Register(name string, mesh Mesh) error {
	key := strings.TrimSpace(name)
	if key == "" {
		return fmt.Errorf("nav: register: empty profile name")
	}
	if mesh == nil {
		return fmt.Errorf("nav: register %q: nil mesh", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[key] = mesh
	return nil
}

// Lookup returns the mesh registered under name.
func (r *Registry) Lookup(ctx context.Context, name string) (Mesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	mesh, ok := r.profiles[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %s)", ErrProfileNotFound, name, strings.Join(r.namesLocked(), ", "))
	}
	return mesh, nil
}

// Names lists the registered profile names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
