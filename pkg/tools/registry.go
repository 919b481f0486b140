package tools

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// CapabilitySet decides which tool capabilities are exposed.
type CapabilitySet interface {
	HasCapability(capability string) bool
}

type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

var globalRegistry = NewRegistry()

// Register adds a tool to the global registry. It panics on an invalid or
// duplicate tool, since registration happens from init().
func Register(t *Tool) {
	if err := globalRegistry.Register(t); err != nil {
		panic(err)
	}
}

// Default returns the registry tool packages register into.
func Default() *Registry {
	return globalRegistry
}

func (r *Registry) Register(t *Tool) error {
	if t == nil || t.Schema.Name == "" {
		return fmt.Errorf("tool must have a name")
	}
	if t.Handle == nil {
		return fmt.Errorf("tool %s has no handler", t.Schema.Name)
	}
	if t.Schema.Type != TypeReadOnly && t.Schema.Type != TypeDestructive {
		return fmt.Errorf("tool %s has invalid type %q", t.Schema.Name, t.Schema.Type)
	}
	if err := t.resolve(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Schema.Name]; exists {
		return fmt.Errorf("tool %s is already registered", t.Schema.Name)
	}
	r.tools[t.Schema.Name] = t
	return nil
}

func (r *Registry) Lookup(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// All returns every registered tool ordered by name.
func (r *Registry) All() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		all = append(all, t)
	}
	slices.SortFunc(all, func(a, b *Tool) int {
		return strings.Compare(a.Schema.Name, b.Schema.Name)
	})
	return all
}

// Filter returns the tools, ordered by name, whose capability is enabled.
func (r *Registry) Filter(capabilities CapabilitySet) []*Tool {
	var filtered []*Tool
	for _, t := range r.All() {
		if capabilities.HasCapability(t.Capability) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}
