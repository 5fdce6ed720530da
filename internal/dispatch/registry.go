// Package dispatch routes an operation name and its arguments to the
// matching tool handler and always answers with an Envelope.
package dispatch

import (
	"fmt"
	"sort"

	"github.com/localrivet/redminemcp/internal/errortypes"
	"github.com/localrivet/redminemcp/internal/tools"
)

// Registry is the fixed mapping from operation name to tool, built once at
// startup and never modified.
type Registry struct {
	tools map[string]tools.Tool
	order []string
}

// NewRegistry builds a registry. Duplicate or empty names and missing
// handlers are configuration errors.
func NewRegistry(ts []tools.Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]tools.Tool, len(ts))}
	for _, t := range ts {
		if t.Name == "" {
			return nil, errortypes.ConfigError(nil, "tool with empty name")
		}
		if t.Handler == nil {
			return nil, errortypes.ConfigError(nil, fmt.Sprintf("tool %q has no handler", t.Name))
		}
		if _, dup := r.tools[t.Name]; dup {
			return nil, errortypes.ConfigError(nil, fmt.Sprintf("duplicate tool name %q", t.Name))
		}
		r.tools[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	return r, nil
}

// MustRegistry is NewRegistry for static catalogs; it panics on error.
func MustRegistry(ts []tools.Tool) *Registry {
	r, err := NewRegistry(ts)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup finds a tool by exact name.
func (r *Registry) Lookup(name string) (tools.Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.order)
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// SortedNames returns the registered names alphabetically.
func (r *Registry) SortedNames() []string {
	out := r.Names()
	sort.Strings(out)
	return out
}

// Descriptors returns the descriptors in registration order.
func (r *Registry) Descriptors() []tools.Descriptor {
	out := make([]tools.Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Descriptor)
	}
	return out
}
