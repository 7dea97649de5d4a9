package commands

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registry maps command names and aliases to commands. Lookups ignore case.
type Registry struct {
	mu       sync.RWMutex
	commands []Command
	lookup   map[string]Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{lookup: make(map[string]Command)}
}

// Register adds c under its name and aliases. No key may already be taken.
func (r *Registry) Register(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := append([]string{c.Name()}, c.Aliases()...)
	for i, key := range keys {
		key = strings.ToLower(key)
		if _, exists := r.lookup[key]; exists {
			if i == 0 {
				return fmt.Errorf("command already registered: %s", key)
			}
			return fmt.Errorf("command alias already registered: %s", key)
		}
		keys[i] = key
	}

	for _, key := range keys {
		r.lookup[key] = c
	}
	r.commands = append(r.commands, c)
	return nil
}

// Find looks up a command by name or alias.
func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.lookup[strings.ToLower(name)]
	return cmd, ok
}

// All returns every registered command once, sorted by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	all := slices.Clone(r.commands)
	r.mu.RUnlock()

	slices.SortFunc(all, func(a, b Command) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return all
}

// DefaultRegistry holds the commands registered by this package's init
// functions.
var DefaultRegistry = NewRegistry()

// Register adds c to DefaultRegistry and panics on a name clash.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
