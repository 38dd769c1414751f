package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/qsh-sh/qsh/core/debug"
)

// Aliases maps command names to replacement text. Expansion applies to the
// first word of a line only, in a single pass.
type Aliases struct {
	mu      sync.RWMutex
	aliases map[string]string
}

// NewAliases creates an empty alias table.
func NewAliases() *Aliases {
	return &Aliases{aliases: make(map[string]string)}
}

// Set registers an alias. Names may be any non-empty string without '='.
func (a *Aliases) Set(name, value string) error {
	if name == "" || strings.Contains(name, "=") {
		return &InvalidNameError{Name: name}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.aliases[name] = value
	debug.Logf(debug.Stores, "alias %s=%q", name, value)
	return nil
}

// Get looks an alias up.
func (a *Aliases) Get(name string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	value, ok := a.aliases[name]
	return value, ok
}

// Unset removes an alias.
func (a *Aliases) Unset(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.aliases[name]; !ok {
		return false
	}
	delete(a.aliases, name)
	return true
}

// Names returns every alias name in sorted order.
func (a *Aliases) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.aliases))
	for name := range a.aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand substitutes the alias value for the line's first word. Lines whose
// first word is not an alias come back unchanged. A single pass only; alias
// values are not re-expanded.
func (a *Aliases) Expand(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return line
	}

	end := strings.IndexAny(trimmed, " \t")
	first, rest := trimmed, ""
	if end >= 0 {
		first, rest = trimmed[:end], trimmed[end:]
	}

	value, ok := a.Get(first)
	if !ok {
		return line
	}
	debug.Logf(debug.Stores, "alias expand %q -> %q", first, value)
	return value + rest
}
