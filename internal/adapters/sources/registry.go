package sources

import (
	"sort"
	"strings"
	"sync"
)

// Registry maps source names to extractors
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]Extractor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]Extractor)}
}

// NewDefaultRegistry registers every supported source
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewKaidee())
	r.Register(NewCarsome())
	r.Register(NewRodDonJai())
	r.Register(NewOne2Car())
	return r
}

// Register adds or replaces an extractor under its name
func (r *Registry) Register(e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[strings.ToLower(e.Name())] = e
}

// Get returns the extractor for name
func (r *Registry) Get(name string) (Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.extractors[strings.ToLower(strings.TrimSpace(name))]
	return e, ok
}

// Names returns the registered source names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.extractors))
	for n := range r.extractors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
