package graph

import (
	"context"
	"sort"
	"sync"

	"github.com/efebarandurmaz/ontometer/internal/structural"
)

// MemoryRepository keeps taxonomies in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*structural.Taxonomy
}

// NewMemory returns an empty MemoryRepository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*structural.Taxonomy)}
}

func (r *MemoryRepository) StoreTaxonomy(_ context.Context, ontology string, t *structural.Taxonomy) error {
	cp := &structural.Taxonomy{
		Nodes: append([]structural.Node(nil), t.Nodes...),
		Edges: append([]structural.Edge(nil), t.Edges...),
	}
	r.mu.Lock()
	r.store[ontology] = cp
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) LoadTaxonomy(_ context.Context, ontology string) (*structural.Taxonomy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.store[ontology]
	if !ok {
		return nil, ErrNotFound
	}
	return &structural.Taxonomy{
		Nodes: append([]structural.Node(nil), t.Nodes...),
		Edges: append([]structural.Edge(nil), t.Edges...),
	}, nil
}

func (r *MemoryRepository) QuerySubclasses(_ context.Context, ontology, class string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.store[ontology]
	if !ok {
		return nil, ErrNotFound
	}
	var subs []string
	for _, e := range t.Edges {
		if e.To == class {
			subs = append(subs, e.From)
		}
	}
	sort.Strings(subs)
	return subs, nil
}

func (r *MemoryRepository) DeleteTaxonomy(_ context.Context, ontology string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[ontology]; !ok {
		return ErrNotFound
	}
	delete(r.store, ontology)
	return nil
}

func (r *MemoryRepository) Close(context.Context) error { return nil }

var _ Repository = (*MemoryRepository)(nil)
