// Package graph stores exported class taxonomies in a graph database.
package graph

import (
	"context"
	"errors"

	"github.com/efebarandurmaz/ontometer/internal/structural"
)

// ErrNotFound is returned when no taxonomy is stored for an ontology.
var ErrNotFound = errors.New("taxonomy not found")

// Repository provides graph storage for class taxonomies. Taxonomies are
// keyed by ontology, usually its source path or URL.
type Repository interface {
	// StoreTaxonomy replaces the stored taxonomy of ontology with t.
	StoreTaxonomy(ctx context.Context, ontology string, t *structural.Taxonomy) error
	// LoadTaxonomy retrieves the nodes and edges stored for ontology.
	LoadTaxonomy(ctx context.Context, ontology string) (*structural.Taxonomy, error)
	// QuerySubclasses returns the IDs of the direct subclasses of class.
	QuerySubclasses(ctx context.Context, ontology, class string) ([]string, error)
	// DeleteTaxonomy removes everything stored for ontology.
	DeleteTaxonomy(ctx context.Context, ontology string) error
	// Close releases resources.
	Close(ctx context.Context) error
}
