package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/ontometer/internal/rdf"
	"github.com/efebarandurmaz/ontometer/internal/structural"
)

func sampleTaxonomy(t *testing.T) *structural.Taxonomy {
	t.Helper()
	g, err := rdf.Decode(strings.NewReader(`@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix ex: <http://example.org/> .
ex:Animal a owl:Class .
ex:Dog a owl:Class ; rdfs:subClassOf ex:Animal .
ex:Cat a owl:Class ; rdfs:subClassOf ex:Animal .
`), rdf.FormatTurtle, rdf.DecodeOptions{})
	require.NoError(t, err)
	return structural.BuildTaxonomy(g, structural.Options{})
}

func TestMemoryRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	tax := sampleTaxonomy(t)

	require.NoError(t, repo.StoreTaxonomy(ctx, "animals.ttl", tax))

	got, err := repo.LoadTaxonomy(ctx, "animals.ttl")
	require.NoError(t, err)
	assert.ElementsMatch(t, tax.Nodes, got.Nodes)
	assert.ElementsMatch(t, tax.Edges, got.Edges)

	subs, err := repo.QuerySubclasses(ctx, "animals.ttl", "http://example.org/Animal")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://example.org/Cat", "http://example.org/Dog"}, subs)
}

func TestMemoryRepository_IsolatedCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	tax := sampleTaxonomy(t)
	require.NoError(t, repo.StoreTaxonomy(ctx, "a", tax))

	tax.Edges = nil
	got, err := repo.LoadTaxonomy(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, got.Edges, 2)
}

func TestMemoryRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	_, err := repo.LoadTaxonomy(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = repo.QuerySubclasses(ctx, "missing", "x")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(repo.DeleteTaxonomy(ctx, "missing"), ErrNotFound))
}

func TestMemoryRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	require.NoError(t, repo.StoreTaxonomy(ctx, "a", sampleTaxonomy(t)))
	require.NoError(t, repo.DeleteTaxonomy(ctx, "a"))

	_, err := repo.LoadTaxonomy(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, repo.Close(ctx))
}
