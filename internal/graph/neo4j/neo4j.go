// Package neo4j stores class taxonomies as (:Class)-[:SUBCLASS_OF]->(:Class)
// graphs in Neo4j.
package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/efebarandurmaz/ontometer/internal/graph"
	"github.com/efebarandurmaz/ontometer/internal/structural"
)

// Cypher statements. Classes are scoped by the ontology they came from, so
// one database can hold many taxonomies.
const (
	cypherDelete = `MATCH (c:Class {ontology: $ontology}) DETACH DELETE c`

	cypherNodes = `UNWIND $nodes AS n
MERGE (c:Class {ontology: $ontology, id: n.id})
SET c.name = n.name, c.kind = n.kind, c.depth = n.depth,
    c.children = n.children, c.root = n.root, c.leaf = n.leaf`

	cypherEdges = `UNWIND $edges AS e
MATCH (sub:Class {ontology: $ontology, id: e.from})
MATCH (sup:Class {ontology: $ontology, id: e.to})
MERGE (sub)-[:SUBCLASS_OF]->(sup)`

	cypherLoadNodes = `MATCH (c:Class {ontology: $ontology})
RETURN c.id AS id, c.name AS name, c.kind AS kind, c.depth AS depth,
       c.children AS children, c.root AS root, c.leaf AS leaf
ORDER BY id`

	cypherLoadEdges = `MATCH (sub:Class {ontology: $ontology})-[:SUBCLASS_OF]->(sup:Class)
RETURN sub.id AS from, sup.id AS to
ORDER BY from, to`

	cypherSubclasses = `MATCH (sub:Class {ontology: $ontology})-[:SUBCLASS_OF]->(:Class {ontology: $ontology, id: $id})
RETURN sub.id AS id
ORDER BY id`
)

// Neo4jRepository implements graph.Repository using Neo4j.
type Neo4jRepository struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4j connects to uri and verifies connectivity. An empty database
// selects the server default.
func NewNeo4j(ctx context.Context, uri, username, password, database string) (*Neo4jRepository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Neo4jRepository{driver: driver, database: database}, nil
}

// VerifyConnectivity checks the server is reachable. It backs the health
// check.
func (r *Neo4jRepository) VerifyConnectivity(ctx context.Context) error {
	return r.driver.VerifyConnectivity(ctx)
}

func (r *Neo4jRepository) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: r.database})
}

// StoreTaxonomy replaces the taxonomy of ontology in a single transaction.
func (r *Neo4jRepository) StoreTaxonomy(ctx context.Context, ontology string, t *structural.Taxonomy) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, cypherDelete, map[string]any{"ontology": ontology}); err != nil {
			return nil, err
		}
		if len(t.Nodes) > 0 {
			if _, err := tx.Run(ctx, cypherNodes, map[string]any{
				"ontology": ontology,
				"nodes":    nodeParams(t.Nodes),
			}); err != nil {
				return nil, err
			}
		}
		if len(t.Edges) > 0 {
			if _, err := tx.Run(ctx, cypherEdges, map[string]any{
				"ontology": ontology,
				"edges":    edgeParams(t.Edges),
			}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("store taxonomy %s: %w", ontology, err)
	}
	return nil
}

// LoadTaxonomy reads back the nodes and edges of ontology. Stats are not
// stored and come back zero.
func (r *Neo4jRepository) LoadTaxonomy(ctx context.Context, ontology string) (*structural.Taxonomy, error) {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		params := map[string]any{"ontology": ontology}
		nodes, err := tx.Run(ctx, cypherLoadNodes, params)
		if err != nil {
			return nil, err
		}
		t := &structural.Taxonomy{}
		for nodes.Next(ctx) {
			t.Nodes = append(t.Nodes, nodeFromRecord(nodes.Record().AsMap()))
		}
		if err := nodes.Err(); err != nil {
			return nil, err
		}

		edges, err := tx.Run(ctx, cypherLoadEdges, params)
		if err != nil {
			return nil, err
		}
		for edges.Next(ctx) {
			rec := edges.Record().AsMap()
			t.Edges = append(t.Edges, structural.Edge{From: str(rec["from"]), To: str(rec["to"])})
		}
		return t, edges.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("load taxonomy %s: %w", ontology, err)
	}
	t := result.(*structural.Taxonomy)
	if len(t.Nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", graph.ErrNotFound, ontology)
	}
	return t, nil
}

func (r *Neo4jRepository) QuerySubclasses(ctx context.Context, ontology, class string) ([]string, error) {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, cypherSubclasses, map[string]any{"ontology": ontology, "id": class})
		if err != nil {
			return nil, err
		}
		var ids []string
		for records.Next(ctx) {
			id, _ := records.Record().Get("id")
			ids = append(ids, str(id))
		}
		return ids, records.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("query subclasses of %s: %w", class, err)
	}
	return result.([]string), nil
}

func (r *Neo4jRepository) DeleteTaxonomy(ctx context.Context, ontology string) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	deleted, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypherDelete, map[string]any{"ontology": ontology})
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return summary.Counters().NodesDeleted(), nil
	})
	if err != nil {
		return fmt.Errorf("delete taxonomy %s: %w", ontology, err)
	}
	if deleted.(int) == 0 {
		return fmt.Errorf("%w: %s", graph.ErrNotFound, ontology)
	}
	return nil
}

func (r *Neo4jRepository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

func nodeParams(nodes []structural.Node) []map[string]any {
	out := make([]map[string]any, len(nodes))
	for i, n := range nodes {
		out[i] = map[string]any{
			"id":       n.ID,
			"name":     n.Name,
			"kind":     string(n.Kind),
			"depth":    int64(n.Depth),
			"children": int64(n.Children),
			"root":     n.Root,
			"leaf":     n.Leaf,
		}
	}
	return out
}

func edgeParams(edges []structural.Edge) []map[string]any {
	out := make([]map[string]any, len(edges))
	for i, e := range edges {
		out[i] = map[string]any{"from": e.From, "to": e.To}
	}
	return out
}

// nodeFromRecord converts a row of cypherLoadNodes. Neo4j integers arrive
// as int64; missing properties arrive as nil.
func nodeFromRecord(rec map[string]any) structural.Node {
	return structural.Node{
		ID:       str(rec["id"]),
		Name:     str(rec["name"]),
		Kind:     structural.NodeKind(str(rec["kind"])),
		Depth:    int(i64(rec["depth"])),
		Children: int(i64(rec["children"])),
		Root:     boolean(rec["root"]),
		Leaf:     boolean(rec["leaf"]),
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func i64(v any) int64 {
	n, _ := v.(int64)
	return n
}

func boolean(v any) bool {
	b, _ := v.(bool)
	return b
}

var _ graph.Repository = (*Neo4jRepository)(nil)
