package structural

import (
	"math"

	"github.com/efebarandurmaz/ontometer/internal/rdf"
)

// visit states for the guarded depth-first walks.
const (
	unvisited uint8 = iota
	onStack
	done
)

// Hierarchy is an index view of the subclass relation. Declared classes
// occupy indices [0, declared); subjects or objects of rdfs:subClassOf that
// are never declared as classes follow them so traversals can pass through.
type Hierarchy struct {
	nodes    []rdf.Term
	index    map[rdf.Term]int
	declared int
	children [][]int
	parents  [][]int
}

// NewHierarchy indexes the declared classes and subclass edges of g.
func NewHierarchy(g *rdf.Graph) *Hierarchy {
	h := &Hierarchy{index: make(map[rdf.Term]int)}
	for _, c := range Classes(g) {
		h.intern(c)
	}
	h.declared = len(h.nodes)
	for _, t := range g.Match(nil, &rdf.RDFSSubClassOf, nil, 0) {
		child := h.intern(t.Subject)
		parent := h.intern(t.Object)
		h.children[parent] = append(h.children[parent], child)
		h.parents[child] = append(h.parents[child], parent)
	}
	return h
}

func (h *Hierarchy) intern(t rdf.Term) int {
	if i, ok := h.index[t]; ok {
		return i
	}
	i := len(h.nodes)
	h.nodes = append(h.nodes, t)
	h.index[t] = i
	h.children = append(h.children, nil)
	h.parents = append(h.parents, nil)
	return i
}

// Len returns the number of declared classes.
func (h *Hierarchy) Len() int { return h.declared }

// Class returns the term at index i.
func (h *Hierarchy) Class(i int) rdf.Term { return h.nodes[i] }

// Declared reports whether index i is a declared class.
func (h *Hierarchy) Declared(i int) bool { return i < h.declared }

// Children returns the direct child indices of i.
func (h *Hierarchy) Children(i int) []int { return h.children[i] }

// IsRoot reports whether declared class i has no asserted parent.
func (h *Hierarchy) IsRoot(i int) bool { return len(h.parents[i]) == 0 }

// IsLeaf reports whether declared class i has no asserted child.
func (h *Hierarchy) IsLeaf(i int) bool { return len(h.children[i]) == 0 }

// RootsAndLeaves counts roots and leaves among declared classes. A class
// with neither parents nor children counts as both.
func (h *Hierarchy) RootsAndLeaves() (roots, leaves int) {
	for i := 0; i < h.declared; i++ {
		if h.IsRoot(i) {
			roots++
		}
		if h.IsLeaf(i) {
			leaves++
		}
	}
	return roots, leaves
}

// Depths returns the maximum distance to a leaf for every indexed node,
// counting the leaf itself as 1. A child that is already on the current
// walk contributes 0, so cycles terminate. Results for cyclic input depend
// on which node the walk enters first.
func (h *Hierarchy) Depths() []int {
	memo := make([]int, len(h.nodes))
	state := make([]uint8, len(h.nodes))
	var depth func(i int) int
	depth = func(i int) int {
		switch state[i] {
		case done:
			return memo[i]
		case onStack:
			return 0
		}
		state[i] = onStack
		deepest := 0
		for _, c := range h.children[i] {
			if d := depth(c); d > deepest {
				deepest = d
			}
		}
		state[i] = done
		memo[i] = 1 + deepest
		return memo[i]
	}
	for i := range h.nodes {
		depth(i)
	}
	return memo
}

// MaxDepth is the largest depth over declared classes, 0 when there are
// none.
func (h *Hierarchy) MaxDepth() int {
	depths := h.Depths()
	maxDepth := 0
	for i := 0; i < h.declared; i++ {
		if depths[i] > maxDepth {
			maxDepth = depths[i]
		}
	}
	return maxDepth
}

// SubclassCounts returns the direct child count of every declared class,
// their sum and their mean.
func (h *Hierarchy) SubclassCounts() (counts []int, sum int, mean float64) {
	counts = make([]int, h.declared)
	for i := 0; i < h.declared; i++ {
		counts[i] = len(h.children[i])
		sum += counts[i]
	}
	if h.declared > 0 {
		mean = float64(sum) / float64(h.declared)
	}
	return counts, sum, mean
}

type pathStat struct {
	paths float64
	edges float64
}

// AverageLeafDepth returns the mean edge count over every path from a root
// down to a leaf, scaled by 100. Paths are aggregated per node instead of
// enumerated; on acyclic input the result equals explicit enumeration. A
// node whose children are all on the current walk ends its path.
func (h *Hierarchy) AverageLeafDepth() float64 {
	memo := make([]pathStat, len(h.nodes))
	state := make([]uint8, len(h.nodes))
	var walk func(i int) pathStat
	walk = func(i int) pathStat {
		if state[i] == done {
			return memo[i]
		}
		state[i] = onStack
		var s pathStat
		for _, c := range h.children[i] {
			if state[c] == onStack {
				continue
			}
			cs := walk(c)
			s.paths += cs.paths
			s.edges += cs.edges + cs.paths
		}
		if s.paths == 0 {
			s = pathStat{paths: 1}
		}
		state[i] = done
		memo[i] = s
		return s
	}

	var total pathStat
	for i := 0; i < h.declared; i++ {
		if !h.IsRoot(i) {
			continue
		}
		s := walk(i)
		total.paths += s.paths
		total.edges += s.edges
	}
	if total.paths == 0 {
		return 0
	}
	return total.edges / total.paths * 100
}

// DegenerateADITFallback returns avgSubclasses*100 when adit rounds to zero
// at two decimals, and adit otherwise. The second return value reports
// whether the substitution happened.
func DegenerateADITFallback(adit, avgSubclasses float64) (float64, bool) {
	if math.Round(adit*100) == 0 {
		return avgSubclasses * 100, true
	}
	return adit, false
}

// Cycles returns the subclass cycles found by a depth-first walk over the
// child relation, each as the list of class IRIs along it.
func (h *Hierarchy) Cycles() [][]string {
	var cycles [][]string
	state := make([]uint8, len(h.nodes))
	path := make([]int, 0)

	var dfs func(i int)
	dfs = func(i int) {
		if state[i] == done {
			return
		}
		if state[i] == onStack {
			cycle := make([]string, 0)
			for k := len(path) - 1; k >= 0; k-- {
				cycle = append(cycle, h.nodes[path[k]].Value)
				if path[k] == i {
					break
				}
			}
			for a, b := 0, len(cycle)-1; a < b; a, b = a+1, b-1 {
				cycle[a], cycle[b] = cycle[b], cycle[a]
			}
			cycles = append(cycles, cycle)
			return
		}
		state[i] = onStack
		path = append(path, i)
		for _, c := range h.children[i] {
			dfs(c)
		}
		path = path[:len(path)-1]
		state[i] = done
	}
	for i := range h.nodes {
		if state[i] == unvisited {
			dfs(i)
		}
	}
	return cycles
}

// Components counts weakly connected groups of declared classes.
func (h *Hierarchy) Components() int {
	parent := make([]int, len(h.nodes))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	for p, kids := range h.children {
		for _, c := range kids {
			if fa, fb := find(p), find(c); fa != fb {
				parent[fa] = fb
			}
		}
	}
	roots := make(map[int]bool)
	for i := 0; i < h.declared; i++ {
		roots[find(i)] = true
	}
	return len(roots)
}
