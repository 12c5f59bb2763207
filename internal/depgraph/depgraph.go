// Package depgraph builds the unit-level dependency graph from uses
// clauses and detects dependency cycles.
package depgraph

import (
	"sort"
	"strings"

	"github.com/pascan/pascan/internal/model"
)

// Graph is the project-wide dependency view: internal edges, references to
// units outside the analyzed set, and detected cycles.
type Graph struct {
	Edges     []model.DependencyEdge
	Externals []model.ExternalDependency
	Cycles    []model.Cycle
}

// Build constructs the graph from the units' uses clauses plus the program
// file's uses clause, when one was parsed. A pure function of the clauses:
// edges point only at units known to the project, matched
// case-insensitively; unresolved names are recorded as externals and
// excluded from cycle detection. No self-edges, edges deduplicated, output
// ordering deterministic.
func Build(units []model.SourceUnit, project *model.ProjectFile) *Graph {
	known := make(map[string]string, len(units)) // lowercase -> canonical name
	for _, u := range units {
		if u.Name != "" {
			known[strings.ToLower(u.Name)] = u.Name
		}
	}

	g := &Graph{}
	adj := make(map[string][]string)
	seenEdge := make(map[model.DependencyEdge]bool)
	seenExt := make(map[model.ExternalDependency]bool)

	addRefs := func(from string, refs []string) {
		for _, ref := range refs {
			target, ok := known[strings.ToLower(ref)]
			if !ok {
				ext := model.ExternalDependency{From: from, To: ref}
				if !seenExt[ext] {
					seenExt[ext] = true
					g.Externals = append(g.Externals, ext)
				}
				continue
			}
			if strings.EqualFold(target, from) {
				continue
			}
			edge := model.DependencyEdge{From: from, To: target}
			if seenEdge[edge] {
				continue
			}
			seenEdge[edge] = true
			g.Edges = append(g.Edges, edge)
			adj[from] = append(adj[from], target)
		}
	}

	for _, u := range units {
		if u.Name == "" {
			continue
		}
		addRefs(u.Name, u.UsesClauses)
	}

	// The program file is the graph's root node: its uses clause says which
	// units the project actually pulls in.
	if project != nil && project.Name != "" {
		addRefs(project.Name, project.UsesClauses)
	}
	for name := range known {
		canonical := known[name]
		if _, ok := adj[canonical]; !ok {
			adj[canonical] = nil
		}
	}

	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].From != g.Edges[j].From {
			return g.Edges[i].From < g.Edges[j].From
		}
		return g.Edges[i].To < g.Edges[j].To
	})
	sort.Slice(g.Externals, func(i, j int) bool {
		if g.Externals[i].From != g.Externals[j].From {
			return g.Externals[i].From < g.Externals[j].From
		}
		return g.Externals[i].To < g.Externals[j].To
	})

	for _, scc := range tarjanSCC(adj) {
		if len(scc) <= 1 {
			continue
		}
		g.Cycles = append(g.Cycles, model.Cycle{Units: canonicalCycle(scc, adj)})
	}
	sort.Slice(g.Cycles, func(i, j int) bool {
		return g.Cycles[i].Units[0] < g.Cycles[j].Units[0]
	})

	return g
}

// canonicalCycle orders the members of a strongly connected component as a
// closed loop starting at the lexicographically smallest unit. Each cycle
// is reported once regardless of traversal start point.
func canonicalCycle(scc []string, adj map[string][]string) []string {
	inSCC := make(map[string]bool, len(scc))
	for _, n := range scc {
		inSCC[n] = true
	}

	start := scc[0]
	for _, n := range scc[1:] {
		if n < start {
			start = n
		}
	}

	// Walk edges inside the component, preferring the smallest next unit,
	// until every member has been visited.
	order := []string{start}
	visited := map[string]bool{start: true}
	current := start
	for len(order) < len(scc) {
		next := ""
		for _, n := range adj[current] {
			if inSCC[n] && !visited[n] && (next == "" || n < next) {
				next = n
			}
		}
		if next == "" {
			// Component is not a simple cycle; fall back to sorted order
			// for the remaining members to keep the output deterministic.
			var rest []string
			for _, n := range scc {
				if !visited[n] {
					rest = append(rest, n)
				}
			}
			sort.Strings(rest)
			order = append(order, rest...)
			break
		}
		visited[next] = true
		order = append(order, next)
		current = next
	}
	return order
}

// tarjanSCC computes strongly connected components over the adjacency list.
// Iteration order is made deterministic by sorting the roots.
func tarjanSCC(graph map[string][]string) [][]string {
	var (
		index    int
		stack    []string
		onStack  = make(map[string]bool)
		indices  = make(map[string]int)
		lowlinks = make(map[string]int)
		sccs     [][]string
	)

	var strongConnect func(v string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlinks[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				if lowlinks[w] < lowlinks[v] {
					lowlinks[v] = lowlinks[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlinks[v] {
					lowlinks[v] = indices[w]
				}
			}
		}

		if lowlinks[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	roots := make([]string, 0, len(graph))
	for v := range graph {
		roots = append(roots, v)
	}
	sort.Strings(roots)
	for _, v := range roots {
		if _, visited := indices[v]; !visited {
			strongConnect(v)
		}
	}

	return sccs
}
