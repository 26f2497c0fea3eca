package loader

import (
	"slices"
	"strings"

	"github.com/roach88/qdsl/internal/ir"
)

// useGraph maps a block name to the blocks its ops use directly. Only
// literal names defined in the same file become edges; $param names are
// resolved at build time and bounded by circuit.MaxBlockDepth instead.
type useGraph map[string][]string

func buildUseGraph(defs map[string]BlockSpec) useGraph {
	graph := make(useGraph, len(defs))
	for _, name := range sortedKeys(defs) {
		graph[name] = []string{}
		for _, op := range defs[name].Ops {
			if op.Use == "" {
				continue
			}
			if _, isParam := paramRef(op.Use); isParam {
				continue
			}
			if _, ok := defs[op.Use]; ok && !slices.Contains(graph[name], op.Use) {
				graph[name] = append(graph[name], op.Use)
			}
		}
	}
	return graph
}

// checkBlockCycles rejects files whose blocks use each other in a loop.
// Such a file could never finish building.
func checkBlockCycles(defs map[string]BlockSpec) error {
	if len(defs) == 0 {
		return nil
	}
	graph := buildUseGraph(defs)

	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			path := cyclePath(scc, graph)
			return ir.Errorf(ir.ErrCodeStructural, "load",
				"blocks use each other in a cycle: %s", strings.Join(path, " -> "))
		}
	}
	return nil
}

func hasSelfLoop(node string, graph useGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC returns the strongly connected components of graph. Nodes are
// visited in sorted order so the reported cycle is stable.
func tarjanSCC(graph useGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
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

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cyclePath walks edges inside one component from its smallest name until
// it returns to the start, e.g. [a b a].
func cyclePath(scc []string, graph useGraph) []string {
	start := slices.Min(scc)
	if len(scc) == 1 {
		return []string{start, start}
	}

	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	path := []string{start}
	visited := map[string]bool{start: true}
	current := start
	for {
		next := ""
		for _, w := range graph[current] {
			if w == start && len(path) > 1 {
				return append(path, start)
			}
			if members[w] && !visited[w] && next == "" {
				next = w
			}
		}
		if next == "" {
			return append(path, start)
		}
		visited[next] = true
		path = append(path, next)
		current = next
	}
}
