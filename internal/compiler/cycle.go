package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/ittm/internal/ir"
)

// TableWarning describes something a machine's rule table or initial tape
// guarantees about its verdict before the run starts.
//
// Warnings, not errors: a population of never-halting machines is still a
// valid population, and symbol faults are an isolated runtime outcome.
type TableWarning struct {
	Machine int      `json:"machine"`
	Path    []string `json:"path,omitempty"` // Trap cycle: ["0", "1", "0"]
	Message string   `json:"message"`
	Level   string   `json:"level"` // "warning" or "info"
}

// AnalyzeTables performs static analysis on every machine of a population.
//
// For each table it builds the state transition graph (an edge s → t for
// every symbol whose rule leads from s to t), ignoring which symbols the
// tape will actually present. It then reports:
//  1. HALT unreachable from state 0: the machine can only loop or stay undetermined
//  2. Trap components reachable from state 0 with no edge leaving them
//  3. Initial tape or source symbols outside the table's alphabet (a fault when read)
//
// Results are in machine order; a machine with nothing to report produces
// no warnings.
func AnalyzeTables(pop *ir.Population) []TableWarning {
	var warnings []TableWarning
	for i, m := range pop.Machines {
		if m.Table == nil {
			continue
		}
		warnings = append(warnings, analyzeTable(i, m.Table)...)
		warnings = append(warnings, analyzeTape(i, m, pop)...)
	}
	return warnings
}

// stateGraph maps a state to its successor states. Node numStates is HALT.
type stateGraph [][]int

func buildStateGraph(t *ir.RuleTable) stateGraph {
	g := make(stateGraph, t.NumStates()+1)
	for s, row := range t.Rows() {
		seen := make(map[int]bool)
		for _, r := range row {
			next := int(r.Next)
			if !seen[next] {
				seen[next] = true
				g[s] = append(g[s], next)
			}
		}
	}
	return g
}

func reachable(g stateGraph, from int) []bool {
	seen := make([]bool, len(g))
	stack := []int{from}
	seen[from] = true
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, w := range g[v] {
			if !seen[w] {
				seen[w] = true
				stack = append(stack, w)
			}
		}
	}
	return seen
}

func analyzeTable(index int, t *ir.RuleTable) []TableWarning {
	g := buildStateGraph(t)
	halt := t.NumStates()
	reach := reachable(g, 0)

	if !reach[halt] {
		return []TableWarning{{
			Machine: index,
			Message: fmt.Sprintf("machine %d: HALT (%d) is unreachable from state 0", index, halt),
			Level:   "warning",
		}}
	}

	// HALT is reachable, but the machine may still enter a component it
	// cannot leave.
	var warnings []TableWarning
	for _, scc := range tarjanSCC(g) {
		if !reach[scc[0]] || scc[0] == halt || !isClosed(scc, g) {
			continue
		}
		if len(scc) == 1 && !hasSelfLoop(scc[0], g) {
			continue
		}
		path := reconstructCyclePath(scc, g)
		warnings = append(warnings, TableWarning{
			Machine: index,
			Path:    path,
			Message: fmt.Sprintf("machine %d: trap cycle without HALT: %s", index, strings.Join(path, " → ")),
			Level:   "info",
		})
	}
	return warnings
}

func analyzeTape(index int, m ir.MachineSpec, pop *ir.Population) []TableWarning {
	alphabet := m.Table.NumSymbols()
	cells := pop.Source
	where := "source"
	if !pop.Shared() {
		cells = m.Tape.Materialize(pop.Config.TapeLength)
		where = "tape"
	}
	for pos, sym := range cells {
		if int(sym) >= alphabet {
			return []TableWarning{{
				Machine: index,
				Message: fmt.Sprintf("machine %d: %s symbol %d at cell %d is outside the alphabet [0, %d)", index, where, sym, pos, alphabet),
				Level:   "warning",
			}}
		}
	}
	return nil
}

// isClosed reports whether no edge leaves the component.
func isClosed(scc []int, g stateGraph) bool {
	members := make(map[int]bool, len(scc))
	for _, v := range scc {
		members[v] = true
	}
	for _, v := range scc {
		for _, w := range g[v] {
			if !members[w] {
				return false
			}
		}
	}
	return true
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node int, g stateGraph) bool {
	for _, neighbor := range g[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in ascending order so results are deterministic.
func tarjanSCC(g stateGraph) [][]int {
	var (
		index   = 0
		stack   []int
		indices = make([]int, len(g))
		lowlink = make([]int, len(g))
		visited = make([]bool, len(g))
		onStack = make([]bool, len(g))
		sccs    [][]int
	)

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		visited[v] = true
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g[v] {
			if !visited[w] {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
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

	for node := range g {
		if !visited[node] {
			strongConnect(node)
		}
	}
	return sccs
}

// reconstructCyclePath walks the component from its smallest state back to
// itself, following the first in-component edge at each step.
func reconstructCyclePath(scc []int, g stateGraph) []string {
	members := make(map[int]bool, len(scc))
	start := scc[0]
	for _, v := range scc {
		members[v] = true
		start = min(start, v)
	}

	path := []string{strconv.Itoa(start)}
	seen := map[int]bool{start: true}
	current := start
	for {
		next := -1
		for _, w := range g[current] {
			if members[w] && (!seen[w] || w == start) {
				next = w
				break
			}
		}
		if next < 0 {
			break
		}
		path = append(path, strconv.Itoa(next))
		if next == start {
			break
		}
		seen[next] = true
		current = next
	}
	return path
}
