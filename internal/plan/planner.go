// Package plan derives ordered lifecycle steps from a validated
// configuration. Planning touches no external state; every command a
// batch will run is fixed before the first one executes.
package plan

import (
	"fmt"

	"nssmexec/internal/config"
)

// Plan is the ordered step sequence realizing one action.
type Plan struct {
	Action Action
	Steps  []Step
}

// Build assembles the steps for action from cfg.
//
// Dependencies install and start before their dependents; dependents
// stop and remove before their dependencies. Services without
// dependency relations keep declaration order, reversed for the stop
// and remove phases. A recreate runs phase by phase: every stop, then
// every remove, then every install, then every start.
func Build(cfg *config.Config, action Action) (*Plan, error) {
	g, err := buildGraph(cfg.Services)
	if err != nil {
		return nil, err
	}
	if cycle := g.findCycle(); cycle != nil {
		return nil, &Error{Kind: KindCycle, Services: cycle}
	}

	forward := g.forwardOrder()
	reverse := make([]int, len(forward))
	for i, idx := range forward {
		reverse[len(forward)-1-i] = idx
	}

	var steps []Step
	switch action {
	case ActionStop:
		for _, i := range reverse {
			steps = append(steps, stopStep(&cfg.Services[i]))
		}
	case ActionRecreate:
		for _, i := range reverse {
			steps = append(steps, stopStep(&cfg.Services[i]))
		}
		for _, i := range reverse {
			steps = append(steps, removeStep(&cfg.Services[i]))
		}
		for _, i := range forward {
			steps = append(steps, installStep(&cfg.Services[i]))
		}
		for _, i := range forward {
			svc := &cfg.Services[i]
			if svc.Startup == config.StartupDisabled {
				continue
			}
			if svc.StartOnCreate != nil && !*svc.StartOnCreate {
				continue
			}
			steps = append(steps, startStep(svc))
		}
	default:
		return nil, fmt.Errorf("plan: unsupported action %d", action)
	}

	return &Plan{Action: action, Steps: steps}, nil
}

// graph indexes the dependency relations between services by their
// declaration position.
type graph struct {
	services []config.Service
	deps     [][]int
}

func buildGraph(services []config.Service) (*graph, error) {
	index := make(map[string]int, len(services))
	for i := range services {
		index[services[i].Name] = i
	}

	g := &graph{services: services, deps: make([][]int, len(services))}
	for i := range services {
		for _, dep := range services[i].DependsOn {
			j, ok := index[dep]
			if !ok {
				return nil, &Error{
					Kind:       KindUnknownDependency,
					Service:    services[i].Name,
					Dependency: dep,
				}
			}
			g.deps[i] = append(g.deps[i], j)
		}
	}
	return g, nil
}

// findCycle returns the names of the services forming a dependency
// cycle, or nil when the graph is acyclic.
func (g *graph) findCycle() []string {
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make([]int, len(g.services))
	var stack []int

	var visit func(int) []int
	visit = func(i int) []int {
		state[i] = visiting
		stack = append(stack, i)
		for _, j := range g.deps[i] {
			switch state[j] {
			case visiting:
				// j is still on the stack, so everything from j up
				// forms the cycle.
				for k, idx := range stack {
					if idx == j {
						return stack[k:]
					}
				}
			case unvisited:
				if cycle := visit(j); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[i] = visited
		return nil
	}

	for i := range g.services {
		if state[i] != unvisited {
			continue
		}
		if cycle := visit(i); cycle != nil {
			names := make([]string, len(cycle))
			for k, idx := range cycle {
				names[k] = g.services[idx].Name
			}
			return names
		}
	}
	return nil
}

// forwardOrder returns declaration indices sorted dependencies-first.
// Ties between ready services resolve by declaration position, so
// unrelated services keep their declared order.
func (g *graph) forwardOrder() []int {
	indegree := make([]int, len(g.services))
	dependents := make([][]int, len(g.services))
	for i, deps := range g.deps {
		indegree[i] = len(deps)
		for _, j := range deps {
			dependents[j] = append(dependents[j], i)
		}
	}

	done := make([]bool, len(g.services))
	order := make([]int, 0, len(g.services))
	for len(order) < len(g.services) {
		next := -1
		for i := range g.services {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		// findCycle already proved the graph acyclic, so a ready
		// service always exists here.
		done[next] = true
		order = append(order, next)
		for _, j := range dependents[next] {
			indegree[j]--
		}
	}
	return order
}
