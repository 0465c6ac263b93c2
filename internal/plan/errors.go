package plan

import (
	"fmt"
	"strings"
)

// Kind identifies the planning failure class.
type Kind int

const (
	// KindCycle means the dependency graph contains a cycle and no
	// execution order exists.
	KindCycle Kind = iota + 1

	// KindUnknownDependency means a service names a dependency that is
	// not declared in the configuration.
	KindUnknownDependency
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindCycle:
		return "cycle"
	case KindUnknownDependency:
		return "unknown-dependency"
	default:
		return "unknown"
	}
}

// Error describes why no plan could be built. No partial plan is ever
// returned alongside an Error.
type Error struct {
	Kind Kind

	// Services lists the services forming the cycle, in dependency
	// order. Set for KindCycle.
	Services []string

	// Service and Dependency identify the offending declaration.
	// Set for KindUnknownDependency.
	Service    string
	Dependency string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindCycle:
		if len(e.Services) == 0 {
			return "plan: dependency cycle"
		}
		return fmt.Sprintf("plan: dependency cycle: %s -> %s",
			strings.Join(e.Services, " -> "), e.Services[0])
	case KindUnknownDependency:
		return fmt.Sprintf("plan: service %q: unknown dependency %q", e.Service, e.Dependency)
	default:
		return "plan: invalid plan"
	}
}
