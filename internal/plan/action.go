package plan

// Action selects which lifecycle sequence Build assembles.
type Action int

const (
	// ActionRecreate stops, removes, reinstalls and restarts every
	// configured service.
	ActionRecreate Action = iota + 1

	// ActionStop stops every configured service and changes nothing else.
	ActionStop
)

func (a Action) String() string {
	switch a {
	case ActionRecreate:
		return "recreate"
	case ActionStop:
		return "stop"
	default:
		return "unknown"
	}
}

// Op identifies what a single step does to its service.
type Op int

const (
	OpStop Op = iota + 1
	OpRemove
	OpInstall
	OpStart
)

func (o Op) String() string {
	switch o {
	case OpStop:
		return "stop"
	case OpRemove:
		return "remove"
	case OpInstall:
		return "install"
	case OpStart:
		return "start"
	default:
		return "unknown"
	}
}
