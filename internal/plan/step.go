package plan

import (
	"strings"

	"nssmexec/internal/config"
)

// Service manager start-mode values accepted by `set <name> Start`.
const (
	startAuto     = "SERVICE_AUTO_START"
	startDemand   = "SERVICE_DEMAND_START"
	startDisabled = "SERVICE_DISABLED"
)

// Command is a single manager invocation, expressed as the argument
// vector passed to the manager executable.
type Command []string

// String renders the command the way it would appear on a shell line.
func (c Command) String() string {
	return strings.Join(c, " ")
}

// Redacted renders the command with the account password masked. Logs
// and reports must use this instead of String.
func (c Command) Redacted() string {
	if len(c) == 5 && c[0] == "set" && c[2] == "ObjectName" {
		masked := append(Command{}, c[:4]...)
		masked = append(masked, "***")
		return masked.String()
	}
	return c.String()
}

// Step is one lifecycle operation against a single service. A step may
// expand to several manager commands (install does); the invoker runs
// them in order and the first failing command fails the step. Steps are
// assembled at plan time and never modified afterward.
type Step struct {
	Service  string
	Op       Op
	Commands []Command
}

func stopStep(svc *config.Service) Step {
	return Step{
		Service:  svc.Name,
		Op:       OpStop,
		Commands: []Command{{"stop", svc.Name}},
	}
}

func removeStep(svc *config.Service) Step {
	return Step{
		Service:  svc.Name,
		Op:       OpRemove,
		Commands: []Command{{"remove", svc.Name, "confirm"}},
	}
}

func startStep(svc *config.Service) Step {
	return Step{
		Service:  svc.Name,
		Op:       OpStart,
		Commands: []Command{{"start", svc.Name}},
	}
}

// installStep registers the service and applies its settings. The
// manager takes the executable and its arguments on the install line;
// everything else is a separate `set` call.
func installStep(svc *config.Service) Step {
	install := Command{"install", svc.Name, svc.Path}
	install = append(install, svc.Args...)

	commands := []Command{install}
	if svc.WorkingDir != "" {
		commands = append(commands, Command{"set", svc.Name, "AppDirectory", svc.WorkingDir})
	}
	if svc.DisplayName != "" {
		commands = append(commands, Command{"set", svc.Name, "DisplayName", svc.DisplayName})
	}
	if svc.Description != "" {
		commands = append(commands, Command{"set", svc.Name, "Description", svc.Description})
	}
	commands = append(commands, Command{"set", svc.Name, "Start", startValue(svc.Startup)})
	if len(svc.DependsOn) > 0 {
		dep := Command{"set", svc.Name, "DependOnService"}
		dep = append(dep, svc.DependsOn...)
		commands = append(commands, dep)
	}
	if svc.Account != nil {
		commands = append(commands, Command{"set", svc.Name, "ObjectName", svc.Account.User, svc.Account.Password})
	}

	return Step{
		Service:  svc.Name,
		Op:       OpInstall,
		Commands: commands,
	}
}

// startValue maps a configured startup mode to the manager's Start
// parameter value. An unresolved mode falls back to automatic.
func startValue(mode string) string {
	switch mode {
	case config.StartupManual:
		return startDemand
	case config.StartupDisabled:
		return startDisabled
	default:
		return startAuto
	}
}
