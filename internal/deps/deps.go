package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"datarecv/internal/config"
)

// Requirement is an executable an ETI source launches on the host.
type Requirement struct {
	Name    string
	Command string
	// ConfigKey names the setting that supplies Command.
	ConfigKey string
}

// Status reports whether a requirement resolved and where.
type Status struct {
	Requirement
	Available bool
	// Path is the resolved executable when Available.
	Path   string
	Detail string
}

// ForSource lists the executables the configured source needs. Only the
// command source starts a child process; file and tcp sources need none.
func ForSource(src config.Source) []Requirement {
	if strings.TrimSpace(src.Kind) != "command" {
		return nil
	}
	return []Requirement{{
		Name:      "Receiver command",
		Command:   strings.TrimSpace(src.Command),
		ConfigKey: "source.command",
	}}
}

// Resolve looks every requirement up on PATH.
func Resolve(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := Status{Requirement: req}
		status.Command = strings.TrimSpace(req.Command)
		switch path, err := exec.LookPath(status.Command); {
		case status.Command == "":
			status.Detail = fmt.Sprintf("not configured (set %s)", req.ConfigKey)
		case err != nil:
			status.Detail = fmt.Sprintf("%q not found on PATH", status.Command)
		default:
			status.Available = true
			status.Path = path
			status.Detail = path
		}
		results = append(results, status)
	}
	return results
}
