// Package deps reports whether the external archive tools romset shells out
// to can be found.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Tool is an external program romset may invoke.
type Tool struct {
	Name    string
	Command string
	Purpose string
	// Optional tools only widen what a run can read.
	Optional bool
}

// ArchiveTools returns the 7-Zip and unrar tools for the configured commands.
// 7-Zip becomes mandatory when 7z output is requested.
func ArchiveTools(sevenZip, unrar string, writes7z bool) []Tool {
	return []Tool{
		{
			Name:     "7-Zip",
			Command:  sevenZip,
			Purpose:  "Lists and extracts 7z archives and encrypted zip members; writes 7z output",
			Optional: !writes7z,
		},
		{
			Name:     "unrar",
			Command:  unrar,
			Purpose:  "Lists and extracts rar archives",
			Optional: true,
		},
	}
}

// Status is the probe result for one tool.
type Status struct {
	Tool
	Available bool
	// Path is the resolved executable when Available.
	Path   string
	Detail string
}

// Satisfied reports whether the tool is usable or may be absent.
func (s Status) Satisfied() bool {
	return s.Available || s.Optional
}

// Probe resolves every tool against PATH.
func Probe(tools []Tool) []Status {
	out := make([]Status, 0, len(tools))
	for _, tool := range tools {
		tool.Command = strings.TrimSpace(tool.Command)
		tool.Purpose = strings.TrimSpace(tool.Purpose)
		out = append(out, probe(tool))
	}
	return out
}

func probe(tool Tool) Status {
	st := Status{Tool: tool}
	if tool.Command == "" {
		st.Detail = "command not configured"
		return st
	}
	path, err := exec.LookPath(tool.Command)
	if err != nil {
		st.Detail = fmt.Sprintf("binary %q not found", tool.Command)
		return st
	}
	st.Available = true
	st.Path = path
	if path != tool.Command {
		st.Detail = path
	}
	return st
}

// Missing returns the statuses that are neither available nor optional.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, st := range statuses {
		if !st.Satisfied() {
			out = append(out, st)
		}
	}
	return out
}
