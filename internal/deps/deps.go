// Package deps resolves the external binaries the pipeline shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"scribe/internal/config"
)

// Tool identifies one external binary and why the pipeline needs it.
type Tool struct {
	Name    string
	Command string
	Purpose string
}

// Status is the lookup outcome for one tool. Path is the resolved location
// when Found.
type Status struct {
	Tool
	Found  bool
	Path   string
	Detail string
}

// Required lists the tools a batch run needs, resolved from config.
func Required(cfg *config.Config) []Tool {
	return []Tool{
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Purpose: "audio extraction"},
		{Name: "FFprobe", Command: cfg.FFprobeBinary(), Purpose: "media duration probing"},
	}
}

// Check looks each tool up on PATH.
func Check(tools []Tool) []Status {
	statuses := make([]Status, 0, len(tools))
	for _, tool := range tools {
		status := Status{Tool: tool}
		command := strings.TrimSpace(tool.Command)
		if command == "" {
			status.Detail = "command not configured"
			statuses = append(statuses, status)
			continue
		}
		path, err := exec.LookPath(command)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", command)
			statuses = append(statuses, status)
			continue
		}
		status.Found = true
		status.Path = path
		statuses = append(statuses, status)
	}
	return statuses
}
