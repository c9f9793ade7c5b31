package skills

import (
	"fmt"
	"strings"
)

const promptPreamble = `You are operating inside an isolated per-user container workspace.
You have four tools available:

  - execute_bash(command, timeout=30): run a shell command and receive
    its exit code, stdout, and stderr.
  - write_file(file_path, content): overwrite a file under /workspace
    or /artifacts, creating parent directories as needed.
  - read_file(file_path, offset=0, line_count=null): read a text file,
    optionally a line range.
  - read_docstring(file_path, function_name): extract the documentation
    attached to a top-level function.

Files you want the user to retrieve afterward belong in /artifacts.
Everything else belongs in /workspace.`

// RenderPrompt produces the agent system prompt for the given skill
// set. It is a pure function of skills: the same input slice always
// produces byte-identical output.
func RenderPrompt(skillsList []*Skill) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n\n")

	if len(skillsList) == 0 {
		b.WriteString("No skills are currently installed.\n")
		return b.String()
	}

	b.WriteString("The following skills are available. Full bodies are not included here;\n")
	b.WriteString("load them on demand with read_file against the container path shown,\n")
	b.WriteString("never by fetching them over a network.\n\n")

	for _, s := range skillsList {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", s.Name, s.Description, s.ContainerPath)
		for _, uc := range s.UseCases {
			fmt.Fprintf(&b, "    - %s\n", uc)
		}
	}

	return b.String()
}
