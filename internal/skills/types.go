// Package skills discovers and renders the "skill" documents the agent
// system prompt advertises: versioned Markdown files with YAML
// front-matter, one per directory under a skills root.
package skills

const (
	// MaxNameLength is the longest a skill name may be.
	MaxNameLength = 64

	// MaxDescriptionLength is the longest a skill description may be.
	MaxDescriptionLength = 200
)

// Skill is a discovered skill document.
type Skill struct {
	// ID is the directory name the skill was discovered under; stable
	// across reloads as long as the directory isn't renamed.
	ID string `json:"id"`

	Name         string `json:"name"`
	Description  string `json:"description"`
	Version      string `json:"version,omitempty"`
	Dependencies string `json:"dependencies,omitempty"`

	// Body is the Markdown content following the front-matter.
	Body string `json:"-"`

	// ContainerPath is where the agent can read the full skill body
	// from inside its container, e.g. "/skills/<id>/Skill.md".
	ContainerPath string `json:"container_path"`

	// UseCases are bullet items extracted from a "## When to Use This
	// Skill" heading in Body, if present.
	UseCases []string `json:"use_cases,omitempty"`
}
