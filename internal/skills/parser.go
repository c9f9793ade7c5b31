package skills

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Filename is the required filename for a skill definition.
	Filename = "Skill.md"

	// FrontmatterDelimiter marks the beginning and end of the YAML
	// front-matter block.
	FrontmatterDelimiter = "---"

	useCasesHeading = "## When to Use This Skill"
)

type frontmatter struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	Version      string `yaml:"version"`
	Dependencies string `yaml:"dependencies"`
}

// parseFile reads and parses the Skill.md file at path. id is the
// directory name the file was found under.
func parseFile(id, dirPath string) (*Skill, error) {
	data, err := os.ReadFile(filepath.Join(dirPath, Filename))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", Filename, err)
	}
	return parse(id, data)
}

func parse(id string, data []byte) (*Skill, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, fmt.Errorf("split frontmatter: %w", err)
	}

	var meta frontmatter
	if err := yaml.Unmarshal(fm, &meta); err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	if err := validate(meta); err != nil {
		return nil, err
	}

	bodyText := strings.TrimSpace(string(body))

	return &Skill{
		ID:            id,
		Name:          meta.Name,
		Description:   meta.Description,
		Version:       meta.Version,
		Dependencies:  meta.Dependencies,
		Body:          bodyText,
		ContainerPath: path.Join("/skills", id, Filename),
		UseCases:      extractUseCases(bodyText),
	}, nil
}

// splitFrontmatter separates the YAML front-matter block from the
// Markdown body. The file must begin with a line containing exactly
// "---" and the block must be closed by another "---" line.
func splitFrontmatter(data []byte) ([]byte, []byte, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))

	if !scanner.Scan() {
		return nil, nil, fmt.Errorf("empty file")
	}
	if strings.TrimSpace(scanner.Text()) != FrontmatterDelimiter {
		return nil, nil, fmt.Errorf("missing opening %q delimiter", FrontmatterDelimiter)
	}

	var fmLines []string
	closed := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == FrontmatterDelimiter {
			closed = true
			break
		}
		fmLines = append(fmLines, line)
	}
	if !closed {
		return nil, nil, fmt.Errorf("missing closing %q delimiter", FrontmatterDelimiter)
	}

	var bodyLines []string
	for scanner.Scan() {
		bodyLines = append(bodyLines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scanner error: %w", err)
	}

	return []byte(strings.Join(fmLines, "\n")), []byte(strings.Join(bodyLines, "\n")), nil
}

func validate(meta frontmatter) error {
	if meta.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(meta.Name) > MaxNameLength {
		return fmt.Errorf("name exceeds %d characters", MaxNameLength)
	}
	if meta.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(meta.Description) > MaxDescriptionLength {
		return fmt.Errorf("description exceeds %d characters", MaxDescriptionLength)
	}
	return nil
}

// extractUseCases pulls bullet items out of a "## When to Use This
// Skill" section, if one is present.
func extractUseCases(body string) []string {
	lines := strings.Split(body, "\n")
	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == useCasesHeading {
			start = i + 1
			break
		}
	}
	if start == -1 {
		return nil
	}

	var items []string
	for _, line := range lines[start:] {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "## ") {
			break
		}
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			items = append(items, strings.TrimSpace(trimmed[2:]))
		}
	}
	return items
}
