package skills

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseValidSkill(t *testing.T) {
	data := []byte(`---
name: pdf-extract
description: Extract structured text from PDF documents
version: "1.0"
---
## When to Use This Skill

- The user uploads a PDF and asks for its contents
- The user asks to summarize a report

Run pdfplumber against the file.
`)

	s, err := parse("pdf-extract", data)
	require.NoError(t, err)
	require.Equal(t, "pdf-extract", s.ID)
	require.Equal(t, "pdf-extract", s.Name)
	require.Equal(t, "Extract structured text from PDF documents", s.Description)
	require.Equal(t, "1.0", s.Version)
	require.Equal(t, "/skills/pdf-extract/Skill.md", s.ContainerPath)
	require.Equal(t, []string{
		"The user uploads a PDF and asks for its contents",
		"The user asks to summarize a report",
	}, s.UseCases)
}

func TestParseMissingOpeningDelimiter(t *testing.T) {
	_, err := parse("x", []byte("name: x\ndescription: y\n"))
	require.Error(t, err)
}

func TestParseMissingClosingDelimiter(t *testing.T) {
	_, err := parse("x", []byte("---\nname: x\ndescription: y\n"))
	require.Error(t, err)
}

func TestParseRequiresNameAndDescription(t *testing.T) {
	_, err := parse("x", []byte("---\nversion: \"1\"\n---\nbody\n"))
	require.Error(t, err)

	_, err = parse("x", []byte("---\nname: x\n---\nbody\n"))
	require.Error(t, err)
}

func TestParseRejectsOverlongFields(t *testing.T) {
	longName := make([]byte, MaxNameLength+1)
	for i := range longName {
		longName[i] = 'a'
	}
	data := append([]byte("---\nname: "), longName...)
	data = append(data, []byte("\ndescription: d\n---\nbody\n")...)

	_, err := parse("x", data)
	require.Error(t, err)
}

func TestExtractUseCasesNoHeading(t *testing.T) {
	require.Nil(t, extractUseCases("just some body text\n- not under a heading\n"))
}

func TestExtractUseCasesStopsAtNextHeading(t *testing.T) {
	body := "## When to Use This Skill\n- one\n- two\n## Another Heading\n- not included\n"
	require.Equal(t, []string{"one", "two"}, extractUseCases(body))
}
