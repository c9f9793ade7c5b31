package skills

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderPromptDeterministic(t *testing.T) {
	skillsList := []*Skill{
		{ID: "a", Name: "a", Description: "desc a", ContainerPath: "/skills/a/Skill.md"},
		{ID: "b", Name: "b", Description: "desc b", ContainerPath: "/skills/b/Skill.md", UseCases: []string{"use it"}},
	}

	first := RenderPrompt(skillsList)
	second := RenderPrompt(skillsList)
	require.Equal(t, first, second)
	require.Contains(t, first, "desc a")
	require.Contains(t, first, "/skills/b/Skill.md")
	require.Contains(t, first, "use it")
}

func TestRenderPromptEmptySkillSet(t *testing.T) {
	out := RenderPrompt(nil)
	require.Contains(t, out, "No skills are currently installed")
}
