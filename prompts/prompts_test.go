package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_AllRolePrompts(t *testing.T) {
	for _, name := range []string{"researcher", "writer", "reviewer", "pipeline_message"} {
		text, err := Load(name)

		assert.NoError(t, err, name)
		assert.NotEmpty(t, text, name)
	}
}

func TestLoad_UnknownPrompt(t *testing.T) {
	_, err := Load("missing")

	assert.Error(t, err)
}

func TestRender_SubstitutesPlaceholders(t *testing.T) {
	text, err := Render("pipeline_message", map[string]string{"topic": "Go generics"})

	assert.NoError(t, err)
	assert.Equal(t, "Write a technical article about: Go generics", text)
}

func TestMustLoad_PanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() { MustLoad("missing") })
}
