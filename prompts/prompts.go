// Package prompts embeds the role prompt files and renders simple
// {placeholder} substitutions.
package prompts

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed *.txt
var files embed.FS

// Load returns the prompt text for name (filename without the .txt extension).
func Load(name string) (string, error) {
	data, err := files.ReadFile(name + ".txt")
	if err != nil {
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Render loads a prompt and substitutes {key} placeholders with vars values.
func Render(name string, vars map[string]string) (string, error) {
	text, err := Load(name)
	if err != nil {
		return "", err
	}
	for k, v := range vars {
		text = strings.ReplaceAll(text, "{"+k+"}", v)
	}
	return text, nil
}

// MustLoad is Load but panics on error. Prompt files are embedded, so a
// failure here is a programming error caught in tests.
func MustLoad(name string) string {
	text, err := Load(name)
	if err != nil {
		panic(err)
	}
	return text
}
