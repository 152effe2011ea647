package prompttemplate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_PlainPlaceholder(t *testing.T) {
	out := Render("Report for {location}", map[string]string{"location": "Tokyo"})
	assert.Equal(t, "Report for Tokyo", out)
}

func TestRender_ConditionalTrueBranch(t *testing.T) {
	out := Render(
		"Report for {location}. {includeExtended ? 'Extended.' : '3-day.'}",
		map[string]string{"location": "Tokyo", "includeExtended": "true"},
	)
	assert.Equal(t, "Report for Tokyo. Extended.", out)
}

func TestRender_ConditionalFalseBranch(t *testing.T) {
	out := Render(
		"Report for {location}. {includeExtended ? 'Extended.' : '3-day.'}",
		map[string]string{"location": "Tokyo"},
	)
	assert.Equal(t, "Report for Tokyo. 3-day.", out)
}

func TestRender_ConditionalWithDoubleQuotes(t *testing.T) {
	out := Render(`{ok ? "yes" : "no"}`, map[string]string{"ok": "false"})
	assert.Equal(t, "no", out)
}

func TestRender_MissingPlaceholderIsEmpty(t *testing.T) {
	out := Render("Hello {name}!", map[string]string{})
	assert.Equal(t, "Hello !", out)
}
