package terminal

import (
	"bytes"
	"errors"
	"testing"

	surveyterm "github.com/AlecAivazis/survey/v2/terminal"
	"github.com/stretchr/testify/assert"

	"github.com/btt-go/smartcache/editor"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable("Rules", editor.RuleHeaders, [][]string{
		{"1", "Current", "TABLES_ANY", "orders", "5m"},
		{"2", "New", "ANY", "*", "0s"},
	})

	for _, want := range []string{"Rules", "Status", "TABLES_ANY", "orders", "5m", "New"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderTable_Empty(t *testing.T) {
	out := RenderTable("Queries", editor.QueryHeaders, nil)
	assert.Contains(t, out, "No queries found")
}

func TestShowTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewSurveyPrompter(&buf)
	p.ShowTable("Tables", editor.TableHeaders, [][]string{{"orders", "1.50", "10", "5m"}})
	assert.Contains(t, buf.String(), "orders")
}

func TestMapErr(t *testing.T) {
	assert.ErrorIs(t, mapErr(surveyterm.InterruptErr), editor.ErrEscape)

	other := errors.New("EOF")
	assert.Equal(t, other, mapErr(other))
	assert.NoError(t, mapErr(nil))
}

func TestStatus(t *testing.T) {
	var buf bytes.Buffer
	Status(&buf, editor.LevelSuccess, "Committed revision %s", "1-1")
	Status(&buf, editor.LevelError, "commit failed")
	Status(&buf, editor.Level(99), "fallback")

	out := buf.String()
	assert.Contains(t, out, "[done] Committed revision 1-1")
	assert.Contains(t, out, "[error] commit failed")
	assert.Contains(t, out, "[info] fallback")
}

func TestNotify(t *testing.T) {
	var buf bytes.Buffer
	NewSurveyPrompter(&buf).Notify(editor.LevelWarning, "Discarded uncommitted changes")
	assert.Contains(t, buf.String(), "[warning] Discarded uncommitted changes")
}
