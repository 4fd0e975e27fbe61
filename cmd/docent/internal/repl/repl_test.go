package repl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testModel() model {
	return newModel(context.Background(), Options{
		Mentions: []string{"plan.md", "report.pdf", "spec.txt"},
		Commands: []Command{
			{Name: "format", Usage: "/format <doc_id>"},
			{Name: "summarize", Usage: "/summarize <doc_id>"},
		},
	})
}

func TestCompleteMention(t *testing.T) {
	m := testModel()

	assert.Equal(t, "read @report.pdf", m.complete("read @rep"))
	assert.Equal(t, "read @plan.md", m.complete("read @"))
}

func TestCompleteMentionNoMatch(t *testing.T) {
	m := testModel()

	assert.Equal(t, "read @ghost", m.complete("read @ghost"))
	assert.Equal(t, "plain text", m.complete("plain text"))
}

func TestCompleteCommand(t *testing.T) {
	m := testModel()

	assert.Equal(t, "/summarize ", m.complete("/sum"))
	assert.Equal(t, "/format ", m.complete("/"))
}

func TestCompleteCommandOnlyAtStart(t *testing.T) {
	m := testModel()

	// A slash mid-line is not a command.
	assert.Equal(t, "what is 1/2", m.complete("what is 1/2"))
	// A command with its argument underway completes mentions, not commands.
	assert.Equal(t, "/format plan.md", m.complete("/format plan.md"))
}

func TestHintListsCandidates(t *testing.T) {
	m := testModel()

	m.input.SetValue("/s")
	assert.Equal(t, "/summarize <doc_id>", m.hint())

	m.input.SetValue("see @p")
	assert.Equal(t, "@plan.md", m.hint())

	m.input.SetValue("see @")
	assert.Equal(t, "@plan.md   @report.pdf   @spec.txt", m.hint())

	m.input.SetValue("no token here")
	assert.Equal(t, "", m.hint())
}
