// Package repl implements the interactive terminal chat loop: a single
// input line with @mention and /command completion, and a scrolling
// transcript with markdown-rendered answers.
package repl

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/docentchat/docent/pkg/engine"
	"github.com/mattn/go-runewidth"
)

// Command is one completable /command with its usage line.
type Command struct {
	Name  string // bare name, without the leading slash
	Usage string // e.g. "/format <doc_id>"
}

// Options configures the REPL.
type Options struct {
	Session  *engine.Session
	Mentions []string // identifiers completable after "@"
	Commands []Command
	Backends int // connected backend count, shown in the status line
}

var (
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// Run starts the REPL and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	m := newModel(ctx, opts)

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		// Interrupted by signal; not a failure.
		return nil
	}
	return err
}

type replyMsg struct {
	text string
	err  error
}

type model struct {
	ctx        context.Context
	opts       Options
	input      textinput.Model
	spin       spinner.Model
	transcript []string
	waiting    bool
	width      int
	renderer   *glamour.TermRenderer
}

func newModel(ctx context.Context, opts Options) model {
	ti := textinput.New()
	ti.Placeholder = "ask something, @mention a doc, or run a /command"
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	return model{
		ctx:      ctx,
		opts:     opts,
		input:    ti,
		spin:     sp,
		width:    80,
		renderer: renderer,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.transcript = append(m.transcript, errorStyle.Render("error: "+msg.err.Error()))
		} else {
			m.transcript = append(m.transcript, m.render(msg.text))
		}
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit

		case tea.KeyTab:
			if !m.waiting {
				m.input.SetValue(m.complete(m.input.Value()))
				m.input.CursorEnd()
			}
			return m, nil

		case tea.KeyEnter:
			if m.waiting {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			if text == "quit" || text == "exit" {
				return m, tea.Quit
			}

			m.transcript = append(m.transcript, userStyle.Render("> "+text))
			m.input.Reset()
			m.waiting = true

			return m, tea.Batch(m.spin.Tick, m.send(text))
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder

	for _, line := range m.transcript {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.waiting {
		b.WriteString(m.spin.View() + " thinking...\n")
	} else {
		b.WriteString(m.input.View() + "\n")
		if hint := m.hint(); hint != "" {
			b.WriteString(hintStyle.Render(hint) + "\n")
		}
	}

	status := fmt.Sprintf("session %s · %d backends · tab completes @docs and /commands · ctrl+c quits",
		m.opts.Session.ID(), m.opts.Backends)
	b.WriteString(statusStyle.Render(runewidth.Truncate(status, m.width, "…")))

	return b.String()
}

// send runs the blocking chat exchange off the UI goroutine.
func (m model) send(text string) tea.Cmd {
	session := m.opts.Session
	ctx := m.ctx
	return func() tea.Msg {
		answer, err := session.Send(ctx, text)
		return replyMsg{text: answer, err: err}
	}
}

// render passes the model's answer through the markdown renderer, falling
// back to the raw text when rendering fails.
func (m model) render(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// complete expands the trailing token: "@pre" to the first matching mention
// identifier, and a leading "/pre" to the first matching command name.
func (m model) complete(value string) string {
	if strings.HasPrefix(value, "/") && !strings.Contains(value, " ") {
		pre := strings.TrimPrefix(value, "/")
		for _, c := range m.opts.Commands {
			if strings.HasPrefix(c.Name, pre) {
				return "/" + c.Name + " "
			}
		}
		return value
	}

	words := strings.Split(value, " ")
	last := words[len(words)-1]
	if !strings.HasPrefix(last, "@") {
		return value
	}

	pre := strings.TrimPrefix(last, "@")
	for _, id := range m.opts.Mentions {
		if strings.HasPrefix(id, pre) {
			words[len(words)-1] = "@" + id
			return strings.Join(words, " ")
		}
	}
	return value
}

// hint shows matching candidates for the token being typed.
func (m model) hint() string {
	value := m.input.Value()

	if strings.HasPrefix(value, "/") && !strings.Contains(value, " ") {
		pre := strings.TrimPrefix(value, "/")
		var matches []string
		for _, c := range m.opts.Commands {
			if strings.HasPrefix(c.Name, pre) {
				matches = append(matches, c.Usage)
			}
		}
		return strings.Join(matches, "   ")
	}

	words := strings.Split(value, " ")
	last := words[len(words)-1]
	if !strings.HasPrefix(last, "@") {
		return ""
	}

	pre := strings.TrimPrefix(last, "@")
	var matches []string
	for _, id := range m.opts.Mentions {
		if strings.HasPrefix(id, pre) {
			matches = append(matches, "@"+id)
		}
	}
	return strings.Join(matches, "   ")
}
