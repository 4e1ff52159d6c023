// Package tui provides an interactive terminal calculator.
//
// The layout mirrors a push-button calculator:
//
//	C /
//	7 8 9 *
//	4 5 6 -
//	1 2 3 +
//	0 . =
//
// Typing digits, operators, parentheses and dots edits the display. Every
// calculation goes through the evaluation service so it is recorded in history.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/gocalc-mcp/internal/calculator"
	"github.com/dshills/gocalc-mcp/internal/evaluator"
	"github.com/dshills/gocalc-mcp/pkg/types"
)

// maxRecent is the number of past calculations shown under the keypad
const maxRecent = 5

// Evaluator evaluates a request. *evaluator.Service implements it.
type Evaluator interface {
	Evaluate(ctx context.Context, req evaluator.Request) (*types.Evaluation, error)
}

var buttonRows = [][]string{
	{"C", "/"},
	{"7", "8", "9", "*"},
	{"4", "5", "6", "-"},
	{"1", "2", "3", "+"},
	{"0", ".", "="},
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	displayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#1F2937")).
			Align(lipgloss.Right).
			Width(displayWidth).
			Padding(0, 1)

	buttonStyle = lipgloss.NewStyle().
			Width(buttonWidth).
			Align(lipgloss.Center).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#666666"))

	operatorStyle = buttonStyle.
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	clearStyle = buttonStyle.
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	recentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

const (
	buttonWidth  = 5
	displayWidth = 4*(buttonWidth+2) - 2
)

// Model is the bubbletea model for the calculator
type Model struct {
	ctx    context.Context
	eval   Evaluator
	calc   *calculator.Calculator
	keys   keyMap
	help   help.Model
	recent []string
	status string // Error detail from the last calculation
	quit   bool
}

// New creates a calculator model backed by eval
func New(ctx context.Context, eval Evaluator) Model {
	return Model{
		ctx:  ctx,
		eval: eval,
		calc: calculator.New(),
		keys: defaultKeyMap(),
		help: help.New(),
	}
}

// Run starts the interactive calculator and blocks until it exits
func Run(ctx context.Context, eval Evaluator) error {
	p := tea.NewProgram(New(ctx, eval), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Display returns the current display text
func (m Model) Display() string {
	return m.calc.Display()
}

// Recent returns past calculations, newest first
func (m Model) Recent() []string {
	return m.recent
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quit = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Calculate):
			m.calculate()
		case key.Matches(msg, m.keys.Clear):
			m.calc.Clear()
			m.status = ""
		case key.Matches(msg, m.keys.Backspace):
			m.calc.Backspace()
		case msg.Type == tea.KeyRunes:
			for _, r := range msg.Runes {
				if isInputRune(r) {
					m.calc.Input(string(r))
				}
			}
		case msg.Type == tea.KeySpace:
			m.calc.Input(" ")
		}
	}
	return m, nil
}

func (m *Model) calculate() {
	expr := m.calc.Display()
	m.calc.Calculate(calculator.EvaluatorFunc(func(sanitized string) (float64, error) {
		eval, err := m.eval.Evaluate(m.ctx, evaluator.Request{Expression: sanitized, Source: types.SourceTUI})
		if err != nil {
			return 0, err
		}
		if eval.Err != nil {
			return 0, eval.Err
		}
		return eval.Value, nil
	}))

	if err := m.calc.LastError(); err != nil {
		m.status = err.Error()
	} else {
		m.status = ""
	}

	m.recent = append([]string{fmt.Sprintf("%s = %s", expr, m.calc.Display())}, m.recent...)
	if len(m.recent) > maxRecent {
		m.recent = m.recent[:maxRecent]
	}
}

func isInputRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case strings.ContainsRune("+-*/().", r):
		return true
	default:
		return false
	}
}

// View implements tea.Model
func (m Model) View() string {
	if m.quit {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Calculator"))
	b.WriteString("\n")
	b.WriteString(displayStyle.Render(m.calc.Display()))
	b.WriteString("\n")

	for _, row := range buttonRows {
		cells := make([]string, 0, len(row))
		for _, label := range row {
			cells = append(cells, renderButton(label))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(errorStyle.Render(m.status))
		b.WriteString("\n")
	}
	for _, line := range m.recent {
		b.WriteString(recentStyle.Render(line))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func renderButton(label string) string {
	switch label {
	case "C":
		// Spans three columns
		return clearStyle.Width(3*(buttonWidth+2) - 2).Render(label)
	case "0":
		// Spans two columns
		return buttonStyle.Width(2*(buttonWidth+2) - 2).Render(label)
	case "+", "-", "*", "/", "=":
		return operatorStyle.Render(label)
	default:
		return buttonStyle.Render(label)
	}
}
