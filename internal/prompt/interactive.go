package prompt

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/attractor/internal/dynamo"
)

var (
	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ffff"))

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#1a1a2e")).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666688"))
)

// Interactive reads a number through a one-line bubbletea form.
type Interactive struct {
	in  io.Reader
	out io.Writer
}

func NewInteractive(in io.Reader, out io.Writer) *Interactive {
	return &Interactive{in: in, out: out}
}

func (p *Interactive) ReadFloat(ctx context.Context, message string) (float64, error) {
	prog := tea.NewProgram(newModel(message),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
		tea.WithContext(ctx),
	)
	final, err := prog.Run()
	if err != nil {
		return 0, err
	}

	m := final.(model)
	if m.cancelled {
		return 0, fmt.Errorf("%w: input cancelled", dynamo.ErrUserInput)
	}
	return ParseFloat(m.input)
}

type model struct {
	message   string
	input     string
	done      bool
	cancelled bool
}

func newModel(message string) model {
	return model{message: message}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "enter":
		m.done = true
		return m, tea.Quit
	case "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "backspace":
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	default:
		if key.Type == tea.KeyRunes || key.Type == tea.KeySpace {
			m.input += string(key.Runes)
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return fmt.Sprintf("%s %s\n%s\n",
		promptStyle.Render(m.message),
		inputStyle.Render(m.input+"_"),
		hintStyle.Render("enter to confirm, esc to cancel"))
}
