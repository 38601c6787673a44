package statistics

import (
	"errors"
	"io"

	"github.com/bnema/guac-console/internal/application"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

type model struct {
	binding *application.StatisticsBinding
	opts    RenderOptions
	styles  styles
	output  string
}

func newModel(binding *application.StatisticsBinding, opts RenderOptions) model {
	return model{
		binding: binding,
		opts:    opts,
		styles:  newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = renderView(m.binding, m.opts, m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

// Render draws one frame of the statistics display.
func Render(binding *application.StatisticsBinding, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(binding, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
