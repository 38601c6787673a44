package statistics

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bnema/guac-console/internal/application"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
)

const defaultInterval = time.Second

type tickMsg time.Time

// WatchModel redraws the statistics display every interval. Each frame reads the
// binding again, so values written by the feed in between show up on the next tick.
type WatchModel struct {
	binding  *application.StatisticsBinding
	opts     RenderOptions
	interval time.Duration
	clock    clockwork.Clock
	styles   styles
	frames   int
	quitting bool
}

func NewWatchModel(binding *application.StatisticsBinding, opts RenderOptions, interval time.Duration, clock clockwork.Clock) WatchModel {
	if interval <= 0 {
		interval = defaultInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.Footer == "" {
		opts.Footer = "press q to quit"
	}

	opts.UpdatedAt = clock.Now()
	return WatchModel{
		binding:  binding,
		opts:     opts,
		interval: interval,
		clock:    clock,
		styles:   newStyles(),
	}
}

func (m WatchModel) Init() tea.Cmd {
	return m.tick()
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case tickMsg:
		m.frames++
		m.opts.UpdatedAt = time.Time(msg)
		return m, m.tick()
	default:
		return m, nil
	}
}

func (m WatchModel) View() string {
	view := renderView(m.binding, m.opts, m.styles)
	if m.quitting {
		return view + "\n"
	}
	return view
}

func (m WatchModel) tick() tea.Cmd {
	clock := m.clock
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return tickMsg(clock.Now())
	})
}

// Watch runs the live display until the user quits or ctx is done.
func Watch(ctx context.Context, model WatchModel, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(
		model,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
