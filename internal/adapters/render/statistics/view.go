package statistics

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/guac-console/internal/application"
	"github.com/charmbracelet/lipgloss"
)

const (
	labelWidth  = 20
	barWidth    = 20
	NoValueText = "no value"
)

type RenderOptions struct {
	Title string
	// TargetFPS scales the frame rate bars; zero hides them.
	TargetFPS float64
	// UpdatedAt is shown in the footer when set.
	UpdatedAt time.Time
	Footer    string
}

func renderView(binding *application.StatisticsBinding, opts RenderOptions, s styles) string {
	title := opts.Title
	if title == "" {
		title = "Display statistics"
	}

	lines := []string{s.title.Render(title)}
	if !opts.UpdatedAt.IsZero() {
		lines = append(lines, s.header.Render("updated "+opts.UpdatedAt.Format("15:04:05")))
	}

	for _, field := range binding.Fields() {
		lines = append(lines, renderField(binding, field, opts, s))
	}

	if opts.Footer != "" {
		lines = append(lines, s.footer.Render(opts.Footer))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderField(binding *application.StatisticsBinding, field application.StatisticField, opts RenderOptions, s styles) string {
	label := s.label.Render(field.Label)
	if !binding.HasValue(field.Value) {
		return lipgloss.JoinHorizontal(lipgloss.Top, label, s.noValue.Render(NoValueText))
	}

	rounded := binding.Round(field.Value)
	value := s.value.Render(FormatFramerate(rounded))
	if opts.TargetFPS <= 0 {
		return lipgloss.JoinHorizontal(lipgloss.Top, label, value)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, label, renderBar(float64(rounded), opts.TargetFPS, s), " ", value)
}

// FormatFramerate renders a rounded statistic the way the console labels it.
func FormatFramerate(value int64) string {
	return fmt.Sprintf("%d frames/second", value)
}

func renderBar(value, target float64, s styles) string {
	ratio := value / target
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	filled := int(ratio*barWidth + 0.5)
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", barWidth-filled)),
		s.barBracket.Render("]"),
	)
}
