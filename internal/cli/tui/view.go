package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var sections []string

	sections = append(sections, m.renderTitleBar())

	if m.err != nil {
		sections = append(sections, errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	if m.status != nil {
		sections = append(sections, m.renderRun())
		sections = append(sections, m.renderTelemetry())
		sections = append(sections, m.renderProgress())
		if m.status.Host != nil {
			sections = append(sections, m.renderHost())
		}
	}

	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTitleBar() string {
	title := titleStyle.Render("POWERMON")

	refreshInfo := fmt.Sprintf("↻ %s", m.config.RefreshInterval)
	if m.loading {
		refreshInfo = "↻ loading..."
	}

	rightPart := fmt.Sprintf("%s | q:quit r:refresh", refreshInfo)
	spacing := m.width - lipgloss.Width(title) - lipgloss.Width(rightPart) - 2
	if spacing < 1 {
		spacing = 1
	}

	return title + strings.Repeat(" ", spacing) + helpStyle.Render(rightPart)
}

func (m Model) renderRun() string {
	run := m.status.Run
	elapsed := time.Duration(run.ElapsedSeconds * float64(time.Second)).Round(time.Second)

	return fmt.Sprintf("  %s %s   %s %s   %s %s",
		labelStyle.Render("State"), stateStyle(run.State).Render(run.State),
		labelStyle.Render("Elapsed"), valueStyle.Render(elapsed.String()),
		labelStyle.Render("Output"), valueStyle.Render(run.Output),
	)
}

func (m Model) renderTelemetry() string {
	var lines []string
	lines = append(lines, sectionHeaderStyle.Render("  Accelerator"))

	run := m.status.Run
	if run.Latest == nil {
		lines = append(lines, helpStyle.Render("  no measurements yet"))
		return strings.Join(lines, "\n")
	}

	latest := run.Latest
	lines = append(lines, fmt.Sprintf("  %s    %s",
		m.renderProgressBar("Util", latest.GPUUtilization, 20),
		labelStyle.Render("Memory ")+valueStyle.Render(fmt.Sprintf("%.0f MiB", latest.MemoryUsed)),
	))
	lines = append(lines, fmt.Sprintf("  %s %s   %s %s   %s %s",
		labelStyle.Render("Power"), valueStyle.Render(fmt.Sprintf("%7.1f W", latest.PowerDraw)),
		labelStyle.Render("avg"), valueStyle.Render(fmt.Sprintf("%.1f W", run.Summary.AvgPower)),
		labelStyle.Render("peak"), valueStyle.Render(fmt.Sprintf("%.1f W", run.Summary.MaxPower)),
	))

	if len(m.power) > 1 {
		lines = append(lines, "  "+sparkStyle.Render(sparkline(m.power)))
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderProgress() string {
	p := m.status.Run.Progress

	task := p.CurrentTask
	if task == "" {
		task = "-"
	}
	if len(task) > 40 {
		task = task[:37] + "..."
	}

	return strings.Join([]string{
		sectionHeaderStyle.Render("  Evaluation"),
		fmt.Sprintf("  %s %s   %s %s   %s %s",
			labelStyle.Render("Examples"), valueStyle.Render(formatNumber(p.ExamplesEvaluated)),
			labelStyle.Render("Tokens"), valueStyle.Render(formatNumber(p.TokensGenerated)),
			labelStyle.Render("Task"), valueStyle.Render(task),
		),
	}, "\n")
}

func (m Model) renderHost() string {
	h := m.status.Host
	return strings.Join([]string{
		sectionHeaderStyle.Render(fmt.Sprintf("  Host %s", h.Hostname)),
		fmt.Sprintf("  %s    %s",
			m.renderProgressBar("CPU", h.CPUUsagePercent, 20),
			m.renderProgressBar("Memory", h.MemoryPercent, 20),
		),
	}, "\n")
}

func (m Model) renderProgressBar(label string, percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	filled = max(0, min(filled, width))

	color := getProgressColor(percent)
	filledBar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	emptyBar := progressBarEmptyStyle.Render(strings.Repeat("░", width-filled))

	return fmt.Sprintf("%s [%s%s] %5.1f%%", labelStyle.Render(label), filledBar, emptyBar, percent)
}

func (m Model) renderFooter() string {
	if m.status == nil {
		return ""
	}

	return helpStyle.Render(fmt.Sprintf(
		"  Measurements: %d │ Updated: %s",
		m.status.Run.Measurements,
		m.lastUpdated.Format("15:04:05"),
	))
}

// sparkline scales values between their min and max.
func sparkline(values []float64) string {
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	var b strings.Builder
	for _, v := range values {
		i := 0
		if hi > lo {
			i = int((v - lo) / (hi - lo) * float64(len(sparkBlocks)-1))
		}
		b.WriteRune(sparkBlocks[i])
	}
	return b.String()
}

func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 || len(s) <= 3 {
		return s
	}

	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
