package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nateberkopec/prayerwatch/internal/prayer"
	"github.com/nateberkopec/prayerwatch/internal/watch"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("247"))

	rowStyle = lipgloss.NewStyle()

	nextRowStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("57")).
			Foreground(lipgloss.Color("230"))

	passedRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	statusNeutralStyle = lipgloss.NewStyle()
	statusErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	statusSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("120"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	tableGap = " │ "
)

var tableColumns = []struct {
	Title  string
	Weight float64
	Min    int
}{
	{"", 0.05, 2},
	{"Prayer", 0.20, 8},
	{"Time", 0.15, 8},
	{"Reminders", 0.30, 10},
	{"Status", 0.30, 10},
}

func renderView(m *Model) string {
	if m.width == 0 || m.height == 0 {
		return "Loading…"
	}

	var out []string
	out = append(out, renderHeader(m))
	out = append(out, renderHelpText(m))
	out = append(out, renderScheduleTable(m))
	out = append(out, renderCountdown(m))
	out = append(out, renderStatusLine(m))

	return strings.Join(out, "\n")
}

func renderHeader(m *Model) string {
	text := AppName
	if m.plan != nil {
		schedule := m.plan.Watcher.Schedule()
		text = fmt.Sprintf("%s • %s • %s", AppName, schedule.Date, schedule.Location)
	}
	text = fmt.Sprintf("%s • sound: %s", text, soundEmoji(m.sound))
	return titleStyle.Width(m.width).Render(truncate(text, m.width))
}

func renderScheduleTable(m *Model) string {
	widths := calculateColumnWidths(m.width)
	listHeight := m.listHeight()

	builder := strings.Builder{}
	builder.WriteString(renderRow(tableHeaders(), widths, headerStyle))
	linesUsed := 1

	if m.plan != nil {
		now := m.planner.Now()
		schedule := m.plan.Watcher.Schedule()
		next, _, hasNext := schedule.Next(now)
		day, err := schedule.Day(now.Location())
		if err == nil {
			for _, entry := range schedule.Entries {
				if linesUsed >= listHeight {
					break
				}
				at := entry.At.On(day)
				style := rowStyle
				state := "upcoming"
				switch {
				case hasNext && entry.Name == next.Name:
					style = nextRowStyle
					state = "next • " + humanizeUntil(at.Sub(now))
				case at.Before(now):
					style = passedRowStyle
					state = "passed"
				}
				row := renderRow(tableRowData(m, entry, state), widths, rowStyle)
				builder.WriteString("\n")
				builder.WriteString(style.Width(m.width).Render(row))
				linesUsed++
			}
		}
	}

	for linesUsed < listHeight {
		builder.WriteString("\n")
		builder.WriteString(strings.Repeat(" ", max(0, m.width)))
		linesUsed++
	}

	return builder.String()
}

func (m *Model) listHeight() int {
	const (
		headerHeight    = 1
		helpHeight      = 1
		countdownHeight = 1
		statusHeight    = 1
	)
	height := m.height - (headerHeight + helpHeight + countdownHeight + statusHeight)
	if height < len(prayer.Names)+1 {
		height = len(prayer.Names) + 1
	}
	return height
}

func renderCountdown(m *Model) string {
	var text string
	switch {
	case m.plan == nil && m.fetching:
		text = fmt.Sprintf("Fetching prayer times %s", m.spin.View())
	case m.plan == nil:
		text = ""
	default:
		now := m.planner.Now()
		if alert := m.plan.Watcher.Pending(now); len(alert) > 0 {
			next := alert[0]
			text = fmt.Sprintf("Next notification: %q %s", next.Message(), humanizeUntil(next.FireAt().Sub(now)))
		} else {
			text = "No more notifications today"
		}
		if m.fetching {
			text = fmt.Sprintf("%s   refreshing %s", text, m.spin.View())
		}
	}
	return pad(text, m.width)
}

func renderHelpText(m *Model) string {
	help := "[s] sound • [r] refresh • [q] quit"
	return helpStyle.Width(m.width).Render(pad(help, m.width))
}

func renderStatusLine(m *Model) string {
	msg := m.status.text
	if msg == "" && m.lastAlert != "" {
		msg = "Last: " + m.lastAlert
	}

	style := statusNeutralStyle
	switch m.status.kind {
	case statusError:
		style = statusErrorStyle
	case statusSuccess:
		style = statusSuccessStyle
	}

	return style.Width(m.width).Render(pad(msg, m.width))
}

func tableHeaders() []string {
	titles := make([]string, len(tableColumns))
	for i, c := range tableColumns {
		titles[i] = c.Title
	}
	return titles
}

func tableRowData(m *Model, entry prayer.Entry, state string) []string {
	return []string{
		formatStatus(state),
		entry.Name,
		entry.At.String(),
		formatReminders(m, entry),
		state,
	}
}

func formatStatus(state string) string {
	switch {
	case state == "passed":
		return "✓"
	case strings.HasPrefix(state, "next"):
		return "▶"
	default:
		return "·"
	}
}

// formatReminders lists lead times, marking the ones that already fired.
func formatReminders(m *Model, entry prayer.Entry) string {
	leads := m.plan.Watcher.Leads()
	if len(leads) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(leads))
	for _, lead := range leads {
		label := fmt.Sprintf("%dm", lead)
		if m.plan.Watcher.Fired(watch.Alert{Prayer: entry.Name, Lead: lead}.Key()) {
			label += "✓"
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " ")
}

func renderRow(cells []string, widths []int, style lipgloss.Style) string {
	// Only include columns with non-zero widths
	var parts []string
	visibleCols := 0
	for i, cell := range cells {
		if widths[i] > 0 {
			cell = truncate(cell, widths[i])
			parts = append(parts, lipgloss.NewStyle().Width(widths[i]).Render(cell))
			visibleCols++
		}
	}
	row := strings.Join(parts, tableGap)
	rowWidth := lipgloss.Width(row)
	target := 0
	for _, w := range widths {
		if w > 0 {
			target += w
		}
	}
	if visibleCols > 0 {
		target += (visibleCols - 1) * lipgloss.Width(tableGap)
	}
	if rowWidth < target {
		row += strings.Repeat(" ", target-rowWidth)
	}
	return style.Render(row)
}

func calculateColumnWidths(total int) []int {
	if total <= 0 {
		total = 80
	}

	widths := make([]int, len(tableColumns))

	// Drop columns from the right until the minimums fit
	for numCols := len(tableColumns); numCols >= 1; numCols-- {
		gaps := numCols - 1
		available := total - gaps*lipgloss.Width(tableGap)
		if available < numCols {
			continue
		}

		minRequired := 0
		totalWeight := 0.0
		for i := 0; i < numCols; i++ {
			minRequired += tableColumns[i].Min
			totalWeight += tableColumns[i].Weight
		}
		if available < minRequired {
			continue
		}

		sum := 0
		for i := 0; i < numCols; i++ {
			col := tableColumns[i]
			width := int(float64(available) * col.Weight / totalWeight)
			if width < col.Min {
				width = col.Min
			}
			widths[i] = width
			sum += width
		}

		if diff := available - sum; diff > 0 {
			widths[numCols-1] += diff
		}
		for i := numCols; i < len(tableColumns); i++ {
			widths[i] = 0
		}
		return widths
	}

	widths[0] = max(1, total)
	for i := 1; i < len(widths); i++ {
		widths[i] = 0
	}
	return widths
}

func truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(text) <= width {
		return text
	}
	if width <= 1 {
		return lipgloss.NewStyle().MaxWidth(1).Render(text)
	}
	trimmed := lipgloss.NewStyle().MaxWidth(width - 1).Render(text)
	return trimmed + "…"
}

func pad(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

func humanizeUntil(d time.Duration) string {
	if d < time.Second {
		return "now"
	}
	d = d.Truncate(time.Second)
	h := int(d.Hours())
	mins := int(d.Minutes()) % 60
	secs := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("in %dh %02dm", h, mins)
	case mins > 0:
		return fmt.Sprintf("in %dm %02ds", mins, secs)
	default:
		return fmt.Sprintf("in %ds", secs)
	}
}

func soundEmoji(enabled bool) string {
	if enabled {
		return "🔔"
	}
	return "🔕"
}
