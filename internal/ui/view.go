package ui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/geopulse/geopulse-terminal/internal/alerts"
	"github.com/geopulse/geopulse-terminal/internal/datefilter"
	"github.com/geopulse/geopulse-terminal/internal/hotspots"
	"github.com/geopulse/geopulse-terminal/internal/icons"
	"github.com/geopulse/geopulse-terminal/internal/mapview"
	"github.com/geopulse/geopulse-terminal/internal/models"
	"github.com/geopulse/geopulse-terminal/internal/report"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.state {
	case StateLoading:
		return m.viewLoading()
	case StateError:
		return m.viewError()
	}
	return m.viewDisplay()
}

// viewLoading renders the loading view
func (m Model) viewLoading() string {
	title := titleStyle.Render("🔥 GeoPulse")
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		fmt.Sprintf("%s Loading hotspots...", m.spinner.View()),
	)
}

// viewError renders the error that replaces the map
func (m Model) viewError() string {
	title := errorStyle.Render("✗ Failed to fetch data")

	var detail string
	if m.err != nil {
		detail = m.err.Error()
	} else {
		detail = "An unknown error occurred"
	}

	help := helpStyle.Render("Press any key to retry • Q: Quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		mutedStyle.Render(detail),
		"",
		help,
	)
}

// viewDisplay renders header, map, side panel and footer
func (m Model) viewDisplay() string {
	var body string
	switch {
	case m.sideVisible():
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.mapv.Render(), m.viewSide())
	case m.panelOverMap():
		body = m.viewSide()
	default:
		body = m.mapv.Render()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewHeader(),
		body,
		m.viewFooter(),
	)
}

func (m Model) viewHeader() string {
	st := m.session.Snapshot()

	location := mutedStyle.Render("locating...")
	switch {
	case st.PlaceName != nil:
		location = "📍 " + *st.PlaceName
	case st.Coords != nil:
		location = "📍 " + mapview.FormatCoords(*st.Coords)
	case m.locator == nil:
		location = mutedStyle.Render("location off")
	}
	if st.Updating {
		location += " " + m.spinner.View()
	}

	line1 := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("🔥 GeoPulse"),
		"  ",
		location,
	)

	filterLabel := activeTitleStyle.Render("Date: " + m.filter.Label())
	parts := []string{
		filterLabel,
		accentStyle.Render(datefilter.FormatRange(m.data.rng)),
		fmt.Sprintf("%d hotspots", len(m.data.hotspots)),
		fmt.Sprintf("%d alerts", m.store.Len()),
		fmt.Sprintf("z%.1f", m.mapv.Viewport().Zoom),
	}
	if m.refreshing {
		parts = append(parts, warningStyle.Render("refreshing "+m.spinner.View()))
	}
	if m.basemapStatus != "" {
		parts = append(parts, mutedStyle.Render(m.basemapStatus))
	}
	line2 := strings.Join(parts, mutedStyle.Render(" • "))

	return lipgloss.JoinVertical(lipgloss.Left, line1, line2)
}

func (m Model) viewFooter() string {
	cursor := mapview.FormatCoords(m.mapv.CursorPoint())

	status := m.status
	switch {
	case strings.HasPrefix(status, "Export failed"):
		status = errorStyle.Render(status)
	case status != "":
		status = successStyle.Render(status)
	}
	if m.drafter.Phase() == alerts.PhasePlacing {
		status = warningStyle.Render("Select a location on the map for the alert • Esc: cancel")
	}
	if status == "" {
		status = mutedStyle.Render("cursor " + cursor)
	}

	help := helpStyle.Render(m.helpText())
	return lipgloss.JoinVertical(lipgloss.Left, status, help)
}

func (m Model) helpText() string {
	switch m.focus {
	case FocusFilter:
		return "↑/↓: Choose • Enter: Apply • C: Clear • Esc: Close"
	case FocusCustomRange:
		return "Tab: Start/End • Enter: Done • Esc: Presets"
	case FocusDraft:
		return "Tab: Next field • ←/→: Severity • Enter: Save • Ctrl+O: Move • Esc: Cancel"
	case FocusAlerts:
		return "↑/↓: Navigate • Enter: Focus • D: Delete • Esc: Close"
	case FocusReport:
		return "←/→: Inspect day • Esc: Close"
	}
	add := "N: Add alert"
	if m.drafter.Adding() {
		add = "N: Cancel alert"
	}
	return "Arrows: Move • Enter: Select • +/-: Zoom • F: Date • R: Report • A: Alerts • " +
		add + " • G: My location • Shift+R: Reload • E: Export • Q: Quit"
}

// viewSide renders the panel to the right of the map, or over it on narrow
// screens
func (m Model) viewSide() string {
	var content string
	active := m.focus != FocusMap

	switch m.focus {
	case FocusFilter, FocusCustomRange:
		content = m.viewFilterPanel()
	case FocusDraft:
		content = m.viewDraftPanel()
	case FocusAlerts:
		content = m.alertList.View()
	case FocusReport:
		content = m.viewReportPanel()
	default:
		if p := m.mapv.Popup(); p != nil {
			content = m.viewPopup(*p)
			active = true
		} else {
			content = m.viewLegend()
		}
	}

	style := paneStyle
	if active {
		style = activePaneStyle
	}
	return style.
		Width(max(m.panelWidth()-2, 1)).
		Height(max(m.mapRows()-2, 1)).
		MaxHeight(m.mapRows()).
		Render(content)
}

func (m Model) viewFilterPanel() string {
	sel := m.filter.Selection()

	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Date Range"))
	b.WriteString("\n\n")
	for i, p := range datefilter.Presets {
		marker := "  "
		if i == m.filterCursor {
			marker = "> "
		}
		label := p.Title()
		if p == sel.Preset {
			label = selectedStyle.Render(label + " ✓")
		}
		b.WriteString(marker + label + "\n")
	}

	if sel.Preset == datefilter.PresetCustom || m.focus == FocusCustomRange {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Start") + "\n" + m.startInput.View() + "\n")
		b.WriteString(labelStyle.Render("End") + "\n" + m.endInput.View() + "\n")
	}

	b.WriteString("\n" + labelStyle.Render("Active: ") + accentStyle.Render(m.filter.Preview()))
	return b.String()
}

func (m Model) viewDraftPanel() string {
	d := m.drafter.Draft()

	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("New Alert"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%.5f°, %.5f°", d.Longitude, d.Latitude)))
	b.WriteString("\n\n")

	b.WriteString(m.fieldLabel("Title", draftTitle) + "\n" + m.titleInput.View() + "\n\n")
	b.WriteString(m.fieldLabel("Message", draftMessage) + "\n" + m.messageInput.View() + "\n\n")

	b.WriteString(m.fieldLabel("Severity", draftSeverity) + "\n")
	for _, s := range models.Severities {
		text := s.Label()
		if s == d.Severity {
			text = colorStyle(s.Color()).Bold(true).Render("[" + text + "]")
		} else {
			text = mutedStyle.Render(" " + text + " ")
		}
		b.WriteString(text)
	}
	b.WriteString("\n")

	if m.draftErr != nil {
		b.WriteString("\n" + errorStyle.Render("✗ "+draftErrText(m.draftErr)))
	}
	return b.String()
}

func draftErrText(err error) string {
	if errors.Is(err, alerts.ErrTitleRequired) {
		return "Title is required"
	}
	return err.Error()
}

func (m Model) fieldLabel(text string, field int) string {
	if m.draftField == field {
		return selectedStyle.Render("› " + text)
	}
	return labelStyle.Render("  " + text)
}

func (m Model) viewReportPanel() string {
	r := m.data.report

	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Hotspot Frequency"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(r.RangeLabel))
	b.WriteString("\n\n")

	if r.HasStats {
		s := r.Stats
		b.WriteString(statLine("Total", fmt.Sprintf("%d", s.Total)))
		b.WriteString(statLine("Days", fmt.Sprintf("%d", s.Days)))
		b.WriteString(statLine("Avg/day", fmt.Sprintf("%.1f", s.Average)))
		b.WriteString(statLine("Peak", fmt.Sprintf("%s (%d)", s.Peak.Date, s.Peak.Count)))
		b.WriteString("\n")
	}

	rows := max(m.mapRows()-14, 4)
	lines := report.Plot(r.Chart, r.Buckets, sideWidth-4, rows, m.reportHover)
	b.WriteString(colorStyle("#f97316").Render(strings.Join(lines, "\n")))
	return b.String()
}

func statLine(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-8s", label)) + " " + valueStyle.Render(value) + "\n"
}

func (m Model) viewPopup(p mapview.Popup) string {
	var b strings.Builder

	title := colorStyle(p.Color).Bold(true).Render(p.Title)
	if p.Kind == mapview.PopupHotspot {
		if icon, ok := m.icons[m.hotspotIconKind(p.Key)]; ok {
			title = colorStyle(icon.Tint).Render("●") + " " + title
		}
	}
	b.WriteString(title)
	if p.Badge != "" {
		b.WriteString(" " + lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color(p.Color)).
			Padding(0, 1).
			Render(p.Badge))
	}
	b.WriteString("\n")
	if p.Subtitle != "" {
		b.WriteString(mutedStyle.Render(p.Subtitle) + "\n")
	}
	if p.Body != "" {
		b.WriteString("\n" + valueStyle.Render(p.Body) + "\n")
	}
	b.WriteString("\n")

	for _, f := range p.Fields {
		b.WriteString(labelStyle.Render(f.Label) + "\n")
		b.WriteString("  " + valueStyle.Render(f.Value) + "\n")
	}

	if p.Action != "" {
		b.WriteString("\n" + accentStyle.Render("O: "+p.Action+" • X: Delete"))
	}
	b.WriteString("\n" + helpStyle.Render("Esc: Close"))
	return b.String()
}

// hotspotIconKind picks the icon family of a rendered hotspot
func (m Model) hotspotIconKind(key string) icons.Kind {
	for _, h := range m.data.hotspots {
		if h.Key == key {
			if hotspots.Classify(h.FRP, h.HasFRP).Kind == hotspots.KindFire {
				return icons.Fire
			}
			return icons.Smoke
		}
	}
	return icons.Smoke
}

func (m Model) viewLegend() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Fire Radiative Power"))
	b.WriteString("\n\n")
	for _, bucket := range hotspots.Buckets {
		s := hotspots.StyleOf(bucket)
		b.WriteString(colorStyle(s.Color).Render(s.Glyph) + " " + s.Label + "\n")
	}

	b.WriteString("\n" + sectionHeaderStyle.Render("Markers") + "\n\n")
	for _, kind := range []icons.Kind{icons.Fire, icons.Smoke} {
		icon, ok := m.icons[kind]
		if !ok {
			continue
		}
		source := "remote"
		if icon.Fallback {
			source = "fallback"
		}
		b.WriteString(colorStyle(icon.Tint).Render("●") + " " + string(kind) + mutedStyle.Render(" ("+source+")") + "\n")
	}
	for _, s := range models.Severities {
		b.WriteString(colorStyle(s.Color()).Render(s.Glyph()) + " " + s.Label() + " alert\n")
	}
	b.WriteString(colorStyle("#3b82f6").Render("◉") + " You\n")

	if r := m.data.report; r.HasStats {
		b.WriteString("\n" + sectionHeaderStyle.Render("Summary") + "\n\n")
		b.WriteString(statLine("Total", fmt.Sprintf("%d", r.Stats.Total)))
		b.WriteString(statLine("Peak", fmt.Sprintf("%s (%d)", r.Stats.Peak.Date, r.Stats.Peak.Count)))
	}
	return b.String()
}

func joinPaths(paths []string) string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	dir := ""
	if len(paths) > 0 {
		dir = " to " + filepath.Dir(paths[0])
	}
	return strings.Join(names, ", ") + dir
}
