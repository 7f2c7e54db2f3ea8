package ui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/geopulse/geopulse-terminal/internal/alerts"
	"github.com/geopulse/geopulse-terminal/internal/datefilter"
	"github.com/geopulse/geopulse-terminal/internal/mapview"
	"github.com/geopulse/geopulse-terminal/internal/models"
	"github.com/geopulse/geopulse-terminal/internal/report"
)

// handleMapKey handles keyboard input while the map has focus
func (m Model) handleMapKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	m.status = ""

	switch msg.String() {
	case "up", "k":
		m.mapv.MoveCursor(0, -1)
	case "down", "j":
		m.mapv.MoveCursor(0, 1)
	case "left", "h":
		m.mapv.MoveCursor(-1, 0)
	case "right", "l":
		m.mapv.MoveCursor(1, 0)
	case "K":
		m.mapv.Pan(0, -m.mapRows()/4)
	case "J":
		m.mapv.Pan(0, m.mapRows()/4)
	case "H":
		m.mapv.Pan(-m.mapCols()/4, 0)
	case "L":
		m.mapv.Pan(m.mapCols()/4, 0)
	case "+", "=":
		m.mapv.ZoomBy(1)
	case "-", "_":
		m.mapv.ZoomBy(-1)

	case "enter", " ":
		col, row := m.mapv.Cursor()
		return m.click(col, row)

	case "esc":
		if m.drafter.Adding() {
			return m.cancelDraft(), nil
		}
		m.mapv.ClosePopup()

	case "tab":
		// back to an open draft form
		if m.drafter.Phase() == alerts.PhaseDrafting {
			return m.focusDraft()
		}

	case "o":
		if p := m.mapv.Popup(); p != nil && p.Kind == mapview.PopupAlert {
			return m.focusAlert(p.Key)
		}

	case "x":
		if p := m.mapv.Popup(); p != nil && p.Kind == mapview.PopupAlert {
			return m.deleteAlert(p.Key), nil
		}

	case "n":
		if m.drafter.Adding() {
			return m.cancelDraft(), nil
		}
		if err := m.drafter.Start(); err == nil {
			m.mapv.ClosePopup()
			m.status = "Select a location on the map for the alert"
		}

	case "g":
		return m.myLocation()

	case "f":
		m.focus = FocusFilter
		m.filterCursor = presetIndex(m.filter.Selection().Preset)

	case "a":
		m.focus = FocusAlerts

	case "r":
		m.focus = FocusReport
		m.reportHover = -1

	case "R":
		return m.reload()

	case "e":
		if m.exporter == nil {
			m.status = "Export is not configured"
			return m, nil
		}
		m.status = "Exporting..."
		return m, exportAll(m.exporter, m.data.hotspots, m.data.report, m.store.List())
	}
	return m, nil
}

func (m Model) cancelDraft() Model {
	m.drafter.Cancel()
	m.mapv.SetDraft(nil)
	m.titleInput.SetValue("")
	m.messageInput.SetValue("")
	m.draftErr = nil
	m.draftField = draftTitle
	m.focus = FocusMap
	m.status = ""
	return m
}

func (m Model) focusDraft() (Model, tea.Cmd) {
	m.focus = FocusDraft
	m.status = ""
	cmd := m.setDraftField(m.draftField)
	return m, cmd
}

func (m *Model) setDraftField(field int) tea.Cmd {
	m.draftField = (field + draftFieldCount) % draftFieldCount
	m.titleInput.Blur()
	m.messageInput.Blur()
	switch m.draftField {
	case draftTitle:
		return m.titleInput.Focus()
	case draftMessage:
		return m.messageInput.Focus()
	}
	return nil
}

// handleDraftKey handles the alert form
func (m Model) handleDraftKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m.cancelDraft(), nil
	case tea.KeyTab, tea.KeyDown:
		cmd := m.setDraftField(m.draftField + 1)
		return m, cmd
	case tea.KeyShiftTab, tea.KeyUp:
		cmd := m.setDraftField(m.draftField - 1)
		return m, cmd
	case tea.KeyCtrlO:
		// move the pointer to re-place the draft
		m.focus = FocusMap
		m.status = "Select a new location (Tab returns to the form)"
		return m, nil
	case tea.KeyEnter:
		return m.saveDraft()
	}

	if m.draftField == draftSeverity {
		switch msg.String() {
		case " ", "right", "l":
			m.drafter.CycleSeverity()
		case "left", "h":
			m.drafter.SetSeverity(previousSeverity(m.drafter.Draft().Severity))
		}
		return m, nil
	}

	m.draftErr = nil
	return m.updateInputs(msg)
}

func previousSeverity(s models.AlertSeverity) models.AlertSeverity {
	for i, v := range models.Severities {
		if v == s {
			return models.Severities[(i+len(models.Severities)-1)%len(models.Severities)]
		}
	}
	return models.SeverityInfo
}

func (m Model) saveDraft() (Model, tea.Cmd) {
	m.drafter.SetTitle(m.titleInput.Value())
	m.drafter.SetMessage(m.messageInput.Value())

	a, err := m.drafter.Save()
	if err != nil {
		m.draftErr = err
		if errors.Is(err, alerts.ErrTitleRequired) {
			cmd := m.setDraftField(draftTitle)
			return m, cmd
		}
		return m, nil
	}

	m.logger.Info().Str("id", a.ID).Str("severity", string(a.Severity)).Msg("alert added")
	m.syncAlerts()
	m = m.cancelDraft()
	m.status = "Alert saved"
	return m, nil
}

func presetIndex(p datefilter.Preset) int {
	for i, v := range datefilter.Presets {
		if v == p {
			return i
		}
	}
	return 0
}

// handleFilterKey handles the date preset menu
func (m Model) handleFilterKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "f":
		m.focus = FocusMap
	case "up", "k":
		if m.filterCursor > 0 {
			m.filterCursor--
		}
	case "down", "j":
		if m.filterCursor < len(datefilter.Presets)-1 {
			m.filterCursor++
		}
	case "enter", " ":
		p := datefilter.Presets[m.filterCursor]
		m.filter.SetPreset(p)
		if p == datefilter.PresetCustom {
			sel := m.filter.Selection()
			m.startInput.SetValue(sel.CustomStart)
			m.endInput.SetValue(sel.CustomEnd)
			m.focus = FocusCustomRange
			cmd := m.setCustomField(0)
			return m, cmd
		}
		m.focus = FocusMap
	case "c":
		m.filter.Reset()
		m.startInput.SetValue("")
		m.endInput.SetValue("")
	}
	return m, nil
}

func (m *Model) setCustomField(field int) tea.Cmd {
	m.customField = field % 2
	if m.customField == 0 {
		m.endInput.Blur()
		return m.startInput.Focus()
	}
	m.startInput.Blur()
	return m.endInput.Focus()
}

// handleCustomRangeKey edits the custom bounds. Each complete or cleared
// value is applied immediately.
func (m Model) handleCustomRangeKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.startInput.Blur()
		m.endInput.Blur()
		m.focus = FocusFilter
		return m, nil
	case tea.KeyEnter:
		m.startInput.Blur()
		m.endInput.Blur()
		m.focus = FocusMap
		return m, nil
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		cmd := m.setCustomField(m.customField + 1)
		return m, cmd
	}

	m, cmd := m.updateInputs(msg)

	sel := m.filter.Selection()
	if v := m.startInput.Value(); v != sel.CustomStart && validDay(v) {
		m.filter.SetCustomStart(v)
	}
	if v := m.endInput.Value(); v != sel.CustomEnd && validDay(v) {
		m.filter.SetCustomEnd(v)
	}
	return m, cmd
}

func validDay(s string) bool {
	if s == "" {
		return true
	}
	_, err := datefilter.ParseDay(s)
	return err == nil
}

// handleAlertListKey handles the alert list
func (m Model) handleAlertListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "a":
		m.focus = FocusMap
		return m, nil
	case "enter":
		if item, ok := m.alertList.SelectedItem().(alertItem); ok {
			return m.focusAlert(item.alert.ID)
		}
		return m, nil
	case "d", "x", "delete":
		if item, ok := m.alertList.SelectedItem().(alertItem); ok {
			return m.deleteAlert(item.alert.ID), nil
		}
		return m, nil
	}
	return m.updateInputs(msg)
}

// handleReportKey moves the report hover marker
func (m Model) handleReportKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	n := len(m.data.report.Buckets)
	switch msg.String() {
	case "esc", "r":
		m.focus = FocusMap
	case "left", "h":
		if m.reportHover < 0 {
			m.reportHover = n - 1
		} else if m.reportHover > 0 {
			m.reportHover--
		}
	case "right", "l":
		if m.reportHover < n-1 {
			m.reportHover++
		}
	}
	return m, nil
}

// handleMouse clicks, zooms and hovers with the pointer
func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	col, row := msg.X, msg.Y-headerHeight
	onMap := col >= 0 && col < m.mapCols() && row >= 0 && row < m.mapRows() && !m.panelOverMap()

	if onMap {
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.mapv.ZoomBy(1)
			return m, nil
		case tea.MouseButtonWheelDown:
			m.mapv.ZoomBy(-1)
			return m, nil
		}

		m.mapv.SetCursor(col, row)
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			return m.click(col, row)
		}
		return m, nil
	}

	if m.focus == FocusReport && m.sideVisible() {
		// side panel border and padding take two columns
		plotCol := col - m.mapCols() - 2
		plotCols := sideWidth - 4
		if plotCol >= 0 && plotCol < plotCols {
			c := m.data.report.Chart
			m.reportHover = c.Nearest(report.ColumnX(c, plotCol, plotCols))
		}
	}
	return m, nil
}
