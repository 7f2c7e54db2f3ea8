package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/geopulse/geopulse-terminal/internal/models"
)

// alertItem wraps a UserAlert for use in a list
type alertItem struct {
	alert models.UserAlert
}

// FilterValue implements list.Item
func (a alertItem) FilterValue() string {
	return a.alert.Title
}

// Title implements list.DefaultItem
func (a alertItem) Title() string {
	return fmt.Sprintf("[%s] %s", a.alert.Severity.Glyph(), a.alert.Title)
}

// Description implements list.DefaultItem
func (a alertItem) Description() string {
	return fmt.Sprintf("%s • %.4f, %.4f • %s",
		a.alert.Severity.Label(), a.alert.Latitude, a.alert.Longitude,
		a.alert.CreatedAt.Local().Format("Jan 2 15:04"))
}

// createAlertList creates a list.Model from alerts
func createAlertList(alerts []models.UserAlert, width, height int) list.Model {
	items := make([]list.Item, len(alerts))
	for i, a := range alerts {
		items[i] = alertItem{alert: a}
	}

	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = "Your Alerts"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(true)

	return l
}
