package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/geopulse/geopulse-terminal/internal/export"
	"github.com/geopulse/geopulse-terminal/internal/icons"
	"github.com/geopulse/geopulse-terminal/internal/models"
	"github.com/geopulse/geopulse-terminal/internal/report"
)

// flyFrame is the animation step of map flights
const flyFrame = 33 * time.Millisecond

// IconLoader provides marker icons
type IconLoader interface {
	LoadAll(ctx context.Context) map[icons.Kind]icons.Icon
}

// BasemapProvisioner loads the basemap on first run
type BasemapProvisioner interface {
	Ensure(ctx context.Context) (bool, error)
}

// flyTick schedules the next flight frame
func flyTick() tea.Cmd {
	return tea.Tick(flyFrame, func(t time.Time) tea.Msg {
		return flyTickMsg(t)
	})
}

// loadIcons fetches the marker icons in the background
func loadIcons(ctx context.Context, loader IconLoader) tea.Cmd {
	return func() tea.Msg {
		return iconsLoadedMsg{icons: loader.LoadAll(ctx)}
	}
}

// provisionBasemap downloads the basemap if it is missing
func provisionBasemap(ctx context.Context, p BasemapProvisioner) tea.Cmd {
	return func() tea.Msg {
		downloaded, err := p.Ensure(ctx)
		return basemapReadyMsg{downloaded: downloaded, err: err}
	}
}

// exportAll writes the visible hotspots, the report and the alerts
func exportAll(e *export.Exporter, hs []models.Hotspot, r report.Report, alerts []models.UserAlert) tea.Cmd {
	return func() tea.Msg {
		var paths []string
		p, err := e.Hotspots(hs)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		paths = append(paths, p)

		if p, err = e.Report(r); err != nil {
			return exportDoneMsg{paths: paths, err: err}
		}
		paths = append(paths, p)

		if p, err = e.Alerts(alerts); err != nil {
			return exportDoneMsg{paths: paths, err: err}
		}
		paths = append(paths, p)
		return exportDoneMsg{paths: paths}
	}
}
