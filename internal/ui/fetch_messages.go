package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/geopulse/geopulse-terminal/internal/vallaris"
)

// fetchFeatures loads the hotspot collection in the background. The request
// is bound to the session context so teardown cancels it.
func fetchFeatures(ctx context.Context, client vallaris.FeatureClient, collectionID string) tea.Cmd {
	return func() tea.Msg {
		fc, err := client.GetFeatures(ctx, collectionID)
		return featuresFetchedMsg{collection: fc, err: err}
	}
}
