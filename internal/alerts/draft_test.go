package alerts

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geopulse/geopulse-terminal/internal/models"
)

func newTestDrafter() (*Drafter, *Store) {
	s := NewStore()
	d := NewDrafter(s)
	d.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("ICT", 7*3600)) }
	d.newID = func() string { return "fixed-id" }
	return d, s
}

func TestDrafter_HappyPath(t *testing.T) {
	d, s := newTestDrafter()

	require.NoError(t, d.Start())
	assert.Equal(t, PhasePlacing, d.Phase())
	assert.True(t, d.Adding())

	require.NoError(t, d.Place(100.5, 13.75))
	assert.Equal(t, PhaseDrafting, d.Phase())

	require.NoError(t, d.SetTitle("  Fire spreading  "))
	require.NoError(t, d.SetMessage("   "))
	require.NoError(t, d.SetSeverity(models.SeverityDanger))

	a, err := d.Save()
	require.NoError(t, err)

	assert.Equal(t, "fixed-id", a.ID)
	assert.Equal(t, "Fire spreading", a.Title)
	assert.Empty(t, a.Message, "whitespace message is dropped")
	assert.Equal(t, models.SeverityDanger, a.Severity)
	assert.Equal(t, 100.5, a.Longitude)
	assert.Equal(t, 13.75, a.Latitude)
	assert.Equal(t, time.UTC, a.CreatedAt.Location())
	assert.Equal(t, 5, a.CreatedAt.Hour())

	assert.Equal(t, PhaseIdle, d.Phase())
	assert.Equal(t, 1, s.Len())
}

func TestDrafter_EmptyTitleKeepsDraftOpen(t *testing.T) {
	d, s := newTestDrafter()
	require.NoError(t, d.Start())
	require.NoError(t, d.Place(1, 2))
	require.NoError(t, d.SetTitle("   "))

	_, err := d.Save()
	assert.ErrorIs(t, err, ErrTitleRequired)
	assert.Equal(t, PhaseDrafting, d.Phase())
	assert.Equal(t, 0, s.Len())
}

func TestDrafter_LengthLimits(t *testing.T) {
	d, s := newTestDrafter()
	require.NoError(t, d.Start())
	require.NoError(t, d.Place(1, 2))

	require.NoError(t, d.SetTitle(strings.Repeat("t", MaxTitleLen+1)))
	_, err := d.Save()
	assert.Error(t, err)
	assert.Equal(t, PhaseDrafting, d.Phase())

	require.NoError(t, d.SetTitle(strings.Repeat("t", MaxTitleLen)))
	require.NoError(t, d.SetMessage(strings.Repeat("m", MaxMessageLen+1)))
	_, err = d.Save()
	assert.Error(t, err)

	require.NoError(t, d.SetMessage(strings.Repeat("m", MaxMessageLen)))
	_, err = d.Save()
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestDrafter_Transitions(t *testing.T) {
	d, _ := newTestDrafter()

	assert.ErrorIs(t, d.Place(0, 0), ErrNotPlacing)
	_, err := d.Save()
	assert.ErrorIs(t, err, ErrNotDrafting)

	require.NoError(t, d.Start())
	assert.ErrorIs(t, d.Start(), ErrDraftOpen)
	assert.ErrorIs(t, d.SetTitle("x"), ErrNotDrafting)

	d.Cancel()
	assert.Equal(t, PhaseIdle, d.Phase())

	require.NoError(t, d.Start())
	require.NoError(t, d.Place(1, 1))
	require.NoError(t, d.SetTitle("keep me"))
	require.NoError(t, d.Place(2, 2))
	assert.Equal(t, "keep me", d.Draft().Title, "re-placing keeps the fields")
	assert.Equal(t, 2.0, d.Draft().Longitude)

	d.Cancel()
	assert.Equal(t, Draft{}, d.Draft())
}

func TestDrafter_Severity(t *testing.T) {
	d, _ := newTestDrafter()
	require.NoError(t, d.Start())
	assert.Equal(t, models.SeverityInfo, d.Draft().Severity, "new drafts default to info")
	require.NoError(t, d.Place(0, 0))

	require.NoError(t, d.CycleSeverity())
	assert.Equal(t, models.SeverityNotice, d.Draft().Severity)

	assert.Error(t, d.SetSeverity("catastrophic"))
}
