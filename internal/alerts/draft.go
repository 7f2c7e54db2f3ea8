package alerts

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/validate"

	"github.com/geopulse/geopulse-terminal/internal/models"
)

var (
	ErrDraftOpen     = errors.New("an alert is already being drafted")
	ErrNotPlacing    = errors.New("not placing an alert")
	ErrNotDrafting   = errors.New("no alert draft is open")
	ErrTitleRequired = errors.New("alert title is required")
)

// Phase is the drafting state
type Phase int

const (
	PhaseIdle     Phase = iota // no draft
	PhasePlacing               // waiting for a map location
	PhaseDrafting              // location chosen, editing fields
)

func (p Phase) String() string {
	switch p {
	case PhasePlacing:
		return "placing"
	case PhaseDrafting:
		return "drafting"
	default:
		return "idle"
	}
}

// Draft holds the fields of an alert being composed
type Draft struct {
	Longitude float64
	Latitude  float64
	Title     string
	Message   string
	Severity  models.AlertSeverity
}

// Length limits for a saved alert, kept in step with the draftInput tags
const (
	MaxTitleLen   = 120
	MaxMessageLen = 1000
)

type draftInput struct {
	Title    string `validate:"required|maxLen:120"`
	Message  string `validate:"maxLen:1000"`
	Severity string `validate:"required|in:info,notice,warning,danger"`
}

// Drafter walks the user through placing and describing a new alert
type Drafter struct {
	store *Store
	phase Phase
	draft Draft

	now   func() time.Time
	newID func() string
}

// NewDrafter creates a drafter that appends saved alerts to store
func NewDrafter(store *Store) *Drafter {
	return &Drafter{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Phase returns the current phase
func (d *Drafter) Phase() Phase { return d.phase }

// Adding reports whether the user is placing or drafting an alert
func (d *Drafter) Adding() bool { return d.phase != PhaseIdle }

// Draft returns a copy of the current draft
func (d *Drafter) Draft() Draft { return d.draft }

// Start enters placing mode
func (d *Drafter) Start() error {
	if d.phase != PhaseIdle {
		return ErrDraftOpen
	}
	d.draft = Draft{Severity: models.SeverityInfo}
	d.phase = PhasePlacing
	return nil
}

// Place sets the draft location. Placing again while drafting moves the
// draft and keeps the typed fields.
func (d *Drafter) Place(lon, lat float64) error {
	if d.phase == PhaseIdle {
		return ErrNotPlacing
	}
	d.draft.Longitude = lon
	d.draft.Latitude = lat
	d.phase = PhaseDrafting
	return nil
}

// SetTitle updates the draft title
func (d *Drafter) SetTitle(s string) error {
	if d.phase != PhaseDrafting {
		return ErrNotDrafting
	}
	d.draft.Title = s
	return nil
}

// SetMessage updates the draft message
func (d *Drafter) SetMessage(s string) error {
	if d.phase != PhaseDrafting {
		return ErrNotDrafting
	}
	d.draft.Message = s
	return nil
}

// SetSeverity updates the draft severity
func (d *Drafter) SetSeverity(s models.AlertSeverity) error {
	if d.phase != PhaseDrafting {
		return ErrNotDrafting
	}
	if !s.Valid() {
		return fmt.Errorf("unknown severity %q", s)
	}
	d.draft.Severity = s
	return nil
}

// CycleSeverity advances the draft severity to the next value
func (d *Drafter) CycleSeverity() error {
	return d.SetSeverity(d.draft.Severity.Next())
}

// Save validates the draft, appends the alert and returns to idle. On
// validation failure the draft stays open.
func (d *Drafter) Save() (models.UserAlert, error) {
	if d.phase != PhaseDrafting {
		return models.UserAlert{}, ErrNotDrafting
	}

	in := draftInput{
		Title:    strings.TrimSpace(d.draft.Title),
		Message:  strings.TrimSpace(d.draft.Message),
		Severity: string(d.draft.Severity),
	}
	if in.Title == "" {
		return models.UserAlert{}, ErrTitleRequired
	}
	v := validate.Struct(&in)
	if !v.Validate() {
		return models.UserAlert{}, fmt.Errorf("invalid alert: %s", v.Errors.One())
	}

	a := models.UserAlert{
		ID:        d.newID(),
		Longitude: d.draft.Longitude,
		Latitude:  d.draft.Latitude,
		Title:     in.Title,
		Message:   in.Message,
		Severity:  d.draft.Severity,
		CreatedAt: d.now().UTC(),
	}
	d.store.Add(a)
	d.reset()
	return a, nil
}

// Cancel discards any draft and returns to idle
func (d *Drafter) Cancel() {
	d.reset()
}

func (d *Drafter) reset() {
	d.phase = PhaseIdle
	d.draft = Draft{}
}
