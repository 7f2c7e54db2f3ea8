package models

import "time"

// AlertSeverity represents the severity a user assigns to an alert marker
type AlertSeverity string

const (
	SeverityInfo    AlertSeverity = "info"
	SeverityNotice  AlertSeverity = "notice"
	SeverityWarning AlertSeverity = "warning"
	SeverityDanger  AlertSeverity = "danger"
)

// Severities lists the selectable severities in display order
var Severities = []AlertSeverity{SeverityInfo, SeverityNotice, SeverityWarning, SeverityDanger}

// Label returns the human readable name of the severity
func (s AlertSeverity) Label() string {
	switch s {
	case SeverityInfo:
		return "Info"
	case SeverityNotice:
		return "Notice"
	case SeverityWarning:
		return "Warning"
	case SeverityDanger:
		return "Danger"
	default:
		return "Unknown"
	}
}

// Color returns the hex colour used for markers and popups
func (s AlertSeverity) Color() string {
	switch s {
	case SeverityInfo:
		return "#06b6d4"
	case SeverityNotice:
		return "#10b981"
	case SeverityWarning:
		return "#f59e0b"
	case SeverityDanger:
		return "#e11d48"
	default:
		return "#64748b"
	}
}

// Glyph returns the single-cell marker symbol
func (s AlertSeverity) Glyph() string {
	switch s {
	case SeverityInfo:
		return "i"
	case SeverityNotice:
		return "n"
	case SeverityWarning:
		return "!"
	case SeverityDanger:
		return "X"
	default:
		return "?"
	}
}

// Valid reports whether s is one of the four known severities
func (s AlertSeverity) Valid() bool {
	for _, known := range Severities {
		if s == known {
			return true
		}
	}
	return false
}

// Next cycles to the following severity, wrapping around
func (s AlertSeverity) Next() AlertSeverity {
	for i, known := range Severities {
		if s == known {
			return Severities[(i+1)%len(Severities)]
		}
	}
	return SeverityInfo
}

// UserAlert is an annotation the user placed on the map.
// It only lives in memory for the current session.
type UserAlert struct {
	ID        string        `json:"id"`
	Longitude float64       `json:"lng"`
	Latitude  float64       `json:"lat"`
	Title     string        `json:"title"`
	Message   string        `json:"message,omitempty"`
	Severity  AlertSeverity `json:"severity"`
	CreatedAt time.Time     `json:"createdAt"`
}
