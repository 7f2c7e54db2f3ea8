package mapview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/geopulse/geopulse-terminal/internal/hotspots"
	"github.com/geopulse/geopulse-terminal/internal/models"
)

// PopupKind identifies what a popup describes
type PopupKind int

const (
	PopupHotspot PopupKind = iota
	PopupAlert
)

// Field is one labelled row in a popup
type Field struct {
	Label string
	Value string
}

// Popup is the single detail panel anchored to a marker
type Popup struct {
	Kind     PopupKind
	Key      string
	Anchor   orb.Point
	Title    string
	Subtitle string
	Color    string
	Badge    string
	Body     string
	Fields   []Field
	Action   string // label of the popup's action, empty for none
}

// properties shown in dedicated rows, not repeated among the extras
var knownHotspotProps = map[string]bool{
	"instrument": true, "satellite": true, "acq_time": true, "confidence": true,
	"bright_ti4": true, "ct_en": true, "scan": true, "track": true, "version": true,
	"hotspotid": true, "_id": true,
}

// HotspotPopup describes a hotspot. user is the viewer's position, if known.
func HotspotPopup(h models.Hotspot, user *orb.Point) Popup {
	style := hotspots.Classify(h.FRP, h.HasFRP)
	props := h.Properties

	frp := "N/A"
	if h.HasFRP {
		frp = fmt.Sprintf("%.2f MW", h.FRP)
	}

	country := propString(props, "ct_en")
	if country == "" {
		country = "Unknown Country"
	}

	p := Popup{
		Kind:   PopupHotspot,
		Key:    h.Key,
		Anchor: h.Point,
		Title:  "Hotspot",
		Subtitle: fmt.Sprintf("%s • Satellite %s",
			orNA(propString(props, "instrument")), orNA(propString(props, "satellite"))),
		Color: style.Color,
		Badge: style.Level,
		Fields: []Field{
			{"Fire Radiative Power", frp},
			{"Date", formatAcqDate(h.AcqDate)},
			{"Time", formatAcqTime(propString(props, "acq_time"))},
			{"Confidence", formatConfidence(propString(props, "confidence"))},
			{"Brightness", formatFloat(props, "bright_ti4", "%.1fK")},
			{"Location", country + " " + FormatCoords(h.Point)},
			{"Scan", formatFloat(props, "scan", "%.2fkm")},
			{"Track", formatFloat(props, "track", "%.2fkm")},
			{"Version", orNA(propString(props, "version"))},
		},
	}

	if user != nil {
		p.Fields = append(p.Fields, Field{"Distance from you", FormatDistance(Distance(*user, h.Point))})
	}
	for _, a := range h.ExtraAttributes() {
		if knownHotspotProps[a.Name] {
			continue
		}
		p.Fields = append(p.Fields, Field{a.Name, a.Value})
	}
	return p
}

// AlertPopup describes a user alert and offers to focus it
func AlertPopup(a models.UserAlert) Popup {
	return Popup{
		Kind:     PopupAlert,
		Key:      a.ID,
		Anchor:   orb.Point{a.Longitude, a.Latitude},
		Title:    a.Severity.Label() + " Alert",
		Subtitle: a.CreatedAt.Local().Format("Jan 2, 2006 15:04:05"),
		Color:    a.Severity.Color(),
		Badge:    a.Title,
		Body:     a.Message,
		Fields: []Field{
			{"Longitude", fmt.Sprintf("%.5f°", a.Longitude)},
			{"Latitude", fmt.Sprintf("%.5f°", a.Latitude)},
		},
		Action: "Focus Location",
	}
}

func formatAcqDate(s string) string {
	if s == "" {
		return "N/A"
	}
	t, ok := hotspots.ParseAcqDate(s)
	if !ok {
		return s
	}
	return t.Format("Jan 2, 2006")
}

// formatAcqTime turns an HHMM value into "HH:MM UTC"
func formatAcqTime(s string) string {
	if _, err := strconv.Atoi(s); err == nil && len(s) < 4 {
		s = strings.Repeat("0", 4-len(s)) + s
	}
	if len(s) != 4 {
		return orNA(s)
	}
	return s[:2] + ":" + s[2:] + " UTC"
}

func formatConfidence(s string) string {
	switch strings.ToLower(s) {
	case "high", "h":
		return "High"
	case "nominal", "n":
		return "Nominal"
	case "low", "l":
		return "Low"
	default:
		return orNA(s)
	}
}

func formatFloat(props map[string]interface{}, key, format string) string {
	switch v := props[key].(type) {
	case float64:
		return fmt.Sprintf(format, v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return fmt.Sprintf(format, f)
		}
	}
	return "N/A"
}

func propString(props map[string]interface{}, key string) string {
	switch v := props[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
