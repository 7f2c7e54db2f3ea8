package hotspots

import "fmt"

// Bucket is an intensity class derived from fire radiative power
type Bucket int

const (
	BucketUnknown  Bucket = iota
	BucketVeryLow         // < 2
	BucketLow             // < 4
	BucketModerate        // < 6
	BucketElevated        // < 8
	BucketHigh            // < 12
	BucketExtreme         // >= 12
)

// Kind is the marker family used to draw a hotspot
type Kind int

const (
	KindUnknown Kind = iota
	KindSmoke
	KindFire
)

// Style describes how a bucket is drawn
type Style struct {
	Bucket Bucket
	Kind   Kind
	Color  string // hex
	Glyph  string
	Label  string
	Level  string
}

var styles = map[Bucket]Style{
	BucketUnknown:  {BucketUnknown, KindUnknown, "#64748b", "?", "Unknown", "Unknown"},
	BucketVeryLow:  {BucketVeryLow, KindSmoke, "#16a34a", "≈", "FRP < 2", "Very Low"},
	BucketLow:      {BucketLow, KindSmoke, "#84cc16", "≈", "FRP 2-4", "Low"},
	BucketModerate: {BucketModerate, KindFire, "#eab308", "▲", "FRP 4-6", "Medium"},
	BucketElevated: {BucketElevated, KindFire, "#f97316", "▲", "FRP 6-8", "High"},
	BucketHigh:     {BucketHigh, KindFire, "#dc2626", "▲", "FRP 8-12", "Very High"},
	BucketExtreme:  {BucketExtreme, KindFire, "#e11d48", "▲", "FRP ≥ 12", "Extreme"},
}

// Buckets lists every bucket in ascending order, for legends
var Buckets = []Bucket{
	BucketUnknown, BucketVeryLow, BucketLow, BucketModerate,
	BucketElevated, BucketHigh, BucketExtreme,
}

// BucketFor maps a fire radiative power value to its bucket. Lower bounds are
// closed, so 2.0 lands in BucketLow.
func BucketFor(frp float64, ok bool) Bucket {
	switch {
	case !ok:
		return BucketUnknown
	case frp < 2:
		return BucketVeryLow
	case frp < 4:
		return BucketLow
	case frp < 6:
		return BucketModerate
	case frp < 8:
		return BucketElevated
	case frp < 12:
		return BucketHigh
	default:
		return BucketExtreme
	}
}

// Classify returns the drawing style for a fire radiative power value
func Classify(frp float64, ok bool) Style {
	return styles[BucketFor(frp, ok)]
}

// StyleOf returns the style of a bucket
func StyleOf(b Bucket) Style {
	s, ok := styles[b]
	if !ok {
		return styles[BucketUnknown]
	}
	return s
}

func (k Kind) String() string {
	switch k {
	case KindSmoke:
		return "smoke"
	case KindFire:
		return "fire"
	default:
		return "unknown"
	}
}

func (b Bucket) String() string {
	if s, ok := styles[b]; ok {
		return s.Label
	}
	return fmt.Sprintf("Bucket(%d)", int(b))
}
