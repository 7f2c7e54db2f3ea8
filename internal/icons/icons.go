package icons

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/geopulse/geopulse-terminal/internal/metrics"
	"github.com/geopulse/geopulse-terminal/internal/timeout"
)

// Kind names a marker icon
type Kind string

const (
	Fire  Kind = "fire"
	Smoke Kind = "smoke"
)

// FallbackSize is the edge length of synthesized icons
const FallbackSize = 64

// DefaultTimeout bounds each icon download
const DefaultTimeout = 2 * time.Second

var fallbackColors = map[Kind]color.NRGBA{
	Fire:  {R: 0xff, G: 0x45, B: 0x00, A: 0xff},
	Smoke: {R: 0x88, G: 0x88, B: 0x88, A: 0xff},
}

var errNoURL = errors.New("no icon url configured")

// Icon is a loaded or synthesized marker image
type Icon struct {
	Kind     Kind
	Image    image.Image
	Tint     string // hex colour of the opaque pixels
	Fallback bool
}

// Loader fetches marker icons once and keeps them for the session
type Loader struct {
	urls       map[Kind]string
	timeout    time.Duration
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    metrics.Provider

	mu    sync.RWMutex
	icons map[Kind]Icon
}

// NewLoader creates a loader for the given icon URLs
func NewLoader(fireURL, smokeURL string, d time.Duration, logger zerolog.Logger, m metrics.Provider) *Loader {
	if d <= 0 {
		d = DefaultTimeout
	}
	if m == nil {
		m = metrics.Noop()
	}
	return &Loader{
		urls:       map[Kind]string{Fire: fireURL, Smoke: smokeURL},
		timeout:    d,
		httpClient: &http.Client{},
		logger:     logger,
		metrics:    m,
		icons:      make(map[Kind]Icon),
	}
}

// LoadAll loads every icon, falling back per icon on failure
func (l *Loader) LoadAll(ctx context.Context) map[Kind]Icon {
	out := make(map[Kind]Icon, 2)
	for _, k := range []Kind{Fire, Smoke} {
		out[k] = l.Load(ctx, k)
	}
	return out
}

// Load returns the icon of kind k. A failed or slow download never errors:
// a gradient icon in the kind's colour is synthesized instead.
func (l *Loader) Load(ctx context.Context, k Kind) Icon {
	l.mu.RLock()
	icon, ok := l.icons[k]
	l.mu.RUnlock()
	if ok {
		return icon
	}

	o := timeout.Run(ctx, l.timeout, func(ctx context.Context) (image.Image, error) {
		return l.fetch(ctx, l.urls[k])
	})
	if o.OK() {
		icon = Icon{Kind: k, Image: o.Value, Tint: Tint(o.Value)}
	} else {
		ev := l.logger.Warn()
		if errors.Is(o.Err, errNoURL) {
			ev = l.logger.Debug()
		}
		ev.Err(o.Err).Str("icon", string(k)).Bool("timed_out", o.TimedOut).Msg("icon load failed, using fallback")
		l.metrics.IncIconFallback(string(k))
		img := Fallback(fallbackColors[k], FallbackSize)
		icon = Icon{Kind: k, Image: img, Tint: Hex(fallbackColors[k]), Fallback: true}
	}

	l.mu.Lock()
	l.icons[k] = icon
	l.mu.Unlock()
	return icon
}

func (l *Loader) fetch(ctx context.Context, url string) (image.Image, error) {
	if url == "" {
		return nil, errNoURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "image/png")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch icon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("icon server returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read icon: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode icon: %w", err)
	}
	return img, nil
}

// Fallback draws a radial glow in c: opaque at the centre, 0xCC alpha half
// way out, transparent at the edge, with a solid disc of radius size/3.
func Fallback(c color.NRGBA, size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	half := float64(size) / 2
	inner := float64(size) / 3

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - half
			dy := float64(y) + 0.5 - half
			r := math.Hypot(dx, dy)

			px := c
			switch {
			case r <= inner:
				px.A = 0xff
			case r >= half:
				px.A = 0
			default:
				px.A = gradientAlpha(r / half)
			}
			img.SetNRGBA(x, y, px)
		}
	}
	return img
}

func gradientAlpha(t float64) uint8 {
	if t <= 0.5 {
		return uint8(math.Round(0xff + (0xcc-0xff)*(t/0.5)))
	}
	return uint8(math.Round(0xcc * (1 - (t-0.5)/0.5)))
}

// Tint averages the colour of the mostly opaque pixels of img
func Tint(img image.Image) string {
	var r, g, b, n uint64
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if px.A < 0x80 {
				continue
			}
			r += uint64(px.R)
			g += uint64(px.G)
			b += uint64(px.B)
			n++
		}
	}
	if n == 0 {
		return "#888888"
	}
	return Hex(color.NRGBA{R: uint8(r / n), G: uint8(g / n), B: uint8(b / n), A: 0xff})
}

// Hex formats a colour as #rrggbb
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
