package icons

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geopulse/geopulse-terminal/internal/metrics"
)

type countingMetrics struct {
	metrics.Provider
	fallbacks atomic.Int32
}

func (c *countingMetrics) IncIconFallback(string) { c.fallbacks.Add(1) }

func pngBytes(t *testing.T, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoader_LoadsPNG(t *testing.T) {
	blue := color.NRGBA{B: 0xff, A: 0xff}
	data := pngBytes(t, blue)
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer server.Close()

	m := &countingMetrics{Provider: metrics.Noop()}
	l := NewLoader(server.URL+"/fire.png", server.URL+"/smoke.png", time.Second, zerolog.Nop(), m)

	icon := l.Load(context.Background(), Fire)
	assert.False(t, icon.Fallback)
	assert.Equal(t, "#0000ff", icon.Tint)
	assert.Equal(t, 4, icon.Image.Bounds().Dx())

	l.Load(context.Background(), Fire)
	assert.Equal(t, int32(1), hits.Load(), "icons are loaded once")
	assert.Equal(t, int32(0), m.fallbacks.Load())
}

func TestLoader_FallsBackOnTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	m := &countingMetrics{Provider: metrics.Noop()}
	l := NewLoader(server.URL, server.URL, 30*time.Millisecond, zerolog.Nop(), m)

	icon := l.Load(context.Background(), Smoke)
	assert.True(t, icon.Fallback)
	assert.Equal(t, "#888888", icon.Tint)
	assert.Equal(t, FallbackSize, icon.Image.Bounds().Dx())
	assert.Equal(t, int32(1), m.fallbacks.Load())
}

func TestLoader_FallsBackOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	l := NewLoader(server.URL, "", time.Second, zerolog.Nop(), nil)
	icons := l.LoadAll(context.Background())

	assert.True(t, icons[Fire].Fallback)
	assert.Equal(t, "#ff4500", icons[Fire].Tint)
	assert.True(t, icons[Smoke].Fallback, "missing url falls back")
}

func TestFallback_Gradient(t *testing.T) {
	c := color.NRGBA{R: 0xff, G: 0x45, A: 0xff}
	img := Fallback(c, FallbackSize)

	center := img.NRGBAAt(32, 32)
	assert.Equal(t, uint8(0xff), center.A)
	assert.Equal(t, uint8(0x45), center.G)

	corner := img.NRGBAAt(0, 0)
	assert.Equal(t, uint8(0), corner.A, "corners lie outside the gradient")

	// between the solid disc (r <= 21.3) and the edge (r = 32)
	mid := img.NRGBAAt(32+26, 32)
	assert.Greater(t, mid.A, uint8(0))
	assert.Less(t, mid.A, uint8(0xcc))
}

func TestGradientAlpha(t *testing.T) {
	assert.Equal(t, uint8(0xff), gradientAlpha(0))
	assert.Equal(t, uint8(0xcc), gradientAlpha(0.5))
	assert.Equal(t, uint8(0), gradientAlpha(1))
}
