package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Provider records application metrics
type Provider interface {
	ObserveFetch(outcome string, d time.Duration)
	IncIconFallback(kind string)
	IncGeolocationErrors()
	IncGeocodeCacheHits()
	IncGeocodeCacheMisses()
	SetVisibleHotspots(n int)
	SetAlerts(n int)
	Handler() http.Handler
}

type promProvider struct {
	reg             *prometheus.Registry
	fetchTotal      *prometheus.CounterVec
	fetchDuration   prometheus.Histogram
	iconFallbacks   *prometheus.CounterVec
	geolocationErrs prometheus.Counter
	geocodeHits     prometheus.Counter
	geocodeMisses   prometheus.Counter
	visibleHotspots prometheus.Gauge
	alertsTotal     prometheus.Gauge
}

// New returns a prometheus-backed provider on its own registry, or a no-op
// provider when disabled.
func New(enabled bool) Provider {
	if !enabled {
		return Noop()
	}

	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &promProvider{
		reg: reg,
		fetchTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geopulse_fetch_total",
			Help: "Hotspot collection fetches by outcome",
		}, []string{"outcome"}),
		fetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "geopulse_fetch_duration_seconds",
			Help:    "Hotspot collection fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		iconFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geopulse_icon_fallbacks_total",
			Help: "Marker icons synthesized locally after a failed load",
		}, []string{"kind"}),
		geolocationErrs: f.NewCounter(prometheus.CounterOpts{
			Name: "geopulse_geolocation_errors_total",
			Help: "Failed geolocation attempts",
		}),
		geocodeHits: f.NewCounter(prometheus.CounterOpts{
			Name: "geopulse_geocode_cache_hits_total",
			Help: "Reverse geocode cache hits",
		}),
		geocodeMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "geopulse_geocode_cache_misses_total",
			Help: "Reverse geocode cache misses",
		}),
		visibleHotspots: f.NewGauge(prometheus.GaugeOpts{
			Name: "geopulse_visible_hotspots",
			Help: "Hotspots left after the date filter",
		}),
		alertsTotal: f.NewGauge(prometheus.GaugeOpts{
			Name: "geopulse_user_alerts",
			Help: "User alerts placed in this session",
		}),
	}
}

func (p *promProvider) ObserveFetch(outcome string, d time.Duration) {
	p.fetchTotal.WithLabelValues(outcome).Inc()
	p.fetchDuration.Observe(d.Seconds())
}

func (p *promProvider) IncIconFallback(kind string) {
	p.iconFallbacks.WithLabelValues(kind).Inc()
}

func (p *promProvider) IncGeolocationErrors()  { p.geolocationErrs.Inc() }
func (p *promProvider) IncGeocodeCacheHits()   { p.geocodeHits.Inc() }
func (p *promProvider) IncGeocodeCacheMisses() { p.geocodeMisses.Inc() }

func (p *promProvider) SetVisibleHotspots(n int) { p.visibleHotspots.Set(float64(n)) }
func (p *promProvider) SetAlerts(n int)          { p.alertsTotal.Set(float64(n)) }

func (p *promProvider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{Registry: p.reg})
}

// Gatherer exposes the registry of an enabled provider, nil otherwise
func Gatherer(p Provider) prometheus.Gatherer {
	if pp, ok := p.(*promProvider); ok {
		return pp.reg
	}
	return nil
}

// Serve exposes /metrics on addr until ctx is done
func Serve(ctx context.Context, addr string, p Provider) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type noopMetrics struct{}

// Noop returns a provider that records nothing
func Noop() Provider { return noopMetrics{} }

func (noopMetrics) ObserveFetch(_ string, _ time.Duration) {}
func (noopMetrics) IncIconFallback(_ string)               {}
func (noopMetrics) IncGeolocationErrors()                  {}
func (noopMetrics) IncGeocodeCacheHits()                   {}
func (noopMetrics) IncGeocodeCacheMisses()                 {}
func (noopMetrics) SetVisibleHotspots(_ int)               {}
func (noopMetrics) SetAlerts(_ int)                        {}
func (noopMetrics) Handler() http.Handler                  { return http.NotFoundHandler() }
