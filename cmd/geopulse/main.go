package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"
	"github.com/robfig/cron/v3"

	"github.com/geopulse/geopulse-terminal/internal/basemap"
	"github.com/geopulse/geopulse-terminal/internal/config"
	"github.com/geopulse/geopulse-terminal/internal/database"
	"github.com/geopulse/geopulse-terminal/internal/export"
	"github.com/geopulse/geopulse-terminal/internal/geocoding"
	"github.com/geopulse/geopulse-terminal/internal/geolocation"
	"github.com/geopulse/geopulse-terminal/internal/icons"
	"github.com/geopulse/geopulse-terminal/internal/logging"
	"github.com/geopulse/geopulse-terminal/internal/metrics"
	"github.com/geopulse/geopulse-terminal/internal/ui"
	"github.com/geopulse/geopulse-terminal/internal/vallaris"
)

func main() {
	configPath := flag.String("config", "", "Path to the yaml config file (default config.yaml)")
	collection := flag.String("collection", "", "Hotspot collection id to load instead of the configured one")
	lat := flag.Float64("lat", math.NaN(), "Use a fixed latitude as your location (requires --lon)")
	lon := flag.Float64("lon", math.NaN(), "Use a fixed longitude as your location (requires --lat)")
	flag.Parse()

	// Validation logic: a static position needs both coordinates
	if math.IsNaN(*lat) != math.IsNaN(*lon) {
		fmt.Println("Error: --lat and --lon must be given together.")
		os.Exit(1)
	}

	conf, err := config.Load(*configPath, *configPath != "")
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *collection != "" {
		conf.API.CollectionID = *collection
	}
	if !math.IsNaN(*lat) {
		conf.Location.Source = "static"
		conf.Location.Latitude = *lat
		conf.Location.Longitude = *lon
		if err := config.Validate(conf); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	if err := run(conf); err != nil {
		fmt.Printf("Error running application: %v\n", err)
		os.Exit(1)
	}
}

func run(conf *config.Config) error {
	logger, closer, err := logging.New(logging.Options{
		Dir:   conf.Logger.Dir,
		Level: conf.Logger.Level,
		Mode:  os.FileMode(conf.Logger.Mode),
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("config", conf.Path).Str("collection", conf.API.CollectionID).Msg("starting")

	m := metrics.New(conf.Metrics.Enabled)
	if conf.Metrics.Enabled && conf.Metrics.Listen != "" {
		go func() {
			if err := metrics.Serve(ctx, conf.Metrics.Listen, m); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	client := vallaris.NewClient(conf.API.Key,
		vallaris.WithBaseURL(conf.API.BaseURL),
		vallaris.WithTimeout(conf.API.Timeout),
		vallaris.WithLogger(logging.Component(logger, "vallaris")),
		vallaris.WithMetrics(m),
	)

	geocoder := geocoding.NewGeocoder(
		geocoding.WithBaseURL(conf.Geocoding.BaseURL),
		geocoding.WithUserAgent(conf.Geocoding.UserAgent),
		geocoding.WithCache(geocoding.NewCache(conf.Geocoding.CacheSize, conf.Geocoding.CacheTTL)),
		geocoding.WithLogger(logging.Component(logger, "geocoding")),
		geocoding.WithMetrics(m),
	)

	deps := ui.Deps{
		Client:       client,
		CollectionID: conf.API.CollectionID,
		Locator:      newLocator(conf.Location, geocoder),
		LocateOptions: geolocation.Options{
			HighAccuracy: true,
			Timeout:      conf.Location.Timeout,
			MaximumAge:   conf.Location.MaximumAge,
		},
		WatchInterval: conf.Location.WatchInterval,
		Namer:         geocoder,
		Icons: icons.NewLoader(conf.Icons.FireURL, conf.Icons.SmokeURL, conf.Icons.Timeout,
			logging.Component(logger, "icons"), m),
		Exporter: export.New(conf.Export.Dir),
		Metrics:  m,
		Logger:   logging.Component(logger, "ui"),
		Center:   orb.Point{conf.Map.CenterLon, conf.Map.CenterLat},
		Zoom:     conf.Map.Zoom,
	}

	if conf.Basemap.Enabled {
		db, err := database.Open(conf.Basemap.DBPath)
		if err != nil {
			// the map still works without coastlines
			logger.Warn().Err(err).Str("path", conf.Basemap.DBPath).Msg("basemap disabled")
		} else {
			defer db.Close()
			store := basemap.NewStore(db)
			deps.Basemap = store
			deps.Provisioner = basemap.NewProvisioner(store, conf.Basemap.SourceURL,
				filepath.Dir(conf.Basemap.DBPath), logging.Component(logger, "basemap"))
		}
	}

	model := ui.NewModel(ctx, deps)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))

	if conf.Refresh.Schedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(conf.Refresh.Schedule, func() { p.Send(ui.RefreshMsg{}) }); err != nil {
			model.Close()
			return fmt.Errorf("refresh schedule %q: %w", conf.Refresh.Schedule, err)
		}
		c.Start()
		defer c.Stop()
		logger.Info().Str("schedule", conf.Refresh.Schedule).Msg("scheduled refresh enabled")
	}

	final, err := p.Run()
	if fm, ok := final.(ui.Model); ok {
		fm.Close()
	} else {
		model.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	logger.Info().Msg("stopped")
	return nil
}

// newLocator builds the configured position source; nil disables location
func newLocator(conf config.LocationConfig, geocoder *geocoding.Geocoder) geolocation.Locator {
	switch conf.Source {
	case "ip":
		return geolocation.NewCached(geolocation.NewIPLocator(conf.IPServiceURL, geocoding.DefaultUserAgent))
	case "static":
		return geolocation.Static{Longitude: conf.Longitude, Latitude: conf.Latitude}
	case "place":
		return geolocation.NewCached(geolocation.NewPlaceLocator(geocoder, conf.Place))
	default:
		return nil
	}
}
