package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultPath is used when no --config flag is given
const DefaultPath = "config.yaml"

// APIConfig points at the hotspot feature API. Key may be empty; requests
// then fail with a missing key error.
type APIConfig struct {
	BaseURL      string        `mapstructure:"baseUrl" validate:"required|fullUrl"`
	Key          string        `mapstructure:"key"`
	CollectionID string        `mapstructure:"collectionId" validate:"required"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Dir   string `mapstructure:"dir" validate:"required"`
	Mode  uint32 `mapstructure:"mode" validate:"required|uint"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

type RefreshConfig struct {
	// Cron spec, empty disables scheduled refresh
	Schedule string `mapstructure:"schedule"`
}

type LocationConfig struct {
	// Source is one of ip, static, place or none
	Source        string        `mapstructure:"source" validate:"required|in:ip,static,place,none"`
	Longitude     float64       `mapstructure:"longitude"`
	Latitude      float64       `mapstructure:"latitude"`
	Place         string        `mapstructure:"place"`
	IPServiceURL  string        `mapstructure:"ipServiceUrl" validate:"required|fullUrl"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"required|min:1"`
	WatchInterval time.Duration `mapstructure:"watchInterval" validate:"required|min:1"`
	MaximumAge    time.Duration `mapstructure:"maximumAge"`
}

type GeocodingConfig struct {
	BaseURL   string `mapstructure:"baseUrl" validate:"required|fullUrl"`
	UserAgent string `mapstructure:"userAgent" validate:"required"`
	// Cache size in megabytes, 0 disables the cache
	CacheSize int `mapstructure:"cacheSize" validate:"min:0"`
	CacheTTL  int `mapstructure:"cacheTtl" validate:"min:0"`
}

type BasemapConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	SourceURL string `mapstructure:"sourceUrl" validate:"required|fullUrl"`
	DBPath    string `mapstructure:"dbPath" validate:"required"`
}

type IconsConfig struct {
	FireURL  string        `mapstructure:"fireUrl"`
	SmokeURL string        `mapstructure:"smokeUrl"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"required|min:1"`
}

type MapConfig struct {
	CenterLon float64 `mapstructure:"centerLon"`
	CenterLat float64 `mapstructure:"centerLat"`
	Zoom      float64 `mapstructure:"zoom"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// Config is the full application configuration
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Refresh   RefreshConfig   `mapstructure:"refresh"`
	Location  LocationConfig  `mapstructure:"location"`
	Geocoding GeocodingConfig `mapstructure:"geocoding"`
	Basemap   BasemapConfig   `mapstructure:"basemap"`
	Icons     IconsConfig     `mapstructure:"icons"`
	Map       MapConfig       `mapstructure:"map"`
	Export    ExportConfig    `mapstructure:"export"`

	Path string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.baseUrl", "https://app.vallarismaps.com/core/api/features/1.1")
	v.SetDefault("api.key", "")
	v.SetDefault("api.collectionId", "68db604f6d325faa74ba5bbd")
	v.SetDefault("api.timeout", 30*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.dir", "logs")
	v.SetDefault("logger.mode", 0o644)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", "")

	v.SetDefault("refresh.schedule", "")

	v.SetDefault("location.source", "ip")
	v.SetDefault("location.longitude", 0.0)
	v.SetDefault("location.latitude", 0.0)
	v.SetDefault("location.place", "")
	v.SetDefault("location.ipServiceUrl", "https://ipapi.co/json/")
	v.SetDefault("location.timeout", 8*time.Second)
	v.SetDefault("location.watchInterval", 30*time.Second)
	v.SetDefault("location.maximumAge", 5*time.Second)

	v.SetDefault("geocoding.baseUrl", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoding.userAgent", "geopulse-terminal/1.0")
	v.SetDefault("geocoding.cacheSize", 1)
	v.SetDefault("geocoding.cacheTtl", 3600)

	v.SetDefault("basemap.enabled", true)
	v.SetDefault("basemap.sourceUrl", "https://naciscdn.org/naturalearth/110m/physical/ne_110m_coastline.zip")
	v.SetDefault("basemap.dbPath", filepath.Join("data", "geopulse.db"))

	v.SetDefault("icons.fireUrl", "")
	v.SetDefault("icons.smokeUrl", "")
	v.SetDefault("icons.timeout", 2*time.Second)

	v.SetDefault("map.centerLon", 122.0)
	v.SetDefault("map.centerLat", -10.0)
	v.SetDefault("map.zoom", 8.0)

	v.SetDefault("export.dir", "exports")
}

var envBindings = map[string]string{
	"api.key":           "GEOPULSE_API_KEY",
	"api.baseUrl":       "GEOPULSE_API_BASE_URL",
	"api.collectionId":  "GEOPULSE_COLLECTION_ID",
	"logger.level":      "GEOPULSE_LOG_LEVEL",
	"logger.dir":        "GEOPULSE_LOG_DIR",
	"metrics.enabled":   "GEOPULSE_METRICS_ENABLED",
	"metrics.listen":    "GEOPULSE_METRICS_LISTEN",
	"refresh.schedule":  "GEOPULSE_REFRESH_SCHEDULE",
	"location.source":   "GEOPULSE_LOCATION_SOURCE",
	"location.place":    "GEOPULSE_LOCATION_PLACE",
	"basemap.enabled":   "GEOPULSE_BASEMAP_ENABLED",
	"basemap.dbPath":    "GEOPULSE_DB_PATH",
	"icons.fireUrl":     "GEOPULSE_ICON_FIRE_URL",
	"icons.smokeUrl":    "GEOPULSE_ICON_SMOKE_URL",
	"geocoding.baseUrl": "GEOPULSE_GEOCODER_URL",
}

// Load reads .env (when present), the yaml file at path and GEOPULSE_*
// overrides, then validates the result. A missing file is only an error when
// the path was given explicitly.
func Load(path string, explicit bool) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		filename := filepath.Base(path)
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	conf.Path = path

	if err := Validate(&conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate checks struct tags and cross-field rules
func Validate(conf *Config) error {
	v := validate.Struct(conf)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %s", v.Errors.One())
	}

	switch conf.Location.Source {
	case "static":
		if conf.Location.Longitude < -180 || conf.Location.Longitude > 180 ||
			conf.Location.Latitude < -90 || conf.Location.Latitude > 90 {
			return fmt.Errorf("invalid config: static location %v,%v out of range",
				conf.Location.Longitude, conf.Location.Latitude)
		}
	case "place":
		if strings.TrimSpace(conf.Location.Place) == "" {
			return errors.New("invalid config: location.place is required for the place source")
		}
	}
	return nil
}
