package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"github.com/geopulse/geopulse-terminal/internal/geolocation"
	"github.com/geopulse/geopulse-terminal/internal/ui"
)

// mockFeatures serves a generated collection instead of calling the API
type mockFeatures struct {
	center orb.Point
	now    time.Time
}

func (m mockFeatures) GetFeatures(ctx context.Context, _ string) (*geojson.FeatureCollection, error) {
	rng := rand.New(rand.NewPCG(7, 42))
	fc := geojson.NewFeatureCollection()
	for i := 0; i < 120; i++ {
		p := orb.Point{
			m.center.Lon() + rng.NormFloat64()*1.5,
			m.center.Lat() + rng.NormFloat64()*1.0,
		}
		f := geojson.NewFeature(p)
		f.ID = fmt.Sprintf("demo-%03d", i)
		f.Properties["acq_date"] = m.now.AddDate(0, 0, -rng.IntN(10)).Format("2006-01-02")
		f.Properties["acq_time"] = fmt.Sprintf("%02d%02d", rng.IntN(24), rng.IntN(60))
		f.Properties["frp"] = rng.ExpFloat64() * 6
		f.Properties["bright_ti4"] = 300 + rng.Float64()*60
		f.Properties["confidence"] = []string{"l", "n", "h"}[rng.IntN(3)]
		f.Properties["instrument"] = "VIIRS"
		f.Properties["satellite"] = "N"
		f.Properties["ct_en"] = "Thailand"
		fc.Append(f)
	}
	return fc, nil
}

// This demo shows the UI with generated hotspots around Bangkok
func main() {
	center := orb.Point{100.5, 13.75}

	m := ui.NewModel(context.Background(), ui.Deps{
		Client:       mockFeatures{center: center, now: time.Now().UTC()},
		CollectionID: "demo",
		Locator:      geolocation.Static{Longitude: center.Lon(), Latitude: center.Lat()},
		Logger:       zerolog.Nop(),
		Center:       center,
		Zoom:         7,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	final, err := p.Run()
	if fm, ok := final.(ui.Model); ok {
		fm.Close()
	}
	if err != nil {
		fmt.Printf("Error running demo: %v\n", err)
		os.Exit(1)
	}
}
