package report

import (
	"sort"

	"github.com/paulmach/orb/geojson"

	"github.com/geopulse/geopulse-terminal/internal/models"
)

// DayBucket counts hotspots acquired on one calendar day
type DayBucket struct {
	Date  string // YYYY-MM-DD
	Count int
}

// Stats summarizes a set of day buckets
type Stats struct {
	Total   int
	Days    int
	Average float64
	Peak    DayBucket
}

// Aggregate counts features per acquisition day, ascending by date.
// Features without acq_date are skipped; longer values are cut to the day.
func Aggregate(fc *geojson.FeatureCollection) []DayBucket {
	if fc == nil {
		return nil
	}
	counts := make(map[string]int)
	for _, f := range fc.Features {
		d, ok := models.AcqDate(f)
		if !ok {
			continue
		}
		if len(d) > 10 {
			d = d[:10]
		}
		counts[d]++
	}

	buckets := make([]DayBucket, 0, len(counts))
	for date, n := range counts {
		buckets = append(buckets, DayBucket{Date: date, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Date < buckets[j].Date })
	return buckets
}

// Summarize computes totals over buckets. The earliest day wins a tie for
// peak. The second return value is false when there are no buckets.
func Summarize(buckets []DayBucket) (Stats, bool) {
	if len(buckets) == 0 {
		return Stats{}, false
	}
	s := Stats{Days: len(buckets), Peak: buckets[0]}
	for _, b := range buckets {
		s.Total += b.Count
		if b.Count > s.Peak.Count {
			s.Peak = b
		}
	}
	s.Average = float64(s.Total) / float64(s.Days)
	return s, true
}

// Report bundles everything needed to render the frequency panel
type Report struct {
	RangeLabel string
	Buckets    []DayBucket
	Stats      Stats
	HasStats   bool
	Chart      Chart
}

// Build aggregates fc and lays out the chart
func Build(fc *geojson.FeatureCollection, rangeLabel string) Report {
	buckets := Aggregate(fc)
	stats, ok := Summarize(buckets)
	return Report{
		RangeLabel: rangeLabel,
		Buckets:    buckets,
		Stats:      stats,
		HasStats:   ok,
		Chart:      NewChart(buckets),
	}
}
