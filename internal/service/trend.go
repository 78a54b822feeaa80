package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

// DefaultAxisCeiling is the titer axis maximum used when no observation
// requires a larger bound.
const DefaultAxisCeiling domain.Titer = 256

// TrendPoint is one charted observation.
type TrendPoint struct {
	Date    time.Time      `json:"date"`
	Titer   domain.Titer   `json:"titer"`
	Subject domain.Subject `json:"subject"`
	Label   string         `json:"label"`
}

// TiterAxis describes the doubling-scale titer axis.
type TiterAxis struct {
	Min   domain.Titer   `json:"min"`
	Max   domain.Titer   `json:"max"`
	Ticks []domain.Titer `json:"ticks"`
}

// TrendData is the chart-ready combination of both subjects' series.
type TrendData struct {
	Combined          []TrendPoint  `json:"combined"`
	LatestMaternal    *domain.Titer `json:"latest_maternal"`
	FourfoldReference *float64      `json:"fourfold_reference"`
	Axis              TiterAxis     `json:"axis"`
}

// PrepareTrend merges maternal and infant series into one date-ordered list
// and computes the fourfold reference line (latest maternal titer / 4). The
// reference is nil when there is no maternal data. Observations sharing a date
// remain separate points, maternal first.
func PrepareTrend(maternal, infant domain.TiterSeries) TrendData {
	maternal = sortedCopy(maternal)
	infant = sortedCopy(infant)

	combined := make([]TrendPoint, 0, len(maternal)+len(infant))
	for _, obs := range maternal {
		combined = append(combined, newTrendPoint(obs, domain.SubjectMaternal))
	}
	for _, obs := range infant {
		combined = append(combined, newTrendPoint(obs, domain.SubjectInfant))
	}
	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Date.Before(combined[j].Date)
	})

	data := TrendData{
		Combined:       combined,
		LatestMaternal: maternal.Latest(),
		Axis:           titerAxis(maxTiter(maternal.Max(), infant.Max())),
	}

	if data.LatestMaternal != nil {
		ref := float64(*data.LatestMaternal) / FourfoldFactor
		data.FourfoldReference = &ref
	}

	return data
}

func newTrendPoint(obs domain.TiterObservation, subject domain.Subject) TrendPoint {
	name := string(subject)
	return TrendPoint{
		Date:    obs.Date,
		Titer:   obs.Titer,
		Subject: subject,
		Label:   fmt.Sprintf("%s%s (%s)", strings.ToUpper(name[:1]), name[1:], obs.Date.Format("2006-01-02")),
	}
}

func sortedCopy(series domain.TiterSeries) domain.TiterSeries {
	out := make(domain.TiterSeries, len(series))
	copy(out, series)
	SortSeries(out)
	return out
}

// titerAxis spans 1 up to the next power of two at or above the largest titer,
// never below DefaultAxisCeiling.
func titerAxis(largest domain.Titer) TiterAxis {
	ceiling := nextPowerOfTwo(largest)
	if ceiling < DefaultAxisCeiling {
		ceiling = DefaultAxisCeiling
	}

	axis := TiterAxis{Min: domain.MinTiter, Max: ceiling}
	for t := domain.MinTiter; t <= ceiling; t *= 2 {
		axis.Ticks = append(axis.Ticks, t)
	}
	return axis
}

func nextPowerOfTwo(t domain.Titer) domain.Titer {
	p := domain.MinTiter
	for p < t {
		p *= 2
	}
	return p
}

func maxTiter(a, b domain.Titer) domain.Titer {
	if a > b {
		return a
	}
	return b
}
