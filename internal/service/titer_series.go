package service

import (
	"sort"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

// SeriesResult is a subject's titer series in chronological order together
// with its most recent titer.
type SeriesResult struct {
	Subject domain.Subject     `json:"subject"`
	Sorted  domain.TiterSeries `json:"sorted"`
	Latest  *domain.Titer      `json:"latest"`
	Dropped int                `json:"dropped"`
}

// ProcessSeries parses raw observations for one subject, drops any entry
// missing a parseable date or titer, and orders the rest by collection date.
// Partial entries are not errors.
func ProcessSeries(subject domain.Subject, observations []domain.RawObservation) SeriesResult {
	parsed := make([]domain.TiterObservation, 0, len(observations))
	dropped := 0

	for _, raw := range observations {
		date, err := domain.ParseObservationDate(raw.Date)
		if err != nil {
			dropped++
			continue
		}
		titer, err := domain.ParseTiter(raw.Titer)
		if err != nil {
			dropped++
			continue
		}
		parsed = append(parsed, domain.TiterObservation{Date: date, Titer: titer, Subject: subject})
	}

	result := ProcessObservations(subject, parsed)
	result.Dropped += dropped
	return result
}

// ProcessObservations orders already-typed observations for one subject.
// Observations with a zero date, an invalid titer, or another subject's tag
// are dropped.
func ProcessObservations(subject domain.Subject, observations []domain.TiterObservation) SeriesResult {
	series := make(domain.TiterSeries, 0, len(observations))
	dropped := 0

	for _, obs := range observations {
		if obs.Date.IsZero() || !obs.Titer.IsValid() {
			dropped++
			continue
		}
		if obs.Subject != "" && obs.Subject != subject {
			dropped++
			continue
		}
		obs.Subject = subject
		series = append(series, obs)
	}

	SortSeries(series)

	return SeriesResult{
		Subject: subject,
		Sorted:  series,
		Latest:  series.Latest(),
		Dropped: dropped,
	}
}

// SortSeries orders a series by ascending date in place. The sort is stable:
// observations sharing a date keep their input order.
func SortSeries(series domain.TiterSeries) {
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
}
