package domain

import (
	"strings"
	"time"
)

// ClinicalInput is the normalized record consumed by the classification
// procedures. It is built fresh for each evaluation and never retained.
// Every enum field may be absent; absent titers are nil.
type ClinicalInput struct {
	RPRResult        TestResult       `json:"rpr_result"`
	TreponemalTest   TestResult       `json:"treponemal_test"`
	TreatmentHistory TreatmentHistory `json:"treatment_history"`
	MaternalTiter    *Titer           `json:"maternal_titer"`
	InfantTiter      *Titer           `json:"infant_titer"`
	InfantExam       ExamResult       `json:"infant_exam"`
}

// HasBothTiters reports whether a fourfold comparison is possible.
func (c ClinicalInput) HasBothTiters() bool {
	return c.MaternalTiter != nil && c.InfantTiter != nil
}

// LogFields returns structured logging fields for audit trails.
func (c ClinicalInput) LogFields() map[string]any {
	fields := map[string]any{
		"rpr_result":        string(c.RPRResult),
		"treponemal_test":   string(c.TreponemalTest),
		"treatment_history": string(c.TreatmentHistory),
		"infant_exam":       string(c.InfantExam),
		"maternal_titer":    nil,
		"infant_titer":      nil,
	}
	if c.MaternalTiter != nil {
		fields["maternal_titer"] = c.MaternalTiter.String()
	}
	if c.InfantTiter != nil {
		fields["infant_titer"] = c.InfantTiter.String()
	}
	return fields
}

// TiterObservation is a single dated titer for one subject.
type TiterObservation struct {
	Date    time.Time `json:"date"`
	Titer   Titer     `json:"titer"`
	Subject Subject   `json:"subject"`
}

// TiterSeries is a sequence of observations for one subject in ascending
// date order.
type TiterSeries []TiterObservation

// Latest returns the titer of the most recent observation, or nil when the
// series is empty.
func (s TiterSeries) Latest() *Titer {
	if len(s) == 0 {
		return nil
	}
	return s[len(s)-1].Titer.Ptr()
}

// Max returns the largest titer in the series, or zero when empty.
func (s TiterSeries) Max() Titer {
	var max Titer
	for _, obs := range s {
		if obs.Titer > max {
			max = obs.Titer
		}
	}
	return max
}

// RawObservation is a titer observation as received from a form, API payload,
// or CLI flag. Titer may be a JSON number or a "1:N" string.
type RawObservation struct {
	Date  string `json:"date" yaml:"date"`
	Titer any    `json:"titer" yaml:"titer"`
}

// Observation date layouts accepted at the input boundary.
var observationDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseObservationDate parses a collection date in any accepted layout.
func ParseObservationDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range observationDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// TreatmentTimeline holds the delivery date and the weekly benzathine
// penicillin dose dates used for treatment-timing checks. Empty strings are
// absent.
type TreatmentTimeline struct {
	DeliveryDate string   `json:"delivery_date" yaml:"delivery_date"`
	DoseDates    []string `json:"dose_dates" yaml:"dose_dates"`
}
