package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

const (
	// AdequateTreatmentLeadDays is the minimum number of days between the
	// first dose and delivery for treatment timing to count as adequate.
	AdequateTreatmentLeadDays = 30

	// MaxDoseIntervalDays is the longest allowed gap between weekly doses
	// before the course must be restarted.
	MaxDoseIntervalDays = 9

	requiredDoses = 3
)

// AlertLevel grades a timing alert.
type AlertLevel string

const (
	AlertError   AlertLevel = "error"
	AlertWarning AlertLevel = "warning"
	AlertSuccess AlertLevel = "success"
)

// TimingAlert is an informational finding about maternal treatment timing.
type TimingAlert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
	Days    int        `json:"days,omitempty"`
}

// ValidateTreatmentTiming checks the first weekly dose against delivery and
// the spacing between doses. Doses are ordered by date before either check,
// so the entry order does not matter. It only runs once the delivery date and
// all three dose dates are present; otherwise it returns no alerts.
func ValidateTreatmentTiming(timeline domain.TreatmentTimeline) ([]TimingAlert, error) {
	if timeline.DeliveryDate == "" || len(timeline.DoseDates) < requiredDoses {
		return nil, nil
	}
	for _, d := range timeline.DoseDates[:requiredDoses] {
		if d == "" {
			return nil, nil
		}
	}

	delivery, err := domain.ParseObservationDate(timeline.DeliveryDate)
	if err != nil {
		return nil, fmt.Errorf("delivery date %q: %w", timeline.DeliveryDate, err)
	}

	doses := make([]time.Time, requiredDoses)
	for i := 0; i < requiredDoses; i++ {
		doses[i], err = domain.ParseObservationDate(timeline.DoseDates[i])
		if err != nil {
			return nil, fmt.Errorf("dose %d date %q: %w", i+1, timeline.DoseDates[i], err)
		}
	}
	sort.Slice(doses, func(i, j int) bool { return doses[i].Before(doses[j]) })

	var alerts []TimingAlert

	lead := daysBetween(doses[0], delivery)
	switch {
	case lead < 0:
		alerts = append(alerts, TimingAlert{
			Level:   AlertError,
			Title:   "Invalid treatment date",
			Message: "Treatment date cannot be after delivery date.",
			Days:    lead,
		})
	case lead < AdequateTreatmentLeadDays:
		alerts = append(alerts, TimingAlert{
			Level:   AlertWarning,
			Title:   "Treatment less than 30 days before delivery",
			Message: fmt.Sprintf("Treatment was given %d days before delivery, which is inadequate treatment timing.", lead),
			Days:    lead,
		})
	default:
		alerts = append(alerts, TimingAlert{
			Level:   AlertSuccess,
			Title:   "Adequate treatment timing",
			Message: fmt.Sprintf("Treatment was given %d days before delivery, meeting the 30-day requirement.", lead),
			Days:    lead,
		})
	}

	for i := 1; i < requiredDoses; i++ {
		if gap := daysBetween(doses[i-1], doses[i]); gap > MaxDoseIntervalDays {
			alerts = append(alerts, TimingAlert{
				Level:   AlertWarning,
				Title:   "Delay between treatments",
				Message: "A delay beyond 9 days between weekly doses requires restarting the course.",
				Days:    gap,
			})
			break
		}
	}

	return alerts, nil
}

// daysBetween returns the whole days from a to b, rounding down.
func daysBetween(a, b time.Time) int {
	return int(math.Floor(b.Sub(a).Hours() / 24))
}
