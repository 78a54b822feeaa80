package service

import (
	"fmt"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

// ReinfectionAlert flags a fourfold or greater rise between consecutive
// maternal titers, which suggests reinfection or relapse.
type ReinfectionAlert struct {
	Earlier domain.TiterObservation `json:"earlier"`
	Later   domain.TiterObservation `json:"later"`
	Message string                  `json:"message"`
}

// DetectMaternalReinfection scans consecutive pairs of the date-ordered
// maternal series and returns the first fourfold rise, or nil. At least two
// observations are needed.
func DetectMaternalReinfection(maternal domain.TiterSeries) *ReinfectionAlert {
	if len(maternal) < 2 {
		return nil
	}

	series := sortedCopy(maternal)
	for i := 1; i < len(series); i++ {
		if IsFourfoldOrGreater(series[i].Titer, series[i-1].Titer) {
			return &ReinfectionAlert{
				Earlier: series[i-1],
				Later:   series[i],
				Message: fmt.Sprintf("Evidence of maternal reinfection or relapse: titer rose from %s on %s to %s on %s",
					series[i-1].Titer, series[i-1].Date.Format("2006-01-02"),
					series[i].Titer, series[i].Date.Format("2006-01-02")),
			}
		}
	}

	return nil
}
