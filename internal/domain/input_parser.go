package domain

import (
	"fmt"
)

// RawClinicalInput is the clinical input as it arrives at an adapter
// boundary: free-form enum strings and titers that may be numbers or "1:N"
// strings.
type RawClinicalInput struct {
	RPRResult        string `json:"rpr_result" yaml:"rpr_result"`
	TreponemalTest   string `json:"treponemal_test" yaml:"treponemal_test"`
	TreatmentHistory string `json:"treatment_history" yaml:"treatment_history"`
	MaternalTiter    any    `json:"maternal_titer,omitempty" yaml:"maternal_titer"`
	InfantTiter      any    `json:"infant_titer,omitempty" yaml:"infant_titer"`
	InfantExam       string `json:"infant_exam" yaml:"infant_exam"`
}

// Normalize converts the raw input into a ClinicalInput. Normalization never
// fails: unrecognized enum values and malformed titers become absent, and a
// warning is returned for each so adapters can report them.
func (r RawClinicalInput) Normalize() (ClinicalInput, []string) {
	var warnings []string
	input := ClinicalInput{}

	var ok bool
	if input.RPRResult, ok = ParseTestResult(r.RPRResult); !ok {
		warnings = append(warnings, fmt.Sprintf("unrecognized rpr_result %q treated as absent", r.RPRResult))
	}
	if input.TreponemalTest, ok = ParseTestResult(r.TreponemalTest); !ok {
		warnings = append(warnings, fmt.Sprintf("unrecognized treponemal_test %q treated as absent", r.TreponemalTest))
	}
	if input.TreatmentHistory, ok = ParseTreatmentHistory(r.TreatmentHistory); !ok {
		warnings = append(warnings, fmt.Sprintf("unrecognized treatment_history %q treated as absent", r.TreatmentHistory))
	}
	if input.InfantExam, ok = ParseExamResult(r.InfantExam); !ok {
		warnings = append(warnings, fmt.Sprintf("unrecognized infant_exam %q treated as absent", r.InfantExam))
	}

	var err error
	if input.MaternalTiter, err = NormalizeOptionalTiter(r.MaternalTiter); err != nil {
		warnings = append(warnings, fmt.Sprintf("maternal_titer treated as absent: %v", err))
	}
	if input.InfantTiter, err = NormalizeOptionalTiter(r.InfantTiter); err != nil {
		warnings = append(warnings, fmt.Sprintf("infant_titer treated as absent: %v", err))
	}

	return input, warnings
}
