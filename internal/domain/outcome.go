package domain

import "fmt"

// OutcomeCategory is the integer code produced by the classification
// procedures. The human-readable content for each code lives in an external
// category dataset; the engine only guarantees the code contract.
type OutcomeCategory int

const (
	OutcomeProvenOrHighlyProbable  OutcomeCategory = 0
	OutcomePossible                OutcomeCategory = 1
	OutcomeLessLikely              OutcomeCategory = 2
	OutcomeUnlikely                OutcomeCategory = 3
	OutcomeNoInfectionReverse      OutcomeCategory = 4
	OutcomeNoInfectionConventional OutcomeCategory = 5
	OutcomeIndeterminate           OutcomeCategory = 6
)

// IsValid reports whether the code is within the fixed 0-6 range.
func (o OutcomeCategory) IsValid() bool {
	return o >= OutcomeProvenOrHighlyProbable && o <= OutcomeIndeterminate
}

// Code returns the dataset key for the category.
func (o OutcomeCategory) Code() int {
	return int(o)
}

func (o OutcomeCategory) String() string {
	switch o {
	case OutcomeProvenOrHighlyProbable:
		return "proven_or_highly_probable"
	case OutcomePossible:
		return "possible"
	case OutcomeLessLikely:
		return "less_likely"
	case OutcomeUnlikely:
		return "unlikely"
	case OutcomeNoInfectionReverse:
		return "no_infection_reverse_sequence"
	case OutcomeNoInfectionConventional:
		return "no_infection_conventional"
	case OutcomeIndeterminate:
		return "indeterminate"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// RequiresEvaluation reports whether the category calls for infant workup.
// Indeterminate is treated conservatively.
func (o OutcomeCategory) RequiresEvaluation() bool {
	switch o {
	case OutcomeProvenOrHighlyProbable, OutcomePossible, OutcomeIndeterminate:
		return true
	default:
		return false
	}
}

// LogFields returns structured logging fields for audit trails.
func (o OutcomeCategory) LogFields() map[string]any {
	return map[string]any{
		"outcome_code":        int(o),
		"outcome":             o.String(),
		"is_valid":            o.IsValid(),
		"requires_evaluation": o.RequiresEvaluation(),
	}
}
