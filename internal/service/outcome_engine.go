package service

import (
	"github.com/sirupsen/logrus"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

// OutcomeEngine applies the conventional and reverse-sequence decision
// procedures. The procedures themselves are pure; the engine adds audit
// logging around them.
type OutcomeEngine struct {
	logger *logrus.Logger
}

// NewOutcomeEngine creates a new outcome engine
func NewOutcomeEngine(logger *logrus.Logger) *OutcomeEngine {
	return &OutcomeEngine{logger: logger}
}

// Classify runs the procedure named by approach and logs the result.
func (e *OutcomeEngine) Classify(approach domain.Approach, input domain.ClinicalInput) domain.OutcomeCategory {
	outcome := Classify(approach, input)

	e.logger.WithFields(logrus.Fields(input.LogFields())).
		WithFields(logrus.Fields(outcome.LogFields())).
		WithField("approach", approach.String()).
		Debug("Classified clinical input")

	return outcome
}

// Classify dispatches on the explicit approach. An unknown approach cannot be
// classified and yields the indeterminate category.
func Classify(approach domain.Approach, input domain.ClinicalInput) domain.OutcomeCategory {
	switch approach {
	case domain.ApproachConventional:
		return ClassifyConventional(input)
	case domain.ApproachReverseSequence:
		return ClassifyReverseSequence(input)
	default:
		return domain.OutcomeIndeterminate
	}
}

// ClassifyConventional applies the non-treponemal-first procedure.
//
// The fourfold flag is computed before any branch and a missing titer reads
// as "not fourfold" rather than indeterminate. This differs from the
// reverse-sequence guard and is kept as-is pending clinical review.
func ClassifyConventional(input domain.ClinicalInput) domain.OutcomeCategory {
	fourfold := infantFourfoldRise(input.InfantTiter, input.MaternalTiter)

	switch input.TreponemalTest {
	case domain.ResultNonreactive:
		return domain.OutcomeNoInfectionConventional
	case domain.ResultReactive:
		return classifyReactive(input.TreatmentHistory, input.InfantExam, fourfold)
	default:
		return domain.OutcomeIndeterminate
	}
}

// ClassifyReverseSequence applies the treponemal-first procedure. Missing
// titers or a missing infant exam return indeterminate before any fourfold
// comparison is made.
func ClassifyReverseSequence(input domain.ClinicalInput) domain.OutcomeCategory {
	if input.RPRResult == domain.ResultNonreactive && input.TreponemalTest == domain.ResultNonreactive {
		return domain.OutcomeNoInfectionReverse
	}

	if !input.HasBothTiters() || input.InfantExam == domain.ExamAbsent {
		return domain.OutcomeIndeterminate
	}

	fourfold := IsFourfoldOrGreater(*input.InfantTiter, *input.MaternalTiter)

	if input.RPRResult == domain.ResultReactive || input.TreponemalTest == domain.ResultReactive {
		return classifyReactive(input.TreatmentHistory, input.InfantExam, fourfold)
	}

	return domain.OutcomeIndeterminate
}

// classifyReactive holds the treatment-history branching shared by both
// procedures once maternal serology is reactive.
func classifyReactive(history domain.TreatmentHistory, exam domain.ExamResult, fourfold bool) domain.OutcomeCategory {
	switch history {
	case domain.TreatmentAdequateBefore:
		return domain.OutcomeUnlikely

	case domain.TreatmentAdequateDuring:
		if fourfold {
			return domain.OutcomeProvenOrHighlyProbable
		}
		switch exam {
		case domain.ExamNormal:
			return domain.OutcomeLessLikely
		case domain.ExamAbnormal:
			return domain.OutcomeProvenOrHighlyProbable
		}

	case domain.TreatmentInadequate:
		if exam == domain.ExamAbnormal || fourfold {
			return domain.OutcomeProvenOrHighlyProbable
		}
		if exam == domain.ExamNormal {
			return domain.OutcomePossible
		}
	}

	return domain.OutcomeIndeterminate
}
