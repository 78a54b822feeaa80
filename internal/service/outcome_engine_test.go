package service

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

func titer(v int) *domain.Titer {
	t := domain.Titer(v)
	return &t
}

func TestClassifyConventional(t *testing.T) {
	tests := []struct {
		name     string
		input    domain.ClinicalInput
		expected domain.OutcomeCategory
	}{
		{
			name:     "Scenario A: treponemal nonreactive",
			input:    domain.ClinicalInput{TreponemalTest: domain.ResultNonreactive, TreatmentHistory: domain.TreatmentInadequate, InfantExam: domain.ExamAbnormal},
			expected: domain.OutcomeNoInfectionConventional,
		},
		{
			name: "Scenario B: adequate during with fourfold rise",
			input: domain.ClinicalInput{
				TreponemalTest: domain.ResultReactive, TreatmentHistory: domain.TreatmentAdequateDuring,
				MaternalTiter: titer(4), InfantTiter: titer(16),
			},
			expected: domain.OutcomeProvenOrHighlyProbable,
		},
		{
			name: "Scenario C: adequate during, equal titers, normal exam",
			input: domain.ClinicalInput{
				TreponemalTest: domain.ResultReactive, TreatmentHistory: domain.TreatmentAdequateDuring,
				MaternalTiter: titer(16), InfantTiter: titer(16), InfantExam: domain.ExamNormal,
			},
			expected: domain.OutcomeLessLikely,
		},
		{
			name:     "adequate before pregnancy",
			input:    domain.ClinicalInput{TreponemalTest: domain.ResultReactive, TreatmentHistory: domain.TreatmentAdequateBefore},
			expected: domain.OutcomeUnlikely,
		},
		{
			name:     "adequate during with abnormal exam",
			input:    domain.ClinicalInput{TreponemalTest: domain.ResultReactive, TreatmentHistory: domain.TreatmentAdequateDuring, InfantExam: domain.ExamAbnormal},
			expected: domain.OutcomeProvenOrHighlyProbable,
		},
		{
			name:     "adequate during with exam absent",
			input:    domain.ClinicalInput{TreponemalTest: domain.ResultReactive, TreatmentHistory: domain.TreatmentAdequateDuring},
			expected: domain.OutcomeIndeterminate,
		},
		{
			name: "inadequate with fourfold rise and normal exam",
			input: domain.ClinicalInput{
				TreponemalTest: domain.ResultReactive, TreatmentHistory: domain.TreatmentInadequate,
				MaternalTiter: titer(2), InfantTiter: titer(8), InfantExam: domain.ExamNormal,
			},
			expected: domain.OutcomeProvenOrHighlyProbable,
		},
		{
			name:     "inadequate with normal exam",
			input:    domain.ClinicalInput{TreponemalTest: domain.ResultReactive, TreatmentHistory: domain.TreatmentInadequate, InfantExam: domain.ExamNormal},
			expected: domain.OutcomePossible,
		},
		{
			name:     "inadequate with exam absent",
			input:    domain.ClinicalInput{TreponemalTest: domain.ResultReactive, TreatmentHistory: domain.TreatmentInadequate},
			expected: domain.OutcomeIndeterminate,
		},
		{
			name:     "treatment history absent",
			input:    domain.ClinicalInput{TreponemalTest: domain.ResultReactive, InfantExam: domain.ExamNormal},
			expected: domain.OutcomeIndeterminate,
		},
		{
			name:     "treponemal test absent",
			input:    domain.ClinicalInput{RPRResult: domain.ResultReactive, TreatmentHistory: domain.TreatmentAdequateBefore},
			expected: domain.OutcomeIndeterminate,
		},
		{
			name:     "rpr result is ignored",
			input:    domain.ClinicalInput{RPRResult: domain.ResultNonreactive, TreponemalTest: domain.ResultReactive, TreatmentHistory: domain.TreatmentAdequateBefore},
			expected: domain.OutcomeUnlikely,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyConventional(tt.input))
		})
	}
}

func TestClassifyConventional_MissingTiterReadsAsNotFourfold(t *testing.T) {
	// Infant titer would be a fourfold rise, but the maternal titer is missing.
	input := domain.ClinicalInput{
		TreponemalTest:   domain.ResultReactive,
		TreatmentHistory: domain.TreatmentAdequateDuring,
		InfantTiter:      titer(64),
		InfantExam:       domain.ExamNormal,
	}

	assert.Equal(t, domain.OutcomeLessLikely, ClassifyConventional(input))
	assert.Equal(t, domain.OutcomeIndeterminate, ClassifyReverseSequence(domain.ClinicalInput{
		RPRResult:        domain.ResultReactive,
		TreponemalTest:   input.TreponemalTest,
		TreatmentHistory: input.TreatmentHistory,
		InfantTiter:      input.InfantTiter,
		InfantExam:       input.InfantExam,
	}))
}

func TestClassifyReverseSequence(t *testing.T) {
	tests := []struct {
		name     string
		input    domain.ClinicalInput
		expected domain.OutcomeCategory
	}{
		{
			name:     "Scenario D: both nonreactive regardless of titers",
			input:    domain.ClinicalInput{RPRResult: domain.ResultNonreactive, TreponemalTest: domain.ResultNonreactive, MaternalTiter: titer(1), InfantTiter: titer(64)},
			expected: domain.OutcomeNoInfectionReverse,
		},
		{
			name:     "Scenario E: maternal titer absent",
			input:    domain.ClinicalInput{RPRResult: domain.ResultReactive, TreatmentHistory: domain.TreatmentAdequateBefore, InfantTiter: titer(4), InfantExam: domain.ExamNormal},
			expected: domain.OutcomeIndeterminate,
		},
		{
			name:     "infant exam absent",
			input:    domain.ClinicalInput{RPRResult: domain.ResultReactive, TreatmentHistory: domain.TreatmentAdequateBefore, MaternalTiter: titer(4), InfantTiter: titer(4)},
			expected: domain.OutcomeIndeterminate,
		},
		{
			name: "rpr reactive, adequate before",
			input: domain.ClinicalInput{
				RPRResult: domain.ResultReactive, TreatmentHistory: domain.TreatmentAdequateBefore,
				MaternalTiter: titer(4), InfantTiter: titer(4), InfantExam: domain.ExamNormal,
			},
			expected: domain.OutcomeUnlikely,
		},
		{
			name: "treponemal reactive only, adequate during, fourfold",
			input: domain.ClinicalInput{
				RPRResult: domain.ResultNonreactive, TreponemalTest: domain.ResultReactive, TreatmentHistory: domain.TreatmentAdequateDuring,
				MaternalTiter: titer(8), InfantTiter: titer(32), InfantExam: domain.ExamNormal,
			},
			expected: domain.OutcomeProvenOrHighlyProbable,
		},
		{
			name: "adequate during, no fourfold, normal exam",
			input: domain.ClinicalInput{
				RPRResult: domain.ResultReactive, TreatmentHistory: domain.TreatmentAdequateDuring,
				MaternalTiter: titer(16), InfantTiter: titer(32), InfantExam: domain.ExamNormal,
			},
			expected: domain.OutcomeLessLikely,
		},
		{
			name: "inadequate, abnormal exam",
			input: domain.ClinicalInput{
				RPRResult: domain.ResultReactive, TreatmentHistory: domain.TreatmentInadequate,
				MaternalTiter: titer(16), InfantTiter: titer(4), InfantExam: domain.ExamAbnormal,
			},
			expected: domain.OutcomeProvenOrHighlyProbable,
		},
		{
			name: "inadequate, normal exam",
			input: domain.ClinicalInput{
				TreponemalTest: domain.ResultReactive, TreatmentHistory: domain.TreatmentInadequate,
				MaternalTiter: titer(16), InfantTiter: titer(4), InfantExam: domain.ExamNormal,
			},
			expected: domain.OutcomePossible,
		},
		{
			name: "both tests absent with complete data",
			input: domain.ClinicalInput{
				TreatmentHistory: domain.TreatmentAdequateBefore,
				MaternalTiter:    titer(16), InfantTiter: titer(4), InfantExam: domain.ExamNormal,
			},
			expected: domain.OutcomeIndeterminate,
		},
		{
			name: "one nonreactive, one absent",
			input: domain.ClinicalInput{
				RPRResult: domain.ResultNonreactive, TreatmentHistory: domain.TreatmentAdequateBefore,
				MaternalTiter: titer(16), InfantTiter: titer(4), InfantExam: domain.ExamNormal,
			},
			expected: domain.OutcomeIndeterminate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyReverseSequence(tt.input))
		})
	}
}

func TestClassify_IsTotalOverAllInputs(t *testing.T) {
	results := []domain.TestResult{domain.ResultReactive, domain.ResultNonreactive, domain.ResultAbsent}
	histories := []domain.TreatmentHistory{domain.TreatmentAdequateBefore, domain.TreatmentAdequateDuring, domain.TreatmentInadequate, domain.TreatmentAbsent}
	exams := []domain.ExamResult{domain.ExamNormal, domain.ExamAbnormal, domain.ExamAbsent}
	titers := []*domain.Titer{nil, titer(1), titer(4), titer(16), titer(1024)}

	count := 0
	for _, rpr := range results {
		for _, trep := range results {
			for _, history := range histories {
				for _, exam := range exams {
					for _, mt := range titers {
						for _, it := range titers {
							input := domain.ClinicalInput{
								RPRResult: rpr, TreponemalTest: trep, TreatmentHistory: history,
								MaternalTiter: mt, InfantTiter: it, InfantExam: exam,
							}
							for _, approach := range []domain.Approach{domain.ApproachConventional, domain.ApproachReverseSequence} {
								var got domain.OutcomeCategory
								assert.NotPanics(t, func() { got = Classify(approach, input) })
								assert.True(t, got.IsValid(), "approach %s input %+v gave %d", approach, input, got)
								assert.Equal(t, got, Classify(approach, input), "classification must be idempotent")
								count++
							}
						}
					}
				}
			}
		}
	}
	assert.Equal(t, 3*3*4*3*5*5*2, count)
}

func TestClassify_UnknownApproach(t *testing.T) {
	input := domain.ClinicalInput{TreponemalTest: domain.ResultNonreactive}
	assert.Equal(t, domain.OutcomeIndeterminate, Classify(domain.Approach("sideways"), input))
}

func TestOutcomeEngine_Classify(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	engine := NewOutcomeEngine(logger)

	input := domain.ClinicalInput{RPRResult: domain.ResultNonreactive, TreponemalTest: domain.ResultNonreactive}

	assert.Equal(t, domain.OutcomeNoInfectionReverse, engine.Classify(domain.ApproachReverseSequence, input))
	assert.Equal(t, domain.OutcomeNoInfectionConventional, engine.Classify(domain.ApproachConventional, input))
}
