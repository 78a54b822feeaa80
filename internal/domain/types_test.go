package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTestResult(t *testing.T) {
	tests := []struct {
		input    string
		expected TestResult
		ok       bool
	}{
		{"reactive", ResultReactive, true},
		{" Reactive ", ResultReactive, true},
		{"nonreactive", ResultNonreactive, true},
		{"non-reactive", ResultNonreactive, true},
		{"", ResultAbsent, true},
		{"weakly", ResultAbsent, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseTestResult(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestParseTreatmentHistory(t *testing.T) {
	tests := []struct {
		input    string
		expected TreatmentHistory
		ok       bool
	}{
		{"adequate-before", TreatmentAdequateBefore, true},
		{"adequate_during", TreatmentAdequateDuring, true},
		{"INADEQUATE", TreatmentInadequate, true},
		{"", TreatmentAbsent, true},
		{"partial", TreatmentAbsent, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseTreatmentHistory(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestParseExamResult(t *testing.T) {
	got, ok := ParseExamResult("Abnormal")
	assert.Equal(t, ExamAbnormal, got)
	assert.True(t, ok)

	got, ok = ParseExamResult("unknown")
	assert.Equal(t, ExamAbsent, got)
	assert.False(t, ok)
}

func TestParseApproach(t *testing.T) {
	tests := []struct {
		input    string
		expected Approach
		wantErr  bool
	}{
		{"conventional", ApproachConventional, false},
		{"reverse", ApproachReverseSequence, false},
		{"reverse-sequence", ApproachReverseSequence, false},
		{"", "", true},
		{"traditional", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseApproach(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidApproach))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.True(t, got.IsValid())
		})
	}
}

func TestOutcomeCategory(t *testing.T) {
	for code := 0; code <= 6; code++ {
		assert.True(t, OutcomeCategory(code).IsValid(), "code %d", code)
	}
	assert.False(t, OutcomeCategory(7).IsValid())
	assert.False(t, OutcomeCategory(-1).IsValid())

	assert.Equal(t, "indeterminate", OutcomeIndeterminate.String())
	assert.Equal(t, "unknown(9)", OutcomeCategory(9).String())
	assert.True(t, OutcomeIndeterminate.RequiresEvaluation())
	assert.False(t, OutcomeUnlikely.RequiresEvaluation())

	fields := OutcomeProvenOrHighlyProbable.LogFields()
	assert.Equal(t, 0, fields["outcome_code"])
	assert.Equal(t, true, fields["requires_evaluation"])
}
