// Package domain contains the core entities for congenital syphilis outcome
// classification: maternal and infant laboratory results, treatment history,
// titer observations, and the fixed set of outcome categories.
//
// Reference: CDC Sexually Transmitted Infections Treatment Guidelines (2021),
// "Congenital Syphilis" evaluation and treatment scenarios.
package domain

import (
	"errors"
	"strings"
)

// TestResult is the result of a maternal serologic test (non-treponemal
// RPR/VDRL or treponemal). The empty value means the result was not supplied.
type TestResult string

const (
	ResultReactive    TestResult = "reactive"
	ResultNonreactive TestResult = "nonreactive"
	ResultAbsent      TestResult = ""
)

// TreatmentHistory describes maternal treatment adequacy relative to pregnancy.
type TreatmentHistory string

const (
	TreatmentAdequateBefore TreatmentHistory = "adequate-before"
	TreatmentAdequateDuring TreatmentHistory = "adequate-during"
	TreatmentInadequate     TreatmentHistory = "inadequate"
	TreatmentAbsent         TreatmentHistory = ""
)

// ExamResult is the infant physical examination finding.
type ExamResult string

const (
	ExamNormal   ExamResult = "normal"
	ExamAbnormal ExamResult = "abnormal"
	ExamAbsent   ExamResult = ""
)

// Approach selects which testing-order decision procedure is applied.
type Approach string

const (
	ApproachConventional    Approach = "conventional"
	ApproachReverseSequence Approach = "reverse"
)

// Subject identifies whose specimen a titer observation came from.
type Subject string

const (
	SubjectMaternal Subject = "maternal"
	SubjectInfant   Subject = "infant"
)

// Validation errors for clinical input integrity
var (
	ErrInvalidTiter    = errors.New("invalid titer")
	ErrInvalidApproach = errors.New("invalid testing approach")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidOutcome  = errors.New("invalid outcome category")
)

// ParseTestResult normalizes a test result as entered at an input boundary.
// Unrecognized values are reported with ok=false and read as absent.
func ParseTestResult(s string) (TestResult, bool) {
	switch normalizeToken(s) {
	case "":
		return ResultAbsent, true
	case "reactive", "positive":
		return ResultReactive, true
	case "nonreactive", "non-reactive", "negative":
		return ResultNonreactive, true
	default:
		return ResultAbsent, false
	}
}

// ParseTreatmentHistory normalizes a treatment history value.
func ParseTreatmentHistory(s string) (TreatmentHistory, bool) {
	switch normalizeToken(s) {
	case "":
		return TreatmentAbsent, true
	case "adequate-before", "adequate_before":
		return TreatmentAdequateBefore, true
	case "adequate-during", "adequate_during":
		return TreatmentAdequateDuring, true
	case "inadequate":
		return TreatmentInadequate, true
	default:
		return TreatmentAbsent, false
	}
}

// ParseExamResult normalizes an infant exam finding.
func ParseExamResult(s string) (ExamResult, bool) {
	switch normalizeToken(s) {
	case "":
		return ExamAbsent, true
	case "normal":
		return ExamNormal, true
	case "abnormal":
		return ExamAbnormal, true
	default:
		return ExamAbsent, false
	}
}

// ParseApproach resolves the decision procedure name. Unlike the clinical
// fields there is no absent branch: an evaluation must name its procedure.
func ParseApproach(s string) (Approach, error) {
	switch normalizeToken(s) {
	case "conventional":
		return ApproachConventional, nil
	case "reverse", "reverse-sequence", "reverse_sequence":
		return ApproachReverseSequence, nil
	default:
		return "", ErrInvalidApproach
	}
}

// IsValid reports whether the approach is one of the two known procedures.
func (a Approach) IsValid() bool {
	return a == ApproachConventional || a == ApproachReverseSequence
}

func (a Approach) String() string {
	return string(a)
}

// IsValid validates the subject.
func (s Subject) IsValid() bool {
	return s == SubjectMaternal || s == SubjectInfant
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
