package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

// EvaluationRequest is a single submission: the selected approach, the
// clinical fields, and the raw maternal and infant titer observations.
type EvaluationRequest struct {
	Approach       string                    `json:"approach" yaml:"approach"`
	Input          domain.RawClinicalInput   `json:"input" yaml:"input"`
	MaternalTiters []domain.RawObservation   `json:"maternal_titers,omitempty" yaml:"maternal_titers"`
	InfantTiters   []domain.RawObservation   `json:"infant_titers,omitempty" yaml:"infant_titers"`
	Treatment      *domain.TreatmentTimeline `json:"treatment,omitempty" yaml:"treatment"`
}

// EvaluationResult is everything a renderer needs for one submission.
type EvaluationResult struct {
	EvaluationID    string                 `json:"evaluation_id"`
	Approach        domain.Approach        `json:"approach"`
	Input           domain.ClinicalInput   `json:"input"`
	Outcome         domain.OutcomeCategory `json:"outcome"`
	OutcomeLabel    string                 `json:"outcome_label"`
	Recommendations domain.DisplayContent  `json:"recommendations"`
	Maternal        SeriesResult           `json:"maternal"`
	Infant          SeriesResult           `json:"infant"`
	Trend           TrendData              `json:"trend"`
	Reinfection     *ReinfectionAlert      `json:"reinfection,omitempty"`
	TimingAlerts    []TimingAlert          `json:"timing_alerts,omitempty"`
	Warnings        []string               `json:"warnings,omitempty"`
	ProcessingTime  time.Duration          `json:"processing_time"`
}

// EvaluationService runs the full pipeline: titer series processing,
// classification, category lookup, and trend preparation. It holds no
// per-evaluation state and is safe for concurrent use.
type EvaluationService struct {
	logger *logrus.Logger
	engine *OutcomeEngine
	lookup *CategoryLookup
}

// NewEvaluationService creates a new evaluation service
func NewEvaluationService(logger *logrus.Logger, source domain.CategorySource) *EvaluationService {
	return &EvaluationService{
		logger: logger,
		engine: NewOutcomeEngine(logger),
		lookup: NewCategoryLookup(source, logger),
	}
}

// Engine returns the outcome engine used by the service.
func (s *EvaluationService) Engine() *OutcomeEngine {
	return s.engine
}

// Lookup returns the category lookup used by the service.
func (s *EvaluationService) Lookup() *CategoryLookup {
	return s.lookup
}

// Evaluate classifies one submission. The only request error is an invalid
// approach; every other gap in the input routes to the indeterminate category
// or to fallback content.
func (s *EvaluationService) Evaluate(ctx context.Context, req *EvaluationRequest) (*EvaluationResult, error) {
	startTime := time.Now()

	if req == nil {
		return nil, domain.NewValidationError("request", "request body is required", nil)
	}

	approach, err := domain.ParseApproach(req.Approach)
	if err != nil {
		return nil, fmt.Errorf("invalid input parameters: %w",
			domain.NewValidationError("approach", "must be conventional or reverse", req.Approach))
	}

	result := &EvaluationResult{
		EvaluationID: uuid.New().String(),
		Approach:     approach,
	}

	logger := s.logger.WithFields(logrus.Fields{
		"evaluation_id": result.EvaluationID,
		"approach":      approach.String(),
	})
	logger.Info("Starting outcome evaluation")

	// Step 1: Normalize the clinical fields
	input, warnings := req.Input.Normalize()
	result.Warnings = append(result.Warnings, warnings...)

	// Step 2: Process titer series; series values take precedence over
	// explicit titers whenever a series was submitted
	result.Maternal = ProcessSeries(domain.SubjectMaternal, req.MaternalTiters)
	result.Infant = ProcessSeries(domain.SubjectInfant, req.InfantTiters)
	if len(req.MaternalTiters) > 0 {
		input.MaternalTiter = result.Maternal.Latest
	}
	if len(req.InfantTiters) > 0 {
		input.InfantTiter = result.Infant.Latest
	}
	if dropped := result.Maternal.Dropped + result.Infant.Dropped; dropped > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d incomplete titer observation(s) ignored", dropped))
	}
	result.Input = input

	// Step 3: Classify
	result.Outcome = s.engine.Classify(approach, input)
	result.OutcomeLabel = result.Outcome.String()

	// Step 4: Resolve display content
	result.Recommendations = s.lookup.Resolve(ctx, result.Outcome)

	// Step 5: Chart data and informational checks
	result.Trend = PrepareTrend(result.Maternal.Sorted, result.Infant.Sorted)
	result.Reinfection = DetectMaternalReinfection(result.Maternal.Sorted)

	if req.Treatment != nil {
		alerts, err := ValidateTreatmentTiming(*req.Treatment)
		if err != nil {
			logger.WithError(err).Debug("Skipping treatment timing check")
			result.Warnings = append(result.Warnings, fmt.Sprintf("treatment timing not checked: %v", err))
		}
		result.TimingAlerts = alerts
	}

	for _, w := range result.Warnings {
		logger.WithField("warning", w).Debug("Input normalization warning")
	}

	result.ProcessingTime = time.Since(startTime)

	logger.WithFields(logrus.Fields{
		"outcome_code":    result.Outcome.Code(),
		"outcome":         result.OutcomeLabel,
		"lookup_status":   result.Recommendations.Status,
		"warnings":        len(result.Warnings),
		"processing_time": result.ProcessingTime,
	}).Info("Outcome evaluation completed")

	return result, nil
}
