package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
	"github.com/congenital-syphilis-mcp-server/internal/logging"
	"github.com/congenital-syphilis-mcp-server/internal/service"
)

// ClinicalParams are the clinical fields shared by the classification tools.
type ClinicalParams struct {
	RPRResult        string `json:"rpr_result,omitempty" jsonschema:"maternal nontreponemal (RPR) result: reactive or nonreactive"`
	TreponemalTest   string `json:"treponemal_test,omitempty" jsonschema:"maternal treponemal test result: reactive or nonreactive"`
	TreatmentHistory string `json:"treatment_history,omitempty" jsonschema:"maternal treatment: adequate-before, adequate-during, or inadequate"`
	MaternalTiter    string `json:"maternal_titer,omitempty" jsonschema:"maternal nontreponemal titer at delivery, e.g. 1:16"`
	InfantTiter      string `json:"infant_titer,omitempty" jsonschema:"infant nontreponemal titer, e.g. 1:64"`
	InfantExam       string `json:"infant_exam,omitempty" jsonschema:"infant physical examination: normal or abnormal"`
}

func (p ClinicalParams) raw() domain.RawClinicalInput {
	raw := domain.RawClinicalInput{
		RPRResult:        p.RPRResult,
		TreponemalTest:   p.TreponemalTest,
		TreatmentHistory: p.TreatmentHistory,
		InfantExam:       p.InfantExam,
	}
	if p.MaternalTiter != "" {
		raw.MaternalTiter = p.MaternalTiter
	}
	if p.InfantTiter != "" {
		raw.InfantTiter = p.InfantTiter
	}
	return raw
}

// ObservationParams is one dated titer.
type ObservationParams struct {
	Date  string `json:"date" jsonschema:"collection date, YYYY-MM-DD"`
	Titer string `json:"titer" jsonschema:"titer such as 1:8 or 8"`
}

func toRawObservations(in []ObservationParams) []domain.RawObservation {
	out := make([]domain.RawObservation, 0, len(in))
	for _, o := range in {
		out = append(out, domain.RawObservation{Date: o.Date, Titer: o.Titer})
	}
	return out
}

// EvaluateCaseParams defines parameters for the evaluate_case tool
type EvaluateCaseParams struct {
	Approach       string              `json:"approach" jsonschema:"screening procedure: conventional or reverse"`
	Clinical       ClinicalParams      `json:"clinical"`
	MaternalTiters []ObservationParams `json:"maternal_titers,omitempty" jsonschema:"maternal titer history; the latest value replaces maternal_titer"`
	InfantTiters   []ObservationParams `json:"infant_titers,omitempty" jsonschema:"infant titer history; the latest value replaces infant_titer"`
	DeliveryDate   string              `json:"delivery_date,omitempty" jsonschema:"delivery date for treatment timing checks"`
	DoseDates      []string            `json:"dose_dates,omitempty" jsonschema:"weekly benzathine penicillin dose dates"`
}

// ClassifyOutcomeParams defines parameters for the classify_outcome tool
type ClassifyOutcomeParams struct {
	Approach string         `json:"approach" jsonschema:"screening procedure: conventional or reverse"`
	Clinical ClinicalParams `json:"clinical"`
}

// ClassifyOutcomeResult defines the result structure for classify_outcome
type ClassifyOutcomeResult struct {
	Outcome            int      `json:"outcome"`
	OutcomeLabel       string   `json:"outcome_label"`
	RequiresEvaluation bool     `json:"requires_evaluation"`
	Warnings           []string `json:"warnings,omitempty"`
}

// CompareTitersParams defines parameters for the compare_titers tool
type CompareTitersParams struct {
	Infant   string `json:"infant" jsonschema:"infant titer, e.g. 1:64"`
	Maternal string `json:"maternal" jsonschema:"maternal titer, e.g. 1:16"`
}

// CompareTitersResult defines the result structure for compare_titers
type CompareTitersResult struct {
	Infant   string `json:"infant"`
	Maternal string `json:"maternal"`
	Fourfold bool   `json:"fourfold"`
}

// LookupCategoryParams defines parameters for the lookup_category tool
type LookupCategoryParams struct {
	Outcome int `json:"outcome" jsonschema:"outcome code between 0 and 6"`
}

// PrepareTrendParams defines parameters for the prepare_trend tool
type PrepareTrendParams struct {
	MaternalTiters []ObservationParams `json:"maternal_titers,omitempty"`
	InfantTiters   []ObservationParams `json:"infant_titers,omitempty"`
}

// PrepareTrendResult defines the result structure for prepare_trend
type PrepareTrendResult struct {
	service.TrendData
	Reinfection *service.ReinfectionAlert `json:"reinfection,omitempty"`
}

// handleEvaluateCase handles the evaluate_case tool invocation
func (s *LiteServer) handleEvaluateCase(ctx context.Context, req *mcp.CallToolRequest, params EvaluateCaseParams) (*mcp.CallToolResult, any, error) {
	ctx, opID := s.ops.StartOperation(ctx, logging.OperationToolCall, "evaluate_case", map[string]interface{}{"approach": params.Approach})

	evalReq := &service.EvaluationRequest{
		Approach:       params.Approach,
		Input:          params.Clinical.raw(),
		MaternalTiters: toRawObservations(params.MaternalTiters),
		InfantTiters:   toRawObservations(params.InfantTiters),
	}
	if params.DeliveryDate != "" || len(params.DoseDates) > 0 {
		evalReq.Treatment = &domain.TreatmentTimeline{DeliveryDate: params.DeliveryDate, DoseDates: params.DoseDates}
	}

	result, err := s.evaluator.Evaluate(ctx, evalReq)
	s.ops.EndOperation(ctx, opID, err)
	if err != nil {
		return s.createErrorResult("Invalid evaluation request", err), nil, nil
	}

	var summary strings.Builder
	fmt.Fprintf(&summary, "Outcome %d (%s): %s", result.Outcome.Code(), result.OutcomeLabel, result.Recommendations.Name)
	if result.Reinfection != nil {
		fmt.Fprintf(&summary, "\n%s", result.Reinfection.Message)
	}
	for _, alert := range result.TimingAlerts {
		fmt.Fprintf(&summary, "\n[%s] %s: %s", alert.Level, alert.Title, alert.Message)
	}

	return s.createResult(summary.String(), result), result, nil
}

// handleClassifyOutcome handles the classify_outcome tool invocation
func (s *LiteServer) handleClassifyOutcome(ctx context.Context, req *mcp.CallToolRequest, params ClassifyOutcomeParams) (*mcp.CallToolResult, any, error) {
	ctx, opID := s.ops.StartOperation(ctx, logging.OperationToolCall, "classify_outcome", map[string]interface{}{"approach": params.Approach})

	approach, err := domain.ParseApproach(params.Approach)
	s.ops.EndOperation(ctx, opID, err)
	if err != nil {
		return s.createErrorResult("approach must be conventional or reverse", err), nil, nil
	}

	input, warnings := params.Clinical.raw().Normalize()
	outcome := s.evaluator.Engine().Classify(approach, input)

	result := ClassifyOutcomeResult{
		Outcome:            outcome.Code(),
		OutcomeLabel:       outcome.String(),
		RequiresEvaluation: outcome.RequiresEvaluation(),
		Warnings:           warnings,
	}
	return s.createResult(fmt.Sprintf("Outcome %d (%s)", result.Outcome, result.OutcomeLabel), result), result, nil
}

// handleCompareTiters handles the compare_titers tool invocation
func (s *LiteServer) handleCompareTiters(ctx context.Context, req *mcp.CallToolRequest, params CompareTitersParams) (*mcp.CallToolResult, any, error) {
	fourfold, err := service.IsFourfoldOrGreaterRaw(params.Infant, params.Maternal)
	if err != nil {
		return s.createErrorResult("Invalid titer", err), nil, nil
	}

	result := CompareTitersResult{Infant: params.Infant, Maternal: params.Maternal, Fourfold: fourfold}
	verdict := "is not"
	if fourfold {
		verdict = "is"
	}
	return s.createResult(fmt.Sprintf("Infant titer %s %s fourfold or greater than maternal titer %s", params.Infant, verdict, params.Maternal), result), result, nil
}

// handleLookupCategory handles the lookup_category tool invocation
func (s *LiteServer) handleLookupCategory(ctx context.Context, req *mcp.CallToolRequest, params LookupCategoryParams) (*mcp.CallToolResult, any, error) {
	code := domain.OutcomeCategory(params.Outcome)
	if !code.IsValid() {
		return s.createErrorResult("Invalid outcome", fmt.Errorf("%w: %d", domain.ErrInvalidOutcome, params.Outcome)), nil, nil
	}

	content := s.evaluator.Lookup().Resolve(ctx, code)
	return s.createResult(content.Name, content), content, nil
}

// handlePrepareTrend handles the prepare_trend tool invocation
func (s *LiteServer) handlePrepareTrend(ctx context.Context, req *mcp.CallToolRequest, params PrepareTrendParams) (*mcp.CallToolResult, any, error) {
	maternal := service.ProcessSeries(domain.SubjectMaternal, toRawObservations(params.MaternalTiters))
	infant := service.ProcessSeries(domain.SubjectInfant, toRawObservations(params.InfantTiters))

	result := PrepareTrendResult{
		TrendData:   service.PrepareTrend(maternal.Sorted, infant.Sorted),
		Reinfection: service.DetectMaternalReinfection(maternal.Sorted),
	}

	summary := fmt.Sprintf("%d points charted", len(result.Combined))
	if result.FourfoldReference != nil {
		summary += fmt.Sprintf(", fourfold reference %.2f", *result.FourfoldReference)
	}
	return s.createResult(summary, result), result, nil
}

// createResult renders a summary line followed by the indented JSON result.
func (s *LiteServer) createResult(summary string, result interface{}) *mcp.CallToolResult {
	text := summary
	if data, err := json.MarshalIndent(result, "", "  "); err == nil {
		text += "\n\n" + string(data)
	} else {
		s.logger.WithError(err).Warn("Failed to marshal tool result")
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// createErrorResult creates a standardized error result for tool calls
func (s *LiteServer) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
