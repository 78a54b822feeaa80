package mcp

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	litecfg "github.com/congenital-syphilis-mcp-server/internal/config"
	"github.com/congenital-syphilis-mcp-server/internal/dataset"
	"github.com/congenital-syphilis-mcp-server/internal/domain"
	"github.com/congenital-syphilis-mcp-server/internal/service"
)

type failingSource struct{}

func (failingSource) Load(ctx context.Context) (*domain.CategoryDataset, error) {
	return nil, errors.New("connection refused")
}

func (failingSource) Name() string { return "failing" }

type closingSource struct {
	dataset.EmbeddedSource
	closed bool
}

func (s *closingSource) Close() error {
	s.closed = true
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestServer(t *testing.T, source domain.CategorySource) *LiteServer {
	t.Helper()

	cfg := litecfg.DefaultLiteConfig()
	cfg.DataDir = t.TempDir()

	server, err := NewLiteServer(cfg, WithLogger(quietLogger()), WithCategorySource(source))
	require.NoError(t, err)
	return server
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestNewLiteServer(t *testing.T) {
	t.Run("embedded source from default config", func(t *testing.T) {
		cfg := litecfg.DefaultLiteConfig()
		cfg.DataDir = t.TempDir()

		server, err := NewLiteServer(cfg, WithLogger(quietLogger()))
		require.NoError(t, err)
		assert.Equal(t, "embedded", server.source.Name())
		assert.NotNil(t, server.MCPServer())
		assert.NoError(t, server.Close())
	})

	t.Run("unknown dataset source", func(t *testing.T) {
		cfg := litecfg.DefaultLiteConfig()
		cfg.DatasetSource = "ftp"

		_, err := NewLiteServer(cfg, WithLogger(quietLogger()))
		assert.Error(t, err)
	})

	t.Run("nil source option", func(t *testing.T) {
		_, err := NewLiteServer(litecfg.DefaultLiteConfig(), WithLogger(quietLogger()), WithCategorySource(nil))
		assert.Error(t, err)
	})

	t.Run("close releases closable source", func(t *testing.T) {
		source := &closingSource{}
		server := newTestServer(t, source)
		require.NoError(t, server.Close())
		assert.True(t, source.closed)
	})
}

func TestHandleEvaluateCase(t *testing.T) {
	server := newTestServer(t, dataset.NewEmbeddedSource())

	params := EvaluateCaseParams{
		Approach: "conventional",
		Clinical: ClinicalParams{
			RPRResult:        "reactive",
			TreponemalTest:   "reactive",
			TreatmentHistory: "inadequate",
			MaternalTiter:    "1:16",
			InfantTiter:      "1:8",
			InfantExam:       "normal",
		},
		MaternalTiters: []ObservationParams{
			{Date: "2024-01-10", Titer: "1:4"},
			{Date: "2024-03-15", Titer: "1:32"},
		},
		DeliveryDate: "2024-06-01",
		DoseDates:    []string{"2024-04-01", "2024-04-08", "2024-04-15"},
	}

	result, out, err := server.handleEvaluateCase(context.Background(), nil, params)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	evaluation, ok := out.(*service.EvaluationResult)
	require.True(t, ok)
	assert.Equal(t, domain.OutcomePossible, evaluation.Outcome)
	assert.Equal(t, "Possible congenital syphilis", evaluation.Recommendations.Name)
	require.NotNil(t, evaluation.Input.MaternalTiter)
	assert.Equal(t, domain.Titer(32), *evaluation.Input.MaternalTiter)
	assert.NotNil(t, evaluation.Reinfection)
	assert.NotEmpty(t, evaluation.TimingAlerts)

	text := resultText(t, result)
	assert.Contains(t, text, "Outcome 1 (possible)")
	assert.Contains(t, text, `"outcome_label": "possible"`)
	assert.Zero(t, server.ops.Active())
}

func TestHandleEvaluateCase_InvalidApproach(t *testing.T) {
	server := newTestServer(t, dataset.NewEmbeddedSource())

	result, out, err := server.handleEvaluateCase(context.Background(), nil, EvaluateCaseParams{Approach: "rapid"})
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Invalid evaluation request")
	assert.Zero(t, server.ops.Active())
}

func TestHandleEvaluateCase_DatasetUnavailable(t *testing.T) {
	server := newTestServer(t, failingSource{})

	params := EvaluateCaseParams{
		Approach: "reverse",
		Clinical: ClinicalParams{RPRResult: "nonreactive", TreponemalTest: "nonreactive"},
	}

	result, out, err := server.handleEvaluateCase(context.Background(), nil, params)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	evaluation := out.(*service.EvaluationResult)
	assert.Equal(t, domain.OutcomeNoInfectionReverse, evaluation.Outcome)
	assert.Equal(t, domain.NameRetrievalError, evaluation.Recommendations.Name)
	assert.Equal(t, domain.LookupRetrievalError, evaluation.Recommendations.Status)
}

func TestHandleClassifyOutcome(t *testing.T) {
	server := newTestServer(t, dataset.NewEmbeddedSource())

	tests := []struct {
		name     string
		params   ClassifyOutcomeParams
		expected domain.OutcomeCategory
		warnings int
	}{
		{
			name: "conventional nonreactive treponemal",
			params: ClassifyOutcomeParams{
				Approach: "conventional",
				Clinical: ClinicalParams{RPRResult: "reactive", TreponemalTest: "nonreactive"},
			},
			expected: domain.OutcomeNoInfectionConventional,
		},
		{
			name: "conventional adequate before pregnancy",
			params: ClassifyOutcomeParams{
				Approach: "conventional",
				Clinical: ClinicalParams{TreponemalTest: "reactive", TreatmentHistory: "adequate-before"},
			},
			expected: domain.OutcomeUnlikely,
		},
		{
			name: "reverse fourfold rise",
			params: ClassifyOutcomeParams{
				Approach: "reverse",
				Clinical: ClinicalParams{
					RPRResult:        "reactive",
					TreatmentHistory: "adequate-during",
					MaternalTiter:    "1:4",
					InfantTiter:      "1:16",
					InfantExam:       "normal",
				},
			},
			expected: domain.OutcomeProvenOrHighlyProbable,
		},
		{
			name: "reverse missing titers",
			params: ClassifyOutcomeParams{
				Approach: "reverse",
				Clinical: ClinicalParams{RPRResult: "reactive", InfantExam: "normal"},
			},
			expected: domain.OutcomeIndeterminate,
		},
		{
			name: "unrecognized exam is absent",
			params: ClassifyOutcomeParams{
				Approach: "conventional",
				Clinical: ClinicalParams{TreponemalTest: "reactive", TreatmentHistory: "inadequate", InfantExam: "unclear"},
			},
			expected: domain.OutcomeIndeterminate,
			warnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, out, err := server.handleClassifyOutcome(context.Background(), nil, tt.params)
			require.NoError(t, err)
			assert.False(t, result.IsError)

			classified := out.(ClassifyOutcomeResult)
			assert.Equal(t, tt.expected.Code(), classified.Outcome)
			assert.Equal(t, tt.expected.String(), classified.OutcomeLabel)
			assert.Len(t, classified.Warnings, tt.warnings)
		})
	}

	t.Run("invalid approach", func(t *testing.T) {
		result, out, err := server.handleClassifyOutcome(context.Background(), nil, ClassifyOutcomeParams{Approach: ""})
		require.NoError(t, err)
		assert.Nil(t, out)
		assert.True(t, result.IsError)
	})
}

func TestHandleCompareTiters(t *testing.T) {
	server := newTestServer(t, dataset.NewEmbeddedSource())

	tests := []struct {
		name     string
		params   CompareTitersParams
		fourfold bool
		isError  bool
	}{
		{name: "exactly fourfold", params: CompareTitersParams{Infant: "1:64", Maternal: "1:16"}, fourfold: true},
		{name: "twofold", params: CompareTitersParams{Infant: "32", Maternal: "16"}},
		{name: "malformed", params: CompareTitersParams{Infant: "high", Maternal: "1:16"}, isError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, out, err := server.handleCompareTiters(context.Background(), nil, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.isError, result.IsError)
			if tt.isError {
				return
			}
			assert.Equal(t, tt.fourfold, out.(CompareTitersResult).Fourfold)
		})
	}
}

func TestHandleLookupCategory(t *testing.T) {
	server := newTestServer(t, dataset.NewEmbeddedSource())

	t.Run("found", func(t *testing.T) {
		result, out, err := server.handleLookupCategory(context.Background(), nil, LookupCategoryParams{Outcome: 3})
		require.NoError(t, err)
		assert.False(t, result.IsError)

		content := out.(domain.DisplayContent)
		assert.Equal(t, domain.LookupFound, content.Status)
		assert.Equal(t, "Congenital syphilis unlikely", content.Name)
	})

	t.Run("indeterminate has no entry", func(t *testing.T) {
		_, out, err := server.handleLookupCategory(context.Background(), nil, LookupCategoryParams{Outcome: 6})
		require.NoError(t, err)

		content := out.(domain.DisplayContent)
		assert.Equal(t, domain.LookupNotFound, content.Status)
		assert.Equal(t, domain.NameUndetermined, content.Name)
	})

	t.Run("out of range", func(t *testing.T) {
		result, out, err := server.handleLookupCategory(context.Background(), nil, LookupCategoryParams{Outcome: 9})
		require.NoError(t, err)
		assert.Nil(t, out)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "invalid outcome category")
	})
}

func TestHandlePrepareTrend(t *testing.T) {
	server := newTestServer(t, dataset.NewEmbeddedSource())

	params := PrepareTrendParams{
		MaternalTiters: []ObservationParams{
			{Date: "2024-02-01", Titer: "1:16"},
			{Date: "2024-01-01", Titer: "1:64"},
			{Date: "", Titer: "1:8"},
		},
		InfantTiters: []ObservationParams{
			{Date: "2024-03-01", Titer: "1:8"},
		},
	}

	result, out, err := server.handlePrepareTrend(context.Background(), nil, params)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	trend := out.(PrepareTrendResult)
	require.Len(t, trend.Combined, 3)
	assert.Equal(t, domain.SubjectMaternal, trend.Combined[0].Subject)
	assert.Equal(t, domain.Titer(64), trend.Combined[0].Titer)
	require.NotNil(t, trend.FourfoldReference)
	assert.Equal(t, 4.0, *trend.FourfoldReference)
	assert.Nil(t, trend.Reinfection)
	assert.Contains(t, resultText(t, result), "3 points charted")
}
