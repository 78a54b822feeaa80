package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

// stubSource is an in-memory CategorySource for tests.
type stubSource struct {
	dataset *domain.CategoryDataset
	err     error
	loads   int
}

func (s *stubSource) Load(ctx context.Context) (*domain.CategoryDataset, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return s.dataset, nil
}

func (s *stubSource) Name() string { return "stub" }

func testDataset() *domain.CategoryDataset {
	// Deliberately out of ID order to prove lookup is by ID.
	return &domain.CategoryDataset{Categories: []domain.CategoryRecord{
		{
			ID:       3,
			Name:     "Congenital syphilis unlikely",
			Findings: []string{"Normal physical exam"},
			Treatment: []map[string]string{
				{"none_required": "No treatment required"},
			},
		},
		{
			ID:                    0,
			Name:                  "Proven or highly probable congenital syphilis",
			Findings:              []string{"Abnormal physical exam", "Serum titer fourfold higher than maternal titer"},
			RecommendedEvaluation: "CSF VDRL, CBC with differential, long-bone radiographs",
			Treatment: []map[string]string{
				{"recommended": "Aqueous crystalline penicillin G", "alternative": "Procaine penicillin G"},
			},
		},
	}}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestResolve(t *testing.T) {
	dataset := testDataset()

	t.Run("found", func(t *testing.T) {
		content := Resolve(domain.OutcomeProvenOrHighlyProbable, dataset)
		assert.Equal(t, domain.LookupFound, content.Status)
		assert.Equal(t, "Proven or highly probable congenital syphilis", content.Name)
		assert.Len(t, content.Findings, 2)
		require.Len(t, content.Treatments, 2)
		assert.Equal(t, "alternative", content.Treatments[0].Key)
		assert.Equal(t, "recommended", content.Treatments[1].Key)
	})

	t.Run("not found", func(t *testing.T) {
		content := Resolve(domain.OutcomeIndeterminate, dataset)
		assert.Equal(t, domain.LookupNotFound, content.Status)
		assert.Equal(t, domain.NameUndetermined, content.Name)
		assert.NotNil(t, content.Findings)
		assert.Empty(t, content.Findings)
		assert.Empty(t, content.Treatments)
	})

	t.Run("nil dataset", func(t *testing.T) {
		content := Resolve(domain.OutcomeUnlikely, nil)
		assert.Equal(t, domain.LookupNotFound, content.Status)
	})
}

func TestResolveFrom(t *testing.T) {
	tests := []struct {
		name         string
		source       domain.CategorySource
		code         domain.OutcomeCategory
		expectErr    bool
		expectStatus domain.LookupStatus
		expectName   string
	}{
		{
			name:         "found",
			source:       &stubSource{dataset: testDataset()},
			code:         domain.OutcomeUnlikely,
			expectStatus: domain.LookupFound,
			expectName:   "Congenital syphilis unlikely",
		},
		{
			name:         "not found",
			source:       &stubSource{dataset: testDataset()},
			code:         domain.OutcomeNoInfectionReverse,
			expectStatus: domain.LookupNotFound,
			expectName:   domain.NameUndetermined,
		},
		{
			name:         "retrieval error",
			source:       &stubSource{err: errors.New("connection refused")},
			code:         domain.OutcomeUnlikely,
			expectErr:    true,
			expectStatus: domain.LookupRetrievalError,
			expectName:   domain.NameRetrievalError,
		},
		{
			name:         "no source",
			source:       nil,
			code:         domain.OutcomeUnlikely,
			expectErr:    true,
			expectStatus: domain.LookupRetrievalError,
			expectName:   domain.NameRetrievalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := ResolveFrom(context.Background(), tt.source, tt.code)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectStatus, content.Status)
			assert.Equal(t, tt.expectName, content.Name)
		})
	}
}

func TestResolveFrom_WrapsSourceError(t *testing.T) {
	cause := errors.New("timeout")
	_, err := ResolveFrom(context.Background(), &stubSource{err: cause}, domain.OutcomePossible)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "stub")
}

func TestCategoryLookup_Resolve(t *testing.T) {
	source := &stubSource{dataset: testDataset()}
	lookup := NewCategoryLookup(source, quietLogger())

	first := lookup.Resolve(context.Background(), domain.OutcomeProvenOrHighlyProbable)
	second := lookup.Resolve(context.Background(), domain.OutcomeProvenOrHighlyProbable)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, source.loads, "dataset is fetched for every lookup")
	assert.Equal(t, "stub", lookup.SourceName())

	failing := NewCategoryLookup(&stubSource{err: errors.New("boom")}, quietLogger())
	content := failing.Resolve(context.Background(), domain.OutcomePossible)
	assert.Equal(t, domain.LookupRetrievalError, content.Status)

	assert.Equal(t, "none", NewCategoryLookup(nil, quietLogger()).SourceName())
}
