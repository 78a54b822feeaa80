package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

// Resolve finds the display content for an outcome code in the dataset,
// matching on the record ID rather than its position. A missing record yields
// the "Unable to determine category" fallback.
func Resolve(code domain.OutcomeCategory, dataset *domain.CategoryDataset) domain.DisplayContent {
	record, ok := dataset.Find(code.Code())
	if !ok {
		return domain.NewFallbackContent(domain.NameUndetermined, domain.LookupNotFound)
	}
	return record.DisplayContent()
}

// ResolveFrom retrieves the dataset from source and resolves code against it.
// The returned content is always renderable. When retrieval fails the content
// is the "Error retrieving recommendations" fallback and the error explains why.
func ResolveFrom(ctx context.Context, source domain.CategorySource, code domain.OutcomeCategory) (domain.DisplayContent, error) {
	if source == nil {
		return domain.NewFallbackContent(domain.NameRetrievalError, domain.LookupRetrievalError),
			fmt.Errorf("no category source configured")
	}

	dataset, err := source.Load(ctx)
	if err != nil {
		return domain.NewFallbackContent(domain.NameRetrievalError, domain.LookupRetrievalError),
			fmt.Errorf("loading categories from %s: %w", source.Name(), err)
	}

	return Resolve(code, dataset), nil
}

// CategoryLookup resolves outcome codes against a configured source and logs
// retrieval failures instead of propagating them.
type CategoryLookup struct {
	source domain.CategorySource
	logger *logrus.Logger
}

// NewCategoryLookup creates a new category lookup
func NewCategoryLookup(source domain.CategorySource, logger *logrus.Logger) *CategoryLookup {
	return &CategoryLookup{source: source, logger: logger}
}

// Resolve returns display content for code. It never fails.
func (l *CategoryLookup) Resolve(ctx context.Context, code domain.OutcomeCategory) domain.DisplayContent {
	content, err := ResolveFrom(ctx, l.source, code)
	if err != nil {
		l.logger.WithError(err).WithField("outcome_code", code.Code()).
			Warn("Failed to retrieve category dataset, returning error fallback")
		return content
	}

	if content.Status == domain.LookupNotFound {
		l.logger.WithField("outcome_code", code.Code()).Info("No category record for outcome code")
	}

	return content
}

// SourceName returns the configured source name for diagnostics.
func (l *CategoryLookup) SourceName() string {
	if l.source == nil {
		return "none"
	}
	return l.source.Name()
}
