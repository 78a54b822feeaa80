package domain

import (
	"sort"
	"strings"
)

// CategoryRecord is one entry of the external category dataset. Records are
// keyed by ID, which matches an OutcomeCategory code.
type CategoryRecord struct {
	ID                    int                 `json:"id" yaml:"id"`
	Name                  string              `json:"name" yaml:"name"`
	Findings              []string            `json:"findings,omitempty" yaml:"findings"`
	RecommendedEvaluation string              `json:"recommended_evaluation,omitempty" yaml:"recommended_evaluation"`
	Treatment             []map[string]string `json:"treatment,omitempty" yaml:"treatment"`
}

// CategoryDataset is the read-only keyed collection of category records.
type CategoryDataset struct {
	Categories []CategoryRecord `json:"categories" yaml:"categories"`
}

// Find returns the record whose ID matches, regardless of its position.
func (d *CategoryDataset) Find(id int) (*CategoryRecord, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Categories {
		if d.Categories[i].ID == id {
			return &d.Categories[i], true
		}
	}
	return nil, false
}

// LookupStatus distinguishes a resolved category from the two failure modes.
type LookupStatus string

const (
	LookupFound          LookupStatus = "found"
	LookupNotFound       LookupStatus = "not_found"
	LookupRetrievalError LookupStatus = "retrieval_error"
)

// Fallback names shown when no category content is available.
const (
	NameUndetermined   = "Unable to determine category"
	NameRetrievalError = "Error retrieving recommendations"
)

// TreatmentDirective is a single keyed treatment instruction, e.g.
// {"recommended": "Aqueous crystalline penicillin G ..."}.
type TreatmentDirective struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Label renders the directive key for display ("none_required" becomes
// "none required").
func (t TreatmentDirective) Label() string {
	return strings.ReplaceAll(t.Key, "_", " ")
}

// DisplayContent is the human-readable guidance for an outcome category.
type DisplayContent struct {
	Name       string               `json:"name"`
	Findings   []string             `json:"findings"`
	Evaluation string               `json:"evaluation"`
	Treatments []TreatmentDirective `json:"treatments"`
	Status     LookupStatus         `json:"status"`
}

// NewFallbackContent returns empty content with the given fallback name.
func NewFallbackContent(name string, status LookupStatus) DisplayContent {
	return DisplayContent{
		Name:       name,
		Findings:   []string{},
		Treatments: []TreatmentDirective{},
		Status:     status,
	}
}

// DisplayContent converts a dataset record into display content. Treatment
// entries with several keys are flattened in key order.
func (r *CategoryRecord) DisplayContent() DisplayContent {
	content := DisplayContent{
		Name:       r.Name,
		Findings:   append([]string{}, r.Findings...),
		Evaluation: r.RecommendedEvaluation,
		Treatments: []TreatmentDirective{},
		Status:     LookupFound,
	}

	for _, entry := range r.Treatment {
		keys := make([]string, 0, len(entry))
		for k := range entry {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			content.Treatments = append(content.Treatments, TreatmentDirective{Key: k, Text: entry[k]})
		}
	}

	return content
}
