package compliance

import (
	"strings"

	"github.com/RedLynx101/MedCompliance-AI/internal/domain/encounter"
)

// SuggestICD10 proposes diagnosis codes by keyword containment on the
// lower-cased transcript. All matching entries are returned; the consumer
// picks by confidence. No match returns an empty list, never an error.
func (kb *KnowledgeBase) SuggestICD10(transcript string) []Suggestion {
	t := strings.ToLower(transcript)
	var out []Suggestion
	for _, e := range kb.ICD10 {
		for _, kw := range e.Keywords {
			if strings.Contains(t, kw) {
				out = append(out, Suggestion{
					Code:                      e.Code,
					Description:               e.Description,
					Type:                      "icd10",
					Confidence:                e.Confidence,
					DocumentationRequirements: e.RequiredDocumentation,
				})
				break
			}
		}
	}
	return out
}

// SuggestCPT proposes procedure codes keyed off the encounter type.
func (kb *KnowledgeBase) SuggestCPT(enc *encounter.Encounter, _ string) []Suggestion {
	var out []Suggestion
	for _, e := range kb.CPT {
		for _, et := range e.EncounterTypes {
			if strings.EqualFold(enc.EncounterType, et) {
				out = append(out, Suggestion{
					Code:                      e.Code,
					Description:               e.Description,
					Type:                      "cpt",
					Confidence:                e.Confidence,
					DocumentationRequirements: e.DocumentationRequirements,
				})
				break
			}
		}
	}
	return out
}

// GetICD10Entry looks up reference data for a diagnosis code.
func (kb *KnowledgeBase) GetICD10Entry(code string) (*ICD10Entry, bool) {
	for i := range kb.ICD10 {
		if strings.EqualFold(kb.ICD10[i].Code, code) {
			return &kb.ICD10[i], true
		}
	}
	return nil, false
}

// GetCPTEntry looks up reference data for a procedure code.
func (kb *KnowledgeBase) GetCPTEntry(code string) (*CPTEntry, bool) {
	for i := range kb.CPT {
		if kb.CPT[i].Code == code {
			return &kb.CPT[i], true
		}
	}
	return nil, false
}

// ListGuidelines returns guidelines, optionally filtered by category.
// An empty category returns everything.
func (kb *KnowledgeBase) ListGuidelines(category string) []Guideline {
	if category == "" {
		return kb.Guidelines
	}
	var out []Guideline
	for _, g := range kb.Guidelines {
		if strings.EqualFold(g.Category, category) {
			out = append(out, g)
		}
	}
	return out
}
