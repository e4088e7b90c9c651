package fhir

import (
	"time"

	"github.com/google/uuid"
)

// TranslateMatch is one normalized result of a ConceptMap $translate call.
type TranslateMatch struct {
	Equivalence string `json:"equivalence"`
	Code        string `json:"code"`
	Display     string `json:"display"`
	System      string `json:"system"`
}

// NewValueSetExpansion builds an expanded ValueSet from an ordered concept
// list. The expansion identifier is freshly generated on every call and the
// contains array preserves input order; the caller controls ordering.
func NewValueSetExpansion(url string, concepts []Coding) *ValueSet {
	contains := make([]Coding, len(concepts))
	copy(contains, concepts)

	return &ValueSet{
		ResourceType: "ValueSet",
		URL:          url,
		Status:       "active",
		Expansion: &ValueSetExpansion{
			Identifier: uuid.New().String(),
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Total:      len(contains),
			Contains:   contains,
		},
	}
}

// NewTranslateParameters builds the Parameters resource for a $translate
// response: a leading result boolean followed by one match part per entry,
// in input order. Zero matches produce only the result:false parameter.
func NewTranslateParameters(matches []TranslateMatch) *Parameters {
	result := len(matches) > 0
	params := []Parameter{
		{Name: "result", ValueBoolean: &result},
	}

	for _, m := range matches {
		params = append(params, Parameter{
			Name: "match",
			Part: []Parameter{
				{Name: "equivalence", ValueCode: m.Equivalence},
				{Name: "concept", ValueCoding: &Coding{
					System:  m.System,
					Code:    m.Code,
					Display: m.Display,
				}},
			},
		})
	}

	return &Parameters{
		ResourceType: "Parameters",
		Parameter:    params,
	}
}

// NewCondition builds a problem-list Condition. The national coding always
// comes first; when target is non-nil a second coding entry is appended,
// producing a dual-coded condition. The id is fresh on every call.
func NewCondition(patientRef, nationalSystem, nationalCode, nationalDisplay string, target *Coding) *Condition {
	codings := []Coding{
		{System: nationalSystem, Code: nationalCode, Display: nationalDisplay},
	}
	if target != nil {
		codings = append(codings, *target)
	}

	return &Condition{
		ResourceType: "Condition",
		ID:           uuid.New().String(),
		ClinicalStatus: &CodeableConcept{
			Coding: []Coding{
				{
					System: "http://terminology.hl7.org/CodeSystem/condition-clinical",
					Code:   "active",
				},
			},
		},
		Category: []CodeableConcept{
			{
				Coding: []Coding{
					{
						System: "http://terminology.hl7.org/CodeSystem/condition-category",
						Code:   "problem-list-item",
					},
				},
			},
		},
		Code: &CodeableConcept{
			Coding: codings,
			Text:   nationalDisplay,
		},
		Subject:      &Reference{Reference: patientRef},
		RecordedDate: time.Now().UTC().Format(time.RFC3339),
	}
}

// NewCollectionBundle wraps resources into a Bundle of the given type with
// a fresh id and build timestamp.
func NewCollectionBundle(bundleType string, resources []interface{}) *Bundle {
	now := time.Now().UTC()
	total := len(resources)

	entries := make([]BundleEntry, len(resources))
	for i, r := range resources {
		entries[i] = BundleEntry{Resource: r}
	}

	return &Bundle{
		ResourceType: "Bundle",
		ID:           uuid.New().String(),
		Type:         bundleType,
		Total:        &total,
		Timestamp:    &now,
		Entry:        entries,
	}
}
