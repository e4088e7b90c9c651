package terminology

import (
	"fmt"
	"strconv"
	"strings"
)

// CodeSystemURI constants for the systems this service bridges.
const (
	SystemNAMASTE  = "https://ayush.gov.in/fhir/CodeSystem/namaste"
	SystemICD11TM2 = "http://id.who.int/icd/release/11/mms/tm2"
	SystemICD11Bio = "http://id.who.int/icd/release/11/mms"
)

// Mapping equivalence values per FHIR ConceptMap.
const (
	EquivalenceEquivalent = "equivalent"
	EquivalenceWider      = "wider"
	EquivalenceNarrower   = "narrower"
	EquivalenceInexact    = "inexact"
)

// Mapping provenance tags.
const (
	ProvenanceManual      = "manual"
	ProvenanceAIGenerated = "ai-generated"
)

// Code represents a single coded term. (Code, SystemURI) is unique and
// Display is never empty.
type Code struct {
	Code       string `db:"code" json:"code"`
	Display    string `db:"display" json:"display"`
	Definition string `db:"definition" json:"definition,omitempty"`
	SystemURI  string `db:"system_uri" json:"system"`
	Category   string `db:"category" json:"category,omitempty"`
}

// Mapping is a directed relationship between two codes. A source code may
// carry zero, one, or many mappings; this is a relation, not a function.
type Mapping struct {
	SourceCode    string `db:"source_code" json:"source_code"`
	SourceSystem  string `db:"source_system" json:"source_system"`
	TargetCode    string `db:"target_code" json:"target_code"`
	TargetSystem  string `db:"target_system" json:"target_system"`
	TargetDisplay string `db:"target_display" json:"target_display,omitempty"`
	Equivalence   string `db:"equivalence" json:"equivalence"`
	Confidence    int    `db:"confidence" json:"confidence"`
	Provenance    string `db:"provenance" json:"provenance"`
}

// TranslationMatch is one entry in a $translate response, produced fresh on
// every call. TargetDisplay may be empty when the source row lacks it.
type TranslationMatch struct {
	TargetCode    string `json:"targetCode"`
	TargetSystem  string `json:"targetSystem"`
	TargetDisplay string `json:"targetDisplay"`
	Equivalence   string `json:"equivalence"`
}

// SearchResult is one ranked row of a terminology search, optionally
// enriched with mapping suggestions for unmapped national codes.
type SearchResult struct {
	Code        Code               `json:"code"`
	Suggestions []TranslationMatch `json:"suggestions,omitempty"`
}

// ProblemEntry is one row of a problem-list export request.
type ProblemEntry struct {
	PatientRef     string `json:"patient_ref"`
	NamasteCode    string `json:"namaste_code"`
	NamasteDisplay string `json:"namaste_display"`
	TargetCode     string `json:"target_code,omitempty"`
	TargetDisplay  string `json:"target_display,omitempty"`
	TargetSystem   string `json:"target_system,omitempty"`
}

// IsValidEquivalence reports whether eq is one of the four ConceptMap
// equivalence values this service stores.
func IsValidEquivalence(eq string) bool {
	switch eq {
	case EquivalenceEquivalent, EquivalenceWider, EquivalenceNarrower, EquivalenceInexact:
		return true
	}
	return false
}

// ParseConfidence normalizes a confidence value to an integer percentage in
// [0,100]. Accepted inputs: "85", "85%", "85.0". Upstream schemas disagree
// on string-percent vs integer; the canonical form everywhere in this
// service is the integer.
func ParseConfidence(s string) (int, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0, fmt.Errorf("confidence is empty")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse confidence %q: %w", s, err)
	}
	return ClampConfidence(int(f)), nil
}

// ClampConfidence bounds a confidence percentage to [0,100].
func ClampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// Validate checks a mapping's invariants before persistence.
func (m *Mapping) Validate() error {
	if m.SourceCode == "" || m.SourceSystem == "" {
		return fmt.Errorf("mapping source code and system are required")
	}
	if m.TargetCode == "" || m.TargetSystem == "" {
		return fmt.Errorf("mapping target code and system are required")
	}
	if !IsValidEquivalence(m.Equivalence) {
		return fmt.Errorf("invalid equivalence %q", m.Equivalence)
	}
	if m.Confidence < 0 || m.Confidence > 100 {
		return fmt.Errorf("confidence %d out of range [0,100]", m.Confidence)
	}
	return nil
}

// Validate checks a code's invariants before persistence.
func (c *Code) Validate() error {
	if c.Code == "" {
		return fmt.Errorf("code is required")
	}
	if c.Display == "" {
		return fmt.Errorf("display is required")
	}
	if c.SystemURI == "" {
		return fmt.Errorf("system is required")
	}
	return nil
}
