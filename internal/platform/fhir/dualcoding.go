package fhir

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationIssue is a single finding from bundle validation.
type ValidationIssue struct {
	Severity    string `json:"severity"`
	Code        string `json:"code"`
	Diagnostics string `json:"diagnostics"`
}

// BundleSummary holds the resource and coding-system counts collected
// during a dual-coding validation pass.
type BundleSummary struct {
	Resources    int `json:"resources"`
	Conditions   int `json:"conditions"`
	NamasteCodes int `json:"namasteCodes"`
	ICD11Codes   int `json:"icd11Codes"`
}

// BundleValidationResult is the full report of a Bundle $validate run.
// Valid is true exactly when no error-severity issue was recorded.
type BundleValidationResult struct {
	Valid   bool              `json:"valid"`
	Issues  []ValidationIssue `json:"issues"`
	Summary BundleSummary     `json:"summary"`
}

func (r *BundleValidationResult) addIssue(severity, code, diagnostics string) {
	r.Issues = append(r.Issues, ValidationIssue{
		Severity:    severity,
		Code:        code,
		Diagnostics: diagnostics,
	})
	if severity == IssueSeverityError || severity == IssueSeverityFatal {
		r.Valid = false
	}
}

// ToOperationOutcome renders the result as a FHIR OperationOutcome. A fully
// clean run yields a single informational issue so the outcome is never empty.
func (r *BundleValidationResult) ToOperationOutcome() *OperationOutcome {
	if len(r.Issues) == 0 {
		return SuccessOutcome("Bundle is valid")
	}
	return OutcomeFromIssues(r.Issues)
}

// ValidateDualCodedBundle structurally validates untrusted JSON as a FHIR
// Bundle of dual-coded Conditions. It never fails: malformed input is
// reported through error-severity issues in the returned result.
//
// Coding systems are classified by substring match on the system URI --
// "namaste" counts as a national code, "icd" or "who" as ICD-11. The loose
// matching is deliberate; callers send a mix of release-specific WHO URIs.
func ValidateDualCodedBundle(raw []byte) *BundleValidationResult {
	result := &BundleValidationResult{Valid: true, Issues: []ValidationIssue{}}

	var bundle map[string]interface{}
	if err := json.Unmarshal(raw, &bundle); err != nil {
		result.addIssue(IssueSeverityError, IssueTypeStructure, "Invalid JSON: "+err.Error())
		return result
	}

	rt, _ := bundle["resourceType"].(string)
	if rt != "Bundle" {
		result.addIssue(IssueSeverityError, IssueTypeStructure,
			fmt.Sprintf("resourceType must be 'Bundle', got '%s'", rt))
	}

	if bt, _ := bundle["type"].(string); bt == "" {
		result.addIssue(IssueSeverityError, IssueTypeRequired, "Bundle.type is required")
	}

	entries, ok := bundle["entry"].([]interface{})
	if !ok {
		// No per-entry walk is possible; return without summary counts.
		result.addIssue(IssueSeverityError, IssueTypeRequired, "Bundle.entry must be an array")
		return result
	}

	for i, e := range entries {
		entry, _ := e.(map[string]interface{})
		resource, _ := entry["resource"].(map[string]interface{})
		if resource == nil {
			result.addIssue(IssueSeverityWarning, IssueTypeIncomplete,
				fmt.Sprintf("entry[%d] is missing a resource", i))
			continue
		}
		result.Summary.Resources++

		if rt, _ := resource["resourceType"].(string); rt != "Condition" {
			continue
		}
		result.Summary.Conditions++

		code, _ := resource["code"].(map[string]interface{})
		codings, _ := code["coding"].([]interface{})
		for _, c := range codings {
			coding, _ := c.(map[string]interface{})
			system, _ := coding["system"].(string)
			lower := strings.ToLower(system)
			switch {
			case strings.Contains(lower, "namaste"):
				result.Summary.NamasteCodes++
			case strings.Contains(lower, "icd"), strings.Contains(lower, "who"):
				result.Summary.ICD11Codes++
			}
		}
	}

	if result.Summary.Conditions > 0 &&
		(result.Summary.NamasteCodes == 0 || result.Summary.ICD11Codes == 0) {
		result.addIssue(IssueSeverityWarning, IssueTypeBusinessRule,
			"Conditions are missing dual coding: each Condition should carry both a NAMASTE and an ICD-11 coding")
	}

	return result
}
