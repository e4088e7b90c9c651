package fhir

import (
	"encoding/json"
	"testing"
)

func countBySeverity(issues []ValidationIssue, severity string) int {
	n := 0
	for _, i := range issues {
		if i.Severity == severity {
			n++
		}
	}
	return n
}

func TestValidateDualCodedBundle_NotABundle(t *testing.T) {
	result := ValidateDualCodedBundle([]byte(`{"resourceType":"Patient","type":"x","entry":[]}`))

	if result.Valid {
		t.Error("non-Bundle payload must be invalid")
	}
	if countBySeverity(result.Issues, IssueSeverityError) == 0 {
		t.Error("expected an error issue for wrong resourceType")
	}
}

func TestValidateDualCodedBundle_InvalidJSON(t *testing.T) {
	result := ValidateDualCodedBundle([]byte(`{not json`))

	if result.Valid {
		t.Error("unparseable payload must be invalid")
	}
	if len(result.Issues) != 1 {
		t.Fatalf("issue count = %d, want 1", len(result.Issues))
	}
}

func TestValidateDualCodedBundle_MissingType(t *testing.T) {
	result := ValidateDualCodedBundle([]byte(`{"resourceType":"Bundle","entry":[]}`))

	if result.Valid {
		t.Error("missing Bundle.type must be invalid")
	}
}

func TestValidateDualCodedBundle_MissingEntryShortCircuits(t *testing.T) {
	result := ValidateDualCodedBundle([]byte(`{"resourceType":"Bundle","type":"collection"}`))

	if result.Valid {
		t.Error("missing entry array must be invalid")
	}
	if len(result.Issues) != 1 {
		t.Fatalf("issue count = %d, want exactly 1", len(result.Issues))
	}
	if result.Summary != (BundleSummary{}) {
		t.Errorf("summary must stay zero on short-circuit, got %+v", result.Summary)
	}
}

func TestValidateDualCodedBundle_EntryMissingResource(t *testing.T) {
	raw := []byte(`{"resourceType":"Bundle","type":"collection","entry":[{},{"resource":{"resourceType":"Patient"}}]}`)
	result := ValidateDualCodedBundle(raw)

	if !result.Valid {
		t.Error("a missing entry resource is a warning, not an error")
	}
	if countBySeverity(result.Issues, IssueSeverityWarning) != 1 {
		t.Errorf("warning count = %d, want 1", countBySeverity(result.Issues, IssueSeverityWarning))
	}
	if result.Summary.Resources != 1 {
		t.Errorf("resources = %d, want 1 (missing resource must not count)", result.Summary.Resources)
	}
}

func TestValidateDualCodedBundle_NamasteOnlyWarns(t *testing.T) {
	raw := []byte(`{
		"resourceType": "Bundle",
		"type": "collection",
		"entry": [{
			"resource": {
				"resourceType": "Condition",
				"code": {"coding": [{"system": "https://ayush.gov.in/fhir/CodeSystem/namaste", "code": "AYU-DIG-001"}]}
			}
		}]
	}`)
	result := ValidateDualCodedBundle(raw)

	if !result.Valid {
		t.Error("single-coded bundle must still be valid")
	}
	warnings := countBySeverity(result.Issues, IssueSeverityWarning)
	if warnings != 1 {
		t.Errorf("warning count = %d, want exactly 1", warnings)
	}
	want := BundleSummary{Resources: 1, Conditions: 1, NamasteCodes: 1, ICD11Codes: 0}
	if result.Summary != want {
		t.Errorf("summary = %+v, want %+v", result.Summary, want)
	}
}

func TestValidateDualCodedBundle_WHOSystemCountsAsICD11(t *testing.T) {
	raw := []byte(`{
		"resourceType": "Bundle",
		"type": "collection",
		"entry": [{
			"resource": {
				"resourceType": "Condition",
				"code": {"coding": [
					{"system": "https://ayush.gov.in/fhir/CodeSystem/namaste", "code": "AYU-DIG-001"},
					{"system": "http://id.who.int/icd/release/11/mms/tm2", "code": "TM2-YM25"}
				]}
			}
		}]
	}`)
	result := ValidateDualCodedBundle(raw)

	if !result.Valid {
		t.Errorf("dual-coded bundle must be valid, issues: %+v", result.Issues)
	}
	if len(result.Issues) != 0 {
		t.Errorf("issue count = %d, want 0", len(result.Issues))
	}
	if result.Summary.ICD11Codes != 1 {
		t.Errorf("icd11Codes = %d, want 1", result.Summary.ICD11Codes)
	}
}

func TestValidateDualCodedBundle_NonConditionResourcesIgnored(t *testing.T) {
	raw := []byte(`{
		"resourceType": "Bundle",
		"type": "collection",
		"entry": [
			{"resource": {"resourceType": "Patient", "id": "p1"}},
			{"resource": {"resourceType": "Observation", "code": {"coding": [{"system": "http://loinc.org", "code": "718-7"}]}}}
		]
	}`)
	result := ValidateDualCodedBundle(raw)

	if !result.Valid {
		t.Error("bundle without conditions must be valid")
	}
	if result.Summary.Conditions != 0 {
		t.Errorf("conditions = %d, want 0", result.Summary.Conditions)
	}
	if result.Summary.Resources != 2 {
		t.Errorf("resources = %d, want 2", result.Summary.Resources)
	}
	if len(result.Issues) != 0 {
		t.Error("no dual-coding warning when there are no conditions")
	}
}

// Round trip: a bundle produced by the builders must validate cleanly.
func TestValidateDualCodedBundle_RoundTrip(t *testing.T) {
	target := &Coding{
		System:  "http://id.who.int/icd/release/11/mms/tm2",
		Code:    "TM2-YM25",
		Display: "Digestive disorder",
	}
	cond := NewCondition("Patient/p1", "https://ayush.gov.in/fhir/CodeSystem/namaste", "AYU-DIG-001", "Agnimandya", target)
	bundle := NewCollectionBundle("collection", []interface{}{cond})

	raw, err := json.Marshal(bundle)
	if err != nil {
		t.Fatalf("marshal bundle: %v", err)
	}

	result := ValidateDualCodedBundle(raw)
	if !result.Valid {
		t.Errorf("built bundle must validate, issues: %+v", result.Issues)
	}
	if len(result.Issues) != 0 {
		t.Errorf("issue count = %d, want 0", len(result.Issues))
	}
	want := BundleSummary{Resources: 1, Conditions: 1, NamasteCodes: 1, ICD11Codes: 1}
	if result.Summary != want {
		t.Errorf("summary = %+v, want %+v", result.Summary, want)
	}
}

func TestBundleValidationResult_ToOperationOutcome(t *testing.T) {
	clean := &BundleValidationResult{Valid: true}
	oo := clean.ToOperationOutcome()
	if len(oo.Issue) != 1 || oo.Issue[0].Severity != IssueSeverityInformation {
		t.Error("clean result must render a single informational issue")
	}

	dirty := ValidateDualCodedBundle([]byte(`{"resourceType":"Bundle","type":"collection"}`))
	oo = dirty.ToOperationOutcome()
	if !oo.HasErrors() {
		t.Error("invalid result must render error issues")
	}
}
