package terminology

import (
	"context"
	"testing"
)

func TestMemRepository_SearchCodes(t *testing.T) {
	repo := NewMemRepository()
	ctx := context.Background()
	if _, _, err := Seed(ctx, repo, repo); err != nil {
		t.Fatalf("seed: %v", err)
	}

	results, err := repo.SearchCodes(ctx, "swasa", nil, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	// Display-sorted for stable ordering.
	if results[0].Display > results[1].Display {
		t.Errorf("results not sorted by display: %s, %s", results[0].Display, results[1].Display)
	}
}

func TestMemRepository_SearchCodes_SystemFilter(t *testing.T) {
	repo := NewMemRepository()
	ctx := context.Background()
	if _, _, err := Seed(ctx, repo, repo); err != nil {
		t.Fatalf("seed: %v", err)
	}

	results, err := repo.SearchCodes(ctx, "disorder", []string{SystemICD11TM2}, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected TM2 results for 'disorder'")
	}
	for _, c := range results {
		if c.SystemURI != SystemICD11TM2 {
			t.Errorf("filter leaked system %s", c.SystemURI)
		}
	}
}

func TestMemRepository_GetCode_AbsentIsNil(t *testing.T) {
	repo := NewMemRepository()

	c, err := repo.GetCode(context.Background(), "NOPE", SystemNAMASTE)
	if err != nil {
		t.Fatalf("absence must not be an error: %v", err)
	}
	if c != nil {
		t.Errorf("expected nil, got %+v", c)
	}
}

func TestMemRepository_BulkInsertCodes_CountsNewOnly(t *testing.T) {
	repo := NewMemRepository()
	ctx := context.Background()

	codes := []*Code{
		{Code: "A-1", Display: "One", SystemURI: SystemNAMASTE},
		{Code: "A-2", Display: "Two", SystemURI: SystemNAMASTE},
	}
	n, err := repo.BulkInsertCodes(ctx, codes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 inserted, got %d", n)
	}

	n, err = repo.BulkInsertCodes(ctx, codes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 inserted on duplicate, got %d", n)
	}
}

func TestMemRepository_FindMappings_Ordering(t *testing.T) {
	repo := NewMemRepository()
	ctx := context.Background()

	for _, m := range []*Mapping{
		{SourceCode: "S", SourceSystem: SystemNAMASTE, TargetCode: "T1", TargetSystem: SystemICD11TM2, Equivalence: EquivalenceInexact, Confidence: 50, Provenance: ProvenanceManual},
		{SourceCode: "S", SourceSystem: SystemNAMASTE, TargetCode: "T2", TargetSystem: SystemICD11TM2, Equivalence: EquivalenceEquivalent, Confidence: 95, Provenance: ProvenanceManual},
		{SourceCode: "S", SourceSystem: SystemNAMASTE, TargetCode: "T3", TargetSystem: SystemICD11TM2, Equivalence: EquivalenceWider, Confidence: 50, Provenance: ProvenanceManual},
	} {
		if err := repo.InsertMapping(ctx, m); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	rows, err := repo.FindMappings(ctx, "S", SystemNAMASTE)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].TargetCode != "T2" {
		t.Errorf("expected highest confidence first, got %s", rows[0].TargetCode)
	}
	// Ties keep insertion order.
	if rows[1].TargetCode != "T1" || rows[2].TargetCode != "T3" {
		t.Errorf("tie order not stable: %s, %s", rows[1].TargetCode, rows[2].TargetCode)
	}
}

func TestMemRepository_InsertMapping_DuplicateIgnored(t *testing.T) {
	repo := NewMemRepository()
	ctx := context.Background()

	m := &Mapping{SourceCode: "S", SourceSystem: SystemNAMASTE, TargetCode: "T1", TargetSystem: SystemICD11TM2, Equivalence: EquivalenceInexact, Confidence: 50, Provenance: ProvenanceAIGenerated}
	if err := repo.InsertMapping(ctx, m); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := repo.InsertMapping(ctx, m); err != nil {
		t.Fatalf("duplicate insert must be silent: %v", err)
	}

	rows, err := repo.FindMappings(ctx, "S", SystemNAMASTE)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected 1 row, got %d", len(rows))
	}
}

func TestMemRepository_InsertMapping_ValidationEnforced(t *testing.T) {
	repo := NewMemRepository()

	err := repo.InsertMapping(context.Background(), &Mapping{
		SourceCode:   "S",
		SourceSystem: SystemNAMASTE,
		TargetCode:   "T1",
		TargetSystem: SystemICD11TM2,
		Equivalence:  "sorta",
		Confidence:   50,
	})
	if err == nil {
		t.Fatal("expected validation error for bad equivalence")
	}
}

func TestSeed_Idempotent(t *testing.T) {
	repo := NewMemRepository()
	ctx := context.Background()

	codes, mappings, err := Seed(ctx, repo, repo)
	if err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if codes == 0 || mappings == 0 {
		t.Fatalf("expected non-zero seed counts, got %d codes, %d mappings", codes, mappings)
	}

	codes2, _, err := Seed(ctx, repo, repo)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if codes2 != 0 {
		t.Errorf("expected 0 new codes on re-seed, got %d", codes2)
	}
}
