package terminology

import (
	"context"
	"fmt"
)

// seedCodes is the curated starter set loaded by the seed command and the
// in-memory storage mode. Codes follow the NAMASTE export convention of
// <discipline>-<body system>-<number> (AYU Ayurveda, SID Siddha, UNA Unani).
var seedCodes = []*Code{
	{Code: "AYU-DIG-001", Display: "Agnimandya", Definition: "Impaired digestive fire leading to loss of appetite and indigestion", SystemURI: SystemNAMASTE, Category: "AYU"},
	{Code: "AYU-DIG-002", Display: "Amlapitta", Definition: "Hyperacidity with sour belching and epigastric burning", SystemURI: SystemNAMASTE, Category: "AYU"},
	{Code: "AYU-RES-001", Display: "Tamaka Swasa", Definition: "Paroxysmal breathlessness resembling bronchial asthma", SystemURI: SystemNAMASTE, Category: "AYU"},
	{Code: "AYU-SKN-001", Display: "Kushta", Definition: "Chronic skin disorder with discoloration and scaling", SystemURI: SystemNAMASTE, Category: "AYU"},
	{Code: "AYU-MSK-001", Display: "Sandhigata Vata", Definition: "Degenerative joint disorder with pain and restricted movement", SystemURI: SystemNAMASTE, Category: "AYU"},
	{Code: "SID-DIG-001", Display: "Gunmam", Definition: "Abdominal distension with digestive disturbance", SystemURI: SystemNAMASTE, Category: "SID"},
	{Code: "SID-RES-004", Display: "Swasa Kasam", Definition: "Difficulty in breathing with cough", SystemURI: SystemNAMASTE, Category: "SID"},
	{Code: "UNA-FEV-001", Display: "Humma", Definition: "Fever with generalized body ache", SystemURI: SystemNAMASTE, Category: "UNA"},

	{Code: "TM2-YM10", Display: "Fever disorder (TM2)", SystemURI: SystemICD11TM2, Category: "TM2"},
	{Code: "TM2-YM25", Display: "Digestive system disorder (TM2)", SystemURI: SystemICD11TM2, Category: "TM2"},
	{Code: "TM2-YM40", Display: "Respiratory system disorder (TM2)", SystemURI: SystemICD11TM2, Category: "TM2"},
	{Code: "TM2-YM60", Display: "Skin disorder (TM2)", SystemURI: SystemICD11TM2, Category: "TM2"},
	{Code: "TM2-YM70", Display: "Musculoskeletal disorder (TM2)", SystemURI: SystemICD11TM2, Category: "TM2"},

	{Code: "DA90", Display: "Dyspepsia", SystemURI: SystemICD11Bio, Category: "biomedicine"},
	{Code: "DA60", Display: "Gastro-oesophageal reflux disease", SystemURI: SystemICD11Bio, Category: "biomedicine"},
	{Code: "CA23", Display: "Asthma", SystemURI: SystemICD11Bio, Category: "biomedicine"},
	{Code: "EA90", Display: "Psoriasis", SystemURI: SystemICD11Bio, Category: "biomedicine"},
	{Code: "FA01", Display: "Osteoarthritis of knee", SystemURI: SystemICD11Bio, Category: "biomedicine"},
	{Code: "MG26", Display: "Fever of other or unknown origin", SystemURI: SystemICD11Bio, Category: "biomedicine"},
}

// seedMappings are curated dual-coding mappings with manual provenance.
var seedMappings = []*Mapping{
	{SourceCode: "AYU-DIG-001", SourceSystem: SystemNAMASTE, TargetCode: "TM2-YM25", TargetSystem: SystemICD11TM2, TargetDisplay: "Digestive system disorder (TM2)", Equivalence: EquivalenceEquivalent, Confidence: 92, Provenance: ProvenanceManual},
	{SourceCode: "AYU-DIG-001", SourceSystem: SystemNAMASTE, TargetCode: "DA90", TargetSystem: SystemICD11Bio, TargetDisplay: "Dyspepsia", Equivalence: EquivalenceWider, Confidence: 78, Provenance: ProvenanceManual},
	{SourceCode: "AYU-DIG-002", SourceSystem: SystemNAMASTE, TargetCode: "DA60", TargetSystem: SystemICD11Bio, TargetDisplay: "Gastro-oesophageal reflux disease", Equivalence: EquivalenceInexact, Confidence: 70, Provenance: ProvenanceManual},
	{SourceCode: "AYU-RES-001", SourceSystem: SystemNAMASTE, TargetCode: "TM2-YM40", TargetSystem: SystemICD11TM2, TargetDisplay: "Respiratory system disorder (TM2)", Equivalence: EquivalenceEquivalent, Confidence: 90, Provenance: ProvenanceManual},
	{SourceCode: "AYU-RES-001", SourceSystem: SystemNAMASTE, TargetCode: "CA23", TargetSystem: SystemICD11Bio, TargetDisplay: "Asthma", Equivalence: EquivalenceEquivalent, Confidence: 85, Provenance: ProvenanceManual},
	{SourceCode: "AYU-SKN-001", SourceSystem: SystemNAMASTE, TargetCode: "TM2-YM60", TargetSystem: SystemICD11TM2, TargetDisplay: "Skin disorder (TM2)", Equivalence: EquivalenceWider, Confidence: 75, Provenance: ProvenanceManual},
	{SourceCode: "AYU-MSK-001", SourceSystem: SystemNAMASTE, TargetCode: "FA01", TargetSystem: SystemICD11Bio, TargetDisplay: "Osteoarthritis of knee", Equivalence: EquivalenceNarrower, Confidence: 72, Provenance: ProvenanceManual},
	{SourceCode: "UNA-FEV-001", SourceSystem: SystemNAMASTE, TargetCode: "TM2-YM10", TargetSystem: SystemICD11TM2, TargetDisplay: "Fever disorder (TM2)", Equivalence: EquivalenceEquivalent, Confidence: 88, Provenance: ProvenanceManual},
}

// Seed loads the starter codes and mappings into the repositories.
// Duplicates are skipped by the repositories, so seeding is idempotent.
func Seed(ctx context.Context, codes CodeRepository, mappings MappingRepository) (int, int, error) {
	insertedCodes, err := codes.BulkInsertCodes(ctx, seedCodes)
	if err != nil {
		return insertedCodes, 0, fmt.Errorf("seed codes: %w", err)
	}

	insertedMappings := 0
	for _, m := range seedMappings {
		if err := mappings.InsertMapping(ctx, m); err != nil {
			return insertedCodes, insertedMappings, fmt.Errorf("seed mapping %s->%s: %w", m.SourceCode, m.TargetCode, err)
		}
		insertedMappings++
	}
	return insertedCodes, insertedMappings, nil
}
