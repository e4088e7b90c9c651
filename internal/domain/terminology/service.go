package terminology

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/termbridge/termbridge/internal/platform/fhir"
	"github.com/termbridge/termbridge/internal/platform/suggest"
)

// Service orchestrates terminology search, concept translation, ValueSet
// expansion, and problem-list export over the repositories and the
// suggestion provider.
type Service struct {
	codes          CodeRepository
	mappings       MappingRepository
	provider       suggest.Provider
	logger         zerolog.Logger
	suggestTimeout time.Duration
}

// NewService creates a new terminology service. provider may be nil, in
// which case translation degrades to repository lookups plus the keyword
// fallback.
func NewService(codes CodeRepository, mappings MappingRepository, provider suggest.Provider, logger zerolog.Logger) *Service {
	return &Service{
		codes:          codes,
		mappings:       mappings,
		provider:       provider,
		logger:         logger,
		suggestTimeout: 10 * time.Second,
	}
}

// SetSuggestTimeout overrides the bound on a single suggestion-provider call.
func (s *Service) SetSuggestTimeout(d time.Duration) {
	if d > 0 {
		s.suggestTimeout = d
	}
}

// Translate answers "what does sourceCode in sourceSystem map to in
// targetSystem". Persisted mappings always win; the suggestion provider is
// consulted only for unmapped NAMASTE codes, and its failure degrades to
// the keyword fallback or an empty result, never an error.
func (s *Service) Translate(ctx context.Context, sourceCode, sourceSystem, targetSystem string) ([]TranslationMatch, error) {
	if sourceCode == "" {
		return nil, fmt.Errorf("source code is required")
	}
	if sourceSystem == "" {
		return nil, fmt.Errorf("source system is required")
	}
	if targetSystem == "" {
		return nil, fmt.Errorf("target system is required")
	}

	rows, err := s.mappings.FindMappings(ctx, sourceCode, sourceSystem)
	if err != nil {
		return nil, fmt.Errorf("find mappings: %w", err)
	}

	matches := make([]TranslationMatch, 0, len(rows))
	for _, m := range rows {
		if m.TargetSystem != targetSystem {
			continue
		}
		matches = append(matches, TranslationMatch{
			TargetCode:    m.TargetCode,
			TargetSystem:  m.TargetSystem,
			TargetDisplay: m.TargetDisplay,
			Equivalence:   m.Equivalence,
		})
	}
	// A mapped code never reaches the provider, even if the persisted
	// mappings point at a different target system.
	if len(rows) > 0 {
		return matches, nil
	}

	if sourceSystem != SystemNAMASTE {
		return matches, nil
	}
	return s.suggestMatches(ctx, sourceCode, targetSystem), nil
}

// suggestMatches runs the AI fallback path for an unmapped NAMASTE code:
// fetch the code record, ask the provider under a timeout, degrade to the
// keyword fallback on failure, and persist fresh suggestions off the
// request path.
func (s *Service) suggestMatches(ctx context.Context, sourceCode, targetSystem string) []TranslationMatch {
	code, err := s.codes.GetCode(ctx, sourceCode, SystemNAMASTE)
	if err != nil {
		s.logger.Warn().Err(err).Str("code", sourceCode).Msg("code lookup failed during translate")
		return []TranslationMatch{}
	}
	if code == nil {
		// Unknown code is an empty result, not an error.
		return []TranslationMatch{}
	}

	suggestions := s.askProvider(ctx, code)
	if len(suggestions) == 0 {
		return []TranslationMatch{}
	}
	sortSuggestionsByConfidence(suggestions)

	matches := make([]TranslationMatch, 0, len(suggestions))
	for _, sg := range suggestions {
		system := sg.TargetSystem
		if system == "" {
			system = targetSystem
		}
		matches = append(matches, TranslationMatch{
			TargetCode:    sg.TargetCode,
			TargetSystem:  system,
			TargetDisplay: sg.TargetDisplay,
			Equivalence:   sg.Equivalence,
		})
		s.persistSuggestion(code, sg, system)
	}
	return matches
}

// askProvider calls the suggestion provider under the configured timeout,
// falling back to keyword heuristics on any failure.
func (s *Service) askProvider(ctx context.Context, code *Code) []suggest.Suggestion {
	if s.provider == nil {
		return suggest.Fallback(code.Code, code.Display, code.Definition)
	}

	cctx, cancel := context.WithTimeout(ctx, s.suggestTimeout)
	defer cancel()

	suggestions, err := s.provider.Suggest(cctx, code.Code, code.Display, code.Definition)
	if err != nil {
		s.logger.Warn().Err(err).Str("code", code.Code).Msg("suggestion provider failed, using keyword fallback")
		return suggest.Fallback(code.Code, code.Display, code.Definition)
	}
	return suggestions
}

// persistSuggestion writes an AI-generated mapping as a write-through
// cache entry. The write runs on its own goroutine and context: the read
// path never waits on it and its failure is only logged. Concurrent
// duplicates are absorbed by the repository's insert-or-ignore semantics.
func (s *Service) persistSuggestion(code *Code, sg suggest.Suggestion, targetSystem string) {
	mapping := &Mapping{
		SourceCode:    code.Code,
		SourceSystem:  code.SystemURI,
		TargetCode:    sg.TargetCode,
		TargetSystem:  targetSystem,
		TargetDisplay: sg.TargetDisplay,
		Equivalence:   sg.Equivalence,
		Confidence:    ClampConfidence(sg.Confidence),
		Provenance:    ProvenanceAIGenerated,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.mappings.InsertMapping(ctx, mapping); err != nil {
			s.logger.Warn().Err(err).
				Str("source", mapping.SourceCode).
				Str("target", mapping.TargetCode).
				Msg("failed to persist ai-generated mapping")
		}
	}()
}

// sortSuggestionsByConfidence orders suggestions descending by
// confidence, stable on ties, so matches built from them inherit the
// order. Sorting the suggestions directly keeps same-code proposals in
// different target systems ranked independently.
func sortSuggestionsByConfidence(suggestions []suggest.Suggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
}

// Search runs a repository text search, optionally enriching unmapped
// NAMASTE rows with AI suggestions. Enrichment is best-effort: a provider
// failure yields zero suggestions for that row and never drops the row.
func (s *Service) Search(ctx context.Context, query string, systems []string, includeSuggestions bool, limit int) ([]SearchResult, error) {
	if len(query) < 2 {
		return nil, fmt.Errorf("query must be at least 2 characters")
	}

	codes, err := s.codes.SearchCodes(ctx, query, systems, limit)
	if err != nil {
		return nil, fmt.Errorf("search codes: %w", err)
	}

	results := make([]SearchResult, 0, len(codes))
	for _, c := range codes {
		result := SearchResult{Code: *c}
		if includeSuggestions && c.SystemURI == SystemNAMASTE {
			result.Suggestions = s.enrich(ctx, c)
		}
		results = append(results, result)
	}
	return results, nil
}

// enrich attaches mapping candidates to a NAMASTE search row. Persisted
// mappings take precedence; only unmapped codes consult the provider.
func (s *Service) enrich(ctx context.Context, code *Code) []TranslationMatch {
	rows, err := s.mappings.FindMappings(ctx, code.Code, code.SystemURI)
	if err != nil {
		s.logger.Warn().Err(err).Str("code", code.Code).Msg("mapping lookup failed during search enrichment")
		return nil
	}
	if len(rows) > 0 {
		matches := make([]TranslationMatch, 0, len(rows))
		for _, m := range rows {
			matches = append(matches, TranslationMatch{
				TargetCode:    m.TargetCode,
				TargetSystem:  m.TargetSystem,
				TargetDisplay: m.TargetDisplay,
				Equivalence:   m.Equivalence,
			})
		}
		return matches
	}

	suggestions := s.askProvider(ctx, code)
	matches := make([]TranslationMatch, 0, len(suggestions))
	for _, sg := range suggestions {
		system := sg.TargetSystem
		if system == "" {
			system = SystemICD11TM2
		}
		matches = append(matches, TranslationMatch{
			TargetCode:    sg.TargetCode,
			TargetSystem:  system,
			TargetDisplay: sg.TargetDisplay,
			Equivalence:   sg.Equivalence,
		})
		s.persistSuggestion(code, sg, system)
	}
	return matches
}

// Expand implements ValueSet $expand backed by the code repository. An
// empty filter enumerates the value set's full contents; either way
// count and offset bound the page, in display order.
func (s *Service) Expand(ctx context.Context, url, filter string, systems []string, count, offset int) (*fhir.ValueSet, error) {
	if offset < 0 {
		offset = 0
	}

	codes, err := s.codes.SearchCodes(ctx, filter, systems, count+offset)
	if err != nil {
		return nil, fmt.Errorf("expand search: %w", err)
	}
	if offset < len(codes) {
		codes = codes[offset:]
	} else {
		codes = nil
	}

	var concepts []fhir.Coding
	for _, c := range codes {
		concepts = append(concepts, fhir.Coding{
			System:  c.SystemURI,
			Code:    c.Code,
			Display: c.Display,
		})
	}

	vs := fhir.NewValueSetExpansion(url, concepts)
	if offset > 0 {
		vs.Expansion.Offset = &offset
	}
	return vs, nil
}

// ExportProblemList builds a collection Bundle of dual-coded Conditions
// from problem entries. When a target code is supplied without a display,
// the repository is consulted to fill it in; absence is tolerated.
func (s *Service) ExportProblemList(ctx context.Context, entries []ProblemEntry) (*fhir.Bundle, error) {
	resources := make([]interface{}, 0, len(entries))
	for i, e := range entries {
		if e.PatientRef == "" || e.NamasteCode == "" || e.NamasteDisplay == "" {
			return nil, fmt.Errorf("entry %d: patient_ref, namaste_code and namaste_display are required", i)
		}

		var target *fhir.Coding
		if e.TargetCode != "" {
			system := e.TargetSystem
			if system == "" {
				system = SystemICD11TM2
			}
			display := e.TargetDisplay
			if display == "" {
				if c, err := s.codes.GetCode(ctx, e.TargetCode, system); err == nil && c != nil {
					display = c.Display
				}
			}
			target = &fhir.Coding{System: system, Code: e.TargetCode, Display: display}
		}

		resources = append(resources, fhir.NewCondition(e.PatientRef, SystemNAMASTE, e.NamasteCode, e.NamasteDisplay, target))
	}
	return fhir.NewCollectionBundle("collection", resources), nil
}
