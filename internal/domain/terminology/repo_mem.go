package terminology

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemRepository is an in-memory implementation of both repository
// interfaces, used in development mode (STORAGE=memory) and tests. It
// honors the same contracts as the PostgreSQL repositories: substring
// search, duplicate-ignoring inserts, confidence-descending mappings.
type MemRepository struct {
	mu       sync.RWMutex
	codes    map[string]*Code // keyed by code|system
	mappings []*Mapping
}

// NewMemRepository creates an empty in-memory repository.
func NewMemRepository() *MemRepository {
	return &MemRepository{codes: make(map[string]*Code)}
}

func codeKey(code, system string) string { return code + "|" + system }

func (r *MemRepository) SearchCodes(_ context.Context, query string, systems []string, limit int) ([]*Code, error) {
	if limit <= 0 {
		limit = 20
	}
	q := strings.ToLower(query)

	systemSet := make(map[string]bool, len(systems))
	for _, s := range systems {
		systemSet[s] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*Code
	for _, c := range r.codes {
		if len(systemSet) > 0 && !systemSet[c.SystemURI] {
			continue
		}
		if strings.Contains(strings.ToLower(c.Code), q) ||
			strings.Contains(strings.ToLower(c.Display), q) ||
			strings.Contains(strings.ToLower(c.Definition), q) {
			results = append(results, c)
		}
	}

	// Map iteration is random; sort by display for a stable order like
	// the SQL repository.
	sort.Slice(results, func(i, j int) bool { return results[i].Display < results[j].Display })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (r *MemRepository) GetCode(_ context.Context, code, system string) (*Code, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.codes[codeKey(code, system)], nil
}

func (r *MemRepository) BulkInsertCodes(_ context.Context, codes []*Code) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, c := range codes {
		if err := c.Validate(); err != nil {
			return inserted, err
		}
		key := codeKey(c.Code, c.SystemURI)
		if _, exists := r.codes[key]; exists {
			continue
		}
		cc := *c
		r.codes[key] = &cc
		inserted++
	}
	return inserted, nil
}

func (r *MemRepository) FindMappings(_ context.Context, sourceCode, sourceSystem string) ([]*Mapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*Mapping
	for _, m := range r.mappings {
		if m.SourceCode != sourceCode {
			continue
		}
		if sourceSystem != "" && m.SourceSystem != sourceSystem {
			continue
		}
		results = append(results, m)
	}

	// Stable sort keeps insertion order on confidence ties.
	sort.SliceStable(results, func(i, j int) bool { return results[i].Confidence > results[j].Confidence })
	return results, nil
}

func (r *MemRepository) InsertMapping(_ context.Context, m *Mapping) error {
	if err := m.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.mappings {
		if existing.SourceCode == m.SourceCode && existing.SourceSystem == m.SourceSystem &&
			existing.TargetCode == m.TargetCode && existing.TargetSystem == m.TargetSystem {
			return nil
		}
	}
	mm := *m
	r.mappings = append(r.mappings, &mm)
	return nil
}
