package terminology

import "context"

// CodeRepository provides read/insert access to terminology codes.
type CodeRepository interface {
	// SearchCodes does a case-insensitive substring match against code,
	// display, and definition. An empty systems slice means all systems;
	// multiple systems are OR'd.
	SearchCodes(ctx context.Context, query string, systems []string, limit int) ([]*Code, error)
	// GetCode fetches a single code by its (code, system) key. Returns
	// (nil, nil) when absent; absence is not an error.
	GetCode(ctx context.Context, code, system string) (*Code, error)
	// BulkInsertCodes inserts codes, silently skipping duplicates, and
	// returns the number actually inserted.
	BulkInsertCodes(ctx context.Context, codes []*Code) (int, error)
}

// MappingRepository provides read/insert access to concept mappings.
type MappingRepository interface {
	// FindMappings returns all mappings for a source code, ordered by
	// confidence descending (stable on ties). sourceSystem narrows the
	// match when non-empty.
	FindMappings(ctx context.Context, sourceCode, sourceSystem string) ([]*Mapping, error)
	// InsertMapping persists one mapping. Duplicate tuples are ignored,
	// not errored; that is the de-duplication mechanism for concurrent
	// AI-generated writes.
	InsertMapping(ctx context.Context, m *Mapping) error
}
