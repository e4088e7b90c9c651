package terminology

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Code Repository ===========

type codeRepoPG struct{ pool *pgxpool.Pool }

// NewCodeRepoPG creates a PostgreSQL-backed code repository.
func NewCodeRepoPG(pool *pgxpool.Pool) CodeRepository { return &codeRepoPG{pool: pool} }

func (r *codeRepoPG) SearchCodes(ctx context.Context, query string, systems []string, limit int) ([]*Code, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + query + "%"

	sql := `SELECT code, display, COALESCE(definition,''), system_uri, COALESCE(category,'')
	        FROM terminology_codes
	        WHERE (code ILIKE $1 OR display ILIKE $1 OR definition ILIKE $1)`
	args := []interface{}{pattern}
	if len(systems) > 0 {
		placeholders := make([]string, len(systems))
		for i, s := range systems {
			args = append(args, s)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		sql += fmt.Sprintf(" AND system_uri IN (%s)", strings.Join(placeholders, ", "))
	}
	args = append(args, limit)
	sql += fmt.Sprintf(" ORDER BY display LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("code search: %w", err)
	}
	defer rows.Close()

	var results []*Code
	for rows.Next() {
		var c Code
		if err := rows.Scan(&c.Code, &c.Display, &c.Definition, &c.SystemURI, &c.Category); err != nil {
			return nil, err
		}
		results = append(results, &c)
	}
	return results, rows.Err()
}

func (r *codeRepoPG) GetCode(ctx context.Context, code, system string) (*Code, error) {
	var c Code
	err := r.pool.QueryRow(ctx,
		`SELECT code, display, COALESCE(definition,''), system_uri, COALESCE(category,'')
		 FROM terminology_codes WHERE code = $1 AND system_uri = $2`, code, system).
		Scan(&c.Code, &c.Display, &c.Definition, &c.SystemURI, &c.Category)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("code get: %w", err)
	}
	return &c, nil
}

func (r *codeRepoPG) BulkInsertCodes(ctx context.Context, codes []*Code) (int, error) {
	inserted := 0
	for _, c := range codes {
		tag, err := r.pool.Exec(ctx,
			`INSERT INTO terminology_codes (code, display, definition, system_uri, category)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (code, system_uri) DO NOTHING`,
			c.Code, c.Display, c.Definition, c.SystemURI, c.Category)
		if err != nil {
			return inserted, fmt.Errorf("code insert %s: %w", c.Code, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// =========== Mapping Repository ===========

type mappingRepoPG struct{ pool *pgxpool.Pool }

// NewMappingRepoPG creates a PostgreSQL-backed mapping repository.
func NewMappingRepoPG(pool *pgxpool.Pool) MappingRepository { return &mappingRepoPG{pool: pool} }

func (r *mappingRepoPG) FindMappings(ctx context.Context, sourceCode, sourceSystem string) ([]*Mapping, error) {
	sql := `SELECT source_code, source_system, target_code, target_system,
	               COALESCE(target_display,''), equivalence, confidence, provenance
	        FROM concept_mappings
	        WHERE source_code = $1`
	args := []interface{}{sourceCode}
	if sourceSystem != "" {
		args = append(args, sourceSystem)
		sql += " AND source_system = $2"
	}
	// Insertion order (id) breaks confidence ties so results are stable.
	sql += " ORDER BY confidence DESC, id"

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("mapping search: %w", err)
	}
	defer rows.Close()

	var results []*Mapping
	for rows.Next() {
		var m Mapping
		if err := rows.Scan(&m.SourceCode, &m.SourceSystem, &m.TargetCode, &m.TargetSystem,
			&m.TargetDisplay, &m.Equivalence, &m.Confidence, &m.Provenance); err != nil {
			return nil, err
		}
		results = append(results, &m)
	}
	return results, rows.Err()
}

func (r *mappingRepoPG) InsertMapping(ctx context.Context, m *Mapping) error {
	if err := m.Validate(); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO concept_mappings
		   (source_code, source_system, target_code, target_system, target_display, equivalence, confidence, provenance)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (source_code, source_system, target_code, target_system) DO NOTHING`,
		m.SourceCode, m.SourceSystem, m.TargetCode, m.TargetSystem,
		m.TargetDisplay, m.Equivalence, m.Confidence, m.Provenance)
	if err != nil {
		return fmt.Errorf("mapping insert %s->%s: %w", m.SourceCode, m.TargetCode, err)
	}
	return nil
}
