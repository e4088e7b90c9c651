package terminology

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// IngestCSV parses a CSV export of terminology codes and bulk-inserts them
// into the given system. Expected columns: code, display, definition,
// category; definition and category are optional. A header row is detected
// by a literal "code" in the first column and skipped. Duplicate
// (code, system) rows are ignored by the repository; the returned count is
// the number of rows actually inserted.
func (s *Service) IngestCSV(ctx context.Context, r io.Reader, system string) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var codes []*Code
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("csv line %d: %w", line+1, err)
		}
		line++

		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "code") {
			continue
		}
		if len(record) < 2 {
			return 0, fmt.Errorf("csv line %d: code and display columns are required", line)
		}

		c := &Code{
			Code:      strings.TrimSpace(record[0]),
			Display:   strings.TrimSpace(record[1]),
			SystemURI: system,
		}
		if len(record) > 2 {
			c.Definition = strings.TrimSpace(record[2])
		}
		if len(record) > 3 {
			c.Category = strings.TrimSpace(record[3])
		}
		if err := c.Validate(); err != nil {
			return 0, fmt.Errorf("csv line %d: %w", line, err)
		}
		codes = append(codes, c)
	}

	if len(codes) == 0 {
		return 0, fmt.Errorf("csv contains no code rows")
	}

	inserted, err := s.codes.BulkInsertCodes(ctx, codes)
	if err != nil {
		return inserted, fmt.Errorf("bulk insert: %w", err)
	}
	s.logger.Info().Int("parsed", len(codes)).Int("inserted", inserted).Str("system", system).Msg("csv ingestion complete")
	return inserted, nil
}
