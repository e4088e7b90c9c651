package terminology

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newIngestService() (*Service, *MemRepository) {
	repo := NewMemRepository()
	return NewService(repo, repo, nil, zerolog.Nop()), repo
}

func TestIngestCSV_WithHeader(t *testing.T) {
	svc, repo := newIngestService()

	csv := "code,display,definition,category\n" +
		"AYU-DIG-001,Agnimandya,Impaired digestive fire,AYU\n" +
		"AYU-DIG-002,Amlapitta,Hyperacidity,AYU\n"
	count, err := svc.IngestCSV(context.Background(), strings.NewReader(csv), SystemNAMASTE)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 inserted, got %d", count)
	}

	c, err := repo.GetCode(context.Background(), "AYU-DIG-001", SystemNAMASTE)
	if err != nil || c == nil {
		t.Fatalf("expected code to be persisted, got %v, %v", c, err)
	}
	if c.Category != "AYU" {
		t.Errorf("expected category AYU, got %q", c.Category)
	}
}

func TestIngestCSV_WithoutHeader(t *testing.T) {
	svc, _ := newIngestService()

	count, err := svc.IngestCSV(context.Background(), strings.NewReader("SID-DIG-001,Gunmam\n"), SystemNAMASTE)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 inserted, got %d", count)
	}
}

func TestIngestCSV_DuplicatesSkipped(t *testing.T) {
	svc, _ := newIngestService()
	ctx := context.Background()

	csv := "AYU-DIG-001,Agnimandya\n"
	if _, err := svc.IngestCSV(ctx, strings.NewReader(csv), SystemNAMASTE); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	count, err := svc.IngestCSV(ctx, strings.NewReader(csv), SystemNAMASTE)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 inserted on re-ingest, got %d", count)
	}
}

func TestIngestCSV_MissingDisplay(t *testing.T) {
	svc, _ := newIngestService()

	_, err := svc.IngestCSV(context.Background(), strings.NewReader("code,display\nAYU-DIG-001,\n"), SystemNAMASTE)
	if err == nil {
		t.Fatal("expected error for empty display")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name the offending line: %v", err)
	}
}

func TestIngestCSV_EmptyFile(t *testing.T) {
	svc, _ := newIngestService()

	if _, err := svc.IngestCSV(context.Background(), strings.NewReader(""), SystemNAMASTE); err == nil {
		t.Fatal("expected error for empty csv")
	}
	if _, err := svc.IngestCSV(context.Background(), strings.NewReader("code,display\n"), SystemNAMASTE); err == nil {
		t.Fatal("expected error for header-only csv")
	}
}
