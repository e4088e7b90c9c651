package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func geminiTextResponse(text string) string {
	body := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]string{{"text": text}},
				},
			},
		},
	}
	b, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func TestGeminiClient_Suggest_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(geminiTextResponse(`[
			{"targetCode":"TM2-YM25","targetSystem":"http://id.who.int/icd/release/11/mms/tm2","targetDisplay":"Digestive disorder","equivalence":"equivalent","confidence":85,"rationale":"direct match"}
		]`)))
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "test", BaseURL: srv.URL})
	suggestions, err := client.Suggest(context.Background(), "AYU-DIG-001", "Agnimandya", "Impaired digestive fire")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("suggestion count = %d, want 1", len(suggestions))
	}
	s := suggestions[0]
	if s.TargetCode != "TM2-YM25" || s.Equivalence != "equivalent" || s.Confidence != 85 {
		t.Errorf("unexpected suggestion: %+v", s)
	}
}

func TestGeminiClient_Suggest_StripsCodeFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiTextResponse("```json\n[{\"targetCode\":\"TM2-YM40\",\"confidence\":60,\"equivalence\":\"wider\"}]\n```")))
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "test", BaseURL: srv.URL})
	suggestions, err := client.Suggest(context.Background(), "SID-RES-004", "Swasa Kasam", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].TargetCode != "TM2-YM40" {
		t.Errorf("unexpected suggestions: %+v", suggestions)
	}
}

func TestGeminiClient_Suggest_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "test", BaseURL: srv.URL})
	_, err := client.Suggest(context.Background(), "AYU-DIG-001", "Agnimandya", "")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestGeminiClient_Suggest_MalformedAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiTextResponse("sorry, I cannot help with that")))
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "test", BaseURL: srv.URL})
	_, err := client.Suggest(context.Background(), "AYU-DIG-001", "Agnimandya", "")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("error = %v, want ErrMalformed", err)
	}
}

func TestGeminiClient_Suggest_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "test", BaseURL: srv.URL, Timeout: 10 * time.Millisecond})
	_, err := client.Suggest(context.Background(), "AYU-DIG-001", "Agnimandya", "")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable on timeout", err)
	}
}

func TestGeminiClient_Suggest_EquivalenceNormalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiTextResponse(`[{"targetCode":"X","equivalence":"sort-of","confidence":250}]`)))
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "test", BaseURL: srv.URL})
	suggestions, err := client.Suggest(context.Background(), "C", "D", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if suggestions[0].Equivalence != "inexact" {
		t.Errorf("equivalence = %q, want inexact for unknown values", suggestions[0].Equivalence)
	}
	if suggestions[0].Confidence != 100 {
		t.Errorf("confidence = %d, want clamp to 100", suggestions[0].Confidence)
	}
}

// =========== Fallback ===========

func TestFallback_DigestiveKeyword(t *testing.T) {
	suggestions := Fallback("AYU-DIG-001", "Agnimandya", "Impaired digestive fire leading to loss of appetite")
	if len(suggestions) != 1 {
		t.Fatalf("suggestion count = %d, want 1", len(suggestions))
	}
	s := suggestions[0]
	if s.TargetCode != "TM2-YM25" {
		t.Errorf("targetCode = %q, want TM2-YM25", s.TargetCode)
	}
	if s.Equivalence != "inexact" {
		t.Errorf("equivalence = %q, want inexact", s.Equivalence)
	}
	if s.Confidence >= 50 {
		t.Errorf("confidence = %d, fallback suggestions must be low confidence", s.Confidence)
	}
}

func TestFallback_NoMatch(t *testing.T) {
	suggestions := Fallback("UNA-XYZ-999", "Unmappable term", "")
	if len(suggestions) != 0 {
		t.Errorf("suggestion count = %d, want 0", len(suggestions))
	}
}

func TestFallback_CaseInsensitive(t *testing.T) {
	suggestions := Fallback("SID-RES-004", "SWASA KASAM", "Difficulty in BREATHING")
	if len(suggestions) != 1 || suggestions[0].TargetCode != "TM2-YM40" {
		t.Errorf("unexpected suggestions: %+v", suggestions)
	}
}
