package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiConfig configures the Gemini suggestion client.
type GeminiConfig struct {
	APIKey  string
	Model   string        // e.g. "gemini-1.5-flash"
	BaseURL string        // override for tests; defaults to the public endpoint
	Timeout time.Duration // wall-clock bound on a single suggestion call
}

// GeminiClient asks a Gemini generateContent endpoint for candidate ICD-11
// mappings of a traditional-medicine code. Responses are expected to be a
// JSON array of suggestion objects; anything else is ErrMalformed.
type GeminiClient struct {
	cfg    GeminiConfig
	client *http.Client
}

// NewGeminiClient creates a Gemini-backed suggestion provider.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &GeminiClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Suggest implements Provider.
func (g *GeminiClient) Suggest(ctx context.Context, code, display, definition string) ([]Suggestion, error) {
	prompt := buildPrompt(code, display, definition)

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrUnavailable, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.cfg.BaseURL, g.cfg.Model, g.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrMalformed, err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: no candidates", ErrMalformed)
	}

	return parseSuggestions(gr.Candidates[0].Content.Parts[0].Text)
}

// buildPrompt assembles the mapping prompt sent to the model. The model is
// instructed to answer with bare JSON so parseSuggestions can decode it.
func buildPrompt(code, display, definition string) string {
	var b strings.Builder
	b.WriteString("You are a medical terminology expert mapping NAMASTE traditional-medicine codes to WHO ICD-11 (Traditional Medicine Module 2 or Biomedicine).\n")
	fmt.Fprintf(&b, "Source code: %s\nDisplay: %s\n", code, display)
	if definition != "" {
		fmt.Fprintf(&b, "Definition: %s\n", definition)
	}
	b.WriteString("Respond with only a JSON array. Each element: {\"targetCode\", \"targetSystem\", \"targetDisplay\", \"equivalence\" (equivalent|wider|narrower|inexact), \"confidence\" (0-100 integer), \"rationale\"}. Return [] if no plausible mapping exists.\n")
	return b.String()
}

// parseSuggestions decodes the model's text answer. Markdown code fences are
// stripped first; models add them despite instructions.
func parseSuggestions(text string) ([]Suggestion, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var raw []struct {
		TargetCode    string      `json:"targetCode"`
		TargetSystem  string      `json:"targetSystem"`
		TargetDisplay string      `json:"targetDisplay"`
		Equivalence   string      `json:"equivalence"`
		Confidence    json.Number `json:"confidence"`
		Rationale     string      `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	suggestions := make([]Suggestion, 0, len(raw))
	for _, r := range raw {
		if r.TargetCode == "" {
			continue
		}
		conf := parseConfidenceNumber(r.Confidence)
		eq := r.Equivalence
		switch eq {
		case "equivalent", "wider", "narrower", "inexact":
		default:
			eq = "inexact"
		}
		suggestions = append(suggestions, Suggestion{
			TargetCode:    r.TargetCode,
			TargetSystem:  r.TargetSystem,
			TargetDisplay: r.TargetDisplay,
			Equivalence:   eq,
			Confidence:    conf,
			Rationale:     r.Rationale,
		})
	}
	return suggestions, nil
}

func parseConfidenceNumber(n json.Number) int {
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	c := int(f)
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
