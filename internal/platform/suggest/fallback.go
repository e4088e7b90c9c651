package suggest

import "strings"

const tm2SystemURI = "http://id.who.int/icd/release/11/mms/tm2"

// keywordRules maps display/definition keywords to broad TM2 categories.
// These are intentionally coarse: a fallback suggestion marks a candidate
// for manual review, it does not claim clinical equivalence.
var keywordRules = []struct {
	keywords      []string
	targetCode    string
	targetDisplay string
}{
	{[]string{"digest", "appetite", "stomach", "agni"}, "TM2-YM25", "Digestive system disorder (TM2)"},
	{[]string{"respir", "breath", "cough", "asthma", "swasa"}, "TM2-YM40", "Respiratory system disorder (TM2)"},
	{[]string{"skin", "derma", "kushta"}, "TM2-YM60", "Skin disorder (TM2)"},
	{[]string{"joint", "arthr", "sandhi", "vata"}, "TM2-YM70", "Musculoskeletal disorder (TM2)"},
	{[]string{"fever", "jvara", "pyrex"}, "TM2-YM10", "Fever disorder (TM2)"},
	{[]string{"mind", "mental", "anxiety", "manas"}, "TM2-YM80", "Mind and spirit disorder (TM2)"},
}

// Fallback derives low-confidence suggestions from keyword patterns in the
// code's display and definition text. It is used when the AI provider fails
// or times out. An empty slice means no plausible category was found.
func Fallback(code, display, definition string) []Suggestion {
	text := strings.ToLower(display + " " + definition)

	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return []Suggestion{
					{
						TargetCode:    rule.targetCode,
						TargetSystem:  tm2SystemURI,
						TargetDisplay: rule.targetDisplay,
						Equivalence:   "inexact",
						Confidence:    30,
						Rationale:     "keyword fallback; needs manual review",
					},
				}
			}
		}
	}
	return nil
}
