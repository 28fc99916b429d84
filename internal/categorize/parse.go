package categorize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// modelAnswer is the structured record the classifier is asked to return.
type modelAnswer struct {
	PrimaryCategory string  `json:"primary_category"`
	Subcategory     string  `json:"subcategory"`
	Confidence      float64 `json:"confidence"`
}

var jsonObjectRe = regexp.MustCompile(`\{[^{}]*\}`)

// parseModelAnswer extracts the structured answer from the raw model
// response. Markdown fences are stripped first; if a direct unmarshal
// still fails, the first object-looking substring is tried.
func parseModelAnswer(raw string) (modelAnswer, error) {
	clean := cleanModelJSON(raw)

	var answer modelAnswer
	if err := json.Unmarshal([]byte(clean), &answer); err == nil {
		return answer, nil
	}

	match := jsonObjectRe.FindString(clean)
	if match == "" {
		return modelAnswer{}, fmt.Errorf("parseModelAnswer: no JSON object in model response")
	}
	if err := json.Unmarshal([]byte(match), &answer); err != nil {
		return modelAnswer{}, fmt.Errorf("parseModelAnswer: unmarshal extracted JSON: %w", err)
	}
	return answer, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk if the model
// ignored the formatting instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Extra safety: if there's still junk around the JSON object,
	// keep only from the first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
