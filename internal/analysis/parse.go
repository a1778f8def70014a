package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseResultJSON parses the JSON answer of a vision model into a Result
func parseResultJSON(text string, modelID string) (*Result, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	// Models sometimes wrap the object in prose
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var result Result
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	result.ModelID = modelID
	for i := range result.Documents {
		if result.Documents[i].DocType == "" {
			result.Documents[i].DocType = modelID
		}
	}
	return &result, nil
}
