package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog/log"
)

const maxCategoryLength = 64

// ParseDraftResponse extracts {category, draft} from raw model output. Output
// wrapped in code fences or prose is tolerated, and slightly broken JSON is
// repaired before giving up.
func ParseDraftResponse(raw string) (*DraftResult, error) {
	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrMalformedDraft)
	}

	var result DraftResult
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(jsonStr)
		if repairErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDraft, err)
		}
		if err := json.Unmarshal([]byte(repaired), &result); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDraft, err)
		}
		log.Debug().Int("bytes", len(jsonStr)).Msg("Repaired draft JSON")
	}

	result.Draft = strings.TrimSpace(result.Draft)
	if result.Draft == "" {
		return nil, fmt.Errorf("%w: empty draft", ErrMalformedDraft)
	}
	result.Category = normalizeCategory(result.Category)
	return &result, nil
}

func normalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return "Other"
	}
	for _, known := range DraftCategories {
		if strings.EqualFold(known, category) {
			return known
		}
	}
	if len(category) > maxCategoryLength {
		cut := maxCategoryLength
		for cut > 0 && !utf8.RuneStart(category[cut]) {
			cut--
		}
		category = strings.TrimSpace(category[:cut])
	}
	return category
}

// extractJSON pulls the JSON object out of mixed text/JSON output
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		return raw
	}

	if strings.Contains(raw, "```") {
		var lines []string
		inBlock := false
		for _, line := range strings.Split(raw, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				if inBlock {
					break
				}
				inBlock = true
				continue
			}
			if inBlock {
				lines = append(lines, line)
			}
		}
		if block := strings.TrimSpace(strings.Join(lines, "\n")); strings.HasPrefix(block, "{") {
			return block
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
