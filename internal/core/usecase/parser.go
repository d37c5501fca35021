package usecase

import (
	"encoding/json"
	"strings"

	"github.com/mpetrenko/doc-enrichment/internal/core/domain"
)

// ExtractJSONObject recovers a JSON object from free-form model output.
// It first tries the span between the first '{' and the last '}', then the
// whole text, and returns nil when neither parses. The order is part of the
// contract: callers depend on the combined-span attempt happening first.
func ExtractJSONObject(raw string) json.RawMessage {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		candidate := raw[start : end+1]
		if obj := parseObject(candidate); obj != nil {
			return obj
		}
	}
	return parseObject(raw)
}

func parseObject(candidate string) json.RawMessage {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
		return nil
	}
	return json.RawMessage(candidate)
}

// ParseClassification extracts and validates a classification result.
// A result without a non-empty label counts as failed parsing.
func ParseClassification(raw string) (domain.Classification, bool) {
	obj := ExtractJSONObject(raw)
	if obj == nil {
		return domain.Classification{}, false
	}
	var cls domain.Classification
	if err := json.Unmarshal(obj, &cls); err != nil {
		return domain.Classification{}, false
	}
	if strings.TrimSpace(cls.Label) == "" {
		return domain.Classification{}, false
	}
	if cls.Tags == nil {
		cls.Tags = []string{}
	}
	return cls, true
}

// ParseSummary extracts and validates a summarization result.
// A result without a summary field counts as failed parsing.
func ParseSummary(raw string) (domain.SummaryResult, bool) {
	obj := ExtractJSONObject(raw)
	if obj == nil {
		return domain.SummaryResult{}, false
	}
	var sum domain.SummaryResult
	if err := json.Unmarshal(obj, &sum); err != nil {
		return domain.SummaryResult{}, false
	}
	if strings.TrimSpace(sum.Summary) == "" {
		return domain.SummaryResult{}, false
	}
	if sum.KeyPoints == nil {
		sum.KeyPoints = []string{}
	}
	return sum, true
}
