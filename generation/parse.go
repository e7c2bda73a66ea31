package generation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrMalformedResponse is returned when the model output holds no usable
	// JSON problem list.
	ErrMalformedResponse = errors.New("malformed model response")
	// ErrNoProblems is returned when the model output parses but contains no
	// problem with a question.
	ErrNoProblems = errors.New("model returned no problems")
)

// ParseProblems extracts problems from raw model text. It tolerates markdown
// code fences and prose around the JSON, and accepts either a top-level array
// or an object with a "problems" array. Items without a question are skipped.
// Unknown or missing Bloom levels are left empty for the caller to resolve.
func ParseProblems(text string) ([]Problem, error) {
	body := extractJSON(text)
	if body == "" || !gjson.Valid(body) {
		return nil, fmt.Errorf("%w: no JSON document found", ErrMalformedResponse)
	}

	items := gjson.Parse(body)
	if items.IsObject() {
		items = items.Get("problems")
	}
	if !items.IsArray() {
		return nil, fmt.Errorf("%w: expected a problem array", ErrMalformedResponse)
	}

	var problems []Problem
	for _, it := range items.Array() {
		q := strings.TrimSpace(firstString(it, "question", "prompt", "text"))
		if q == "" {
			continue
		}
		p := Problem{
			ID:          it.Get("id").String(),
			Question:    q,
			Answer:      strings.TrimSpace(firstString(it, "answer", "solution")),
			Explanation: strings.TrimSpace(it.Get("explanation").String()),
		}
		if level, ok := ParseLevel(firstString(it, "bloomLevel", "bloom_level", "level")); ok {
			p.BloomLevel = level
		}
		it.Get("choices").ForEach(func(_, v gjson.Result) bool {
			p.Choices = append(p.Choices, v.String())
			return true
		})
		problems = append(problems, p)
	}

	if len(problems) == 0 {
		return nil, ErrNoProblems
	}
	return problems, nil
}

func firstString(r gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() {
			return v.String()
		}
	}
	return ""
}

// extractJSON returns the outermost JSON object or array in text.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return ""
	}
	closing := byte('}')
	if text[start] == '[' {
		closing = ']'
	}
	end := strings.LastIndexByte(text, closing)
	if end < start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}
