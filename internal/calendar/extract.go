package calendar

import (
	"encoding/json"
	"regexp"
)

var (
	// Fenced code block, optionally tagged json, containing a brace-delimited object.
	fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

	// Brace-delimited substring tolerating one level of nested braces.
	braceRe = regexp.MustCompile(`(?s)\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)
)

// ExtractJSON pulls a candidate JSON value out of arbitrary text. The scraping
// agent does not reliably emit pure JSON, so extraction is deliberately
// permissive: a direct parse is tried first, then the first markdown-fenced
// block, then any brace-delimited substring that parses and carries the
// school_name and terms keys. Returns false when nothing usable is found.
func ExtractJSON(text string) (any, bool) {
	if text == "" {
		return nil, false
	}

	var direct any
	if err := json.Unmarshal([]byte(text), &direct); err == nil {
		return direct, true
	}

	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		var doc any
		if err := json.Unmarshal([]byte(m[1]), &doc); err == nil {
			return doc, true
		}
	}

	for _, candidate := range braceRe.FindAllString(text, -1) {
		var doc map[string]any
		if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
			continue
		}
		if _, ok := doc["school_name"]; !ok {
			continue
		}
		if _, ok := doc["terms"]; !ok {
			continue
		}
		return doc, true
	}

	return nil, false
}
