package calendar

import (
	"errors"
	"fmt"
)

// Shape identifies which of the known raw payload layouts a record uses.
// Raw payloads arrive in several incompatible forms: already-canonical
// documents, scraper output wrapped in a text or raw field, and single-key
// wrappers produced by older pipeline runs.
type Shape int

const (
	// ShapeCanonical payloads already carry school_name and terms.
	ShapeCanonical Shape = iota
	// ShapeTextWrapped payloads embed the document in a "text" field.
	ShapeTextWrapped
	// ShapeRawWrapped payloads embed the document in a "raw" field.
	ShapeRawWrapped
	// ShapeSingleString payloads have exactly one key whose value is a string.
	ShapeSingleString
	// ShapeUnrecognized payloads match none of the known layouts.
	ShapeUnrecognized
)

// DetectShape decides, in a fixed order, how a raw payload should be read.
// For the wrapped shapes the embedded text is returned alongside the shape.
func DetectShape(payload map[string]any) (Shape, string) {
	if _, hasName := payload["school_name"]; hasName {
		if _, hasTerms := payload["terms"]; hasTerms {
			return ShapeCanonical, ""
		}
	}
	if v, ok := payload["text"]; ok {
		s, _ := v.(string)
		return ShapeTextWrapped, s
	}
	if v, ok := payload["raw"]; ok {
		s, _ := v.(string)
		return ShapeRawWrapped, s
	}
	if len(payload) == 1 {
		for _, v := range payload {
			if s, ok := v.(string); ok {
				return ShapeSingleString, s
			}
		}
	}
	return ShapeUnrecognized, ""
}

// Refine turns an arbitrary record payload into the canonical calendar
// document, or reports why the record is unrecoverable. The error text is the
// rejection reason recorded by the sweep commands: "Data is NULL", "Could not
// extract JSON", or "Invalid format: <validator reason>".
func Refine(payload any) (map[string]any, error) {
	if payload == nil {
		return nil, errors.New("Data is NULL")
	}

	m, ok := payload.(map[string]any)
	if !ok {
		return nil, errors.New("Could not extract JSON")
	}

	var candidate any
	shape, text := DetectShape(m)
	switch shape {
	case ShapeCanonical:
		candidate = m
	case ShapeTextWrapped, ShapeRawWrapped, ShapeSingleString:
		extracted, found := ExtractJSON(text)
		if !found {
			return nil, errors.New("Could not extract JSON")
		}
		candidate = extracted
	default:
		return nil, errors.New("Could not extract JSON")
	}

	if err := Validate(candidate); err != nil {
		return nil, fmt.Errorf("Invalid format: %s", err)
	}

	// Validate guarantees the candidate is an object.
	return Normalize(candidate.(map[string]any)), nil
}

// Normalize rebuilds a document with exactly the canonical keys: known string
// fields are copied (defaulting to "" when absent), end_date and time pass
// through unchanged including null, and extraneous keys are dropped. Running
// Normalize on an already-normalized document is a no-op.
func Normalize(doc map[string]any) map[string]any {
	refined := map[string]any{
		"school_name": fieldOr(doc, "school_name"),
		"source_url":  fieldOr(doc, "source_url"),
	}

	terms := []any{}
	rawTerms, _ := doc["terms"].([]any)
	for _, t := range rawTerms {
		term, _ := t.(map[string]any)

		events := []any{}
		rawEvents, _ := term["events"].([]any)
		for _, e := range rawEvents {
			event, _ := e.(map[string]any)
			events = append(events, map[string]any{
				"start_date": fieldOr(event, "start_date"),
				"end_date":   event["end_date"],
				"time":       event["time"],
				"event_text": fieldOr(event, "event_text"),
			})
		}

		terms = append(terms, map[string]any{
			"academic_year": fieldOr(term, "academic_year"),
			"term_name":     fieldOr(term, "term_name"),
			"events":        events,
		})
	}
	refined["terms"] = terms

	return refined
}

func fieldOr(m map[string]any, key string) any {
	if v, ok := m[key]; ok {
		return v
	}
	return ""
}
