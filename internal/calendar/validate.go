package calendar

import (
	"errors"
	"fmt"
)

// Validate checks a candidate document against the canonical calendar shape.
// A nil return means the document is valid. Checks short-circuit at the first
// failure and the error text identifies exactly which check failed; callers
// surface that single reason, never an aggregate.
func Validate(doc any) error {
	m, ok := doc.(map[string]any)
	if !ok || m == nil {
		return errors.New("Not a dictionary")
	}

	for _, field := range []string{"school_name", "source_url", "terms"} {
		if _, ok := m[field]; !ok {
			return fmt.Errorf("Missing required field: %s", field)
		}
	}

	terms, ok := m["terms"].([]any)
	if !ok {
		return errors.New("terms must be a list")
	}
	if len(terms) == 0 {
		return errors.New("terms array is empty (no terms data)")
	}

	for _, t := range terms {
		term, ok := t.(map[string]any)
		if !ok {
			return errors.New("Term must be a dictionary")
		}
		for _, field := range []string{"academic_year", "term_name", "events"} {
			if _, ok := term[field]; !ok {
				return errors.New("Term missing required fields")
			}
		}

		events, ok := term["events"].([]any)
		if !ok {
			return errors.New("Events must be a list")
		}

		for _, e := range events {
			event, ok := e.(map[string]any)
			if !ok {
				return errors.New("Event must be a dictionary")
			}
			for _, field := range []string{"start_date", "event_text"} {
				if _, ok := event[field]; !ok {
					return fmt.Errorf("Event missing required field: %s", field)
				}
			}
		}
	}

	return nil
}
