package calendar

// Status buckets a record payload for reporting. Every consumer (admin
// summaries, CSV export, the invalid-data endpoint) classifies through this
// one function so they always agree on a record's state.
type Status int

const (
	// StatusNull means the payload is missing or JSON null.
	StatusNull Status = iota
	// StatusEmpty means the payload is an object with zero keys.
	StatusEmpty
	// StatusInvalid means the payload is present but not in calendar shape.
	StatusInvalid
	// StatusRefinedEmptyTerms means calendar shape but no terms data.
	StatusRefinedEmptyTerms
	// StatusRefined means calendar shape with at least one term.
	StatusRefined
)

// String returns the reporting name for the status.
func (s Status) String() string {
	switch s {
	case StatusNull:
		return "NULL"
	case StatusEmpty:
		return "EMPTY"
	case StatusInvalid:
		return "INVALID"
	case StatusRefinedEmptyTerms:
		return "REFINED_EMPTY_TERMS"
	case StatusRefined:
		return "REFINED"
	default:
		return "UNKNOWN"
	}
}

// Classify categorizes a record payload. It is a pure function of the payload
// and never mutates it; the categories are mutually exclusive and exhaustive.
func Classify(payload any) Status {
	if payload == nil {
		return StatusNull
	}
	m, ok := payload.(map[string]any)
	if !ok {
		return StatusInvalid
	}
	if len(m) == 0 {
		return StatusEmpty
	}
	if _, hasName := m["school_name"]; hasName {
		if terms, hasTerms := m["terms"]; hasTerms {
			if list, ok := terms.([]any); ok && len(list) > 0 {
				return StatusRefined
			}
			return StatusRefinedEmptyTerms
		}
	}
	return StatusInvalid
}
