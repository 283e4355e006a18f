package calendar

// Merge shallow-merges incoming onto existing: keys from incoming override
// same-named keys in existing, all other existing keys are preserved. Neither
// input is mutated. Incoming keys always win, which is the upsert contract of
// the data endpoint.
func Merge(existing, incoming map[string]any) map[string]any {
	merged := make(map[string]any, len(existing)+len(incoming))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range incoming {
		merged[k] = v
	}
	return merged
}
