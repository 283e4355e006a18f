package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarDoc(t *testing.T) {
	t.Run("canonical document", func(t *testing.T) {
		doc := calendarDoc(map[string]any{"school_name": "A", "terms": []any{}})
		assert.NotNil(t, doc)
	})

	t.Run("missing terms", func(t *testing.T) {
		assert.Nil(t, calendarDoc(map[string]any{"school_name": "A"}))
	})

	t.Run("missing school_name", func(t *testing.T) {
		assert.Nil(t, calendarDoc(map[string]any{"terms": []any{}}))
	})

	t.Run("non-object payloads", func(t *testing.T) {
		assert.Nil(t, calendarDoc(nil))
		assert.Nil(t, calendarDoc("text"))
		assert.Nil(t, calendarDoc([]any{1, 2}))
	})
}

func TestTermColumns(t *testing.T) {
	t.Run("single-day event", func(t *testing.T) {
		doc := map[string]any{
			"school_name": "A",
			"terms": []any{
				map[string]any{
					"term_name": "Autumn",
					"events": []any{
						map[string]any{"start_date": "2024-09-01", "event_text": "Start of term"},
					},
				},
			},
		}

		cols := termColumns(doc)
		require.Len(t, cols, 1)
		assert.Equal(t, "Autumn", cols[0].Term)
		assert.Equal(t, "2024-09-01", cols[0].Date)
		assert.Equal(t, "Start of term", cols[0].Detail)
	})

	t.Run("date range from first event", func(t *testing.T) {
		doc := map[string]any{
			"school_name": "A",
			"terms": []any{
				map[string]any{
					"term_name": "Half Term",
					"events": []any{
						map[string]any{"start_date": "2024-10-28", "end_date": "2024-11-01", "event_text": "Half term break"},
					},
				},
			},
		}

		cols := termColumns(doc)
		require.Len(t, cols, 1)
		assert.Equal(t, "2024-10-28 to 2024-11-01", cols[0].Date)
	})

	t.Run("end date equal to start collapses to single date", func(t *testing.T) {
		doc := map[string]any{
			"school_name": "A",
			"terms": []any{
				map[string]any{
					"term_name": "INSET",
					"events": []any{
						map[string]any{"start_date": "2024-09-02", "end_date": "2024-09-02", "event_text": "INSET day"},
					},
				},
			},
		}

		cols := termColumns(doc)
		require.Len(t, cols, 1)
		assert.Equal(t, "2024-09-02", cols[0].Date)
	})

	t.Run("multiple events joined in detail", func(t *testing.T) {
		doc := map[string]any{
			"school_name": "A",
			"terms": []any{
				map[string]any{
					"term_name": "Autumn",
					"events": []any{
						map[string]any{"start_date": "2024-09-01", "event_text": "Term starts"},
						map[string]any{"start_date": "2024-12-20", "event_text": "Term ends"},
					},
				},
			},
		}

		cols := termColumns(doc)
		require.Len(t, cols, 1)
		assert.Equal(t, "Term starts | Term ends", cols[0].Detail)
	})

	t.Run("term without events", func(t *testing.T) {
		doc := map[string]any{
			"school_name": "A",
			"terms": []any{
				map[string]any{"term_name": "Spring", "events": []any{}},
			},
		}

		cols := termColumns(doc)
		require.Len(t, cols, 1)
		assert.Equal(t, "Spring", cols[0].Term)
		assert.Empty(t, cols[0].Date)
		assert.Empty(t, cols[0].Detail)
	})

	t.Run("non-object terms are skipped", func(t *testing.T) {
		doc := map[string]any{
			"school_name": "A",
			"terms":       []any{"not a term", map[string]any{"term_name": "Summer"}},
		}

		cols := termColumns(doc)
		require.Len(t, cols, 1)
		assert.Equal(t, "Summer", cols[0].Term)
	})

	t.Run("no terms", func(t *testing.T) {
		assert.Empty(t, termColumns(map[string]any{"school_name": "A"}))
	})
}
