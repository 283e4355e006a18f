package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ukedu/termtrack/internal/calendar"
	"github.com/ukedu/termtrack/internal/model"
	"github.com/ukedu/termtrack/internal/store"
)

func TestBuildProcessPlan(t *testing.T) {
	refined := func(urn int, process bool) SchoolState {
		return SchoolState{
			School:    model.School{URN: urn, Process: process},
			HasRecord: true,
			Status:    calendar.StatusRefined,
		}
	}

	t.Run("refined school with process=false is promoted", func(t *testing.T) {
		plan := buildProcessPlan([]SchoolState{refined(100001, false)}, false)
		assert.Equal(t, []int{100001}, plan.Promote)
		assert.Empty(t, plan.Demote)
		assert.Equal(t, 1, plan.WithValidData)
	})

	t.Run("refined school with process=true is a no-op", func(t *testing.T) {
		plan := buildProcessPlan([]SchoolState{refined(100001, true)}, false)
		assert.Empty(t, plan.Promote)
		assert.Equal(t, 1, plan.AlreadyCorrect)
	})

	t.Run("invalid data demotes only when demote enabled", func(t *testing.T) {
		states := []SchoolState{{
			School:    model.School{URN: 100002, Process: true},
			HasRecord: true,
			Status:    calendar.StatusInvalid,
		}}

		plan := buildProcessPlan(states, false)
		assert.Empty(t, plan.Demote)
		assert.Equal(t, 1, plan.AlreadyCorrect)

		plan = buildProcessPlan(states, true)
		assert.Equal(t, []int{100002}, plan.Demote)
	})

	t.Run("school without records never promotes", func(t *testing.T) {
		states := []SchoolState{{School: model.School{URN: 100003}}}
		plan := buildProcessPlan(states, true)
		assert.Empty(t, plan.Promote)
		assert.Empty(t, plan.Demote)
		assert.Equal(t, 0, plan.WithValidData)
	})

	t.Run("empty-terms records do not count as valid", func(t *testing.T) {
		states := []SchoolState{{
			School:    model.School{URN: 100004, Process: false},
			HasRecord: true,
			Status:    calendar.StatusRefinedEmptyTerms,
		}}
		plan := buildProcessPlan(states, false)
		assert.Empty(t, plan.Promote)
	})

	t.Run("totals", func(t *testing.T) {
		plan := buildProcessPlan([]SchoolState{refined(1, false), refined(2, true)}, false)
		assert.Equal(t, 2, plan.Total)
		assert.Equal(t, 2, plan.WithValidData)
	})
}

func TestBuildFlagResetPlan(t *testing.T) {
	school := func(urn, records int, second, third bool) store.SchoolWithRecordCount {
		return store.SchoolWithRecordCount{
			School:      model.School{URN: urn, SecondScraper: second, ThirdScraper: third},
			RecordCount: records,
		}
	}

	t.Run("no records and second_scraper set is reset", func(t *testing.T) {
		plan := buildFlagResetPlan([]store.SchoolWithRecordCount{school(100001, 0, true, false)})
		assert.Equal(t, []int{100001}, plan.Reset)
	})

	t.Run("no records and third_scraper set is reset", func(t *testing.T) {
		plan := buildFlagResetPlan([]store.SchoolWithRecordCount{school(100002, 0, false, true)})
		assert.Equal(t, []int{100002}, plan.Reset)
	})

	t.Run("schools with records are left alone", func(t *testing.T) {
		plan := buildFlagResetPlan([]store.SchoolWithRecordCount{school(100003, 2, true, true)})
		assert.Empty(t, plan.Reset)
	})

	t.Run("no flags set means no-op even without records", func(t *testing.T) {
		plan := buildFlagResetPlan([]store.SchoolWithRecordCount{school(100004, 0, false, false)})
		assert.Empty(t, plan.Reset)
	})
}
