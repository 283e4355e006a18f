package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/ukedu/termtrack/internal/calendar"
	"github.com/ukedu/termtrack/internal/model"
	"github.com/ukedu/termtrack/internal/store"
)

// SchoolState is a school paired with the classification of its current
// record, the input to the reconciliation planners.
type SchoolState struct {
	School    model.School
	HasRecord bool
	Status    calendar.Status
}

// ProcessPlan lists the process-flag changes a reconciliation run would make.
type ProcessPlan struct {
	Total          int
	WithValidData  int
	Promote        []int
	Demote         []int
	AlreadyCorrect int
}

// FlagResetPlan lists the schools whose scraper flags are out of step with
// their record history: flagged as scraped but with no records at all.
type FlagResetPlan struct {
	Total int
	Reset []int
}

// Reconciler aligns workflow flags with the actual state of stored records.
type Reconciler struct {
	db        *sql.DB
	schools   *store.SchoolStore
	records   *store.RecordStore
	logger    *log.Logger
	errLogger *log.Logger
}

// NewReconciler creates a new Reconciler.
func NewReconciler(db *sql.DB, schools *store.SchoolStore, records *store.RecordStore) *Reconciler {
	return &Reconciler{
		db:        db,
		schools:   schools,
		records:   records,
		logger:    log.New(os.Stdout, "", log.LstdFlags),
		errLogger: log.New(os.Stderr, "ERROR: ", log.LstdFlags),
	}
}

// buildProcessPlan decides, per school, whether its process flag matches the
// data on file. A school whose current record classifies as REFINED should
// have process=true; with demote enabled, a school without valid data and
// process=true is flagged for demotion back to false.
func buildProcessPlan(states []SchoolState, demote bool) *ProcessPlan {
	plan := &ProcessPlan{Total: len(states)}

	for _, st := range states {
		hasValid := st.HasRecord && st.Status == calendar.StatusRefined
		if hasValid {
			plan.WithValidData++
		}

		switch {
		case hasValid && !st.School.Process:
			plan.Promote = append(plan.Promote, st.School.URN)
		case !hasValid && st.School.Process && demote:
			plan.Demote = append(plan.Demote, st.School.URN)
		default:
			plan.AlreadyCorrect++
		}
	}

	return plan
}

// PlanProcess loads every school, classifies its current record, and returns
// the process-flag changes that would bring the flags in line.
func (r *Reconciler) PlanProcess(ctx context.Context, demote bool) (*ProcessPlan, error) {
	schools, err := r.schools.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load schools: %w", err)
	}

	r.logger.Printf("Checking %d schools...", len(schools))

	states := make([]SchoolState, 0, len(schools))
	for i, school := range schools {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		st := SchoolState{School: school}

		rec, err := r.records.LatestBySchool(ctx, school.URN)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			st.HasRecord = true
			payload, err := rec.PayloadValue()
			if err != nil {
				st.Status = calendar.StatusInvalid
			} else {
				st.Status = calendar.Classify(payload)
			}
		}

		states = append(states, st)

		if (i+1)%100 == 0 {
			r.logger.Printf("  Checked %d/%d schools", i+1, len(schools))
		}
	}

	return buildProcessPlan(states, demote), nil
}

// ApplyProcess writes a process plan's flag changes in one transaction.
func (r *Reconciler) ApplyProcess(ctx context.Context, plan *ProcessPlan) error {
	if len(plan.Promote) == 0 && len(plan.Demote) == 0 {
		r.logger.Println("Nothing to update")
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, urn := range plan.Promote {
		if err := r.schools.SetProcessTx(ctx, tx, urn, true); err != nil {
			return err
		}
	}
	for _, urn := range plan.Demote {
		if err := r.schools.SetProcessTx(ctx, tx, urn, false); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit flag updates: %w", err)
	}

	r.logger.Printf("Updated %d schools (%d promoted, %d demoted)",
		len(plan.Promote)+len(plan.Demote), len(plan.Promote), len(plan.Demote))
	return nil
}

// PrintProcessSummary prints the reconciliation statistics
func (r *Reconciler) PrintProcessSummary(plan *ProcessPlan, applied bool) {
	r.logger.Println("")
	r.logger.Println("=== Process Flag Summary ===")
	r.logger.Printf("Total schools:    %d", plan.Total)
	r.logger.Printf("With valid data:  %d", plan.WithValidData)
	r.logger.Printf("To promote:       %d", len(plan.Promote))
	r.logger.Printf("To demote:        %d", len(plan.Demote))
	r.logger.Printf("Already correct:  %d", plan.AlreadyCorrect)
	if !applied {
		r.logger.Println("Dry run: no changes written (use --update to persist)")
	}
}

// buildFlagResetPlan selects the schools marked as visited by a later scraper
// stage even though no record was ever stored for them.
func buildFlagResetPlan(schools []store.SchoolWithRecordCount) *FlagResetPlan {
	plan := &FlagResetPlan{Total: len(schools)}

	for _, s := range schools {
		if s.RecordCount == 0 && (s.SecondScraper || s.ThirdScraper) {
			plan.Reset = append(plan.Reset, s.URN)
		}
	}

	return plan
}

// PlanFlagReset finds schools with scraper flags set but no records.
func (r *Reconciler) PlanFlagReset(ctx context.Context) (*FlagResetPlan, error) {
	schools, err := r.schools.GetAllWithRecordCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load schools: %w", err)
	}
	return buildFlagResetPlan(schools), nil
}

// ApplyFlagReset clears the scraper flags for the planned schools.
func (r *Reconciler) ApplyFlagReset(ctx context.Context, plan *FlagResetPlan) (int, error) {
	return r.schools.ResetScraperFlags(ctx, plan.Reset)
}

// PrintFlagResetSummary prints the flag reset statistics
func (r *Reconciler) PrintFlagResetSummary(plan *FlagResetPlan, updated int, applied bool) {
	r.logger.Println("")
	r.logger.Println("=== Scraper Flag Reset Summary ===")
	r.logger.Printf("Total schools:    %d", plan.Total)
	r.logger.Printf("Flags to reset:   %d", len(plan.Reset))
	if applied {
		r.logger.Printf("Rows updated:     %d", updated)
	} else {
		r.logger.Println("Dry run: no changes written")
	}
}
