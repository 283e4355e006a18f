package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/ukedu/termtrack/internal/calendar"
	"github.com/ukedu/termtrack/internal/store"
)

// RefineStats tracks refinement statistics
type RefineStats struct {
	Total   int
	Valid   int
	Invalid int
	Skipped int
	Saved   int
	Deleted int
}

// Rejection describes one record the refiner could not normalize.
type Rejection struct {
	RecordID   int
	SchoolURN  int
	SchoolName string
	Reason     string
}

// RefinedEntry describes one record that refined cleanly.
type RefinedEntry struct {
	RecordID   int            `json:"record_id"`
	SchoolURN  int            `json:"school_urn"`
	SchoolName string         `json:"school_name"`
	TermCount  int            `json:"term_count"`
	Document   map[string]any `json:"document"`
}

// Refiner normalizes stored calendar payloads into the canonical shape.
type Refiner struct {
	db        *sql.DB
	records   *store.RecordStore
	logger    *log.Logger
	errLogger *log.Logger

	Refined    []RefinedEntry
	Rejections []Rejection
}

// NewRefiner creates a new Refiner.
func NewRefiner(db *sql.DB, records *store.RecordStore) *Refiner {
	return &Refiner{
		db:        db,
		records:   records,
		logger:    log.New(os.Stdout, "", log.LstdFlags),
		errLogger: log.New(os.Stderr, "ERROR: ", log.LstdFlags),
	}
}

// Run refines every stored record. With save=false it is a dry run: records
// are inspected and classified but nothing is written. With save=true the
// normalized payloads are written back in one transaction, and with
// deleteInvalid=true the records that failed refinement are deleted in the
// same transaction. A rejection never aborts the sweep.
func (r *Refiner) Run(ctx context.Context, save, deleteInvalid bool) (*RefineStats, error) {
	stats := &RefineStats{}

	r.logger.Println("Loading records...")
	records, err := r.records.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	stats.Total = len(records)
	r.logger.Printf("Found %d records to refine", stats.Total)

	var tx *sql.Tx
	if save {
		tx, err = r.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()
	}

	for _, rec := range records {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		payload, err := rec.PayloadValue()
		if err != nil {
			stats.Invalid++
			r.reject(rec, fmt.Sprintf("Invalid JSON: %v", err))
			if save && deleteInvalid {
				if err := r.records.DeleteByIDTx(ctx, tx, rec.ID); err != nil {
					return stats, err
				}
				stats.Deleted++
			}
			continue
		}

		// Source CSV rows stored by the importer are not scraper output;
		// leave them alone so the exporter can still read address data.
		if isSourceRow(payload) {
			stats.Skipped++
			continue
		}

		refined, err := calendar.Refine(payload)
		if err != nil {
			stats.Invalid++
			r.reject(rec, err.Error())
			if save && deleteInvalid {
				if err := r.records.DeleteByIDTx(ctx, tx, rec.ID); err != nil {
					return stats, err
				}
				stats.Deleted++
			}
			continue
		}

		stats.Valid++
		terms, _ := refined["terms"].([]any)
		r.Refined = append(r.Refined, RefinedEntry{
			RecordID:   rec.ID,
			SchoolURN:  rec.SchoolURN,
			SchoolName: rec.SchoolName,
			TermCount:  len(terms),
			Document:   refined,
		})

		if save {
			data, err := json.Marshal(refined)
			if err != nil {
				return stats, fmt.Errorf("failed to encode refined record %d: %w", rec.ID, err)
			}
			if err := r.records.UpdatePayloadTx(ctx, tx, rec.ID, data); err != nil {
				return stats, err
			}
			stats.Saved++
		}
	}

	if save {
		if err := tx.Commit(); err != nil {
			return stats, fmt.Errorf("failed to commit refinement: %w", err)
		}
	}

	return stats, nil
}

// isSourceRow reports whether a payload is an imported establishment CSV row
// rather than scraper output.
func isSourceRow(payload any) bool {
	m, ok := payload.(map[string]any)
	if !ok {
		return false
	}
	if _, ok := m["URN"]; ok {
		return true
	}
	_, ok = m["EstablishmentName"]
	return ok
}

func (r *Refiner) reject(rec store.RecordWithSchool, reason string) {
	r.Rejections = append(r.Rejections, Rejection{
		RecordID:   rec.ID,
		SchoolURN:  rec.SchoolURN,
		SchoolName: rec.SchoolName,
		Reason:     reason,
	})
}

// WriteRefinedJSON writes the refined documents to a JSON file.
func (r *Refiner) WriteRefinedJSON(path string) error {
	data, err := json.MarshalIndent(r.Refined, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode refined data: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write refined data: %w", err)
	}
	r.logger.Printf("Refined data saved to: %s", path)
	return nil
}

// PrintSummary prints the refinement statistics
func (r *Refiner) PrintSummary(stats *RefineStats, save bool) {
	r.logger.Println("")
	r.logger.Println("=== Refinement Summary ===")
	r.logger.Printf("Total records:   %d", stats.Total)
	r.logger.Printf("Valid:           %d", stats.Valid)
	r.logger.Printf("Invalid:         %d", stats.Invalid)
	r.logger.Printf("Skipped:         %d (source rows)", stats.Skipped)
	if save {
		r.logger.Printf("Saved:           %d", stats.Saved)
		r.logger.Printf("Deleted:         %d", stats.Deleted)
	} else {
		r.logger.Println("Dry run: no changes written (use --save to persist)")
	}

	if len(r.Refined) > 0 {
		r.logger.Println("")
		r.logger.Println("Refined records:")
		for i, e := range r.Refined {
			if i >= 10 {
				r.logger.Printf("  ... and %d more", len(r.Refined)-10)
				break
			}
			r.logger.Printf("  [%d] %s (URN %d): %d terms", e.RecordID, e.SchoolName, e.SchoolURN, e.TermCount)
		}
	}

	if len(r.Rejections) > 0 {
		r.logger.Println("")
		r.logger.Println("Invalid records:")
		for i, rej := range r.Rejections {
			if i >= 20 {
				r.logger.Printf("  ... and %d more", len(r.Rejections)-20)
				break
			}
			r.logger.Printf("  [%d] %s (URN %d): %s", rej.RecordID, rej.SchoolName, rej.SchoolURN, rej.Reason)
		}
	}
}
