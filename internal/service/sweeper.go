package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ukedu/termtrack/internal/calendar"
	"github.com/ukedu/termtrack/internal/store"
)

// UnwantedTextPatterns are prompt-template fragments that leak into scraped
// payloads when the agent echoes the example output instead of extracting
// real data.
var UnwantedTextPatterns = []string{
	"FULL original event description exactly as written",
	"Original official event description",
}

// ReportEntry is one record flagged by the validation sweep.
type ReportEntry struct {
	RecordID   int
	SchoolURN  int
	SchoolName string
	Status     string
	Preview    string
}

// Report buckets every record by payload health.
type Report struct {
	Total       int
	Valid       int
	Null        []ReportEntry
	Empty       []ReportEntry
	InvalidJSON []ReportEntry

	SchoolsWithoutRecords []store.SchoolWithRecordCount
}

// Invalid returns how many records failed validation.
func (r *Report) Invalid() int {
	return len(r.Null) + len(r.Empty) + len(r.InvalidJSON)
}

// Match is one record matching a text search.
type Match struct {
	RecordID       int
	SchoolURN      int
	SchoolName     string
	LocalAuthority string
	Preview        string
}

// Sweeper runs the record maintenance sweeps: payload validation reports,
// text searches, and targeted deletes.
type Sweeper struct {
	schools   *store.SchoolStore
	records   *store.RecordStore
	logger    *log.Logger
	errLogger *log.Logger
}

// NewSweeper creates a new Sweeper.
func NewSweeper(schools *store.SchoolStore, records *store.RecordStore) *Sweeper {
	return &Sweeper{
		schools:   schools,
		records:   records,
		logger:    log.New(os.Stdout, "", log.LstdFlags),
		errLogger: log.New(os.Stderr, "ERROR: ", log.LstdFlags),
	}
}

func preview(payload []byte, limit int) string {
	s := string(payload)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// Validate buckets every record as null, empty, or undecodable, and lists
// the schools that have no records at all.
func (s *Sweeper) Validate(ctx context.Context) (*Report, error) {
	records, err := s.records.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	report := &Report{Total: len(records)}
	for _, rec := range records {
		entry := ReportEntry{
			RecordID:   rec.ID,
			SchoolURN:  rec.SchoolURN,
			SchoolName: rec.SchoolName,
			Preview:    preview(rec.Payload, 200),
		}

		payload, err := rec.PayloadValue()
		if err != nil {
			entry.Status = "INVALID JSON"
			report.InvalidJSON = append(report.InvalidJSON, entry)
			continue
		}

		switch calendar.Classify(payload) {
		case calendar.StatusNull:
			entry.Status = "NULL"
			report.Null = append(report.Null, entry)
		case calendar.StatusEmpty:
			entry.Status = "EMPTY DICTIONARY"
			report.Empty = append(report.Empty, entry)
		default:
			report.Valid++
		}
	}

	schools, err := s.schools.GetAllWithRecordCounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, school := range schools {
		if school.RecordCount == 0 {
			report.SchoolsWithoutRecords = append(report.SchoolsWithoutRecords, school)
		}
	}

	return report, nil
}

// payloadMatches reports whether the record's JSON text contains any of the
// search strings. Records that fail to decode never match.
func payloadMatches(payload []byte, searches []string, caseSensitive bool) bool {
	if len(payload) == 0 || !json.Valid(payload) {
		return false
	}

	text := string(payload)
	if !caseSensitive {
		text = strings.ToLower(text)
	}
	for _, search := range searches {
		if !caseSensitive {
			search = strings.ToLower(search)
		}
		if strings.Contains(text, search) {
			return true
		}
	}
	return false
}

// Search finds records whose payload text contains any of the given strings.
func (s *Sweeper) Search(ctx context.Context, searches []string, caseSensitive bool) ([]Match, int, error) {
	records, err := s.records.ListAll(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load records: %w", err)
	}

	var matches []Match
	for _, rec := range records {
		if !payloadMatches(rec.Payload, searches, caseSensitive) {
			continue
		}
		matches = append(matches, Match{
			RecordID:       rec.ID,
			SchoolURN:      rec.SchoolURN,
			SchoolName:     rec.SchoolName,
			LocalAuthority: rec.LocalAuthority,
			Preview:        preview(rec.Payload, 500),
		})
	}

	return matches, len(records), nil
}

// DeleteRecords removes the given records one by one, returning how many
// were deleted. Individual failures are logged and skipped.
func (s *Sweeper) DeleteRecords(ctx context.Context, ids []int) int {
	deleted := 0
	for _, id := range ids {
		if err := s.records.DeleteByID(ctx, id); err != nil {
			s.errLogger.Printf("Failed to delete record %d: %v", id, err)
			continue
		}
		deleted++
	}
	return deleted
}

// PrintReport prints the validation report
func (s *Sweeper) PrintReport(report *Report, summaryOnly bool) {
	s.logger.Println("")
	s.logger.Println("=== Validation Summary ===")
	s.logger.Printf("Total records:   %d", report.Total)
	s.logger.Printf("Valid:           %d", report.Valid)
	s.logger.Printf("Invalid/missing: %d", report.Invalid())
	s.logger.Printf("  NULL:          %d", len(report.Null))
	s.logger.Printf("  Empty:         %d", len(report.Empty))
	s.logger.Printf("  Invalid JSON:  %d", len(report.InvalidJSON))
	s.logger.Printf("Schools without records: %d", len(report.SchoolsWithoutRecords))

	if summaryOnly {
		return
	}

	printEntries := func(title string, entries []ReportEntry) {
		if len(entries) == 0 {
			return
		}
		s.logger.Println("")
		s.logger.Println(title + ":")
		for _, e := range entries {
			s.logger.Printf("  [%d] %s (URN %d): %s", e.RecordID, e.SchoolName, e.SchoolURN, e.Preview)
		}
	}
	printEntries("NULL records", report.Null)
	printEntries("Empty records", report.Empty)
	printEntries("Invalid JSON records", report.InvalidJSON)

	if len(report.SchoolsWithoutRecords) > 0 {
		s.logger.Println("")
		s.logger.Println("Schools without any records:")
		for i, school := range report.SchoolsWithoutRecords {
			if i >= 20 {
				s.logger.Printf("  ... and %d more", len(report.SchoolsWithoutRecords)-20)
				break
			}
			s.logger.Printf("  URN %d: %s", school.URN, school.EstablishmentName)
		}
	}
}

// PrintMatches prints text search matches
func (s *Sweeper) PrintMatches(matches []Match, checked int) {
	s.logger.Println("")
	s.logger.Println("=== Search Results ===")
	s.logger.Printf("Records checked: %d", checked)
	s.logger.Printf("Matches:         %d", len(matches))

	for i, m := range matches {
		s.logger.Printf("\n[%d] Record %d", i+1, m.RecordID)
		s.logger.Printf("    School: %s (URN %d)", m.SchoolName, m.SchoolURN)
		s.logger.Printf("    Local Authority: %s", m.LocalAuthority)
		s.logger.Printf("    Preview: %s", m.Preview)
	}
}

// WriteMatchReport writes search matches to a text file.
func (s *Sweeper) WriteMatchReport(path string, searches []string, matches []Match, checked int) error {
	var b strings.Builder
	b.WriteString("RECORD SEARCH RESULTS\n")
	b.WriteString(strings.Repeat("=", 80) + "\n\n")
	for _, search := range searches {
		fmt.Fprintf(&b, "Search Text: %q\n", search)
	}
	fmt.Fprintf(&b, "Records Checked: %d\n", checked)
	fmt.Fprintf(&b, "Matching Records: %d\n\n", len(matches))

	for i, m := range matches {
		fmt.Fprintf(&b, "[%d] Record ID: %d\n", i+1, m.RecordID)
		fmt.Fprintf(&b, "School URN: %d\n", m.SchoolURN)
		fmt.Fprintf(&b, "School Name: %s\n", m.SchoolName)
		fmt.Fprintf(&b, "Local Authority: %s\n", m.LocalAuthority)
		fmt.Fprintf(&b, "Preview:\n%s\n", m.Preview)
		b.WriteString(strings.Repeat("-", 80) + "\n\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	s.logger.Printf("Report saved to: %s", path)
	return nil
}

// WriteValidationReport writes the validation report to a text file.
func (s *Sweeper) WriteValidationReport(path string, report *Report) error {
	var b strings.Builder
	b.WriteString("INVALID/MISSING JSON ENTRIES REPORT\n")
	b.WriteString(strings.Repeat("=", 80) + "\n\n")
	fmt.Fprintf(&b, "Total Invalid Entries: %d\n", report.Invalid())
	fmt.Fprintf(&b, "NULL Entries: %d\n", len(report.Null))
	fmt.Fprintf(&b, "Empty Entries: %d\n", len(report.Empty))
	fmt.Fprintf(&b, "Invalid JSON Entries: %d\n\n", len(report.InvalidJSON))

	writeEntries := func(entries []ReportEntry) {
		for _, e := range entries {
			fmt.Fprintf(&b, "Record ID: %d\n", e.RecordID)
			fmt.Fprintf(&b, "School URN: %d\n", e.SchoolURN)
			fmt.Fprintf(&b, "School Name: %s\n", e.SchoolName)
			fmt.Fprintf(&b, "Data Status: %s\n", e.Status)
			fmt.Fprintf(&b, "Data Content: %s\n", e.Preview)
			b.WriteString(strings.Repeat("-", 80) + "\n\n")
		}
	}
	writeEntries(report.Null)
	writeEntries(report.Empty)
	writeEntries(report.InvalidJSON)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	s.logger.Printf("Report saved to: %s", path)
	return nil
}
