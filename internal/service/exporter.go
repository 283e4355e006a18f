package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/ukedu/termtrack/internal/model"
	"github.com/ukedu/termtrack/internal/store"
)

// ExportStats tracks export statistics
type ExportStats struct {
	Total    int
	Valid    int
	Invalid  int
	Rows     int
	MaxTerms int
}

// TermColumn is one term's flattened CSV cell triple.
type TermColumn struct {
	Term   string
	Date   string
	Detail string
}

// Exporter writes refined calendar data to a flat CSV, one row per school
// with a term/date/detail column triple per term.
type Exporter struct {
	schools   *store.SchoolStore
	records   *store.RecordStore
	logger    *log.Logger
	errLogger *log.Logger
}

// NewExporter creates a new Exporter.
func NewExporter(schools *store.SchoolStore, records *store.RecordStore) *Exporter {
	return &Exporter{
		schools:   schools,
		records:   records,
		logger:    log.New(os.Stdout, "", log.LstdFlags),
		errLogger: log.New(os.Stderr, "ERROR: ", log.LstdFlags),
	}
}

// calendarDoc returns the payload as a calendar document, or nil when the
// payload is not in calendar form.
func calendarDoc(payload any) map[string]any {
	doc, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	if _, ok := doc["school_name"]; !ok {
		return nil
	}
	if _, ok := doc["terms"]; !ok {
		return nil
	}
	return doc
}

// termColumns flattens a calendar document's terms. Each term's date is the
// first event's start date, or "start to end" when the event spans a range;
// the detail joins every event text in the term.
func termColumns(doc map[string]any) []TermColumn {
	terms, _ := doc["terms"].([]any)
	out := make([]TermColumn, 0, len(terms))

	for _, t := range terms {
		term, ok := t.(map[string]any)
		if !ok {
			continue
		}

		col := TermColumn{Term: stringField(term, "term_name")}

		events, _ := term["events"].([]any)
		if len(events) > 0 {
			if first, ok := events[0].(map[string]any); ok {
				start := stringField(first, "start_date")
				end := stringField(first, "end_date")
				if end != "" && end != start {
					col.Date = start + " to " + end
				} else {
					col.Date = start
				}
			}

			var texts []string
			for _, e := range events {
				event, ok := e.(map[string]any)
				if !ok {
					continue
				}
				if text := stringField(event, "event_text"); text != "" {
					texts = append(texts, text)
				}
			}
			col.Detail = strings.Join(texts, " | ")
		}

		out = append(out, col)
	}

	return out
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// schoolInfo is the per-school identity block of the export row.
type schoolInfo struct {
	Address       string
	Latitude      string
	Longitude     string
	ContactDetail string
}

// extractSchoolInfo builds address and contact details from the school's
// original source row, which the importer stored as a record alongside the
// scraped calendar data.
func (e *Exporter) extractSchoolInfo(ctx context.Context, school *model.School) (*schoolInfo, error) {
	info := &schoolInfo{ContactDetail: "{}"}

	records, err := e.records.ListBySchool(ctx, school.URN)
	if err != nil {
		return nil, err
	}

	var original map[string]any
	for _, rec := range records {
		payload, err := rec.PayloadValue()
		if err != nil {
			continue
		}
		doc, ok := payload.(map[string]any)
		if !ok {
			continue
		}
		if _, hasURN := doc["URN"]; hasURN {
			original = doc
			break
		}
		if _, hasName := doc["EstablishmentName"]; hasName {
			original = doc
			break
		}
	}

	contact := map[string]any{}
	if school.Website.Valid && school.Website.String != "" {
		contact["website"] = school.Website.String
	}

	if original != nil {
		var parts []string
		for _, key := range []string{"Street", "Locality", "Town", "Postcode"} {
			if v := stringField(original, key); v != "" {
				parts = append(parts, v)
			}
		}
		info.Address = strings.Join(parts, ", ")
		info.Latitude = stringField(original, "Latitude")
		info.Longitude = stringField(original, "Longitude")

		if _, ok := contact["website"]; !ok {
			if v := stringField(original, "SchoolWebsite"); v != "" {
				contact["website"] = v
			}
		}
		if v := stringField(original, "TelephoneNum"); v != "" {
			contact["telephone"] = v
		}
	}

	if len(contact) > 0 {
		data, err := json.Marshal(contact)
		if err != nil {
			return nil, fmt.Errorf("failed to encode contact detail for school %d: %w", school.URN, err)
		}
		info.ContactDetail = string(data)
	}

	return info, nil
}

// Export writes the CSV to path. The first pass finds the widest term count
// so every row gets the same column set; the second pass builds the rows.
// With includeInvalid=true, schools without calendar data are exported with
// empty term columns instead of being dropped.
func (e *Exporter) Export(ctx context.Context, path string, includeInvalid bool) (*ExportStats, error) {
	stats := &ExportStats{}

	schools, err := e.schools.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load schools: %w", err)
	}
	stats.Total = len(schools)

	e.logger.Println("Scanning schools to determine maximum terms...")
	docs := make(map[int]map[string]any, len(schools))
	for _, school := range schools {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		rec, err := e.records.LatestBySchool(ctx, school.URN)
		if err != nil {
			return stats, err
		}
		if rec == nil {
			continue
		}
		payload, err := rec.PayloadValue()
		if err != nil {
			continue
		}
		doc := calendarDoc(payload)
		if doc == nil {
			continue
		}

		docs[school.URN] = doc
		if terms, ok := doc["terms"].([]any); ok && len(terms) > stats.MaxTerms {
			stats.MaxTerms = len(terms)
		}
	}
	e.logger.Printf("Maximum terms found: %d", stats.MaxTerms)

	headers := []string{"school_id", "school_name", "address", "latitude", "longitude", "contact_detail"}
	for i := 1; i <= stats.MaxTerms; i++ {
		n := strconv.Itoa(i)
		headers = append(headers, "term_"+n, "date_"+n, "detail_"+n)
	}

	file, err := os.Create(path)
	if err != nil {
		return stats, fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(headers); err != nil {
		return stats, fmt.Errorf("failed to write CSV header: %w", err)
	}

	e.logger.Println("Processing schools and extracting data...")
	for _, school := range schools {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		doc := docs[school.URN]
		if doc == nil {
			stats.Invalid++
			if !includeInvalid {
				continue
			}
		} else {
			stats.Valid++
		}

		info, err := e.extractSchoolInfo(ctx, &school)
		if err != nil {
			return stats, err
		}

		row := []string{
			strconv.Itoa(school.URN),
			school.EstablishmentName,
			info.Address,
			info.Latitude,
			info.Longitude,
			info.ContactDetail,
		}

		var terms []TermColumn
		if doc != nil {
			terms = termColumns(doc)
		}
		for i := 0; i < stats.MaxTerms; i++ {
			if i < len(terms) {
				row = append(row, terms[i].Term, terms[i].Date, terms[i].Detail)
			} else {
				row = append(row, "", "", "")
			}
		}

		if err := writer.Write(row); err != nil {
			return stats, fmt.Errorf("failed to write row for school %d: %w", school.URN, err)
		}
		stats.Rows++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return stats, fmt.Errorf("failed to flush CSV: %w", err)
	}

	return stats, nil
}

// PrintSummary prints the export statistics
func (e *Exporter) PrintSummary(stats *ExportStats, path string) {
	e.logger.Println("")
	e.logger.Println("=== Export Summary ===")
	e.logger.Printf("Total schools:   %d", stats.Total)
	e.logger.Printf("With calendar:   %d", stats.Valid)
	e.logger.Printf("Without:         %d", stats.Invalid)
	e.logger.Printf("Rows exported:   %d", stats.Rows)
	e.logger.Printf("Output:          %s", path)
}
