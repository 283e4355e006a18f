package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/ukedu/termtrack/internal/model"
	"github.com/ukedu/termtrack/internal/store"
)

// ImportStats tracks import statistics
type ImportStats struct {
	Created int
	Skipped int
	Errors  int
}

// Importer loads schools from a GIAS-style establishment CSV.
type Importer struct {
	db        *sql.DB
	schools   *store.SchoolStore
	records   *store.RecordStore
	logger    *log.Logger
	errLogger *log.Logger
}

// NewImporter creates a new Importer.
func NewImporter(db *sql.DB, schools *store.SchoolStore, records *store.RecordStore) *Importer {
	return &Importer{
		db:        db,
		schools:   schools,
		records:   records,
		logger:    log.New(os.Stdout, "", log.LstdFlags),
		errLogger: log.New(os.Stderr, "ERROR: ", log.LstdFlags),
	}
}

// decodeCSVBytes returns the file contents as UTF-8 text. Establishment
// exports are often Latin-1 encoded, so invalid UTF-8 falls back to an
// ISO 8859-1 decode, which never fails.
func decodeCSVBytes(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode file: %w", err)
	}
	return string(decoded), nil
}

// Import reads the CSV at path and creates a school per row, skipping URNs
// that already exist. With process=true, imported schools start with their
// process flag set. The whole import runs in one transaction.
func (i *Importer) Import(ctx context.Context, path string, process bool) (*ImportStats, error) {
	stats := &ImportStats{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	text, err := decodeCSVBytes(data)
	if err != nil {
		return nil, err
	}

	i.logger.Printf("Starting import from %s...", path)

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// GIAS exports sometimes carry a UTF-8 BOM on the first column name.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	cols := make(map[string]int, len(header))
	for idx, name := range header {
		cols[strings.TrimSpace(name)] = idx
	}
	if _, ok := cols["URN"]; !ok {
		return nil, fmt.Errorf("CSV is missing required column URN")
	}

	field := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Row 1 is the header.
	rowNum := 1
	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			i.errLogger.Printf("Row %d: %v", rowNum, err)
			stats.Errors++
			continue
		}

		urnStr := field(row, "URN")
		if urnStr == "" {
			continue
		}

		urn, err := strconv.Atoi(urnStr)
		if err != nil {
			i.logger.Printf("Row %d: Invalid URN %q, skipping...", rowNum, urnStr)
			stats.Errors++
			continue
		}

		exists, err := i.schools.ExistsTx(ctx, tx, urn)
		if err != nil {
			return stats, err
		}
		if exists {
			stats.Skipped++
			continue
		}

		name := field(row, "EstablishmentName")
		if name == "" {
			i.logger.Printf("Row %d: Missing EstablishmentName for URN %d, skipping...", rowNum, urn)
			stats.Errors++
			continue
		}

		school := &model.School{
			URN:                 urn,
			EstablishmentName:   name,
			LocalAuthority:      orUnknown(field(row, "LA (name)")),
			EstablishmentStatus: orUnknown(field(row, "EstablishmentStatus (name)")),
			Process:             process,
		}
		if website := field(row, "SchoolWebsite"); website != "" {
			school.Website = sql.NullString{String: website, Valid: true}
		}

		if err := i.schools.CreateTx(ctx, tx, school); err != nil {
			return stats, err
		}

		// Keep the full source row as the school's first record; the CSV
		// exporter reads address and contact details back out of it.
		if err := i.insertRowRecordTx(ctx, tx, urn, header, row); err != nil {
			return stats, err
		}

		stats.Created++
		if stats.Created%100 == 0 {
			i.logger.Printf("Processed %d schools...", stats.Created)
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("failed to commit import: %w", err)
	}

	return stats, nil
}

func (i *Importer) insertRowRecordTx(ctx context.Context, tx *sql.Tx, urn int, header, row []string) error {
	doc := make(map[string]any, len(header))
	for idx, name := range header {
		var value string
		if idx < len(row) {
			value = strings.TrimSpace(row[idx])
		}
		if value == "" {
			doc[strings.TrimSpace(name)] = nil
		} else {
			doc[strings.TrimSpace(name)] = value
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode row for school %d: %w", urn, err)
	}

	return i.records.InsertTx(ctx, tx, urn, data)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// PrintSummary prints the import statistics
func (i *Importer) PrintSummary(stats *ImportStats) {
	i.logger.Println("")
	i.logger.Println("=== Import Summary ===")
	i.logger.Printf("Created:         %d schools", stats.Created)
	i.logger.Printf("Skipped:         %d (already exist)", stats.Skipped)
	i.logger.Printf("Errors:          %d rows", stats.Errors)
}
