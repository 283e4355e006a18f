package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/ukedu/termtrack/internal/model"
)

const schoolColumns = `urn, establishment_name, local_authority, establishment_status,
	       website, process, second_scraper, third_scraper`

// SchoolStore handles database operations for schools.
type SchoolStore struct {
	db *sql.DB
}

// NewSchoolStore creates a new SchoolStore.
func NewSchoolStore(db *sql.DB) *SchoolStore {
	return &SchoolStore{db: db}
}

func scanSchool(row interface{ Scan(...any) error }) (*model.School, error) {
	var s model.School
	err := row.Scan(
		&s.URN,
		&s.EstablishmentName,
		&s.LocalAuthority,
		&s.EstablishmentStatus,
		&s.Website,
		&s.Process,
		&s.SecondScraper,
		&s.ThirdScraper,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByURN retrieves a school by its URN. Returns nil when not found.
func (s *SchoolStore) GetByURN(ctx context.Context, urn int) (*model.School, error) {
	query := fmt.Sprintf(`SELECT %s FROM schools WHERE urn = $1`, schoolColumns)

	school, err := scanSchool(s.db.QueryRowContext(ctx, query, urn))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get school %d: %w", urn, err)
	}
	return school, nil
}

// Exists reports whether a school with the given URN exists.
func (s *SchoolStore) Exists(ctx context.Context, urn int) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM schools WHERE urn = $1)`, urn).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check school %d: %w", urn, err)
	}
	return exists, nil
}

// ExistsTx is Exists within an open transaction.
func (s *SchoolStore) ExistsTx(ctx context.Context, tx *sql.Tx, urn int) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM schools WHERE urn = $1)`, urn).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check school %d: %w", urn, err)
	}
	return exists, nil
}

// CreateTx inserts a school within an open transaction.
func (s *SchoolStore) CreateTx(ctx context.Context, tx *sql.Tx, school *model.School) error {
	query := `
		INSERT INTO schools (urn, establishment_name, local_authority, establishment_status,
		                     website, process, second_scraper, third_scraper)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.ExecContext(ctx, query,
		school.URN,
		school.EstablishmentName,
		school.LocalAuthority,
		school.EstablishmentStatus,
		school.Website,
		school.Process,
		school.SecondScraper,
		school.ThirdScraper,
	)
	if err != nil {
		return fmt.Errorf("failed to create school %d: %w", school.URN, err)
	}
	return nil
}

// GetAll retrieves all schools ordered by establishment name.
func (s *SchoolStore) GetAll(ctx context.Context) ([]model.School, error) {
	query := fmt.Sprintf(`SELECT %s FROM schools ORDER BY establishment_name`, schoolColumns)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get schools: %w", err)
	}
	defer rows.Close()

	var schools []model.School
	for rows.Next() {
		school, err := scanSchool(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan school: %w", err)
		}
		schools = append(schools, *school)
	}

	return schools, rows.Err()
}

// Count returns the total number of schools.
func (s *SchoolStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schools").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count schools: %w", err)
	}
	return count, nil
}

// FlagStats summarizes workflow flag progress across all schools.
type FlagStats struct {
	Total             int `json:"total"`
	Processed         int `json:"processed"`
	NotProcessed      int `json:"not_processed"`
	SecondScraperTrue int `json:"second_scraper_true"`
	ThirdScraperTrue  int `json:"third_scraper_true"`
}

// Stats returns workflow flag counts for the admin summary.
func (s *SchoolStore) Stats(ctx context.Context) (*FlagStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE process) AS processed,
			COUNT(*) FILTER (WHERE NOT process) AS not_processed,
			COUNT(*) FILTER (WHERE second_scraper) AS second_scraper_true,
			COUNT(*) FILTER (WHERE third_scraper) AS third_scraper_true
		FROM schools
	`

	var st FlagStats
	err := s.db.QueryRowContext(ctx, query).Scan(
		&st.Total,
		&st.Processed,
		&st.NotProcessed,
		&st.SecondScraperTrue,
		&st.ThirdScraperTrue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get school stats: %w", err)
	}
	return &st, nil
}

// SetProcess updates the process flag for one school.
func (s *SchoolStore) SetProcess(ctx context.Context, urn int, value bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE schools SET process = $2 WHERE urn = $1`, urn, value)
	if err != nil {
		return fmt.Errorf("failed to set process for school %d: %w", urn, err)
	}
	return nil
}

// SetProcessTx is SetProcess within an open transaction.
func (s *SchoolStore) SetProcessTx(ctx context.Context, tx *sql.Tx, urn int, value bool) error {
	_, err := tx.ExecContext(ctx, `UPDATE schools SET process = $2 WHERE urn = $1`, urn, value)
	if err != nil {
		return fmt.Errorf("failed to set process for school %d: %w", urn, err)
	}
	return nil
}

// claimRandomUnprocessedQuery flips process on a random unprocessed school.
// The outer WHERE re-checks process = FALSE: under READ COMMITTED the row
// recheck after a lock wait only re-evaluates the outer predicates (the
// subquery is planned once), so without it a second concurrent caller would
// re-update and return the same school.
var claimRandomUnprocessedQuery = fmt.Sprintf(`
	UPDATE schools SET process = TRUE
	WHERE process = FALSE AND urn = (
		SELECT urn FROM schools WHERE process = FALSE ORDER BY random() LIMIT 1
	)
	RETURNING %s`, schoolColumns)

// ClaimRandomUnprocessed atomically selects a random school with
// process=false and flips its flag to true, returning the claimed school.
// The claim is a single conditional update, so two concurrent callers can
// never claim the same school; the loser gets nil, like when every school
// is already processed.
func (s *SchoolStore) ClaimRandomUnprocessed(ctx context.Context) (*model.School, error) {
	school, err := scanSchool(s.db.QueryRowContext(ctx, claimRandomUnprocessedQuery))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim random school: %w", err)
	}
	return school, nil
}

// RandomAny returns any school at random, or nil when the table is empty.
func (s *SchoolStore) RandomAny(ctx context.Context) (*model.School, error) {
	query := fmt.Sprintf(`SELECT %s FROM schools ORDER BY random() LIMIT 1`, schoolColumns)

	school, err := scanSchool(s.db.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get random school: %w", err)
	}
	return school, nil
}

// InvalidDataCandidates returns, in random order, the schools eligible for
// the second scraping stage: processed, not yet claimed by the second
// scraper, and with a non-empty website.
func (s *SchoolStore) InvalidDataCandidates(ctx context.Context) ([]model.School, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM schools
		WHERE process = TRUE AND second_scraper = FALSE
		  AND website IS NOT NULL AND website <> ''
		ORDER BY random()`, schoolColumns)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get invalid-data candidates: %w", err)
	}
	defer rows.Close()

	var schools []model.School
	for rows.Next() {
		school, err := scanSchool(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan school: %w", err)
		}
		schools = append(schools, *school)
	}

	return schools, rows.Err()
}

// ClaimSecondScraper flips second_scraper to true for the school only if it
// is still false, reporting whether this caller won the claim.
func (s *SchoolStore) ClaimSecondScraper(ctx context.Context, urn int) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE schools SET second_scraper = TRUE WHERE urn = $1 AND second_scraper = FALSE`, urn)
	if err != nil {
		return false, fmt.Errorf("failed to claim second scraper for school %d: %w", urn, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result for school %d: %w", urn, err)
	}
	return n > 0, nil
}

// SchoolWithRecordCount pairs a school with how many records it has.
type SchoolWithRecordCount struct {
	model.School
	RecordCount int
}

// GetAllWithRecordCounts retrieves all schools with their record counts.
func (s *SchoolStore) GetAllWithRecordCounts(ctx context.Context) ([]SchoolWithRecordCount, error) {
	query := `
		SELECT s.urn, s.establishment_name, s.local_authority, s.establishment_status,
		       s.website, s.process, s.second_scraper, s.third_scraper,
		       COUNT(r.id) AS record_count
		FROM schools s
		LEFT JOIN school_records r ON r.school_urn = s.urn
		GROUP BY s.urn
		ORDER BY s.establishment_name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get schools with record counts: %w", err)
	}
	defer rows.Close()

	var out []SchoolWithRecordCount
	for rows.Next() {
		var sc SchoolWithRecordCount
		err := rows.Scan(
			&sc.URN,
			&sc.EstablishmentName,
			&sc.LocalAuthority,
			&sc.EstablishmentStatus,
			&sc.Website,
			&sc.Process,
			&sc.SecondScraper,
			&sc.ThirdScraper,
			&sc.RecordCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan school: %w", err)
		}
		out = append(out, sc)
	}

	return out, rows.Err()
}

// ResetScraperFlags sets second_scraper and third_scraper to false for the
// given schools, returning how many rows changed.
func (s *SchoolStore) ResetScraperFlags(ctx context.Context, urns []int) (int, error) {
	if len(urns) == 0 {
		return 0, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE schools SET second_scraper = FALSE, third_scraper = FALSE WHERE urn = ANY($1)`,
		pq.Array(urns))
	if err != nil {
		return 0, fmt.Errorf("failed to reset scraper flags: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read reset result: %w", err)
	}
	return int(n), nil
}
