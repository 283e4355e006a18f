package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ukedu/termtrack/internal/model"
)

// RecordWithSchool joins a record with the school it belongs to, for the
// batch sweeps that report per-school context.
type RecordWithSchool struct {
	model.SchoolRecord
	SchoolName     string
	LocalAuthority string
}

// RecordStore handles database operations for school records.
type RecordStore struct {
	db *sql.DB
}

// NewRecordStore creates a new RecordStore.
func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

// LatestBySchool resolves the current record for a school: the most recently
// created one. Every consumer resolves the current record through this single
// accessor. Returns nil when the school has no records.
func (s *RecordStore) LatestBySchool(ctx context.Context, urn int) (*model.SchoolRecord, error) {
	query := `
		SELECT id, school_urn, payload, created_at, updated_at
		FROM school_records
		WHERE school_urn = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var r model.SchoolRecord
	err := s.db.QueryRowContext(ctx, query, urn).Scan(
		&r.ID,
		&r.SchoolURN,
		&r.Payload,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest record for school %d: %w", urn, err)
	}

	return &r, nil
}

// Insert creates a new record for a school and fills in its id and timestamps.
func (s *RecordStore) Insert(ctx context.Context, urn int, payload []byte) (*model.SchoolRecord, error) {
	query := `
		INSERT INTO school_records (school_urn, payload)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`

	r := &model.SchoolRecord{SchoolURN: urn, Payload: payload}
	err := s.db.QueryRowContext(ctx, query, urn, payload).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert record for school %d: %w", urn, err)
	}

	return r, nil
}

// InsertTx creates a new record for a school within an open transaction.
func (s *RecordStore) InsertTx(ctx context.Context, tx *sql.Tx, urn int, payload []byte) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO school_records (school_urn, payload) VALUES ($1, $2)`, urn, payload)
	if err != nil {
		return fmt.Errorf("failed to insert record for school %d: %w", urn, err)
	}
	return nil
}

// UpdatePayload overwrites a record's payload and bumps its update timestamp.
func (s *RecordStore) UpdatePayload(ctx context.Context, id int, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE school_records SET payload = $2, updated_at = NOW() WHERE id = $1`, id, payload)
	if err != nil {
		return fmt.Errorf("failed to update record %d: %w", id, err)
	}
	return nil
}

// UpdatePayloadTx is UpdatePayload within an open transaction.
func (s *RecordStore) UpdatePayloadTx(ctx context.Context, tx *sql.Tx, id int, payload []byte) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE school_records SET payload = $2, updated_at = NOW() WHERE id = $1`, id, payload)
	if err != nil {
		return fmt.Errorf("failed to update record %d: %w", id, err)
	}
	return nil
}

// ListAll retrieves every record joined with its school, oldest first.
func (s *RecordStore) ListAll(ctx context.Context) ([]RecordWithSchool, error) {
	query := `
		SELECT r.id, r.school_urn, r.payload, r.created_at, r.updated_at,
		       s.establishment_name, s.local_authority
		FROM school_records r
		INNER JOIN schools s ON s.urn = r.school_urn
		ORDER BY r.id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []RecordWithSchool
	for rows.Next() {
		var r RecordWithSchool
		err := rows.Scan(
			&r.ID,
			&r.SchoolURN,
			&r.Payload,
			&r.CreatedAt,
			&r.UpdatedAt,
			&r.SchoolName,
			&r.LocalAuthority,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// ListBySchool retrieves all records for one school, newest first.
func (s *RecordStore) ListBySchool(ctx context.Context, urn int) ([]model.SchoolRecord, error) {
	query := `
		SELECT id, school_urn, payload, created_at, updated_at
		FROM school_records
		WHERE school_urn = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, urn)
	if err != nil {
		return nil, fmt.Errorf("failed to list records for school %d: %w", urn, err)
	}
	defer rows.Close()

	var records []model.SchoolRecord
	for rows.Next() {
		var r model.SchoolRecord
		err := rows.Scan(&r.ID, &r.SchoolURN, &r.Payload, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// Count returns the total number of records.
func (s *RecordStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM school_records").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// DeleteByID removes one record.
func (s *RecordStore) DeleteByID(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM school_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record %d: %w", id, err)
	}
	return nil
}

// DeleteByIDTx is DeleteByID within an open transaction.
func (s *RecordStore) DeleteByIDTx(ctx context.Context, tx *sql.Tx, id int) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM school_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record %d: %w", id, err)
	}
	return nil
}

// DeleteBySchool removes all records for one school, returning the count.
func (s *RecordStore) DeleteBySchool(ctx context.Context, urn int) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM school_records WHERE school_urn = $1`, urn)
	if err != nil {
		return 0, fmt.Errorf("failed to delete records for school %d: %w", urn, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}
	return int(n), nil
}

// DeleteAll removes every record, returning the count.
func (s *RecordStore) DeleteAll(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM school_records`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}
	return int(n), nil
}
