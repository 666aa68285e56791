// Package patientstore is the structured-store adapter: one relational row
// per patient-intake event in the health_info table.
//
// The write path used by the intake pipeline is insert-only. The ad hoc
// Query/Exec entry points exist for the reporting side of the assistant and
// carry a shallow statement-shape guard: Exec rejects statements that begin
// with a data-retrieval keyword and Query accepts only those. This is a
// guard against accidental misuse of the two entry points, not a security
// boundary; both paths use parameterized statements.
package patientstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smarthealth/healthnav/internal/health"
)

// recordCols is the standard SELECT column list for scanRecord.
const recordCols = `id, name, age, gender, treatment_history,
	medication_history, diagnosis_history, symptoms, allergies, created_at`

// Store manages patient intake rows backed by PostgreSQL.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a patient Store.
func New(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Insert writes one intake row. Insert-only by contract: a duplicate id is a
// storage error, never an upsert. Returns the server-stamped creation time.
func (s *Store) Insert(ctx context.Context, rec health.PatientRecord) (time.Time, error) {
	if rec.ID == "" {
		return time.Time{}, fmt.Errorf("%w: patient id is required", health.ErrValidation)
	}

	var createdAt time.Time
	err := s.pool.QueryRow(ctx,
		`INSERT INTO health_info (id, name, age, gender, treatment_history,
			medication_history, diagnosis_history, symptoms, allergies)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		rec.ID, rec.Name, rec.Age, rec.Gender, rec.TreatmentHistory,
		rec.MedicationHistory, rec.DiagnosisHistory, rec.Symptoms, rec.Allergies,
	).Scan(&createdAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: inserting patient %s: %v", health.ErrStorageWrite, rec.ID, err)
	}

	s.logger.Debug("inserted patient record", "patient_id", rec.ID)
	return createdAt, nil
}

// Get retrieves one intake row by patient id.
func (s *Store) Get(ctx context.Context, patientID string) (health.PatientRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+recordCols+` FROM health_info WHERE id = $1`, patientID)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return health.PatientRecord{}, fmt.Errorf("%w: patient %s", health.ErrNotFound, patientID)
		}
		return health.PatientRecord{}, fmt.Errorf("%w: reading patient %s: %v", health.ErrStorageRead, patientID, err)
	}
	return rec, nil
}

// Delete removes one intake row. The core only calls this as the
// compensating action when the vector upsert of the same ingestion fails.
func (s *Store) Delete(ctx context.Context, patientID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM health_info WHERE id = $1`, patientID)
	if err != nil {
		return fmt.Errorf("%w: deleting patient %s: %v", health.ErrStorageWrite, patientID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: patient %s", health.ErrNotFound, patientID)
	}
	s.logger.Debug("deleted patient record", "patient_id", patientID)
	return nil
}

// Query runs a parameterized read statement and returns rows as maps keyed
// by column name. Only SELECT/WITH statements are accepted; anything else
// belongs on Exec.
func (s *Store) Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	if !isReadStatement(sql) {
		return nil, fmt.Errorf("%w: only SELECT statements are allowed on the read path", health.ErrValidation)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", health.ErrStorageRead, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", health.ErrStorageRead, err)
		}
		m := make(map[string]any, len(fields))
		for i, fd := range fields {
			m[fd.Name] = values[i]
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", health.ErrStorageRead, err)
	}
	return out, nil
}

// Exec runs a parameterized write statement and returns the affected row
// count. SELECT statements are rejected; use Query for reads.
func (s *Store) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	if isReadStatement(sql) {
		return 0, fmt.Errorf("%w: use Query for SELECT statements", health.ErrValidation)
	}

	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", health.ErrStorageWrite, err)
	}
	return tag.RowsAffected(), nil
}

// isReadStatement reports whether the statement begins with a data-retrieval
// keyword. Shape check on the leading keyword only.
func isReadStatement(sql string) bool {
	first := strings.ToUpper(strings.TrimSpace(sql))
	return strings.HasPrefix(first, "SELECT") || strings.HasPrefix(first, "WITH")
}

// scanRecord scans one health_info row in recordCols order.
func scanRecord(row pgx.Row) (health.PatientRecord, error) {
	var rec health.PatientRecord
	err := row.Scan(&rec.ID, &rec.Name, &rec.Age, &rec.Gender,
		&rec.TreatmentHistory, &rec.MedicationHistory, &rec.DiagnosisHistory,
		&rec.Symptoms, &rec.Allergies, &rec.CreatedAt)
	if err != nil {
		return health.PatientRecord{}, err
	}
	return rec, nil
}
