package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"haul/internal/domain"
	"haul/internal/repository"
)

// ShiftRepository is a PostgreSQL implementation of repository.ShiftRepository.
type ShiftRepository struct {
	q Querier
}

// NewShiftRepository creates a new PostgreSQL shift repository.
func NewShiftRepository(db *sql.DB) *ShiftRepository {
	return &ShiftRepository{q: db}
}

// NewShiftRepositoryWithTx creates a shift repository using a transaction.
func NewShiftRepositoryWithTx(tx *sql.Tx) *ShiftRepository {
	return &ShiftRepository{q: tx}
}

const shiftColumns = `id, driver_id, start_time, end_time, total_earnings, completed_rides, rolled_over_at`

// Create persists a new shift.
func (r *ShiftRepository) Create(ctx context.Context, shift *domain.DriverShift) error {
	query := `
		INSERT INTO shifts (` + shiftColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query,
		shift.ID,
		shift.DriverID,
		shift.StartTime,
		nullTime(shift.EndTime),
		shift.TotalEarnings,
		shift.CompletedRides,
		nullTime(shift.RolledOverAt),
	)
	return err
}

// GetByID retrieves a shift by ID.
func (r *ShiftRepository) GetByID(ctx context.Context, id string) (*domain.DriverShift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1`

	shift, err := scanShift(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return shift, nil
}

// GetActiveByDriverID retrieves the open shift for a driver.
// Returns nil if no shift is active.
func (r *ShiftRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.DriverShift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts
		WHERE driver_id = $1 AND end_time IS NULL
		ORDER BY start_time DESC LIMIT 1`

	shift, err := scanShift(r.q.QueryRowContext(ctx, query, driverID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return shift, nil
}

// End stamps the shift's end time.
func (r *ShiftRepository) End(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE shifts SET end_time = $1 WHERE id = $2 AND end_time IS NULL`

	result, err := r.q.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// AddCompletion increments the earnings and ride counters in one statement.
// The increment happens inside the database, never as read-modify-write.
func (r *ShiftRepository) AddCompletion(ctx context.Context, id string, price float64) error {
	query := `
		UPDATE shifts
		SET total_earnings = total_earnings + $1, completed_rides = completed_rides + 1
		WHERE id = $2
	`

	result, err := r.q.ExecContext(ctx, query, price, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListSince returns a driver's shifts with StartTime at or after since.
func (r *ShiftRepository) ListSince(ctx context.Context, driverID string, since time.Time) ([]*domain.DriverShift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts
		WHERE driver_id = $1 AND start_time >= $2
		ORDER BY start_time DESC`
	return r.listShifts(ctx, query, driverID, since)
}

// ListUnrolled returns shifts not yet exported by a weekly rollover.
func (r *ShiftRepository) ListUnrolled(ctx context.Context) ([]*domain.DriverShift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts
		WHERE rolled_over_at IS NULL
		ORDER BY driver_id, start_time`
	return r.listShifts(ctx, query)
}

// MarkRolledOver stamps the given shifts as exported.
func (r *ShiftRepository) MarkRolledOver(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE shifts SET rolled_over_at = $1 WHERE id = ANY($2)`
	_, err := r.q.ExecContext(ctx, query, at, pq.Array(ids))
	return err
}

// CreateReport persists a weekly report row.
func (r *ShiftRepository) CreateReport(ctx context.Context, report *domain.WeeklyReport) error {
	query := `
		INSERT INTO weekly_reports (id, driver_id, week_ending, completed_rides, total_earnings, shift_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query,
		report.ID,
		report.DriverID,
		report.WeekEnding,
		report.CompletedRides,
		report.TotalEarnings,
		report.ShiftCount,
		report.CreatedAt,
	)
	return err
}

// LastRollover returns the instant the rollover last ran.
func (r *ShiftRepository) LastRollover(ctx context.Context) (time.Time, error) {
	query := `SELECT last_run FROM rollover_marker WHERE singleton = TRUE`

	var lastRun time.Time
	err := r.q.QueryRowContext(ctx, query).Scan(&lastRun)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return lastRun, nil
}

// SetLastRollover persists the rollover marker.
func (r *ShiftRepository) SetLastRollover(ctx context.Context, at time.Time) error {
	query := `
		INSERT INTO rollover_marker (singleton, last_run) VALUES (TRUE, $1)
		ON CONFLICT (singleton) DO UPDATE SET last_run = EXCLUDED.last_run
	`
	_, err := r.q.ExecContext(ctx, query, at)
	return err
}

func (r *ShiftRepository) listShifts(ctx context.Context, query string, args ...any) ([]*domain.DriverShift, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []*domain.DriverShift
	for rows.Next() {
		shift, err := scanShiftRow(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}
	return shifts, rows.Err()
}

func scanShift(row *sql.Row) (*domain.DriverShift, error) {
	return scanShiftRow(row)
}

func scanShiftRow(s rowScanner) (*domain.DriverShift, error) {
	var shift domain.DriverShift
	var endTime, rolledOverAt sql.NullTime

	err := s.Scan(
		&shift.ID,
		&shift.DriverID,
		&shift.StartTime,
		&endTime,
		&shift.TotalEarnings,
		&shift.CompletedRides,
		&rolledOverAt,
	)
	if err != nil {
		return nil, err
	}

	if endTime.Valid {
		shift.EndTime = endTime.Time
	}
	if rolledOverAt.Valid {
		shift.RolledOverAt = rolledOverAt.Time
	}

	return &shift, nil
}

// Ensure ShiftRepository implements repository.ShiftRepository.
var _ repository.ShiftRepository = (*ShiftRepository)(nil)
