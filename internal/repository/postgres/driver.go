package postgres

import (
	"context"
	"database/sql"
	"errors"

	"haul/internal/domain"
	"haul/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

const driverColumns = `id, full_name, phone, password_hash, address, approval, id_document_url, licence_url, active_shift_id, created_at`

// Create adds a new driver profile.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.DriverProfile) error {
	query := `
		INSERT INTO drivers (` + driverColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.q.ExecContext(ctx, query,
		driver.ID,
		driver.FullName,
		driver.Phone,
		driver.PasswordHash,
		driver.Address,
		driver.Approval,
		nullString(driver.IDDocumentURL),
		nullString(driver.LicenceURL),
		nullString(driver.ActiveShiftID),
		driver.CreatedAt,
	)
	return err
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.DriverProfile, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	return scanDriver(r.q.QueryRowContext(ctx, query, id))
}

// GetByPhone retrieves a driver by phone number.
func (r *DriverRepository) GetByPhone(ctx context.Context, phone string) (*domain.DriverProfile, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE phone = $1`
	return scanDriver(r.q.QueryRowContext(ctx, query, phone))
}

// Update overwrites the mutable profile fields.
func (r *DriverRepository) Update(ctx context.Context, driver *domain.DriverProfile) error {
	query := `
		UPDATE drivers
		SET full_name = $1, phone = $2, address = $3, id_document_url = $4, licence_url = $5
		WHERE id = $6
	`
	result, err := r.q.ExecContext(ctx, query,
		driver.FullName,
		driver.Phone,
		driver.Address,
		nullString(driver.IDDocumentURL),
		nullString(driver.LicenceURL),
		driver.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// UpdateApproval updates the driver's approval status.
func (r *DriverRepository) UpdateApproval(ctx context.Context, id string, status domain.ApprovalStatus) error {
	query := `UPDATE drivers SET approval = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// SetActiveShift records the driver's active shift ID.
func (r *DriverRepository) SetActiveShift(ctx context.Context, id, shiftID string) error {
	query := `UPDATE drivers SET active_shift_id = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, nullString(shiftID), id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanDriver(row *sql.Row) (*domain.DriverProfile, error) {
	var driver domain.DriverProfile
	var idDocURL, licenceURL, activeShiftID sql.NullString

	err := row.Scan(
		&driver.ID,
		&driver.FullName,
		&driver.Phone,
		&driver.PasswordHash,
		&driver.Address,
		&driver.Approval,
		&idDocURL,
		&licenceURL,
		&activeShiftID,
		&driver.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if idDocURL.Valid {
		driver.IDDocumentURL = idDocURL.String
	}
	if licenceURL.Valid {
		driver.LicenceURL = licenceURL.String
	}
	if activeShiftID.Valid {
		driver.ActiveShiftID = activeShiftID.String
	}

	return &driver, nil
}

// Ensure DriverRepository implements repository.DriverRepository.
var _ repository.DriverRepository = (*DriverRepository)(nil)
