package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/vehicle-data-api/internal/models"
)

const vehicleErrorColumns = "id, vin, dealer_id, modified_date, error_code, error_text, created_at, updated_at"

// VehicleErrorRepository manages VINs the decoder rejected.
type VehicleErrorRepository struct {
	db *sqlx.DB
}

// NewVehicleErrorRepository constructs a VehicleErrorRepository.
func NewVehicleErrorRepository(db *sqlx.DB) *VehicleErrorRepository {
	return &VehicleErrorRepository{db: db}
}

// List returns one page of error records, newest modified date first.
func (r *VehicleErrorRepository) List(ctx context.Context, filter models.VehicleErrorFilter) ([]models.VehicleError, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM vehicle_errors"); err != nil {
		return nil, 0, fmt.Errorf("count vehicle errors: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM vehicle_errors
        ORDER BY modified_date DESC, vin ASC, id ASC LIMIT %d OFFSET %d`,
		vehicleErrorColumns, filter.PageSize, (filter.Page-1)*filter.PageSize)

	records := make([]models.VehicleError, 0)
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, 0, fmt.Errorf("list vehicle errors: %w", err)
	}
	return records, total, nil
}

// ListAll returns every error record in list order.
func (r *VehicleErrorRepository) ListAll(ctx context.Context) ([]models.VehicleError, error) {
	records := make([]models.VehicleError, 0)
	query := "SELECT " + vehicleErrorColumns + " FROM vehicle_errors ORDER BY modified_date DESC, vin ASC, id ASC"
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list all vehicle errors: %w", err)
	}
	return records, nil
}

// FindByVIN returns the earliest error record held for the VIN.
func (r *VehicleErrorRepository) FindByVIN(ctx context.Context, vin string) (*models.VehicleError, error) {
	query := "SELECT " + vehicleErrorColumns + " FROM vehicle_errors WHERE vin = $1 ORDER BY created_at ASC, id ASC LIMIT 1"
	var record models.VehicleError
	if err := r.db.GetContext(ctx, &record, query, vin); err != nil {
		return nil, fmt.Errorf("find vehicle error: %w", err)
	}
	return &record, nil
}

// Replace consumes the old error record and stores replacement in its place.
func (r *VehicleErrorRepository) Replace(ctx context.Context, oldID string, replacement *models.VehicleError) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin correction transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := deleteVehicleError(ctx, tx, oldID); err != nil {
		return err
	}

	exists, err := keyExists(ctx, tx, "vehicles", replacement.Key())
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("store error record %s: %w", replacement.VIN, ErrDuplicateKey)
	}

	if replacement.ID == "" {
		replacement.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	replacement.CreatedAt = now
	replacement.UpdatedAt = now
	const query = `INSERT INTO vehicle_errors (id, vin, dealer_id, modified_date, error_code, error_text, created_at, updated_at)
        VALUES (:id, :vin, :dealer_id, :modified_date, :error_code, :error_text, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, replacement); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("store error record %s: %w", replacement.VIN, ErrDuplicateKey)
		}
		return fmt.Errorf("store error record %s: %w", replacement.VIN, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit correction transaction: %w", err)
	}
	return nil
}

// Resolve consumes the error record and promotes vehicle into the vehicles
// collection.
func (r *VehicleErrorRepository) Resolve(ctx context.Context, oldID string, vehicle *models.Vehicle) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin correction transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := deleteVehicleError(ctx, tx, oldID); err != nil {
		return err
	}

	exists, err := keyExists(ctx, tx, "vehicle_errors", vehicle.Key())
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("promote vehicle %s: %w", vehicle.VIN, ErrDuplicateKey)
	}

	if err := insertVehicle(ctx, tx, vehicle); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit correction transaction: %w", err)
	}
	return nil
}

func deleteVehicleError(ctx context.Context, tx *sqlx.Tx, id string) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM vehicle_errors WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete vehicle error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete vehicle error: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete vehicle error %s: %w", id, sql.ErrNoRows)
	}
	return nil
}
