package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/vehicle-data-api/internal/models"
)

const vehicleColumns = "id, vin, dealer_id, modified_date, make, model, year, created_at, updated_at"

// VehicleRepository manages the vehicles collection.
type VehicleRepository struct {
	db *sqlx.DB
}

// NewVehicleRepository constructs a VehicleRepository.
func NewVehicleRepository(db *sqlx.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// List returns one page of vehicles and the total matching the filter.
func (r *VehicleRepository) List(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.DealerID != nil {
		args = append(args, *filter.DealerID)
		conditions = append(conditions, fmt.Sprintf("dealer_id = $%d", len(args)))
	}
	if filter.ModifiedSince != nil {
		args = append(args, *filter.ModifiedSince)
		conditions = append(conditions, fmt.Sprintf("modified_date >= $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM vehicles WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count vehicles: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM vehicles WHERE %s
        ORDER BY modified_date DESC, vin ASC, id ASC LIMIT %d OFFSET %d`,
		vehicleColumns, where, filter.PageSize, (filter.Page-1)*filter.PageSize)

	vehicles := make([]models.Vehicle, 0)
	if err := r.db.SelectContext(ctx, &vehicles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list vehicles: %w", err)
	}
	return vehicles, total, nil
}

// ListAll snapshots the whole collection in insertion order.
func (r *VehicleRepository) ListAll(ctx context.Context) ([]models.Vehicle, error) {
	vehicles := make([]models.Vehicle, 0)
	query := "SELECT " + vehicleColumns + " FROM vehicles ORDER BY created_at ASC, id ASC"
	if err := r.db.SelectContext(ctx, &vehicles, query); err != nil {
		return nil, fmt.Errorf("snapshot vehicles: %w", err)
	}
	return vehicles, nil
}

// FindByVIN returns the earliest vehicle imported with the VIN.
func (r *VehicleRepository) FindByVIN(ctx context.Context, vin string) (*models.Vehicle, error) {
	query := "SELECT " + vehicleColumns + " FROM vehicles WHERE vin = $1 ORDER BY created_at ASC, id ASC LIMIT 1"
	var vehicle models.Vehicle
	if err := r.db.GetContext(ctx, &vehicle, query, vin); err != nil {
		return nil, fmt.Errorf("find vehicle: %w", err)
	}
	return &vehicle, nil
}

// ExistingVINs reports which of the given VINs are already held in either
// collection.
func (r *VehicleRepository) ExistingVINs(ctx context.Context, vins []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(vins) == 0 {
		return existing, nil
	}
	const query = `SELECT vin FROM vehicles WHERE vin = ANY($1)
        UNION
        SELECT vin FROM vehicle_errors WHERE vin = ANY($1)`
	var found []string
	if err := r.db.SelectContext(ctx, &found, query, pq.Array(vins)); err != nil {
		return nil, fmt.Errorf("lookup existing vins: %w", err)
	}
	for _, vin := range found {
		existing[vin] = struct{}{}
	}
	return existing, nil
}

// InsertBatch stores all vehicles in one transaction. Nothing is written if
// any insert fails.
func (r *VehicleRepository) InsertBatch(ctx context.Context, vehicles []models.Vehicle) error {
	if len(vehicles) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range vehicles {
		if err := insertVehicle(ctx, tx, &vehicles[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import transaction: %w", err)
	}
	return nil
}

// UpdateEnrichment writes decoded attributes onto a single vehicle.
func (r *VehicleRepository) UpdateEnrichment(ctx context.Context, id string, enrichment models.Enrichment) (*models.Vehicle, error) {
	const query = `UPDATE vehicles SET make = $1, model = $2, year = $3, updated_at = $4 WHERE id = $5
        RETURNING ` + vehicleColumns
	var vehicle models.Vehicle
	if err := r.db.GetContext(ctx, &vehicle, query, enrichment.Make, enrichment.Model, enrichment.Year, time.Now().UTC(), id); err != nil {
		return nil, fmt.Errorf("update vehicle enrichment: %w", err)
	}
	return &vehicle, nil
}

// ApplyAugmentation commits the outcome of a bulk pass atomically: updates
// enrich vehicles in place, failures move vehicles into vehicle_errors.
func (r *VehicleRepository) ApplyAugmentation(ctx context.Context, updates []models.AugmentUpdate, failures []models.AugmentFailure) error {
	if len(updates) == 0 && len(failures) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin augmentation transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	const updateQuery = `UPDATE vehicles SET make = $1, model = $2, year = $3, updated_at = $4 WHERE id = $5`
	for _, u := range updates {
		if _, err := tx.ExecContext(ctx, updateQuery, u.Enrichment.Make, u.Enrichment.Model, u.Enrichment.Year, now, u.VehicleID); err != nil {
			return fmt.Errorf("update vehicle %s: %w", u.VehicleID, err)
		}
	}

	const deleteQuery = `DELETE FROM vehicles WHERE id = $1`
	const quarantineQuery = `INSERT INTO vehicle_errors (id, vin, dealer_id, modified_date, error_code, error_text, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
        ON CONFLICT (vin, dealer_id, modified_date)
        DO UPDATE SET error_code = EXCLUDED.error_code, error_text = EXCLUDED.error_text, updated_at = EXCLUDED.updated_at`
	for _, f := range failures {
		if _, err := tx.ExecContext(ctx, deleteQuery, f.Vehicle.ID); err != nil {
			return fmt.Errorf("remove vehicle %s: %w", f.Vehicle.VIN, err)
		}
		if _, err := tx.ExecContext(ctx, quarantineQuery, uuid.NewString(), f.Vehicle.VIN, f.Vehicle.DealerID, f.Vehicle.ModifiedDate, f.ErrorCode, f.ErrorText, now); err != nil {
			return fmt.Errorf("quarantine vehicle %s: %w", f.Vehicle.VIN, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit augmentation transaction: %w", err)
	}
	return nil
}

func insertVehicle(ctx context.Context, tx *sqlx.Tx, vehicle *models.Vehicle) error {
	if vehicle.ID == "" {
		vehicle.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now
	const query = `INSERT INTO vehicles (id, vin, dealer_id, modified_date, make, model, year, created_at, updated_at)
        VALUES (:id, :vin, :dealer_id, :modified_date, :make, :model, :year, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, vehicle); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert vehicle %s: %w", vehicle.VIN, ErrDuplicateKey)
		}
		return fmt.Errorf("insert vehicle %s: %w", vehicle.VIN, err)
	}
	return nil
}

// keyExists reports whether table holds the key. table is always a constant.
func keyExists(ctx context.Context, tx *sqlx.Tx, table string, key models.VehicleKey) (bool, error) {
	query := "SELECT 1 FROM " + table + " WHERE vin = $1 AND dealer_id = $2 AND modified_date = $3 LIMIT 1"
	var one int
	if err := tx.GetContext(ctx, &one, query, key.VIN, key.DealerID, key.ModifiedDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check %s key: %w", table, err)
	}
	return true, nil
}
