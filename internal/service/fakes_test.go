package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/noah-isme/vehicle-data-api/internal/models"
	"github.com/noah-isme/vehicle-data-api/internal/repository"
	"github.com/noah-isme/vehicle-data-api/pkg/vpic"
)

// memoryDB backs both fake repositories so tests can check that a key never
// sits in both collections.
type memoryDB struct {
	mu        sync.Mutex
	vehicles  []models.Vehicle
	errs      []models.VehicleError
	seq       int
	insertErr error
	applyErr  error
	applied   int
}

func (db *memoryDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s-%d", prefix, db.seq)
}

func (db *memoryDB) addVehicle(v models.Vehicle) models.Vehicle {
	db.mu.Lock()
	defer db.mu.Unlock()
	if v.ID == "" {
		v.ID = db.nextID("v")
	}
	db.vehicles = append(db.vehicles, v)
	return v
}

func (db *memoryDB) addError(e models.VehicleError) models.VehicleError {
	db.mu.Lock()
	defer db.mu.Unlock()
	if e.ID == "" {
		e.ID = db.nextID("e")
	}
	db.errs = append(db.errs, e)
	return e
}

func (db *memoryDB) vehicleByVIN(vin string) (models.Vehicle, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, v := range db.vehicles {
		if v.VIN == vin {
			return v, true
		}
	}
	return models.Vehicle{}, false
}

func (db *memoryDB) errorByVIN(vin string) (models.VehicleError, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, e := range db.errs {
		if e.VIN == vin {
			return e, true
		}
	}
	return models.VehicleError{}, false
}

func (db *memoryDB) overlapping() []models.VehicleKey {
	db.mu.Lock()
	defer db.mu.Unlock()
	keys := map[models.VehicleKey]bool{}
	for _, v := range db.vehicles {
		keys[v.Key()] = true
	}
	var both []models.VehicleKey
	for _, e := range db.errs {
		if keys[e.Key()] {
			both = append(both, e.Key())
		}
	}
	return both
}

func (db *memoryDB) hasVehicleKey(key models.VehicleKey) bool {
	for _, v := range db.vehicles {
		if v.Key() == key {
			return true
		}
	}
	return false
}

func (db *memoryDB) hasErrorKey(key models.VehicleKey) bool {
	for _, e := range db.errs {
		if e.Key() == key {
			return true
		}
	}
	return false
}

func (db *memoryDB) removeError(id string) bool {
	for i, e := range db.errs {
		if e.ID == id {
			db.errs = append(db.errs[:i], db.errs[i+1:]...)
			return true
		}
	}
	return false
}

type fakeVehicleRepo struct{ db *memoryDB }

func (r fakeVehicleRepo) List(_ context.Context, filter models.VehicleFilter) ([]models.Vehicle, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	matched := make([]models.Vehicle, 0)
	for _, v := range r.db.vehicles {
		if filter.DealerID != nil && v.DealerID != *filter.DealerID {
			continue
		}
		if filter.ModifiedSince != nil && v.ModifiedDate.Before(filter.ModifiedSince.Time) {
			continue
		}
		matched = append(matched, v)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].ModifiedDate.After(matched[j].ModifiedDate.Time) })
	start := (filter.Page - 1) * filter.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

func (r fakeVehicleRepo) FindByVIN(_ context.Context, vin string) (*models.Vehicle, error) {
	if v, ok := r.db.vehicleByVIN(vin); ok {
		return &v, nil
	}
	return nil, fmt.Errorf("find vehicle: %w", sql.ErrNoRows)
}

func (r fakeVehicleRepo) ListAll(_ context.Context) ([]models.Vehicle, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return append([]models.Vehicle(nil), r.db.vehicles...), nil
}

func (r fakeVehicleRepo) ExistingVINs(_ context.Context, vins []string) (map[string]struct{}, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing := map[string]struct{}{}
	for _, vin := range vins {
		for _, v := range r.db.vehicles {
			if v.VIN == vin {
				existing[vin] = struct{}{}
			}
		}
		for _, e := range r.db.errs {
			if e.VIN == vin {
				existing[vin] = struct{}{}
			}
		}
	}
	return existing, nil
}

func (r fakeVehicleRepo) InsertBatch(_ context.Context, vehicles []models.Vehicle) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.insertErr != nil {
		return r.db.insertErr
	}
	for i := range vehicles {
		vehicles[i].ID = r.db.nextID("v")
		r.db.vehicles = append(r.db.vehicles, vehicles[i])
	}
	return nil
}

func (r fakeVehicleRepo) UpdateEnrichment(_ context.Context, id string, enrichment models.Enrichment) (*models.Vehicle, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.vehicles {
		if r.db.vehicles[i].ID == id {
			r.db.vehicles[i].Make = enrichment.Make
			r.db.vehicles[i].Model = enrichment.Model
			r.db.vehicles[i].Year = enrichment.Year
			v := r.db.vehicles[i]
			return &v, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r fakeVehicleRepo) ApplyAugmentation(ctx context.Context, updates []models.AugmentUpdate, failures []models.AugmentFailure) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.applyErr != nil {
		return r.db.applyErr
	}
	r.db.applied++
	for _, u := range updates {
		for i := range r.db.vehicles {
			if r.db.vehicles[i].ID == u.VehicleID {
				r.db.vehicles[i].Make = u.Enrichment.Make
				r.db.vehicles[i].Model = u.Enrichment.Model
				r.db.vehicles[i].Year = u.Enrichment.Year
			}
		}
	}
	for _, f := range failures {
		kept := r.db.vehicles[:0]
		for _, v := range r.db.vehicles {
			if v.ID != f.Vehicle.ID {
				kept = append(kept, v)
			}
		}
		r.db.vehicles = kept
		r.db.errs = append(r.db.errs, models.VehicleError{
			ID:           r.db.nextID("e"),
			VIN:          f.Vehicle.VIN,
			DealerID:     f.Vehicle.DealerID,
			ModifiedDate: f.Vehicle.ModifiedDate,
			ErrorCode:    f.ErrorCode,
			ErrorText:    f.ErrorText,
		})
	}
	return nil
}

type fakeErrorRepo struct{ db *memoryDB }

func (r fakeErrorRepo) List(_ context.Context, filter models.VehicleErrorFilter) ([]models.VehicleError, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	end := filter.Page * filter.PageSize
	if end > len(r.db.errs) {
		end = len(r.db.errs)
	}
	start := (filter.Page - 1) * filter.PageSize
	if start > end {
		start = end
	}
	return append([]models.VehicleError(nil), r.db.errs[start:end]...), len(r.db.errs), nil
}

func (r fakeErrorRepo) ListAll(_ context.Context) ([]models.VehicleError, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return append([]models.VehicleError(nil), r.db.errs...), nil
}

func (r fakeErrorRepo) FindByVIN(_ context.Context, vin string) (*models.VehicleError, error) {
	if e, ok := r.db.errorByVIN(vin); ok {
		return &e, nil
	}
	return nil, fmt.Errorf("find vehicle error: %w", sql.ErrNoRows)
}

func (r fakeErrorRepo) Replace(_ context.Context, oldID string, replacement *models.VehicleError) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	snapshot := append([]models.VehicleError(nil), r.db.errs...)
	if !r.db.removeError(oldID) {
		return sql.ErrNoRows
	}
	if r.db.hasVehicleKey(replacement.Key()) || r.db.hasErrorKey(replacement.Key()) {
		r.db.errs = snapshot
		return repository.ErrDuplicateKey
	}
	replacement.ID = r.db.nextID("e")
	r.db.errs = append(r.db.errs, *replacement)
	return nil
}

func (r fakeErrorRepo) Resolve(_ context.Context, oldID string, vehicle *models.Vehicle) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	snapshot := append([]models.VehicleError(nil), r.db.errs...)
	if !r.db.removeError(oldID) {
		return sql.ErrNoRows
	}
	if r.db.hasErrorKey(vehicle.Key()) || r.db.hasVehicleKey(vehicle.Key()) {
		r.db.errs = snapshot
		return repository.ErrDuplicateKey
	}
	vehicle.ID = r.db.nextID("v")
	r.db.vehicles = append(r.db.vehicles, *vehicle)
	return nil
}

// fakeDecoder answers from fixed tables; unknown VINs decode cleanly with no data.
type fakeDecoder struct {
	mu      sync.Mutex
	results map[string]vpic.Result
	errs    map[string]error
	calls   []string
	onCall  func(vin string)
}

func (d *fakeDecoder) Decode(ctx context.Context, vin string) (vpic.Result, error) {
	d.mu.Lock()
	d.calls = append(d.calls, vin)
	hook := d.onCall
	d.mu.Unlock()
	if hook != nil {
		hook(vin)
	}
	if err := ctx.Err(); err != nil {
		return vpic.Result{}, fmt.Errorf("%w: %v", vpic.ErrService, err)
	}
	if err, ok := d.errs[vin]; ok {
		return vpic.Result{}, err
	}
	return d.results[vin], nil
}

func decoded(mk, model string, year int) vpic.Result {
	code := "0"
	return vpic.Result{Make: &mk, Model: &model, Year: &year, ErrorCode: &code}
}

func rejected(code, text string) vpic.Result {
	return vpic.Result{ErrorCode: &code, ErrorText: &text}
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
