package models

import "time"

// Vehicle is an imported VIN, enriched with make, model and year once decoded.
type Vehicle struct {
	ID           string    `db:"id" json:"id"`
	VIN          string    `db:"vin" json:"vin"`
	DealerID     int       `db:"dealer_id" json:"dealer_id"`
	ModifiedDate Date      `db:"modified_date" json:"modified_date"`
	Make         *string   `db:"make" json:"make"`
	Model        *string   `db:"model" json:"model"`
	Year         *int      `db:"year" json:"year"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// VehicleError is a VIN the decoder rejected, held until corrected.
type VehicleError struct {
	ID           string    `db:"id" json:"id"`
	VIN          string    `db:"vin" json:"vin"`
	DealerID     int       `db:"dealer_id" json:"dealer_id"`
	ModifiedDate Date      `db:"modified_date" json:"modified_date"`
	ErrorCode    *string   `db:"error_code" json:"error_code"`
	ErrorText    *string   `db:"error_text" json:"error_text"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// VehicleKey identifies an entry across both collections.
type VehicleKey struct {
	VIN          string
	DealerID     int
	ModifiedDate Date
}

// Key returns the natural key of the vehicle.
func (v Vehicle) Key() VehicleKey {
	return VehicleKey{VIN: v.VIN, DealerID: v.DealerID, ModifiedDate: v.ModifiedDate}
}

// Key returns the natural key of the error record.
func (e VehicleError) Key() VehicleKey {
	return VehicleKey{VIN: e.VIN, DealerID: e.DealerID, ModifiedDate: e.ModifiedDate}
}

// Enrichment carries decoded vehicle attributes.
type Enrichment struct {
	Make  *string
	Model *string
	Year  *int
}

// VehicleFilter narrows the vehicle list. ModifiedSince is an inclusive lower bound.
type VehicleFilter struct {
	DealerID      *int
	ModifiedSince *Date
	Page          int
	PageSize      int
}

// VehicleErrorFilter pages through the error collection.
type VehicleErrorFilter struct {
	Page     int
	PageSize int
}
