package models

// ImportResult summarises one import run.
type ImportResult struct {
	TotalProcessed       int      `json:"totalProcessed"`
	SuccessfullyImported int      `json:"successfullyImported"`
	Errors               []string `json:"errors"`
}

// AugmentUpdate enriches the vehicle with the given id.
type AugmentUpdate struct {
	VehicleID  string
	Enrichment Enrichment
}

// AugmentFailure quarantines a vehicle the decoder rejected.
type AugmentFailure struct {
	Vehicle   Vehicle
	ErrorCode *string
	ErrorText *string
}

// AugmentSummary is the outcome of a bulk augmentation pass.
type AugmentSummary struct {
	UpdatedCount int    `json:"updatedCount"`
	ErrorCount   int    `json:"errorCount"`
	Message      string `json:"message"`
}

// Correction outcomes.
const (
	CorrectionSucceeded    = "succeeded"
	CorrectionDecodeFailed = "decode_failed"
)

// CorrectionRequest resubmits an error record under a new VIN.
type CorrectionRequest struct {
	OriginalVIN  string `json:"originalVin" validate:"required,max=32"`
	CorrectedVIN string `json:"correctedVin" validate:"required,max=32"`
	DealerID     *int   `json:"dealerId" validate:"required"`
	ModifiedDate string `json:"modifiedDate" validate:"required"`
}

// CorrectionResult reports which record the correction produced.
type CorrectionResult struct {
	Outcome   string        `json:"outcome"`
	Vehicle   *Vehicle      `json:"vehicle,omitempty"`
	Error     *VehicleError `json:"error,omitempty"`
	ErrorCode *string       `json:"errorCode,omitempty"`
	ErrorText *string       `json:"errorText,omitempty"`
}
