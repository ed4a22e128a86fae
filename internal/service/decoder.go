package service

import (
	"context"
	"time"

	"github.com/noah-isme/vehicle-data-api/internal/models"
	"github.com/noah-isme/vehicle-data-api/pkg/vpic"
)

// vinDecoder is satisfied by *vpic.Client.
type vinDecoder interface {
	Decode(ctx context.Context, vin string) (vpic.Result, error)
}

// observedDecode calls the decoder and records the outcome.
func observedDecode(ctx context.Context, decoder vinDecoder, metrics *MetricsService, vin string) (vpic.Result, error) {
	start := time.Now()
	res, err := decoder.Decode(ctx, vin)
	switch {
	case err != nil:
		metrics.ObserveDecode(DecodeServiceError, time.Since(start))
	case res.Failed():
		metrics.ObserveDecode(DecodeRejected, time.Since(start))
	default:
		metrics.ObserveDecode(DecodeSuccess, time.Since(start))
	}
	return res, err
}

func enrichmentFrom(res vpic.Result) models.Enrichment {
	return models.Enrichment{Make: res.Make, Model: res.Model, Year: res.Year}
}
