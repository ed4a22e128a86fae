// Package vpic talks to the NHTSA vPIC VIN decoding API.
package vpic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public vPIC vehicles API.
const DefaultBaseURL = "https://vpic.nhtsa.dot.gov/api/vehicles"

// ErrService marks network, HTTP status and payload failures. A decode the API
// answered but rejected is not an error; see Result.Failed.
var ErrService = errors.New("vpic: service error")

// Config tunes the client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client decodes VINs against vPIC.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

// NewClient builds a client that issues exactly one request per decode.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	c := retryablehttp.NewClient()
	c.RetryMax = 0
	c.HTTPClient.Timeout = cfg.Timeout
	c.Logger = leveledLogger{logger.Sugar()}

	return &Client{baseURL: cfg.BaseURL, httpClient: c}
}

// Decode looks up a single VIN.
func (c *Client) Decode(ctx context.Context, vin string) (Result, error) {
	endpoint := c.baseURL + "/DecodeVin/" + url.PathEscape(vin) + "?format=json"

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: build request: %v", ErrService, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: decode vin %s: %v", ErrService, vin, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Result{}, fmt.Errorf("%w: decode vin %s: unexpected status %d", ErrService, vin, resp.StatusCode)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, fmt.Errorf("%w: parse response for vin %s: %v", ErrService, vin, err)
	}
	if payload.Results == nil {
		return Result{}, fmt.Errorf("%w: response for vin %s has no Results", ErrService, vin)
	}

	return payload.result(), nil
}

// leveledLogger routes retryablehttp's diagnostics through zap.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
