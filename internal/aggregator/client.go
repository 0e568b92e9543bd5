package aggregator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fieldpulse/pipeline/internal/models"
	"github.com/go-resty/resty/v2"
)

// ErrQueryFailed is returned for transport errors and non-200 answers
var ErrQueryFailed = errors.New("ingestion query failed")

// QueryClient reads ingested readings by ingestion time
type QueryClient interface {
	PowerUsage(ctx context.Context, r models.TimeRange) ([]models.PowerUsageReading, error)
	Location(ctx context.Context, r models.TimeRange) ([]models.LocationReading, error)
}

// HTTPQueryClient calls the storage service's range endpoints
type HTTPQueryClient struct {
	client      *resty.Client
	powerURL    string
	locationURL string
}

func NewHTTPQueryClient(powerURL, locationURL string, timeout time.Duration) *HTTPQueryClient {
	return &HTTPQueryClient{
		client:      resty.New().SetTimeout(timeout),
		powerURL:    powerURL,
		locationURL: locationURL,
	}
}

func (c *HTTPQueryClient) PowerUsage(ctx context.Context, r models.TimeRange) ([]models.PowerUsageReading, error) {
	var out []models.PowerUsageReading
	if err := c.get(ctx, c.powerURL, r, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPQueryClient) Location(ctx context.Context, r models.TimeRange) ([]models.LocationReading, error) {
	var out []models.LocationReading
	if err := c.get(ctx, c.locationURL, r, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPQueryClient) get(ctx context.Context, url string, r models.TimeRange, out any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"start_timestamp": r.Start.Format(models.DatetimeLayout),
			"end_timestamp":   r.End.Format(models.DatetimeLayout),
		}).
		SetResult(out).
		Get(url)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrQueryFailed, url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", ErrQueryFailed, url, resp.StatusCode())
	}
	return nil
}
