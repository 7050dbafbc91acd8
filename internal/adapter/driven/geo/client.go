// Package geo implements the Locator port with an IP geolocation HTTP lookup.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/brainpanel/internal/domain/model"
	"github.com/ericfisherdev/brainpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Locator = (*Client)(nil)

// defaultAccuracy is reported when the endpoint gives no accuracy radius.
// IP geolocation is city-level at best.
const defaultAccuracy = 5000

// Client resolves the host position from a JSON geolocation endpoint such as
// ip-api.com/json. An empty endpoint means the capability is unavailable.
type Client struct {
	endpoint string
	http     *http.Client
	now      func() time.Time
	logger   *slog.Logger
}

// NewClient creates a Client for endpoint. Responses are cached in memory
// (ETag/Cache-Control aware) so repeated panel mounts do not re-query.
func NewClient(endpoint string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   timeout,
		},
		now:    time.Now,
		logger: logger,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing with an httptest server.
func NewClientWithHTTPClient(endpoint string, httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{endpoint: endpoint, http: httpClient, now: time.Now, logger: logger}
}

// Available reports whether an endpoint is configured.
func (c *Client) Available() bool {
	return c.endpoint != ""
}

// lookupResponse covers the ip-api.com and ipapi.co field names.
type lookupResponse struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  float64  `json:"accuracy"`
	Error     bool     `json:"error"`
	Reason    string   `json:"reason"`
}

// Locate performs one lookup. Failures are *model.AcquisitionError, except
// explicit cancellation which returns the context error.
func (c *Client) Locate(ctx context.Context) (model.Position, error) {
	if !c.Available() {
		return model.Position{}, model.ErrCapabilityUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return model.Position{}, model.NewAcquisitionError(model.AcquisitionPositionUnavailable, "invalid geolocation endpoint: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return model.Position{}, model.NewAcquisitionError(model.AcquisitionTimeout, "Timeout expired")
		}
		if errors.Is(err, context.Canceled) {
			return model.Position{}, fmt.Errorf("geolocation request: %w", err)
		}
		return model.Position{}, model.NewAcquisitionError(model.AcquisitionPositionUnavailable, "Position unavailable: %v", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return model.Position{}, model.NewAcquisitionError(model.AcquisitionPermissionDenied, "User denied Geolocation")
	case resp.StatusCode != http.StatusOK:
		return model.Position{}, model.NewAcquisitionError(model.AcquisitionPositionUnavailable, "Position unavailable: HTTP %d", resp.StatusCode)
	}

	if resp.Header.Get(httpcache.XFromCache) != "" {
		c.logger.Debug("geolocation served from cache")
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Position{}, model.NewAcquisitionError(model.AcquisitionPositionUnavailable, "Position unavailable: malformed response")
	}

	return c.toPosition(body)
}

func (c *Client) toPosition(body lookupResponse) (model.Position, error) {
	if body.Error || (body.Status != "" && body.Status != "success") {
		reason := body.Message
		if reason == "" {
			reason = body.Reason
		}
		if reason == "" {
			reason = "lookup rejected"
		}
		return model.Position{}, model.NewAcquisitionError(model.AcquisitionPositionUnavailable, "Position unavailable: %s", reason)
	}

	lat, lon := body.Lat, body.Lon
	if lat == nil || lon == nil {
		lat, lon = body.Latitude, body.Longitude
	}
	if lat == nil || lon == nil {
		return model.Position{}, model.NewAcquisitionError(model.AcquisitionPositionUnavailable, "Position unavailable: no coordinates in response")
	}

	accuracy := body.Accuracy
	if accuracy <= 0 {
		accuracy = defaultAccuracy
	}

	return model.Position{
		Latitude:  *lat,
		Longitude: *lon,
		Accuracy:  accuracy,
		Timestamp: c.now().UTC(),
	}, nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
