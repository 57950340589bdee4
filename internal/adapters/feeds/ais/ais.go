// Package ais fetches vessel positions from an AIS HTTP endpoint.
//
// The endpoint returns JSON of the form:
//
//	{"vessels": [{"mmsi": "257123000", "name": "KV Sortland",
//	              "lat": 63.123, "lon": 8.456, "type": "Coast Guard"}]}
package ais

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"vaktpost/internal/core/record"
	perr "vaktpost/internal/platform/errors"
	"vaktpost/internal/platform/logger"
)

// DefaultTimeout bounds a single position fetch
const DefaultTimeout = 10 * time.Second

// Client pulls vessel positions
type Client struct {
	http *http.Client
	log  logger.Logger
	now  func() time.Time
}

// New builds a Client; a non-positive timeout falls back to DefaultTimeout
func New(log logger.Logger, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
		log:  log.With().Str("component", "ais").Logger(),
		now:  time.Now,
	}
}

type wirePayload struct {
	Vessels []wireVessel `json:"vessels"`
}

type wireVessel struct {
	MMSI string  `json:"mmsi"`
	Name string  `json:"name"`
	Type string  `json:"type"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Fetch pulls the endpoint and returns raw vessel items. The endpoint does
// not carry per-vessel timestamps, so the fetch time is the observation time
func (c *Client) Fetch(ctx context.Context, endpoint string) ([]record.VesselItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, perr.Fetchf("build ais request: %v", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, perr.FetchTimeoutf("ais endpoint %s timed out", endpoint)
		}
		return nil, perr.Fetchf("fetch ais positions from %s: %v", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, perr.Fetchf("ais endpoint %s returned status %d", endpoint, resp.StatusCode)
	}

	var payload wirePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, perr.Fetchf("decode ais payload: %v", err)
	}

	at := c.now().UTC()
	items := make([]record.VesselItem, 0, len(payload.Vessels))
	for _, v := range payload.Vessels {
		items = append(items, record.VesselItem{
			MMSI: v.MMSI,
			Name: v.Name,
			Type: v.Type,
			Lat:  v.Lat,
			Lon:  v.Lon,
			At:   at,
		})
	}
	c.log.Debug().Str("endpoint", endpoint).Int("vessels", len(items)).Msg("ais positions fetched")
	return items, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
