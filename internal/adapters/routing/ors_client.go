package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/geo"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/routing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/shared"
)

const (
	defaultBaseURL     = "https://api.openrouteservice.org"
	defaultTimeout     = 5 * time.Second
	defaultMaxRetries  = 1
	defaultBackoffBase = 500 * time.Millisecond
	defaultSnapRadiusM = 350.0

	// Free-tier quota is 40 matrix calls per minute
	defaultRequestsPerMinute = 40
)

// ORSConfig carries the OpenRouteService client settings
type ORSConfig struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	MaxRetries        int
	BackoffBase       time.Duration
	SnapRadiusMeters  float64
	RequestsPerMinute int
}

// ORSClient implements routing.RouteProvider against the OpenRouteService
// HTTP API. Requests are rate limited and retried once on 429/5xx; the
// routing service degrades to haversine when the client ultimately fails.
type ORSClient struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	apiKey      string
	maxRetries  int
	backoffBase time.Duration
	snapRadiusM float64
	clock       shared.Clock
}

// NewORSClient creates an OpenRouteService client. Zero config fields fall
// back to defaults; if clock is nil, uses RealClock for production.
func NewORSClient(cfg ORSConfig, clock shared.Clock) *ORSClient {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.SnapRadiusMeters <= 0 {
		cfg.SnapRadiusMeters = defaultSnapRadiusM
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = defaultRequestsPerMinute
	}

	return &ORSClient{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 2),
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		maxRetries:  cfg.MaxRetries,
		backoffBase: cfg.BackoffBase,
		snapRadiusM: cfg.SnapRadiusMeters,
		clock:       clock,
	}
}

// Name identifies the backend in cache keys and route metadata
func (c *ORSClient) Name() string {
	return "ors"
}

// DistanceMatrix returns pairwise road miles between points
func (c *ORSClient) DistanceMatrix(ctx context.Context, points []geo.Coord, profile string) ([][]float64, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("distance matrix needs at least 2 points, got %d", len(points))
	}

	body := map[string]interface{}{
		"locations": toLonLat(points),
		"metrics":   []string{"distance"},
		"units":     "mi",
	}

	var response struct {
		Distances [][]float64 `json:"distances"`
	}
	path := fmt.Sprintf("/v2/matrix/%s", profile)
	if err := c.request(ctx, path, body, &response); err != nil {
		return nil, fmt.Errorf("failed to get distance matrix: %w", err)
	}

	if len(response.Distances) != len(points) {
		return nil, fmt.Errorf("distance matrix returned %d rows for %d points", len(response.Distances), len(points))
	}
	return response.Distances, nil
}

// Directions computes road legs and geometry through points in the given
// order
func (c *ORSClient) Directions(ctx context.Context, points []geo.Coord, profile string, objective routing.Objective) (*routing.Directions, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("directions needs at least 2 points, got %d", len(points))
	}

	radiuses := make([]float64, len(points))
	for i := range radiuses {
		radiuses[i] = c.snapRadiusM
	}

	body := map[string]interface{}{
		"coordinates": toLonLat(points),
		"preference":  preferenceFor(objective),
		"radiuses":    radiuses,
		"units":       "mi",
	}

	var response struct {
		Features []struct {
			Geometry struct {
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties struct {
				Segments []struct {
					Distance float64 `json:"distance"`
				} `json:"segments"`
				Summary struct {
					Distance float64 `json:"distance"`
				} `json:"summary"`
			} `json:"properties"`
		} `json:"features"`
	}
	path := fmt.Sprintf("/v2/directions/%s/geojson", profile)
	if err := c.request(ctx, path, body, &response); err != nil {
		return nil, fmt.Errorf("failed to get directions: %w", err)
	}

	if len(response.Features) == 0 {
		return nil, fmt.Errorf("directions returned no routes")
	}
	feature := response.Features[0]

	legs := make([]float64, len(feature.Properties.Segments))
	for i, segment := range feature.Properties.Segments {
		legs[i] = segment.Distance
	}

	// GeoJSON coordinates arrive [lng, lat]; callers work in [lat, lng]
	geometry := make([][]float64, len(feature.Geometry.Coordinates))
	for i, point := range feature.Geometry.Coordinates {
		if len(point) < 2 {
			return nil, fmt.Errorf("directions geometry has malformed point at %d", i)
		}
		geometry[i] = []float64{point[1], point[0]}
	}

	return &routing.Directions{
		LegMiles:   legs,
		TotalMiles: feature.Properties.Summary.Distance,
		Geometry:   geometry,
	}, nil
}

// request makes a rate-limited POST with retry on 429/5xx and network errors
func (c *ORSClient) request(ctx context.Context, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Network error - retryable
			lastErr = fmt.Errorf("network error: %w", err)
			if attempt >= c.maxRetries {
				break
			}
			if ctx.Err() != nil {
				return fmt.Errorf("context cancelled: %w", ctx.Err())
			}
			c.clock.Sleep(addJitter(c.backoffBase * time.Duration(1<<attempt)))
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		// 429 and 5xx are retryable; other non-2xx are not
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("provider error (status %d)", resp.StatusCode)
			if attempt >= c.maxRetries {
				break
			}
			if ctx.Err() != nil {
				return fmt.Errorf("context cancelled: %w", ctx.Err())
			}
			c.clock.Sleep(addJitter(c.backoffBase * time.Duration(1<<attempt)))
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("provider error (status %d): %s", resp.StatusCode, string(respBody))
		}

		if result != nil {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to unmarshal response: %w", err)
			}
		}
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("max retries exceeded: %w", lastErr)
	}
	return fmt.Errorf("max retries exceeded")
}

func addJitter(d time.Duration) time.Duration {
	jitter := 0.5 + rand.Float64() // 0.5 to 1.5
	return time.Duration(float64(d) * jitter)
}

func preferenceFor(objective routing.Objective) string {
	if objective == routing.ObjectiveTime {
		return "fastest"
	}
	return "shortest"
}

// toLonLat converts coordinates to the GeoJSON [lng, lat] convention
func toLonLat(points []geo.Coord) [][]float64 {
	out := make([][]float64, len(points))
	for i, p := range points {
		out[i] = []float64{p.Lng, p.Lat}
	}
	return out
}
