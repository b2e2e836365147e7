// Package maps wraps the Mapbox geocoding and directions APIs. Responses are
// cached in the key-value store; calls are rate limited and capped by a daily
// request budget.
package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mikelesnr/tsviyo-frontend/internal/middleware"
	"github.com/Mikelesnr/tsviyo-frontend/internal/store"
)

const baseURL = "https://api.mapbox.com"

var (
	ErrNoResults   = errors.New("maps: no results")
	ErrDailyBudget = errors.New("maps: daily request budget exhausted")
)

type Client struct {
	token      string
	httpClient *http.Client
	cache      store.Store
	log        zerolog.Logger

	rateLimiter *time.Ticker

	requestsMutex sync.Mutex
	requestsCount int
	requestsLimit int
	resetTime     time.Time
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Route is the driving route between two points.
type Route struct {
	DistanceKm  float64       `json:"distance_km"`
	DurationMin float64       `json:"duration_min"`
	Polyline    []Coordinates `json:"polyline"`
}

// NewClient builds the Mapbox client. dailyLimit caps outbound requests per
// 24 hours; cached answers do not count against it.
func NewClient(token string, dailyLimit int, cache store.Store, log zerolog.Logger) *Client {
	if dailyLimit <= 0 {
		dailyLimit = 5000
	}
	return &Client{
		token:         token,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		cache:         cache,
		log:           log.With().Str("component", "maps").Logger(),
		rateLimiter:   time.NewTicker(200 * time.Millisecond), // at most 5 requests per second
		requestsLimit: dailyLimit,
		resetTime:     time.Now().Add(24 * time.Hour),
	}
}

// checkRateLimit enforces the per-second pacing and the daily budget.
func (c *Client) checkRateLimit() error {
	c.requestsMutex.Lock()
	defer c.requestsMutex.Unlock()

	if time.Now().After(c.resetTime) {
		c.requestsCount = 0
		c.resetTime = time.Now().Add(24 * time.Hour)
	}
	if c.requestsCount >= c.requestsLimit {
		return ErrDailyBudget
	}

	<-c.rateLimiter.C
	c.requestsCount++
	return nil
}

// geocodeResponse is the Mapbox places payload.
type geocodeResponse struct {
	Features []struct {
		PlaceName string     `json:"place_name"`
		Center    [2]float64 `json:"center"` // lng, lat
	} `json:"features"`
}

// Geocode resolves a free-text address to coordinates.
func (c *Client) Geocode(ctx context.Context, address string) (Coordinates, error) {
	cacheKey := fmt.Sprintf("maps:geocode:%s", address)
	var cached Coordinates
	if found, err := c.cache.Get(ctx, cacheKey, &cached); err != nil {
		c.log.Warn().Err(err).Msg("failed to read geocode cache")
	} else if found {
		middleware.TrackMapsRequest("geocode", "ok", true)
		return cached, nil
	}

	var resp geocodeResponse
	endpoint := fmt.Sprintf("/geocoding/v5/mapbox.places/%s.json", url.PathEscape(address))
	if err := c.get(ctx, "geocode", endpoint, nil, &resp); err != nil {
		return Coordinates{}, err
	}
	if len(resp.Features) == 0 {
		return Coordinates{}, ErrNoResults
	}

	coords := Coordinates{Lat: resp.Features[0].Center[1], Lng: resp.Features[0].Center[0]}
	if err := c.cache.Set(ctx, cacheKey, coords); err != nil {
		c.log.Warn().Err(err).Msg("failed to write geocode cache")
	}
	return coords, nil
}

// ReverseGeocode resolves coordinates to a display address. When Mapbox has
// no answer the raw coordinates are formatted instead, so the caller always
// gets something displayable.
func (c *Client) ReverseGeocode(ctx context.Context, coords Coordinates) (string, error) {
	cacheKey := fmt.Sprintf("maps:revgeocode:%.6f:%.6f", coords.Lat, coords.Lng)
	var cached string
	if found, err := c.cache.Get(ctx, cacheKey, &cached); err != nil {
		c.log.Warn().Err(err).Msg("failed to read reverse-geocode cache")
	} else if found {
		middleware.TrackMapsRequest("reverse_geocode", "ok", true)
		return cached, nil
	}

	fallback := fmt.Sprintf("%.6f, %.6f", coords.Lat, coords.Lng)

	var resp geocodeResponse
	endpoint := fmt.Sprintf("/geocoding/v5/mapbox.places/%f,%f.json", coords.Lng, coords.Lat)
	if err := c.get(ctx, "reverse_geocode", endpoint, nil, &resp); err != nil {
		return fallback, err
	}
	if len(resp.Features) == 0 {
		return fallback, nil
	}

	address := resp.Features[0].PlaceName
	if err := c.cache.Set(ctx, cacheKey, address); err != nil {
		c.log.Warn().Err(err).Msg("failed to write reverse-geocode cache")
	}
	return address, nil
}

// directionsResponse is the Mapbox directions payload.
type directionsResponse struct {
	Routes []struct {
		Distance float64 `json:"distance"` // metres
		Duration float64 `json:"duration"` // seconds
		Geometry struct {
			Coordinates [][2]float64 `json:"coordinates"` // lng, lat
		} `json:"geometry"`
	} `json:"routes"`
}

// Route fetches the driving route between origin and destination.
func (c *Client) Route(ctx context.Context, origin, destination Coordinates) (*Route, error) {
	cacheKey := fmt.Sprintf("maps:route:%.6f:%.6f:%.6f:%.6f",
		origin.Lat, origin.Lng, destination.Lat, destination.Lng)
	var cached Route
	if found, err := c.cache.Get(ctx, cacheKey, &cached); err != nil {
		c.log.Warn().Err(err).Msg("failed to read route cache")
	} else if found {
		middleware.TrackMapsRequest("route", "ok", true)
		return &cached, nil
	}

	endpoint := fmt.Sprintf("/directions/v5/mapbox/driving/%f,%f;%f,%f",
		origin.Lng, origin.Lat, destination.Lng, destination.Lat)
	params := url.Values{}
	params.Set("geometries", "geojson")

	var resp directionsResponse
	if err := c.get(ctx, "route", endpoint, params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Routes) == 0 {
		return nil, ErrNoResults
	}

	raw := resp.Routes[0]
	route := &Route{
		DistanceKm:  raw.Distance / 1000,
		DurationMin: raw.Duration / 60,
		Polyline:    make([]Coordinates, 0, len(raw.Geometry.Coordinates)),
	}
	for _, p := range raw.Geometry.Coordinates {
		route.Polyline = append(route.Polyline, Coordinates{Lat: p[1], Lng: p[0]})
	}

	if err := c.cache.Set(ctx, cacheKey, route); err != nil {
		c.log.Warn().Err(err).Msg("failed to write route cache")
	}
	return route, nil
}

// get performs one Mapbox API call.
func (c *Client) get(ctx context.Context, name, endpoint string, params url.Values, out interface{}) error {
	if err := c.checkRateLimit(); err != nil {
		middleware.TrackMapsRequest(name, "budget_exhausted", false)
		return err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", c.token)
	fullURL := fmt.Sprintf("%s%s?%s", baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		middleware.TrackMapsRequest(name, "network_error", false)
		c.log.Warn().Err(err).Str("endpoint", name).Msg("mapbox request failed")
		return fmt.Errorf("mapbox request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		middleware.TrackMapsRequest(name, "network_error", false)
		return fmt.Errorf("failed to read mapbox response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		middleware.TrackMapsRequest(name, fmt.Sprintf("%d", resp.StatusCode), false)
		c.log.Warn().Int("status", resp.StatusCode).Str("endpoint", name).Msg("mapbox returned non-OK status")
		return fmt.Errorf("mapbox returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		middleware.TrackMapsRequest(name, "decode_error", false)
		return fmt.Errorf("failed to decode mapbox response: %w", err)
	}
	middleware.TrackMapsRequest(name, "ok", false)
	return nil
}

// Close releases client resources.
func (c *Client) Close() {
	c.rateLimiter.Stop()
}
