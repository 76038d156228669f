package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/carbonsense/commutemcp/pkg/geo"
	"github.com/carbonsense/commutemcp/pkg/osm"
)

const (
	// Cache size for route results. Commute estimates hit the same
	// home/work pairs repeatedly, so even a small cache pays off.
	defaultRouteCacheSize = 256
)

var (
	routeCache     *lru.Cache[string, *OSRMResult]
	routeCacheOnce sync.Once
)

// OSRMOptions defines options for OSRM route requests
type OSRMOptions struct {
	// BaseURL for the OSRM service. Defaults to the public instance.
	BaseURL string

	// Profile to use (car, bike, foot)
	Profile string

	// Overview determines the geometry precision:
	// "simplified", "full", "false"
	Overview string

	// Alternatives controls how many alternative routes to request
	Alternatives int

	// Client is the HTTP client to use for requests
	Client *http.Client

	// RetryOptions controls retry behavior
	RetryOptions RetryOptions
}

// DefaultOSRMOptions returns reasonable defaults for OSRM requests
func DefaultOSRMOptions() OSRMOptions {
	return OSRMOptions{
		BaseURL:      osm.OSRMBaseURL,
		Profile:      "car",
		Overview:     "false",
		Alternatives: 0,
		Client:       &http.Client{Timeout: 10 * time.Second},
		RetryOptions: DefaultRetryOptions,
	}
}

// OSRMRoute represents a route returned by the OSRM service
type OSRMRoute struct {
	Duration   float64   `json:"duration"`    // Duration in seconds
	Distance   float64   `json:"distance"`    // Distance in meters
	Geometry   string    `json:"geometry"`    // Encoded polyline, if requested
	Weight     float64   `json:"weight"`      // Weight value (typically duration)
	WeightName string    `json:"weight_name"` // Name of the weight metric
	Legs       []OSRMLeg `json:"legs"`        // Route legs between waypoints
}

// OSRMLeg represents a leg of a route between two waypoints
type OSRMLeg struct {
	Duration float64 `json:"duration"` // Duration in seconds
	Distance float64 `json:"distance"` // Distance in meters
	Summary  string  `json:"summary"`  // Summary of the leg
	Weight   float64 `json:"weight"`   // Weight value
}

// OSRMWaypoint represents a waypoint in the route
type OSRMWaypoint struct {
	Name     string    `json:"name"`     // Street name
	Location []float64 `json:"location"` // Coordinates [lon, lat]
	Distance float64   `json:"distance"` // Distance from requested coordinate
}

// OSRMResult represents the complete response from the OSRM service
type OSRMResult struct {
	Code      string         `json:"code"`      // Status code
	Message   string         `json:"message"`   // Error message if applicable
	Routes    []OSRMRoute    `json:"routes"`    // Array of routes
	Waypoints []OSRMWaypoint `json:"waypoints"` // Array of waypoints
}

func initCache() {
	routeCacheOnce.Do(func() {
		var err error
		routeCache, err = lru.New[string, *OSRMResult](defaultRouteCacheSize)
		if err != nil {
			routeCache, _ = lru.New[string, *OSRMResult](16) // Fallback to smaller cache
		}
	})
}

// cacheKey generates a cache key for a route request
func cacheKey(coordinates [][]float64, options OSRMOptions) string {
	var coordsStr strings.Builder
	for i, coord := range coordinates {
		if i > 0 {
			coordsStr.WriteString(";")
		}
		coordsStr.WriteString(fmt.Sprintf("%.6f,%.6f", coord[0], coord[1]))
	}

	optStr := fmt.Sprintf("%s;%s;%d",
		options.Profile,
		options.Overview,
		options.Alternatives)

	return coordsStr.String() + "|" + optStr
}

// GetRoute fetches a route from the OSRM service. Coordinates are given as
// [longitude, latitude] pairs, matching OSRM's wire order. Results are
// cached by coordinates and options.
func GetRoute(ctx context.Context, coordinates [][]float64, options OSRMOptions) (*OSRMResult, error) {
	logger := slog.Default().With("service", "osrm")

	initCache()

	key := cacheKey(coordinates, options)
	if cached, found := routeCache.Get(key); found {
		logger.Debug("route cache hit", "key", key)
		return cached, nil
	}

	logger.Debug("route cache miss", "key", key)

	var coordStr strings.Builder
	for i, coord := range coordinates {
		if i > 0 {
			coordStr.WriteString(";")
		}
		coordStr.WriteString(fmt.Sprintf("%.6f,%.6f", coord[0], coord[1]))
	}

	if options.BaseURL == "" {
		options.BaseURL = osm.OSRMBaseURL
	}
	if options.Client == nil {
		options.Client = &http.Client{Timeout: 10 * time.Second}
	}

	baseURL := fmt.Sprintf("%s/route/v1/%s/%s",
		strings.TrimRight(options.BaseURL, "/"),
		options.Profile,
		coordStr.String())

	reqURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	query := reqURL.Query()
	query.Add("overview", options.Overview)
	query.Add("alternatives", fmt.Sprintf("%d", options.Alternatives))
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", osm.GetUserAgent())

	resp, err := WithRetry(ctx, req, options.Client, options.RetryOptions)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	result := &OSRMResult{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, err
	}

	if result.Code != "Ok" {
		return nil, fmt.Errorf("OSRM error: %s", result.Message)
	}

	routeCache.Add(key, result)

	return result, nil
}

// SimpleRoute represents a route reduced to the figures a commute
// estimate needs.
type SimpleRoute struct {
	Distance float64 `json:"distance"` // Distance in meters
	Duration float64 `json:"duration"` // Duration in seconds
	Summary  string  `json:"summary"`  // Route summary
}

// GetSimpleRoute fetches the best driving route between two locations and
// returns its distance and duration.
func GetSimpleRoute(ctx context.Context, from, to geo.Location, mode string) (*SimpleRoute, error) {
	options := DefaultOSRMOptions()
	if mode != "" {
		options.Profile = mode
	}

	coordinates := [][]float64{
		{from.Longitude, from.Latitude},
		{to.Longitude, to.Latitude},
	}

	result, err := GetRoute(ctx, coordinates, options)
	if err != nil {
		return nil, err
	}

	if len(result.Routes) == 0 {
		return nil, fmt.Errorf("no routes found")
	}

	route := result.Routes[0]

	summary := ""
	if len(route.Legs) > 0 {
		summary = route.Legs[0].Summary
	}

	return &SimpleRoute{
		Distance: route.Distance,
		Duration: route.Duration,
		Summary:  summary,
	}, nil
}
