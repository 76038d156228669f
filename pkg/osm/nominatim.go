package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/carbonsense/commutemcp/pkg/geo"
)

// Place is a location resolved by Nominatim.
type Place struct {
	// DisplayName is the full formatted address returned by Nominatim.
	DisplayName string `json:"display_name"`

	// Location is the resolved position in decimal degrees.
	Location geo.Location `json:"location"`

	// OSMType and OSMID identify the underlying map object.
	OSMType string `json:"osm_type,omitempty"`
	OSMID   int64  `json:"osm_id,omitempty"`
}

// ErrNoResults is returned when Nominatim finds nothing for a query.
var ErrNoResults = fmt.Errorf("no results found")

// nominatimResult is the wire shape of a Nominatim search result.
type nominatimResult struct {
	PlaceID     int64  `json:"place_id"`
	OSMType     string `json:"osm_type"`
	OSMID       int64  `json:"osm_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// geocodeCache holds recently resolved queries. Nominatim's usage policy
// asks clients to cache results; an hour is well within address stability.
var geocodeCache = NewTTLCache[string, Place](time.Hour)

// Geocode resolves a free-form address query to a Place. Results are cached
// by query string.
func Geocode(ctx context.Context, query string) (Place, error) {
	if query == "" {
		return Place{}, fmt.Errorf("empty geocode query")
	}

	if place, ok := geocodeCache.Get(query); ok {
		return place, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	reqURL := NominatimBaseURL + "/search?" + params.Encode()
	req, err := NewRequestWithUserAgent(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Place{}, fmt.Errorf("failed to create geocode request: %w", err)
	}

	resp, err := MonitoredDoRequest(ctx, req, "geocode")
	if err != nil {
		return Place{}, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Place{}, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Place{}, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return Place{}, fmt.Errorf("%w for %q", ErrNoResults, query)
	}

	place, err := placeFromResult(results[0])
	if err != nil {
		return Place{}, err
	}

	geocodeCache.Set(query, place)
	return place, nil
}

// ReverseGeocode resolves a position to the nearest address.
func ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error) {
	if err := geo.ValidateCoords(lat, lon); err != nil {
		return Place{}, err
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "json")

	reqURL := NominatimBaseURL + "/reverse?" + params.Encode()
	req, err := NewRequestWithUserAgent(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Place{}, fmt.Errorf("failed to create reverse geocode request: %w", err)
	}

	resp, err := MonitoredDoRequest(ctx, req, "reverse_geocode")
	if err != nil {
		return Place{}, fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Place{}, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var result nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Place{}, fmt.Errorf("failed to decode reverse geocode response: %w", err)
	}
	if result.DisplayName == "" {
		return Place{}, fmt.Errorf("%w at %f, %f", ErrNoResults, lat, lon)
	}

	return placeFromResult(result)
}

func placeFromResult(r nominatimResult) (Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return Place{}, fmt.Errorf("invalid latitude in response: %q", r.Lat)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return Place{}, fmt.Errorf("invalid longitude in response: %q", r.Lon)
	}
	if err := geo.ValidateCoords(lat, lon); err != nil {
		return Place{}, fmt.Errorf("response coordinates out of range: %w", err)
	}

	return Place{
		DisplayName: r.DisplayName,
		Location:    geo.Location{Latitude: lat, Longitude: lon},
		OSMType:     r.OSMType,
		OSMID:       r.OSMID,
	}, nil
}
