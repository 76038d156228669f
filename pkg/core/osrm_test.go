package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/carbonsense/commutemcp/pkg/geo"
	"github.com/carbonsense/commutemcp/pkg/osm"
)

const osrmOKResponse = `{
	"code": "Ok",
	"routes": [{
		"duration": 960.5,
		"distance": 12345.6,
		"weight": 960.5,
		"weight_name": "routability",
		"legs": [{"duration": 960.5, "distance": 12345.6, "summary": "I-74", "weight": 960.5}]
	}],
	"waypoints": [
		{"name": "Main St", "location": [-88.2073, 40.1106], "distance": 3.2},
		{"name": "Wright St", "location": [-88.2272, 40.1095], "distance": 1.1}
	]
}`

func newOSRMServer(t *testing.T, response string, hits *int) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			mu.Lock()
			*hits++
			mu.Unlock()
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(response))
	}))
}

func TestGetSimpleRoute(t *testing.T) {
	server := newOSRMServer(t, osrmOKResponse, nil)
	defer server.Close()

	options := DefaultOSRMOptions()
	options.BaseURL = server.URL

	result, err := GetRoute(context.Background(),
		[][]float64{{-88.2073, 40.1106}, {-88.2272, 40.1095}}, options)
	if err != nil {
		t.Fatalf("GetRoute unexpected error: %v", err)
	}
	if len(result.Routes) != 1 {
		t.Fatalf("got %d routes, want 1", len(result.Routes))
	}
	if result.Routes[0].Distance != 12345.6 {
		t.Errorf("distance = %f, want 12345.6", result.Routes[0].Distance)
	}
	if result.Routes[0].Duration != 960.5 {
		t.Errorf("duration = %f, want 960.5", result.Routes[0].Duration)
	}
	if result.Routes[0].Legs[0].Summary != "I-74" {
		t.Errorf("summary = %q, want I-74", result.Routes[0].Legs[0].Summary)
	}
}

func TestGetRouteCaching(t *testing.T) {
	var hits int
	server := newOSRMServer(t, osrmOKResponse, &hits)
	defer server.Close()

	options := DefaultOSRMOptions()
	options.BaseURL = server.URL

	coords := [][]float64{{-87.6298, 41.8781}, {-87.9073, 41.9742}}
	for i := 0; i < 3; i++ {
		if _, err := GetRoute(context.Background(), coords, options); err != nil {
			t.Fatalf("GetRoute unexpected error: %v", err)
		}
	}

	if hits != 1 {
		t.Errorf("server saw %d requests, want 1 (cached)", hits)
	}
}

func TestGetRouteServiceError(t *testing.T) {
	server := newOSRMServer(t, `{"code": "NoRoute", "message": "Impossible route between points", "routes": []}`, nil)
	defer server.Close()

	options := DefaultOSRMOptions()
	options.BaseURL = server.URL

	_, err := GetRoute(context.Background(),
		[][]float64{{0.000001, 0.000001}, {0.000002, 0.000002}}, options)
	if err == nil {
		t.Fatal("expected error for NoRoute response")
	}
}

func TestGetSimpleRouteWrapper(t *testing.T) {
	server := newOSRMServer(t, osrmOKResponse, nil)
	defer server.Close()

	// GetSimpleRoute builds its options from the package defaults, so point
	// the default base URL at the test server.
	orig := osm.OSRMBaseURL
	osm.OSRMBaseURL = server.URL
	defer func() { osm.OSRMBaseURL = orig }()

	from := geo.Location{Latitude: 40.7128, Longitude: -74.0060}
	to := geo.Location{Latitude: 40.7306, Longitude: -73.9352}

	route, err := GetSimpleRoute(context.Background(), from, to, "car")
	if err != nil {
		t.Fatalf("GetSimpleRoute unexpected error: %v", err)
	}
	if route.Distance != 12345.6 || route.Duration != 960.5 {
		t.Errorf("route = %+v", route)
	}
	if route.Summary != "I-74" {
		t.Errorf("summary = %q, want I-74", route.Summary)
	}
}
