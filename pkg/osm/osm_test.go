package osm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestTTLCache(t *testing.T) {
	cache := NewTTLCache[string, int](50 * time.Millisecond)

	cache.Set("a", 1)
	if v, ok := cache.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if cache.Size() != 1 {
		t.Errorf("Size() = %d, want 1", cache.Size())
	}

	if _, ok := cache.Get("missing"); ok {
		t.Error("Get(missing) reported a hit")
	}

	time.Sleep(60 * time.Millisecond)
	if _, ok := cache.Get("a"); ok {
		t.Error("expired entry still returned")
	}

	cache.Set("b", 2)
	cache.Delete("b")
	if _, ok := cache.Get("b"); ok {
		t.Error("deleted entry still returned")
	}

	cache.Set("c", 3)
	cache.Clear()
	if cache.Size() != 0 {
		t.Errorf("Size() after Clear = %d, want 0", cache.Size())
	}
}

func TestTTLCacheCleanup(t *testing.T) {
	cache := NewTTLCache[string, string](10 * time.Millisecond)
	cache.Set("x", "1")
	cache.Set("y", "2")

	time.Sleep(20 * time.Millisecond)
	cache.Cleanup()

	if cache.Size() != 0 {
		t.Errorf("Size() after cleanup = %d, want 0", cache.Size())
	}
}

func TestGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		if q := r.URL.Query().Get("q"); q == "nowhere" {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(`[{"place_id":1,"osm_type":"way","osm_id":42,"lat":"40.1106","lon":"-88.2073","display_name":"Urbana, Champaign County, Illinois"}]`))
	}))
	defer server.Close()

	orig := NominatimBaseURL
	NominatimBaseURL = server.URL
	defer func() { NominatimBaseURL = orig }()
	geocodeCache.Clear()

	place, err := Geocode(context.Background(), "Urbana, Illinois")
	if err != nil {
		t.Fatalf("Geocode unexpected error: %v", err)
	}
	if place.DisplayName != "Urbana, Champaign County, Illinois" {
		t.Errorf("display name = %q", place.DisplayName)
	}
	if place.Location.Latitude != 40.1106 || place.Location.Longitude != -88.2073 {
		t.Errorf("location = %+v", place.Location)
	}

	if _, err := Geocode(context.Background(), "nowhere"); err == nil {
		t.Error("expected error for empty result set")
	}

	if _, err := Geocode(context.Background(), ""); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestGeocodeCaching(t *testing.T) {
	var requests int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		w.Write([]byte(`[{"lat":"51.5074","lon":"-0.1278","display_name":"London"}]`))
	}))
	defer server.Close()

	orig := NominatimBaseURL
	NominatimBaseURL = server.URL
	defer func() { NominatimBaseURL = orig }()
	geocodeCache.Clear()

	for i := 0; i < 3; i++ {
		if _, err := Geocode(context.Background(), "London"); err != nil {
			t.Fatalf("Geocode unexpected error: %v", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if requests != 1 {
		t.Errorf("server saw %d requests, want 1 (cached)", requests)
	}
}

func TestReverseGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"lat":"48.8584","lon":"2.2945","display_name":"Tour Eiffel, Paris"}`))
	}))
	defer server.Close()

	orig := NominatimBaseURL
	NominatimBaseURL = server.URL
	defer func() { NominatimBaseURL = orig }()

	place, err := ReverseGeocode(context.Background(), 48.8584, 2.2945)
	if err != nil {
		t.Fatalf("ReverseGeocode unexpected error: %v", err)
	}
	if place.DisplayName != "Tour Eiffel, Paris" {
		t.Errorf("display name = %q", place.DisplayName)
	}

	if _, err := ReverseGeocode(context.Background(), 95, 0); err == nil {
		t.Error("expected error for out-of-range latitude")
	}
}

func TestMonitoringHooks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var mu sync.Mutex
	var requested, responded bool
	var sawSuccess bool

	SetMonitoringHooks(&MonitoringHooks{
		OnRequest: func(service, operation string) {
			mu.Lock()
			requested = true
			mu.Unlock()
		},
		OnResponse: func(service, operation string, duration time.Duration, success bool) {
			mu.Lock()
			responded = true
			sawSuccess = success
			mu.Unlock()
		},
	})
	defer SetMonitoringHooks(nil)

	req, err := http.NewRequestWithContext(context.Background(), "GET", server.URL, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	resp, err := MonitoredDoRequest(context.Background(), req, "test_op")
	if err != nil {
		t.Fatalf("MonitoredDoRequest unexpected error: %v", err)
	}
	resp.Body.Close()

	mu.Lock()
	defer mu.Unlock()
	if !requested {
		t.Error("OnRequest hook not called")
	}
	if !responded {
		t.Error("OnResponse hook not called")
	}
	if !sawSuccess {
		t.Error("OnResponse reported failure for a 200 response")
	}
}

func TestUserAgent(t *testing.T) {
	orig := GetUserAgent()
	defer SetUserAgent(orig)

	SetUserAgent("test-agent/1.0")
	if got := GetUserAgent(); got != "test-agent/1.0" {
		t.Errorf("GetUserAgent() = %q, want test-agent/1.0", got)
	}

	var seen string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	req, err := NewRequestWithUserAgent(context.Background(), "GET", server.URL, nil)
	if err != nil {
		t.Fatalf("NewRequestWithUserAgent unexpected error: %v", err)
	}
	resp, err := DoRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("DoRequest unexpected error: %v", err)
	}
	resp.Body.Close()

	if seen != "test-agent/1.0" {
		t.Errorf("server saw User-Agent %q, want test-agent/1.0", seen)
	}
}
