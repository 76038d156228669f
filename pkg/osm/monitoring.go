package osm

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// MonitoringHooks defines callbacks observing outgoing service requests.
// The main package wires these to Prometheus; the package itself stays
// free of metrics dependencies.
type MonitoringHooks struct {
	// OnRequest is called before making an HTTP request.
	OnRequest func(service, operation string)

	// OnResponse is called after receiving an HTTP response.
	OnResponse func(service, operation string, duration time.Duration, success bool)

	// OnRateLimit is called when a request had to wait on a rate limiter.
	OnRateLimit func(service string, waitTime time.Duration)

	// OnError is called when a request fails.
	OnError func(service, errorType string)
}

var (
	globalHooks *MonitoringHooks
	hooksMutex  sync.RWMutex
)

// SetMonitoringHooks installs the global monitoring hooks.
func SetMonitoringHooks(hooks *MonitoringHooks) {
	hooksMutex.Lock()
	defer hooksMutex.Unlock()
	globalHooks = hooks
}

func getMonitoringHooks() *MonitoringHooks {
	hooksMutex.RLock()
	defer hooksMutex.RUnlock()
	return globalHooks
}

// MonitoredDoRequest performs a rate-limited HTTP request and reports it
// through the installed monitoring hooks.
func MonitoredDoRequest(ctx context.Context, req *http.Request, operation string) (*http.Response, error) {
	service := getServiceFromRequest(req)

	hooks := getMonitoringHooks()
	if hooks != nil && hooks.OnRequest != nil {
		hooks.OnRequest(service, operation)
	}

	req.Header.Set("User-Agent", GetUserAgent())

	start := time.Now()

	if err := waitForRateLimit(ctx, req); err != nil {
		if hooks != nil && hooks.OnError != nil {
			hooks.OnError(service, "rate_limit_wait_error")
		}
		return nil, err
	}

	// Only significant waits are worth a hook call.
	waitTime := time.Since(start)
	if waitTime > 100*time.Millisecond {
		if hooks != nil && hooks.OnRateLimit != nil {
			hooks.OnRateLimit(service, waitTime)
		}
	}

	requestStart := time.Now()
	resp, err := httpClient.Do(req)
	duration := time.Since(requestStart)

	success := err == nil && resp != nil && resp.StatusCode < 400

	if hooks != nil && hooks.OnResponse != nil {
		hooks.OnResponse(service, operation, duration, success)
	}

	if err != nil && hooks != nil && hooks.OnError != nil {
		hooks.OnError(service, "request_error")
	}

	return resp, err
}

// getServiceFromRequest maps the request host to a service name.
func getServiceFromRequest(req *http.Request) string {
	switch req.URL.Host {
	case hostFromURL(NominatimBaseURL):
		return "nominatim"
	case hostFromURL(OSRMBaseURL):
		return "osrm"
	default:
		return "unknown"
	}
}
