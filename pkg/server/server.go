// Package server provides the MCP server implementation for the commute
// estimation service, plus a small HTTP facade over the same tools.
package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/carbonsense/commutemcp/pkg/tools"
	"github.com/carbonsense/commutemcp/pkg/version"
)

const (
	// ServerName is the name of the MCP server
	ServerName = "commute-mcp-server"
)

// Server encapsulates the MCP server with the commute estimation tools.
type Server struct {
	srv          *mcpserver.MCPServer
	logger       *slog.Logger
	stopCh       chan struct{}
	doneCh       chan struct{}
	running      bool
	mu           sync.Mutex
	once         sync.Once // Ensure we only close stopCh once
	ctxCancel    context.CancelFunc
	ctxGoroutine sync.Once // Ensure we only start one context goroutine
}

// NewServer creates a new commute estimation MCP server with all tools registered.
func NewServer() (*Server, error) {
	logger := slog.Default()
	logger.Info("initializing commute estimation MCP server",
		"name", ServerName,
		"version", version.BuildVersion)

	// Create MCP server with options
	srv := mcpserver.NewMCPServer(
		ServerName,
		version.BuildVersion,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	// Create tool registry and register all tools
	registry := tools.NewRegistry(logger)
	registry.RegisterAll(srv)

	return &Server{
		srv:    srv,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// Run starts the MCP server using stdin/stdout for communication.
// This method blocks until the server is stopped or an error occurs.
func (s *Server) Run() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	// Run the server in a goroutine
	go func() {
		defer close(s.doneCh)
		err := mcpserver.ServeStdio(s.srv)
		if err != nil && err != io.EOF {
			s.logger.Error("server error", "error", err)
		}

		// Ensure the main Run loop is notified that the
		// server has finished processing.
		s.Shutdown()
	}()

	// Wait for stop signal
	<-s.stopCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	// Wait for server to finish before returning
	<-s.doneCh
	return nil
}

// RunWithContext starts the MCP server and allows for graceful shutdown via context.
// This method blocks until the context is canceled or an error occurs.
func (s *Server) RunWithContext(ctx context.Context) error {
	// Create a goroutine to watch the context for cancellation
	s.ctxGoroutine.Do(func() {
		// Create a derived context that we can cancel
		derived, cancel := context.WithCancel(ctx)
		s.ctxCancel = cancel

		go func() {
			select {
			case <-derived.Done():
				s.Shutdown()
			case <-s.stopCh:
				// Already being shut down
			}
		}()
	})

	return s.Run()
}

// Shutdown initiates a graceful shutdown of the server.
// It does not block and returns immediately.
// Using sync.Once to ensure we don't close an already closed channel.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	// Signal the server to stop using sync.Once to avoid panics
	// on double close of the channel
	s.once.Do(func() {
		close(s.stopCh)
	})

	// Cancel the context if we have one
	if s.ctxCancel != nil {
		s.ctxCancel()
	}
}

// WaitForShutdown blocks until the server has fully shut down.
func (s *Server) WaitForShutdown() {
	<-s.doneCh
}

// GetMCPServer returns the underlying MCP server instance for HTTP transport
func (s *Server) GetMCPServer() *mcpserver.MCPServer {
	return s.srv
}

// Handler is a plain HTTP facade over the commute tools, for clients that
// do not speak MCP.
type Handler struct {
	logger *slog.Logger
}

// NewHandler creates a new server handler
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
	}
}

// ServeHTTP implements the http.Handler interface
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	path := r.URL.Path
	method := r.Method

	// Add request ID to context
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = generateRequestID()
	}

	// Log request
	h.logger.Info("request started",
		"request_id", reqID,
		"method", method,
		"path", path,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent())

	// Handle request
	var status int
	var err error

	switch {
	case path == "/health":
		status, err = h.handleHealth(w, r)
	case path == "/geocode":
		status, err = h.handleGeocode(w, r)
	case path == "/route":
		status, err = h.handleRoute(w, r)
	case path == "/estimate":
		status, err = h.handleEstimate(w, r)
	default:
		status = http.StatusNotFound
		http.NotFound(w, r)
	}

	// Log response
	duration := time.Since(start)
	if err != nil {
		h.logger.Error("request failed",
			"request_id", reqID,
			"method", method,
			"path", path,
			"status", status,
			"duration", duration,
			"error", err)
	} else {
		h.logger.Info("request completed",
			"request_id", reqID,
			"method", method,
			"path", path,
			"status", status,
			"duration", duration)
	}
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) (int, error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
		h.logger.Error("failed to write health response", "error", err)
		return http.StatusOK, err // Status already written, but return error for logging
	}

	return http.StatusOK, nil
}

// writeToolResult writes a tool handler result as an HTTP response.
func (h *Handler) writeToolResult(w http.ResponseWriter, result *mcp.CallToolResult) (int, error) {
	var content string
	for _, c := range result.Content {
		if t, ok := c.(mcp.TextContent); ok {
			content = t.Text
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	status := http.StatusOK
	if result.IsError {
		status = http.StatusBadRequest
	}
	w.WriteHeader(status)

	if _, err := w.Write([]byte(content)); err != nil {
		h.logger.Error("failed to write response", "error", err)
		return status, err
	}

	return status, nil
}

// queryFloat parses a float query parameter, returning def when absent or malformed.
func queryFloat(r *http.Request, key string, def float64) float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return value
}

// handleGeocode handles geocoding requests
func (h *Handler) handleGeocode(w http.ResponseWriter, r *http.Request) (int, error) {
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "geocode_address",
			Arguments: map[string]any{
				"address": r.URL.Query().Get("address"),
			},
		},
	}

	result, err := tools.HandleGeocodeAddress(r.Context(), req)
	if err != nil {
		return http.StatusInternalServerError, err
	}

	return h.writeToolResult(w, result)
}

// handleRoute handles routing requests
func (h *Handler) handleRoute(w http.ResponseWriter, r *http.Request) (int, error) {
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "route_fetch",
			Arguments: map[string]any{
				"start": map[string]any{
					"latitude":  queryFloat(r, "start_lat", 0),
					"longitude": queryFloat(r, "start_lon", 0),
				},
				"end": map[string]any{
					"latitude":  queryFloat(r, "end_lat", 0),
					"longitude": queryFloat(r, "end_lon", 0),
				},
				"mode": r.URL.Query().Get("mode"),
			},
		},
	}

	result, err := tools.HandleRouteFetch(r.Context(), req)
	if err != nil {
		return http.StatusInternalServerError, err
	}

	return h.writeToolResult(w, result)
}

// handleEstimate handles commute estimate requests
func (h *Handler) handleEstimate(w http.ResponseWriter, r *http.Request) (int, error) {
	q := r.URL.Query()
	args := map[string]any{
		"home":             q.Get("home"),
		"work":             q.Get("work"),
		"efficiency_value": queryFloat(r, "efficiency_value", 0),
		"efficiency_unit":  q.Get("efficiency_unit"),
	}
	if q.Get("commute_days") != "" {
		args["commute_days"] = queryFloat(r, "commute_days", 5)
	}
	if q.Get("fuel_type") != "" {
		args["fuel_type"] = q.Get("fuel_type")
	}
	if q.Get("factor") != "" {
		args["factor"] = queryFloat(r, "factor", 0)
	}
	if q.Get("idle_hours") != "" {
		args["idle_hours"] = queryFloat(r, "idle_hours", 0)
		args["idle_rate_value"] = queryFloat(r, "idle_rate_value", 0)
		if q.Get("idle_rate_unit") != "" {
			args["idle_rate_unit"] = q.Get("idle_rate_unit")
		}
	}

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "estimate_commute",
			Arguments: args,
		},
	}

	result, err := tools.HandleEstimateCommute(r.Context(), req)
	if err != nil {
		return http.StatusInternalServerError, err
	}

	return h.writeToolResult(w, result)
}

// generateRequestID generates a unique request ID
func generateRequestID() string {
	return time.Now().Format("20060102150405.000000000")
}
