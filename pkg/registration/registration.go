// Package registration announces the commute server to an MCP service
// registry so agent frontends can discover its tools. Registration is best
// effort; the server keeps working when the registry is down.
package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// serviceType tells the registry what kind of service this is.
const serviceType = "mcp"

// DefaultHeartbeatInterval is the default time between announcements.
const DefaultHeartbeatInterval = 30 * time.Second

// DefaultTimeout is the default timeout for registry requests.
const DefaultTimeout = 5 * time.Second

// Endpoints lists where the server can be reached. The internal addresses
// are for container networks where the external URL is not routable.
type Endpoints struct {
	Service         string
	Health          string
	InternalService string
	InternalHealth  string
}

// Config describes this server to the registry.
type Config struct {
	// Enabled controls whether registration runs at all.
	Enabled bool

	// RegistryURL is the base URL of the registry, e.g. "http://registry:7083".
	RegistryURL string

	// ServiceName is the unique name announced to the registry.
	ServiceName string

	// Endpoints are the addresses announced to the registry.
	Endpoints Endpoints

	// Version is the server version.
	Version string

	// Capabilities are the commute capability tags, e.g. geocoding,
	// routing, emissions.
	Capabilities []string

	// Tools are the MCP tool names this server exposes.
	Tools []string

	// Transports maps each MCP transport (stdio, http) to whether it
	// is enabled.
	Transports map[string]bool

	// Providers names the upstream data providers the estimates depend
	// on, e.g. nominatim and osrm.
	Providers []string

	// HeartbeatInterval is the time between announcements.
	HeartbeatInterval time.Duration

	// Timeout bounds each registry request.
	Timeout time.Duration
}

// Announcement is the payload sent to the registry on every heartbeat.
type Announcement struct {
	Name           string         `json:"name"`
	Type           string         `json:"type"`
	URL            string         `json:"url"`
	HealthURL      string         `json:"health_url"`
	InternalURL    string         `json:"internal_url,omitempty"`
	InternalHealth string         `json:"internal_health_url,omitempty"`
	Version        string         `json:"version"`
	Capabilities   []string       `json:"capabilities,omitempty"`
	Tools          []string       `json:"tools,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Ack is the registry's answer to an announcement.
type Ack struct {
	Status          string    `json:"status"`
	Name            string    `json:"name"`
	TTLSeconds      int       `json:"ttl_seconds"`
	NextHeartbeatBy time.Time `json:"next_heartbeat_by"`
}

// Client announces the server and keeps the registration alive with
// heartbeats.
type Client struct {
	cfg        Config
	logger     *slog.Logger
	httpClient *http.Client
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	registered bool
	mu         sync.RWMutex
}

// NewClient creates a registration client. With cfg.Enabled false the
// client is a no-op.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Start launches the heartbeat loop and returns immediately.
func (c *Client) Start(ctx context.Context) {
	if !c.cfg.Enabled {
		c.logger.Info("service registration disabled")
		return
	}
	if c.cfg.RegistryURL == "" {
		c.logger.Warn("service registration enabled but no registry URL configured")
		return
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.heartbeatLoop(ctx)
}

// Stop deregisters from the registry and stops the heartbeat loop.
func (c *Client) Stop() {
	if !c.cfg.Enabled || c.cancel == nil {
		return
	}

	c.deregister()
	c.cancel()
	c.wg.Wait()
}

// IsRegistered reports whether the last announcement was acknowledged.
func (c *Client) IsRegistered() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registered
}

func (c *Client) heartbeatLoop(ctx context.Context) {
	defer c.wg.Done()

	c.announce()

	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.announce()
		case <-ctx.Done():
			return
		}
	}
}

// announcement assembles the registry payload from the commute config.
func (c *Client) announcement() Announcement {
	meta := make(map[string]any)
	if len(c.cfg.Transports) > 0 {
		meta["transports"] = c.cfg.Transports
	}
	if len(c.cfg.Providers) > 0 {
		meta["providers"] = c.cfg.Providers
	}

	return Announcement{
		Name:           c.cfg.ServiceName,
		Type:           serviceType,
		URL:            c.cfg.Endpoints.Service,
		HealthURL:      c.cfg.Endpoints.Health,
		InternalURL:    c.cfg.Endpoints.InternalService,
		InternalHealth: c.cfg.Endpoints.InternalHealth,
		Version:        c.cfg.Version,
		Capabilities:   c.cfg.Capabilities,
		Tools:          c.cfg.Tools,
		Metadata:       meta,
	}
}

// announce sends one announcement, doubling as the heartbeat.
func (c *Client) announce() {
	body, err := json.Marshal(c.announcement())
	if err != nil {
		c.logger.Error("failed to marshal announcement", "error", err)
		c.setRegistered(false)
		return
	}

	url := fmt.Sprintf("%s/api/register", c.cfg.RegistryURL)
	httpReq, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("failed to create announcement request", "error", err)
		c.setRegistered(false)
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("announcement failed, registry may be unavailable", "error", err)
		c.setRegistered(false)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		c.logger.Warn("registry rejected announcement", "status", resp.StatusCode, "body", string(respBody))
		c.setRegistered(false)
		return
	}

	var ack Ack
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		c.logger.Warn("failed to decode registry response", "error", err)
		c.setRegistered(false)
		return
	}

	wasRegistered := c.IsRegistered()
	c.setRegistered(true)
	if !wasRegistered {
		c.logger.Info("registered with service registry",
			"name", c.cfg.ServiceName,
			"ttl_seconds", ack.TTLSeconds)
	}
}

// deregister removes this server from the registry.
func (c *Client) deregister() {
	if !c.IsRegistered() {
		return
	}

	url := fmt.Sprintf("%s/api/register/%s", c.cfg.RegistryURL, c.cfg.ServiceName)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete, url, nil)
	if err != nil {
		c.logger.Debug("failed to create deregistration request", "error", err)
		return
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("deregistration failed, registry may be unavailable", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		c.logger.Info("deregistered from service registry", "name", c.cfg.ServiceName)
	}
	c.setRegistered(false)
}

func (c *Client) setRegistered(registered bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registered = registered
}
