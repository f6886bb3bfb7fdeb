package authority

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type HealthStatus struct {
	Healthy        bool     `json:"healthy"`
	StoreConnected bool     `json:"store_connected"`
	NATSConnected  *bool    `json:"nats_connected,omitempty"`
	Connections    int      `json:"connections"`
	Errors         []string `json:"errors"`
}

// ConnStatus reports a broker connection state. *nats.Conn satisfies it.
type ConnStatus interface {
	IsConnected() bool
}

type HealthChecker struct {
	app  *App
	hub  *Hub
	nats ConnStatus
}

// NewHealthChecker creates a checker. nats may be nil when fan-out is disabled.
func NewHealthChecker(app *App, hub *Hub, nats ConnStatus) *HealthChecker {
	return &HealthChecker{
		app:  app,
		hub:  hub,
		nats: nats,
	}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy: true,
		Errors:  []string{},
	}

	if err := h.app.Ping(ctx); err != nil {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("store ping failed: %v", err))
	} else {
		status.StoreConnected = true
	}

	if h.nats != nil {
		connected := h.nats.IsConnected()
		status.NATSConnected = &connected
		if !connected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	if h.hub != nil {
		status.Connections = h.hub.Connections()
	}
	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}
