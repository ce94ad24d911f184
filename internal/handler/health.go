package handler // declare the package name; contains HTTP handlers

import (
	"context"  // Pinger signature
	"net/http" // net/http provides status codes and response helpers

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RealtimeStats is satisfied by *realtime.Registry.
type RealtimeStats interface {
	Stats() map[string]int
}

// HealthHandler reports liveness of the database and the realtime
// registry.  Either dependency may be nil.
type HealthHandler struct {
	DB       Pinger
	Realtime RealtimeStats
}

func NewHealthHandler(db Pinger, rt RealtimeStats) *HealthHandler {
	return &HealthHandler{DB: db, Realtime: rt}
}

// Health is used by load balancers and monitoring systems to verify that
// the service is running.  It answers 503 when the database does not
// respond to a ping.
func (h *HealthHandler) Health(c echo.Context) error {
	body := echo.Map{"status": "ok"}
	status := http.StatusOK
	if h.DB != nil {
		ctx, cancel := requestContext(c)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			body["status"] = "degraded"
			body["db"] = "down"
			status = http.StatusServiceUnavailable
		} else {
			body["db"] = "ok"
		}
	}
	if h.Realtime != nil {
		body["realtime"] = h.Realtime.Stats()
	}
	return c.JSON(status, body)
}
