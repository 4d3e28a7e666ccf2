// Package httpapi serves the client's read and write surface over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slycke/go-warmup/pkg/warmup"
)

// Thermostat is the part of *warmup.Client the API depends on.
type Thermostat interface {
	Statuses() []warmup.Status
	RoomStatus(id int) (warmup.Status, error)
	Refresh(ctx context.Context) ([]warmup.Room, error)
	SetMode(ctx context.Context, roomID int, mode warmup.Mode) (*warmup.Response, error)
	SetTargetTemperature(ctx context.Context, roomID int, celsius float64) (*warmup.Response, error)
	SetOverride(ctx context.Context, roomID int, celsius float64) (*warmup.Response, error)
}

// Handler wires the HTTP layer to the thermostat client.
type Handler struct {
	thermostat Thermostat
	log        *slog.Logger
	metrics    http.Handler
}

// NewHandler constructs a handler. metrics may be nil, in which case
// /metrics is not served.
func NewHandler(thermostat Thermostat, log *slog.Logger, metrics http.Handler) *Handler {
	return &Handler{thermostat: thermostat, log: log, metrics: metrics}
}

// InitRoutes builds the gin router with every route registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	h.registerAPIRoutes(router)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.POST("/refresh", h.refresh)

		rooms := api.Group("/rooms")
		rooms.GET("", h.listRooms)
		rooms.GET("/:id", h.getRoom)
		rooms.POST("/:id/mode", h.setMode)
		rooms.POST("/:id/temperature", h.setTemperature)
		rooms.POST("/:id/override", h.setOverride)
	}
}
