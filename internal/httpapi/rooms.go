package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/slycke/go-warmup/pkg/warmup"
)

const (
	statusOK       = "ok"
	statusAccepted = "accepted"

	errInvalidBodyPref = "invalid body: "
	errInvalidRoomID   = "invalid room id"
)

type modeRequest struct {
	Mode string `json:"mode" binding:"required"` // off | heat | auto
}

type temperatureRequest struct {
	Celsius *float64 `json:"celsius" binding:"required"`
}

type commandResponse struct {
	Status   string          `json:"status"`
	Method   string          `json:"method"`
	Response json.RawMessage `json:"response,omitempty"`
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
		"rooms":  len(h.thermostat.Statuses()),
	})
}

func (h *Handler) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.thermostat.Statuses())
}

func (h *Handler) getRoom(c *gin.Context) {
	id, ok := roomID(c)
	if !ok {
		return
	}
	st, err := h.thermostat.RoomStatus(id)
	if err != nil {
		h.logAndJSONError(c, err, "get_room_failed", "room", id)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) refresh(c *gin.Context) {
	if _, err := h.thermostat.Refresh(c.Request.Context()); err != nil {
		h.logAndJSONError(c, err, "refresh_failed")
		return
	}
	c.JSON(http.StatusOK, h.thermostat.Statuses())
}

func (h *Handler) setMode(c *gin.Context) {
	id, ok := roomID(c)
	if !ok {
		return
	}
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	mode, err := warmup.ParseMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.thermostat.SetMode(c.Request.Context(), id, mode)
	if err != nil {
		h.logAndJSONError(c, err, "set_mode_failed", "room", id, "mode", mode.String())
		return
	}
	respondAccepted(c, resp)
}

func (h *Handler) setTemperature(c *gin.Context) {
	id, celsius, ok := temperatureParams(c)
	if !ok {
		return
	}
	resp, err := h.thermostat.SetTargetTemperature(c.Request.Context(), id, celsius)
	if err != nil {
		h.logAndJSONError(c, err, "set_temperature_failed", "room", id, "celsius", celsius)
		return
	}
	respondAccepted(c, resp)
}

func (h *Handler) setOverride(c *gin.Context) {
	id, celsius, ok := temperatureParams(c)
	if !ok {
		return
	}
	resp, err := h.thermostat.SetOverride(c.Request.Context(), id, celsius)
	if err != nil {
		h.logAndJSONError(c, err, "set_override_failed", "room", id, "celsius", celsius)
		return
	}
	respondAccepted(c, resp)
}

func temperatureParams(c *gin.Context) (int, float64, bool) {
	id, ok := roomID(c)
	if !ok {
		return 0, 0, false
	}
	var req temperatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return 0, 0, false
	}
	return id, *req.Celsius, true
}

func roomID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidRoomID})
		return 0, false
	}
	return id, true
}

func respondAccepted(c *gin.Context, resp *warmup.Response) {
	out := commandResponse{Status: statusAccepted}
	if resp != nil {
		out.Method = resp.Method
		out.Response = resp.Raw
	}
	c.JSON(http.StatusOK, out)
}

// statusFor maps client errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, warmup.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, warmup.ErrRange):
		return http.StatusBadRequest
	case errors.Is(err, warmup.ErrNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, err error, logKey string, kv ...any) {
	code := statusFor(err)
	if h.log != nil {
		level := h.log.Warn
		if code >= http.StatusInternalServerError {
			level = h.log.Error
		}
		level(logKey, append([]any{"error", err, "status", code}, kv...)...)
	}
	c.JSON(code, gin.H{"error": fmt.Sprint(err)})
}
