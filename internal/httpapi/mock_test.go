package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slycke/go-warmup/pkg/warmup"
)

type call struct {
	method  string
	roomID  int
	mode    warmup.Mode
	celsius float64
}

type fakeThermostat struct {
	statuses   []warmup.Status
	refreshErr error
	commandErr error
	calls      []call
}

func (f *fakeThermostat) Statuses() []warmup.Status { return f.statuses }

func (f *fakeThermostat) RoomStatus(id int) (warmup.Status, error) {
	for _, st := range f.statuses {
		if st.RoomID == id {
			return st, nil
		}
	}
	return warmup.Status{}, fmt.Errorf("%w: %d", warmup.ErrNotFound, id)
}

func (f *fakeThermostat) Refresh(context.Context) ([]warmup.Room, error) {
	f.calls = append(f.calls, call{method: "refresh"})
	return nil, f.refreshErr
}

func (f *fakeThermostat) SetMode(_ context.Context, roomID int, mode warmup.Mode) (*warmup.Response, error) {
	f.calls = append(f.calls, call{method: "mode", roomID: roomID, mode: mode})
	return f.respond(warmup.MethodSetProgramme)
}

func (f *fakeThermostat) SetTargetTemperature(_ context.Context, roomID int, celsius float64) (*warmup.Response, error) {
	f.calls = append(f.calls, call{method: "temperature", roomID: roomID, celsius: celsius})
	return f.respond(warmup.MethodSetProgramme)
}

func (f *fakeThermostat) SetOverride(_ context.Context, roomID int, celsius float64) (*warmup.Response, error) {
	f.calls = append(f.calls, call{method: "override", roomID: roomID, celsius: celsius})
	return f.respond(warmup.MethodSetOverride)
}

func (f *fakeThermostat) respond(method string) (*warmup.Response, error) {
	if f.commandErr != nil {
		return nil, f.commandErr
	}
	return &warmup.Response{Method: method, Raw: json.RawMessage(`{"method":"` + method + `"}`)}, nil
}

func newTestRouter(t Thermostat, metrics http.Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHandler(t, nil, metrics).InitRoutes()
}
