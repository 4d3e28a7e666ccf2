package warmup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUser     = "me@example.com"
	testPassword = "secret"
	testToken    = "tok-123"
	testLocID    = 4242
)

type recordedRequest struct {
	Method  string
	Account *account
	Body    map[string]any
	Header  http.Header
}

// fakeWarmup is an in-memory stand-in for the Warmup app API.
type fakeWarmup struct {
	mu        sync.Mutex
	locations []Location
	locMode   string
	rooms     []Room
	requests  []recordedRequest

	// roomsStatus, when non-zero, is returned as HTTP status for getRooms
	roomsStatus int
	roomsBody   string
	// onCommand runs inside the handler of every mutating request
	onCommand func(method string)
	// commandResult, when set, is the result of every mutating request
	commandResult string
}

func newFakeWarmup() *fakeWarmup {
	return &fakeWarmup{
		locations: []Location{{ID: testLocID, Name: "Home"}, {ID: 7, Name: "Cabin"}},
		locMode:   LocModeNormal,
		rooms: []Room{
			{RoomID: 1, RoomName: "Living", RunMode: RunModeSchedule, RoomMode: RoomModeProgram,
				TargetTemp: 210, CurrentTemp: 195, AirTemp: 200, MinTemp: 50, MaxTemp: 300},
			{RoomID: 2, RoomName: "Bath", RunMode: RunModeFixed, RoomMode: RoomModeFixed,
				TargetTemp: 240, CurrentTemp: 230, AirTemp: 228, MinTemp: 50, MaxTemp: 300},
		},
	}
}

func (f *fakeWarmup) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var env struct {
		Account *account       `json:"account"`
		Request map[string]any `json:"request"`
	}
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	method, _ := env.Request["method"].(string)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: method, Account: env.Account, Body: env.Request, Header: r.Header.Clone()})
	hook, commandResult := f.onCommand, f.commandResult
	f.mu.Unlock()

	if method != MethodUserLogin && (env.Account == nil || env.Account.Token != testToken) {
		writeReply(w, "tokenInvalid", map[string]any{})
		return
	}

	switch method {
	case MethodUserLogin:
		if env.Request["email"] != testUser || env.Request["password"] != testPassword {
			writeReply(w, "invalidCredentials", map[string]any{})
			return
		}
		writeReply(w, "success", map[string]any{"method": method, "token": testToken})

	case MethodGetLocations:
		f.mu.Lock()
		locs := f.locations
		f.mu.Unlock()
		writeReply(w, "success", map[string]any{"locations": locs})

	case MethodGetRooms:
		f.mu.Lock()
		status, body := f.roomsStatus, f.roomsBody
		resp := map[string]any{"locMode": f.locMode, "rooms": append([]Room(nil), f.rooms...)}
		f.mu.Unlock()
		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
			return
		}
		writeReply(w, "success", resp)

	case MethodSetModes, MethodSetProgramme, MethodSetOverride:
		if hook != nil {
			hook(method)
		}
		if commandResult != "" {
			writeReply(w, commandResult, map[string]any{})
			return
		}
		f.apply(method, env.Request)
		writeReply(w, "success", map[string]any{"method": method})

	default:
		writeReply(w, "unknownMethod", map[string]any{})
	}
}

func (f *fakeWarmup) apply(method string, req map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch method {
	case MethodSetModes:
		values := req["values"].(map[string]any)
		f.locMode = values["locMode"].(string)

	case MethodSetProgramme:
		id := int(req["roomId"].(float64))
		for i := range f.rooms {
			if f.rooms[i].RoomID != id {
				continue
			}
			if req["roomMode"] == roomModeProg {
				f.rooms[i].RoomMode = RoomModeProgram
				f.rooms[i].RunMode = RunModeSchedule
				continue
			}
			f.rooms[i].RoomMode = RoomModeFixed
			f.rooms[i].RunMode = RunModeFixed
			if fixed, ok := req["fixed"].(map[string]any); ok {
				v, _ := DecodeTemperature(fixed["fixedTemp"].(string))
				f.rooms[i].TargetTemp, _ = tenthsOf(v)
			}
		}

	case MethodSetOverride:
		ids := req["rooms"].([]any)
		v, _ := DecodeTemperature(req["temp"].(string))
		for i := range f.rooms {
			if f.rooms[i].RoomID == int(ids[0].(float64)) {
				f.rooms[i].RunMode = RunModeOverride
				f.rooms[i].OverrideTemp, _ = tenthsOf(v)
			}
		}
	}
}

func (f *fakeWarmup) setRoomTemp(id, current int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rooms {
		if f.rooms[i].RoomID == id {
			f.rooms[i].CurrentTemp = current
		}
	}
}

func (f *fakeWarmup) failRooms(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roomsStatus, f.roomsBody = status, body
}

func (f *fakeWarmup) recorded(method string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedRequest
	for _, r := range f.requests {
		if method == "" || r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

func writeReply(w http.ResponseWriter, result string, response any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   map[string]any{"result": result},
		"response": response,
	})
}

func newTestClient(t *testing.T, fake *fakeWarmup, opts ...ClientOption) *Client {
	t.Helper()

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	opts = append([]ClientOption{
		WithBaseURL(srv.URL),
		WithRequestTimeout(2 * time.Second),
		WithRefreshInterval(time.Hour),
	}, opts...)

	client, err := NewClient(testUser, testPassword, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func startedClient(t *testing.T, fake *fakeWarmup, opts ...ClientOption) *Client {
	t.Helper()
	client := newTestClient(t, fake, opts...)
	_, err := client.Start(context.Background())
	require.NoError(t, err)
	return client
}

func TestStart_Bootstrap(t *testing.T) {
	fake := newFakeWarmup()
	client := newTestClient(t, fake)

	rooms, err := client.Start(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, LocModeNormal, rooms[0].LocMode)

	sess, ok := client.Session()
	require.True(t, ok)
	assert.Equal(t, testToken, sess.Token)
	assert.Equal(t, testLocID, sess.LocationID, "first location is used")

	assert.Len(t, client.Rooms(), 2)
	_, ok = client.Room(2)
	assert.True(t, ok)

	login := fake.recorded(MethodUserLogin)
	require.Len(t, login, 1)
	assert.Nil(t, login[0].Account)
	assert.Equal(t, appID, login[0].Body["appId"])

	rooms2 := fake.recorded(MethodGetRooms)
	require.Len(t, rooms2, 1)
	assert.Equal(t, float64(testLocID), rooms2[0].Body["locId"])
	assert.Equal(t, testUser, rooms2[0].Account.Email)
}

func TestStart_SendsAppHeaders(t *testing.T) {
	fake := newFakeWarmup()
	startedClient(t, fake)

	reqs := fake.recorded("")
	require.NotEmpty(t, reqs)
	for _, r := range reqs {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, appToken, r.Header.Get("App-Token"))
		assert.Equal(t, appVersion, r.Header.Get("App-Version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
	}
}

func TestStart_InvalidCredentials(t *testing.T) {
	fake := newFakeWarmup()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client, err := NewClient(testUser, "wrong", WithBaseURL(srv.URL))
	require.NoError(t, err)
	defer client.Close()

	rooms, err := client.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuth)
	assert.NotNil(t, rooms)
	assert.Empty(t, rooms)

	_, ok := client.Session()
	assert.False(t, ok)
	assert.Empty(t, client.Rooms())

	_, err = client.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestStart_NoLocations(t *testing.T) {
	fake := newFakeWarmup()
	fake.locations = nil
	client := newTestClient(t, fake)

	rooms, err := client.Start(context.Background())
	assert.ErrorIs(t, err, ErrConfig)
	assert.Empty(t, rooms)
	assert.Empty(t, fake.recorded(MethodGetRooms))

	_, ok := client.Session()
	assert.False(t, ok)
}

func TestStart_RoomFetchFailure(t *testing.T) {
	fake := newFakeWarmup()
	fake.failRooms(http.StatusInternalServerError, "boom")
	client := newTestClient(t, fake)

	rooms, err := client.Start(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
	assert.Empty(t, rooms)

	_, ok := client.Session()
	assert.False(t, ok)
}

func TestStart_Idempotent(t *testing.T) {
	fake := newFakeWarmup()
	client := startedClient(t, fake)

	rooms, err := client.Start(context.Background())
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
	assert.Len(t, fake.recorded(MethodUserLogin), 1)
}

func TestStart_AfterClose(t *testing.T) {
	client := newTestClient(t, newFakeWarmup())
	require.NoError(t, client.Close())

	rooms, err := client.Start(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.Empty(t, rooms)
}

func TestCommands_NotReadyBeforeStart(t *testing.T) {
	fake := newFakeWarmup()
	client := newTestClient(t, fake)
	ctx := context.Background()

	calls := map[string]func() (*Response, error){
		"off":      func() (*Response, error) { return client.SetLocationToOff(ctx, 1) },
		"frost":    func() (*Response, error) { return client.SetLocationToFrost(ctx, 1) },
		"auto":     func() (*Response, error) { return client.SetTemperatureToAuto(ctx, 1) },
		"manual":   func() (*Response, error) { return client.SetTemperatureToManual(ctx, 1) },
		"new":      func() (*Response, error) { return client.SetNewTemperature(ctx, 1, 21) },
		"override": func() (*Response, error) { return client.SetOverride(ctx, 1, 21) },
	}
	for name, call := range calls {
		resp, err := call()
		assert.ErrorIs(t, err, ErrNotReady, name)
		assert.Nil(t, resp, name)
	}

	_, err := client.Status(ctx)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Empty(t, fake.recorded(""), "no request may be sent without a session")
}

func TestRefresh_HTTPError(t *testing.T) {
	fake := newFakeWarmup()
	client := startedClient(t, fake)

	fake.failRooms(http.StatusServiceUnavailable, "maintenance")
	_, err := client.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)

	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Status)
	assert.Contains(t, statusErr.Error(), "maintenance")

	assert.Len(t, client.Rooms(), 2, "cache keeps the last good value")
}

func TestRefresh_MalformedBody(t *testing.T) {
	fake := newFakeWarmup()
	client := startedClient(t, fake)

	fake.failRooms(http.StatusOK, "{not json")
	_, err := client.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrParse)
}

func TestRefresh_MissingResponseObject(t *testing.T) {
	fake := newFakeWarmup()
	client := startedClient(t, fake)

	fake.failRooms(http.StatusOK, `{"status":{"result":"success"}}`)
	_, err := client.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrParse)
}

func TestRefresh_LocationOffPropagates(t *testing.T) {
	fake := newFakeWarmup()
	client := startedClient(t, fake)

	fake.mu.Lock()
	fake.locMode = LocModeOff
	fake.mu.Unlock()

	_, err := client.Refresh(context.Background())
	require.NoError(t, err)

	for _, st := range client.Statuses() {
		assert.Equal(t, ModeOff, st.Mode, "room %d", st.RoomID)
		assert.False(t, st.HeatingActive)
		assert.Equal(t, RunModeOff, st.RunMode)
	}
}

func TestSetLocationToOff_ClearsRoomUntilRefresh(t *testing.T) {
	fake := newFakeWarmup()
	client := startedClient(t, fake)

	var (
		seenMu sync.Mutex
		seenOK = true
	)
	fake.mu.Lock()
	fake.onCommand = func(string) {
		_, ok := client.Room(1)
		seenMu.Lock()
		seenOK = ok
		seenMu.Unlock()
	}
	fake.mu.Unlock()

	resp, err := client.SetLocationToOff(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, MethodSetModes, resp.Method)

	seenMu.Lock()
	assert.False(t, seenOK, "room must read as unknown while the command is in flight")
	seenMu.Unlock()

	req := fake.recorded(MethodSetModes)
	require.Len(t, req, 1)
	values := req[0].Body["values"].(map[string]any)
	assert.Equal(t, float64(testLocID), values["locId"])
	assert.Equal(t, LocModeOff, values["locMode"])
	assert.Equal(t, "", values["fixedTemp"])

	require.Eventually(t, func() bool {
		room, ok := client.Room(1)
		return ok && room.RunMode == RunModeOff
	}, 2*time.Second, 10*time.Millisecond)

	st, err := client.RoomStatus(1)
	require.NoError(t, err)
	assert.Equal(t, ModeOff, st.Mode)
}

func TestSetLocationToOff_FailureRepopulatesRoom(t *testing.T) {
	fake := newFakeWarmup()
	client := startedClient(t, fake)
	rooms := len(fake.recorded(MethodGetRooms))

	fake.mu.Lock()
	fake.commandResult = "locationBusy"
	fake.mu.Unlock()

	_, err := client.SetLocationToOff(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)

	require.Eventually(t, func() bool {
		_, ok := client.Room(1)
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	assert.Greater(t, len(fake.recorded(MethodGetRooms)), rooms)

	st, err := client.RoomStatus(1)
	require.NoError(t, err)
	assert.Equal(t, ModeAuto, st.Mode, "state is unchanged after the rejected command")
}

func TestSetLocationToFrost(t *testing.T) {
	fake := newFakeWarmup()
	client := startedClient(t, fake)

	_, err := client.SetLocationToFrost(context.Background(), 2)
	require.NoError(t, err)

	req := fake.recorded(MethodSetModes)
	require.Len(t, req, 1)
	values := req[0].Body["values"].(map[string]any)
	assert.Equal(t, LocModeFrost, values["locMode"])
	_, hasFixed := values["fixedTemp"]
	assert.False(t, hasFixed)
}

func TestSetTemperatureToManual_Twice(t *testing.T) {
	fake := newFakeWarmup()
	client := startedClient(t, fake)
	ctx := context.Background()

	for i := range 2 {
		_, err := client.SetTemperatureToManual(ctx, 1)
		require.NoError(t, err, "call %d", i)

		require.Eventually(t, func() bool {
			st, err := client.RoomStatus(1)
			return err == nil && st.Mode == ModeHeat
		}, 2*time.Second, 10*time.Millisecond)
	}

	reqs := fake.recorded(MethodSetProgramme)
	require.Len(t, reqs, 2)
	for _, r := range reqs {
		assert.Equal(t, RoomModeFixed, r.Body["roomMode"])
		assert.NotContains(t, r.Body, "fixed")
	}
}

func TestSetTemperatureToAuto(t *testing.T) {
	fake := newFakeWarmup()
	client := startedClient(t, fake)

	_, err := client.SetTemperatureToAuto(context.Background(), 2)
	require.NoError(t, err)

	reqs := fake.recorded(MethodSetProgramme)
	require.Len(t, reqs, 1)
	assert.Equal(t, "prog", reqs[0].Body["roomMode"])

	require.Eventually(t, func() bool {
		st, err := client.RoomStatus(2)
		return err == nil && st.Mode == ModeAuto
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSetNewTemperature(t *testing.T) {
	fake := newFakeWarmup()
	client := startedClient(t, fake)

	_, err := client.SetNewTemperature(context.Background(), 1, 22.57)
	require.NoError(t, err)

	reqs := fake.recorded(MethodSetProgramme)
	require.Len(t, reqs, 1)
	assert.Equal(t, RoomModeFixed, reqs[0].Body["roomMode"])
	assert.Equal(t, map[string]any{"fixedTemp": "225"}, reqs[0].Body["fixed"])

	require.Eventually(t, func() bool {
		st, err := client.RoomStatus(1)
		return err == nil && st.TargetTemp == 22.5 && st.Mode == ModeHeat
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSetNewTemperature_OutOfRange(t *testing.T) {
	fake := newFakeWarmup()
	client := startedClient(t, fake)
	ctx := context.Background()

	_, err := client.SetNewTemperature(ctx, 1, 35)
	assert.ErrorIs(t, err, ErrRange)

	_, err = client.SetNewTemperature(ctx, 1, -2)
	assert.ErrorIs(t, err, ErrRange)

	_, err = client.SetOverride(ctx, 1, 4.9)
	assert.ErrorIs(t, err, ErrRange)

	assert.Empty(t, fake.recorded(MethodSetProgramme))
	assert.Empty(t, fake.recorded(MethodSetOverride))
}

func TestSetNewTemperature_BeyondWireFormat(t *testing.T) {
	fake := newFakeWarmup()
	fake.rooms = append(fake.rooms, Room{RoomID: 3, RoomName: "Loft", RunMode: RunModeFixed, RoomMode: RoomModeFixed})
	client := startedClient(t, fake)
	ctx := context.Background()

	// room 99 is unknown and room 3 reports no limits
	for _, id := range []int{99, 3} {
		for _, c := range []float64{100, 1e20, 9.3e17} {
			_, err := client.SetNewTemperature(ctx, id, c)
			assert.ErrorIs(t, err, ErrRange, "room %d celsius %v", id, c)

			_, err = client.SetOverride(ctx, id, c)
			assert.ErrorIs(t, err, ErrRange, "room %d celsius %v", id, c)
		}
	}

	assert.Empty(t, fake.recorded(MethodSetProgramme))
	assert.Empty(t, fake.recorded(MethodSetOverride))
}

func TestSetNewTemperature_NotReadyBeforeRange(t *testing.T) {
	client := newTestClient(t, newFakeWarmup())
	ctx := context.Background()

	_, err := client.SetNewTemperature(ctx, 1, 1e20)
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = client.SetOverride(ctx, 1, -5)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestSetOverride_Until(t *testing.T) {
	fake := newFakeWarmup()
	client := newTestClient(t, fake, WithOverrideDuration(90*time.Minute))
	client.now = func() time.Time { return time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC) }
	_, err := client.Start(context.Background())
	require.NoError(t, err)

	_, err = client.SetOverride(context.Background(), 1, 22.5)
	require.NoError(t, err)

	reqs := fake.recorded(MethodSetOverride)
	require.Len(t, reqs, 1)
	assert.Equal(t, []any{float64(1)}, reqs[0].Body["rooms"])
	assert.Equal(t, float64(3), reqs[0].Body["type"])
	assert.Equal(t, "225", reqs[0].Body["temp"])
	assert.Equal(t, "11:30", reqs[0].Body["until"])

	require.Eventually(t, func() bool {
		st, err := client.RoomStatus(1)
		return err == nil && st.TargetTemp == 22.5 && st.Mode == ModeAuto
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSetMode(t *testing.T) {
	fake := newFakeWarmup()
	client := startedClient(t, fake)
	ctx := context.Background()

	_, err := client.SetMode(ctx, 1, ModeHeat)
	require.NoError(t, err)
	_, err = client.SetMode(ctx, 2, ModeAuto)
	require.NoError(t, err)
	_, err = client.SetMode(ctx, 1, ModeOff)
	require.NoError(t, err)

	assert.Len(t, fake.recorded(MethodSetProgramme), 2)
	assert.Len(t, fake.recorded(MethodSetModes), 1)

	_, err = client.SetMode(ctx, 1, Mode(9))
	assert.Error(t, err)
}

func TestSetTargetTemperature(t *testing.T) {
	fake := newFakeWarmup()
	client := startedClient(t, fake)
	ctx := context.Background()

	// room 1 follows its schedule
	_, err := client.SetTargetTemperature(ctx, 1, 23)
	require.NoError(t, err)
	assert.Len(t, fake.recorded(MethodSetOverride), 1)

	// room 2 is fixed
	_, err = client.SetTargetTemperature(ctx, 2, 19)
	require.NoError(t, err)
	reqs := fake.recorded(MethodSetProgramme)
	require.Len(t, reqs, 1)
	assert.Equal(t, map[string]any{"fixedTemp": "190"}, reqs[0].Body["fixed"])

	_, err = client.SetTargetTemperature(ctx, 99, 20)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommand_APIErrorIsTransport(t *testing.T) {
	fake := newFakeWarmup()
	client := startedClient(t, fake)

	client.session.Store(&Session{Token: "expired", LocationID: testLocID})
	_, err := client.SetTemperatureToAuto(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "tokenInvalid", apiErr.Result)
}

func TestRoomStatus_Unknown(t *testing.T) {
	client := startedClient(t, newFakeWarmup())

	_, err := client.RoomStatus(99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPoller_UpdatesCache(t *testing.T) {
	fake := newFakeWarmup()
	client := startedClient(t, fake, WithRefreshInterval(100*time.Millisecond))

	fake.setRoomTemp(1, 187)
	require.Eventually(t, func() bool {
		room, ok := client.Room(1)
		return ok && room.CurrentTemp == 187
	}, 2*time.Second, 10*time.Millisecond)

	// a failing tick keeps the last good value
	fake.failRooms(http.StatusBadGateway, "")
	polled := len(fake.recorded(MethodGetRooms))
	require.Eventually(t, func() bool {
		return len(fake.recorded(MethodGetRooms)) > polled+1
	}, 2*time.Second, 10*time.Millisecond)

	room, ok := client.Room(1)
	require.True(t, ok)
	assert.Equal(t, 187, room.CurrentTemp)
}

func TestClose_StopsPoller(t *testing.T) {
	fake := newFakeWarmup()
	client := startedClient(t, fake, WithRefreshInterval(40*time.Millisecond))

	require.Eventually(t, func() bool {
		return len(fake.recorded(MethodGetRooms)) > 2
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, client.Close())
	n := len(fake.recorded(MethodGetRooms))

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, n, len(fake.recorded(MethodGetRooms)))

	// closing twice is fine
	require.NoError(t, client.Close())
	client.Destroy()
}

func TestClose_AbortsStart(t *testing.T) {
	arrived := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case arrived <- struct{}{}:
		default:
		}
		<-r.Context().Done()
	}))
	defer srv.Close()

	client, err := NewClient(testUser, testPassword,
		WithBaseURL(srv.URL), WithRequestTimeout(time.Minute))
	require.NoError(t, err)

	type result struct {
		rooms []Room
		err   error
	}
	done := make(chan result, 1)
	go func() {
		rooms, err := client.Start(context.Background())
		done <- result{rooms, err}
	}()

	select {
	case <-arrived:
	case <-time.After(2 * time.Second):
		t.Fatal("login request never arrived")
	}

	closed := make(chan struct{})
	go func() {
		_ = client.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on a bootstrap in flight")
	}

	select {
	case res := <-done:
		assert.Error(t, res.err)
		assert.NotNil(t, res.rooms)
		assert.Empty(t, res.rooms)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Close")
	}

	_, ok := client.Session()
	assert.False(t, ok)
}

func TestRefreshHook(t *testing.T) {
	fake := newFakeWarmup()

	var (
		mu    sync.Mutex
		calls [][]Room
	)
	client := startedClient(t, fake, WithRefreshHook(func(rooms []Room) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, rooms)
	}))

	_, err := client.Refresh(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 2)
	assert.Len(t, calls[0], 2)
}

func TestRequestTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	client, err := NewClient(testUser, testPassword,
		WithBaseURL(srv.URL), WithRequestTimeout(50*time.Millisecond))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Start(context.Background())
	assert.ErrorIs(t, err, ErrAuth)
	assert.ErrorIs(t, err, ErrTransport)
}
