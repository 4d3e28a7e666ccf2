package warmup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Client talks to the Warmup API on behalf of one account.
type Client struct {
	baseURL          string
	username         string
	password         string
	httpClient       *http.Client
	requestTimeout   time.Duration
	refreshInterval  time.Duration
	overrideDuration time.Duration
	logger           *slog.Logger
	hooks            []RefreshHook
	now              func() time.Time

	session atomic.Pointer[Session]
	cache   roomCache

	// startMu serializes Start; mu guards the lifecycle fields and is never
	// held across I/O, so Close does not wait for a bootstrap in flight.
	startMu  sync.Mutex
	mu       sync.Mutex
	started  bool
	isClosed atomic.Bool
	closeCh  chan struct{}
	pollerWG sync.WaitGroup
}

// NewClient creates a client for the given account. It performs no I/O;
// call Start to authenticate and begin polling.
func NewClient(username, password string, opts ...ClientOption) (*Client, error) {
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.requestTimeout}
	}

	return &Client{
		baseURL:          cfg.baseURL,
		username:         username,
		password:         password,
		httpClient:       httpClient,
		requestTimeout:   cfg.requestTimeout,
		refreshInterval:  cfg.refreshInterval,
		overrideDuration: cfg.overrideDuration,
		logger:           cfg.logger,
		hooks:            cfg.hooks,
		now:              cfg.now,
		closeCh:          make(chan struct{}),
	}, nil
}

// Start authenticates, discovers the location and fetches every room,
// then starts the background poller. If any stage fails the error is
// returned together with an empty, non-nil room list and no poller runs;
// the client stays usable as a client with zero rooms. Close aborts a
// Start in progress.
func (c *Client) Start(ctx context.Context) ([]Room, error) {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	c.mu.Lock()
	closed, started := c.isClosed.Load(), c.started
	c.mu.Unlock()
	if closed {
		return []Room{}, ErrClosed
	}
	if started {
		return c.cache.all(), nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.closeCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	token, err := c.authenticate(ctx)
	if err != nil {
		c.logError("login failed", err)
		return []Room{}, err
	}
	locationID, err := c.discoverLocation(ctx, token)
	if err != nil {
		c.logError("location discovery failed", err)
		return []Room{}, err
	}

	c.session.Store(&Session{Token: token, LocationID: locationID})

	rooms, err := c.Refresh(ctx)
	if err != nil {
		c.logError("initial room fetch failed", err)
		c.session.Store(nil)
		return []Room{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isClosed.Load() {
		c.session.Store(nil)
		return []Room{}, ErrClosed
	}
	c.started = true
	c.pollerWG.Add(1)
	go c.pollLoop(c.pollInterval())

	if c.logger != nil {
		c.logger.Info("warmup client started", "location", locationID, "rooms", len(rooms))
	}
	return rooms, nil
}

// Close stops the poller. Requests in flight are not cancelled, but their
// results are no longer written to the cache.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.isClosed.Swap(true) {
		c.mu.Unlock()
		return nil
	}
	close(c.closeCh)
	c.mu.Unlock()

	c.pollerWG.Wait()
	if c.logger != nil {
		c.logger.Debug("warmup client closed")
	}
	return nil
}

// Destroy is an alias for Close.
func (c *Client) Destroy() {
	_ = c.Close()
}

// Session returns the established session, if any.
func (c *Client) Session() (Session, bool) {
	s := c.session.Load()
	if s == nil {
		return Session{}, false
	}
	return *s, true
}

// Rooms returns the cached rooms ordered by id.
func (c *Client) Rooms() []Room {
	return c.cache.all()
}

// Room looks a room up in the cache. ok is false when the room is unknown
// or was cleared by a command and not yet refreshed.
func (c *Client) Room(id int) (Room, bool) {
	return c.cache.get(id)
}

// RoomStatus returns the display view of a cached room.
func (c *Client) RoomStatus(id int) (Status, error) {
	room, ok := c.cache.get(id)
	if !ok {
		return Status{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return StatusOf(room), nil
}

// Statuses returns the display view of every cached room.
func (c *Client) Statuses() []Status {
	rooms := c.cache.all()
	statuses := make([]Status, 0, len(rooms))
	for _, room := range rooms {
		statuses = append(statuses, StatusOf(room))
	}
	return statuses
}

// Status fetches the rooms from the API and updates the cache.
func (c *Client) Status(ctx context.Context) ([]Room, error) {
	return c.Refresh(ctx)
}

// Refresh fetches every room of the session's location and replaces their
// cache entries.
func (c *Client) Refresh(ctx context.Context) ([]Room, error) {
	sess, err := c.requireSession()
	if err != nil {
		return nil, err
	}

	raw, err := c.sendRequest(ctx, &sess, getRoomsRequest{Method: MethodGetRooms, LocID: sess.LocationID})
	if err != nil {
		return nil, err
	}
	rooms, err := UnmarshalRooms(raw)
	if err != nil {
		return nil, err
	}

	if c.isClosed.Load() {
		return rooms, nil
	}
	c.cache.store(rooms)
	for _, hook := range c.hooks {
		hook(rooms)
	}

	if c.logger != nil {
		c.logger.Debug("rooms refreshed", "count", len(rooms))
	}
	return rooms, nil
}

func (c *Client) requireSession() (Session, error) {
	s := c.session.Load()
	if s == nil || s.Token == "" {
		return Session{}, ErrNotReady
	}
	return *s, nil
}

func (c *Client) pollInterval() time.Duration {
	if d := c.refreshInterval / 2; d > 0 {
		return d
	}
	return c.refreshInterval
}

func (c *Client) pollLoop(interval time.Duration) {
	defer c.pollerWG.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closeCh:
			return
		case <-ticker.C:
			c.poll()
		}
	}
}

// poll runs one refresh. Failures are logged and the cache keeps its last
// good value.
func (c *Client) poll() {
	defer func() {
		if r := recover(); r != nil && c.logger != nil {
			c.logger.Error("poll panicked", "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), c.requestTimeout)
	defer cancel()

	if _, err := c.Refresh(ctx); err != nil && c.logger != nil {
		c.logger.Warn("poll failed", "error", err)
	}
}

// refreshAsync schedules a refresh whose outcome is only logged.
func (c *Client) refreshAsync(reason string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.requestTimeout)
		defer cancel()

		rooms, err := c.Refresh(ctx)
		if c.logger == nil {
			return
		}
		if err != nil {
			c.logger.Error("refresh after command failed", "command", reason, "error", err)
			return
		}
		c.logger.Debug("refreshed after command", "command", reason, "rooms", len(rooms))
	}()
}

// sendRequest posts one envelope and returns the raw "response" object.
// A nil session sends the request without account credentials.
func (c *Client) sendRequest(ctx context.Context, sess *Session, request any) (json.RawMessage, error) {
	method := methodOf(request)

	body := envelope{Request: request}
	if sess != nil {
		body.Account = &account{Email: c.username, Token: sess.Token}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	// Apply request timeout if context has no deadline
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: build %s request: %v", ErrTransport, method, err)
	}
	setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTransport, method, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %v", ErrTransport, method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{Status: resp.StatusCode, Body: string(payload)}
	}

	var r reply
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, method, err)
	}
	if r.Status != nil && r.Status.Result != "" && r.Status.Result != "success" {
		return nil, &APIError{Method: method, Result: r.Status.Result}
	}
	if len(r.Response) == 0 || string(r.Response) == "null" {
		return nil, fmt.Errorf("%w: %s: missing response object", ErrParse, method)
	}

	if c.logger != nil {
		c.logger.Debug("request completed", "method", method, "bytes", len(payload))
	}
	return r.Response, nil
}

// setHeaders adds the fixed headers the API requires.
func setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("App-Token", appToken)
	req.Header.Set("App-Version", appVersion)
}

func methodOf(request any) string {
	switch r := request.(type) {
	case loginRequest:
		return r.Method
	case getLocationsRequest:
		return r.Method
	case getRoomsRequest:
		return r.Method
	case setModesRequest:
		return r.Method
	case setProgrammeRequest:
		return r.Method
	case setOverrideRequest:
		return r.Method
	default:
		return "unknown"
	}
}

func (c *Client) logError(msg string, err error) {
	if c.logger != nil {
		c.logger.Error(msg, "error", err)
	}
}
