package warmup

import (
	"context"
	"fmt"
	"math"
)

// SetLocationToOff switches the session's location off. The cache entry of
// roomID is cleared first, so until the following refresh lands the room
// reads as unknown instead of showing its pre-command state.
func (c *Client) SetLocationToOff(ctx context.Context, roomID int) (*Response, error) {
	return c.setLocationMode(ctx, roomID, LocModeOff)
}

// SetLocationToFrost switches the session's location to frost protection.
func (c *Client) SetLocationToFrost(ctx context.Context, roomID int) (*Response, error) {
	return c.setLocationMode(ctx, roomID, LocModeFrost)
}

// SetTemperatureToAuto puts the room back on its schedule.
func (c *Client) SetTemperatureToAuto(ctx context.Context, roomID int) (*Response, error) {
	return c.setProgramme(ctx, roomID, roomModeProg, nil)
}

// SetTemperatureToManual switches the room to fixed mode keeping its
// current setpoint.
func (c *Client) SetTemperatureToManual(ctx context.Context, roomID int) (*Response, error) {
	return c.setProgramme(ctx, roomID, RoomModeFixed, nil)
}

// SetNewTemperature switches the room to fixed mode at the given setpoint.
func (c *Client) SetNewTemperature(ctx context.Context, roomID int, celsius float64) (*Response, error) {
	if _, err := c.requireSession(); err != nil {
		return nil, err
	}
	if err := c.validateSetpoint(roomID, celsius); err != nil {
		return nil, err
	}
	return c.setProgramme(ctx, roomID, RoomModeFixed, &celsius)
}

// SetOverride starts a timed override of the configured duration.
func (c *Client) SetOverride(ctx context.Context, roomID int, celsius float64) (*Response, error) {
	sess, err := c.requireSession()
	if err != nil {
		return nil, err
	}
	if err := c.validateSetpoint(roomID, celsius); err != nil {
		return nil, err
	}

	until := OverrideUntil(c.now(), c.overrideDuration)
	req, err := newSetOverrideRequest(roomID, celsius, until)
	if err != nil {
		return nil, err
	}
	return c.dispatch(ctx, sess, req)
}

// SetMode applies a canonical mode: off switches the location off, heat
// selects fixed mode, auto selects the schedule.
func (c *Client) SetMode(ctx context.Context, roomID int, mode Mode) (*Response, error) {
	switch mode {
	case ModeOff:
		return c.SetLocationToOff(ctx, roomID)
	case ModeHeat:
		return c.SetTemperatureToManual(ctx, roomID)
	case ModeAuto:
		return c.SetTemperatureToAuto(ctx, roomID)
	default:
		return nil, fmt.Errorf("unsupported mode %d", mode)
	}
}

// SetTargetTemperature refreshes the room and applies a new setpoint the
// way its current mode expects: an override on schedule, a new fixed
// setpoint in fixed mode, and an override for anything else.
func (c *Client) SetTargetTemperature(ctx context.Context, roomID int, celsius float64) (*Response, error) {
	if _, err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	room, ok := c.cache.get(roomID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, roomID)
	}

	switch {
	case MapMode(room.LocMode, room.RunMode, room.RoomMode) == ModeAuto:
		return c.SetOverride(ctx, roomID, celsius)
	case room.RoomMode == RoomModeFixed && room.RunMode == RunModeFixed:
		return c.SetNewTemperature(ctx, roomID, celsius)
	default:
		if c.logger != nil {
			c.logger.Warn("unhandled room state for target temperature, using override",
				"room", roomID, "locMode", room.LocMode, "runMode", room.RunMode, "roomMode", room.RoomMode)
		}
		return c.SetOverride(ctx, roomID, celsius)
	}
}

func (c *Client) setLocationMode(ctx context.Context, roomID int, locMode string) (*Response, error) {
	sess, err := c.requireSession()
	if err != nil {
		return nil, err
	}

	c.cache.clear(roomID)
	resp, err := c.dispatch(ctx, sess, newSetModesRequest(sess.LocationID, locMode))
	if err != nil {
		// repopulate the cleared room rather than wait for the next tick
		c.refreshAsync(MethodSetModes)
	}
	return resp, err
}

func (c *Client) setProgramme(ctx context.Context, roomID int, roomMode string, celsius *float64) (*Response, error) {
	sess, err := c.requireSession()
	if err != nil {
		return nil, err
	}
	req, err := newSetProgrammeRequest(roomID, roomMode, celsius)
	if err != nil {
		return nil, err
	}
	return c.dispatch(ctx, sess, req)
}

// dispatch sends a mutating request. On success a refresh is scheduled but
// not awaited; the result reflects the mutating call alone.
func (c *Client) dispatch(ctx context.Context, sess Session, request any) (*Response, error) {
	method := methodOf(request)

	raw, err := c.sendRequest(ctx, &sess, request)
	if err != nil {
		c.logError(method+" failed", err)
		return nil, err
	}

	if c.logger != nil {
		c.logger.Debug("command accepted", "method", method)
	}
	c.refreshAsync(method)
	return &Response{Method: method, Raw: raw}, nil
}

// validateSetpoint rejects setpoints the wire format cannot carry and
// those outside the cached room's limits when both limits are known.
func (c *Client) validateSetpoint(roomID int, celsius float64) error {
	if math.IsNaN(celsius) || math.IsInf(celsius, 0) || celsius < 0 {
		return fmt.Errorf("%w: %v", ErrRange, celsius)
	}
	tenths, err := tenthsOf(celsius)
	if err != nil {
		return err
	}
	if tenths > maxWireTenths {
		return fmt.Errorf("%w: %v above %.1f", ErrRange, celsius, displayTemp(maxWireTenths))
	}

	room, ok := c.cache.get(roomID)
	if !ok || room.MinTemp <= 0 || room.MaxTemp <= 0 {
		return nil
	}
	if tenths < room.MinTemp || tenths > room.MaxTemp {
		return fmt.Errorf("%w: %.1f not within %.1f-%.1f", ErrRange,
			celsius, displayTemp(room.MinTemp), displayTemp(room.MaxTemp))
	}
	return nil
}
