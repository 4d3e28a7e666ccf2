package warmup

import (
	"context"
	"encoding/json"
	"fmt"
)

// authenticate logs in with the account credentials and returns the
// access token.
func (c *Client) authenticate(ctx context.Context) (string, error) {
	raw, err := c.sendRequest(ctx, nil, loginRequest{
		Method:   MethodUserLogin,
		Email:    c.username,
		Password: c.password,
		AppID:    appID,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuth, err)
	}

	var resp loginResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: decode login response: %v", ErrAuth, err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: login response did not contain a token", ErrAuth)
	}

	if c.logger != nil {
		c.logger.Debug("logged in", "email", c.username)
	}
	return resp.Token, nil
}

// discoverLocation returns the id of the account's first location.
func (c *Client) discoverLocation(ctx context.Context, token string) (int, error) {
	if token == "" {
		return 0, fmt.Errorf("%w: missing access token", ErrNotReady)
	}

	raw, err := c.sendRequest(ctx, &Session{Token: token}, getLocationsRequest{Method: MethodGetLocations})
	if err != nil {
		return 0, err
	}

	var resp locationsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return 0, fmt.Errorf("%w: locations: %v", ErrParse, err)
	}
	if len(resp.Locations) == 0 {
		return 0, ErrConfig
	}

	loc := resp.Locations[0]
	if c.logger != nil {
		c.logger.Debug("location discovered", "id", loc.ID, "name", loc.Name, "available", len(resp.Locations))
	}
	return loc.ID, nil
}
