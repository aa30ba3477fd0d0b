// Package directory adapts the external user directory service to the
// ports.UserDirectory contract. The directory is the system of record for
// users; this service only reads it.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"taskledger/internal/domain"
	"taskledger/internal/platform/httpclient"
	"taskledger/internal/ports"
)

// Compile-time check that Client implements ports.UserDirectory.
var _ ports.UserDirectory = (*Client)(nil)

// Client talks to the directory over HTTP through the instrumented client,
// inheriting its retry, circuit breaker and tracing behaviour.
type Client struct {
	http *httpclient.Client
}

func NewClient(http *httpclient.Client) *Client {
	return &Client{http: http}
}

// userDTO is the directory's wire representation of a user.
type userDTO struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FindByID fetches one user. A 404 is absence, not an error; any other
// failure surfaces as domain.ErrUnavailable so callers can distinguish
// "user does not exist" from "directory is down".
func (c *Client) FindByID(ctx context.Context, userID string) (*ports.User, error) {
	url := fmt.Sprintf("%s/users/%s", c.http.BaseURL(), userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building directory request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return nil, fmt.Errorf("%w: user directory: %v", domain.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		var dto userDTO
		if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
			return nil, fmt.Errorf("decoding directory response: %w", err)
		}
		return &ports.User{ID: dto.ID, FirstName: dto.FirstName, LastName: dto.LastName}, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: user directory returned HTTP %d", domain.ErrUnavailable, resp.StatusCode)
	}
}

// Exists reports whether the user is known to the directory.
func (c *Client) Exists(ctx context.Context, userID string) (bool, error) {
	u, err := c.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u != nil, nil
}
