// Package whop is a small REST client for the host platform: user
// profiles and memberships.
package whop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.whop.com/api/v1"

var ErrNotConfigured = errors.New("whop: api key not configured")

// APIError is a non-2xx answer from the platform.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whop: status %d: %s", e.Status, e.Body)
}

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type Membership struct {
	ID        string    `json:"id"`
	PlanID    string    `json:"plan_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) RetrieveUser(ctx context.Context, id string) (User, error) {
	var u User
	err := c.get(ctx, "/users/"+url.PathEscape(id), nil, &u)
	return u, err
}

// ListMemberships returns the memberships held by userID.
func (c *Client) ListMemberships(ctx context.Context, userID string) ([]Membership, error) {
	var page struct {
		Data []Membership `json:"data"`
	}
	q := url.Values{}
	q.Add("user_ids[]", userID)
	if err := c.get(ctx, "/memberships", q, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

var accessStatuses = map[string]bool{"active": true, "trialing": true, "past_due": true}

// HasAccess returns the first membership on planID whose status still
// grants access.
func HasAccess(memberships []Membership, planID string) (Membership, bool) {
	for _, m := range memberships {
		if m.PlanID == planID && accessStatuses[m.Status] {
			return m, true
		}
	}
	return Membership{}, false
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whop: GET %s: %w", path, err)
	}
	defer res.Body.Close()
	c.log.Debug("whop request", zap.String("path", path), zap.Int("status", res.StatusCode), zap.Duration("elapsed", time.Since(start)))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return &APIError{Status: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("whop: decode %s: %w", path, err)
	}
	return nil
}
