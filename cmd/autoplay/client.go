package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wricardo/snake-game/game/service"
)

// Client plays one session through the REST API
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client is playing
func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: %s - %s", method, path, resp.Status, string(data))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

// CreateSession starts a session on levelName, or on the default level when empty
func (c *Client) CreateSession(ctx context.Context, levelName string) (*service.GameState, error) {
	var body interface{}
	if levelName != "" {
		body = map[string]string{"level": levelName}
	}

	var info service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &info); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = info.ID
	return info.State, nil
}

// Resume attaches the client to an existing session
func (c *Client) Resume(ctx context.Context, sessionID string) (*service.GameState, error) {
	c.sessionID = sessionID
	return c.Snapshot(ctx)
}

func (c *Client) Snapshot(ctx context.Context) (*service.GameState, error) {
	var state service.GameState
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/snapshot"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) Reset(ctx context.Context) (*service.GameState, error) {
	var resp struct {
		State *service.GameState `json:"state"`
	}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/reset"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (c *Client) Play(ctx context.Context, direction string) (*service.PlayResult, error) {
	var result service.PlayResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/play"), map[string]string{"direction": direction}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
