// Package client talks to a running alarmd over its HTTP API.
package client

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

	"github.com/manav03panchal/alarmd/internal/alarm"
	apperrors "github.com/manav03panchal/alarmd/internal/errors"
	"github.com/manav03panchal/alarmd/internal/logging"
	"github.com/manav03panchal/alarmd/internal/model"
	"github.com/manav03panchal/alarmd/internal/server"
)

// Client is a thin JSON client. It never retries: every call maps to one
// mutation on the daemon.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for the daemon at base, e.g. http://127.0.0.1:8642.
func New(base string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Set submits an alarm. Non-error rejections (past, duplicate, ...) come
// back in the Result, as they do from alarm.Service.
func (c *Client) Set(ctx context.Context, req alarm.Request) (alarm.Result, error) {
	var res alarm.Result
	err := c.do(ctx, http.MethodPost, "/alarms", req, &res,
		http.StatusCreated, http.StatusOK, http.StatusUnprocessableEntity)
	return res, err
}

// Cancel cancels the first alarm carrying label.
func (c *Client) Cancel(ctx context.Context, label string) (*model.Alarm, error) {
	var res server.CancelResponse
	if err := c.do(ctx, http.MethodDelete, "/alarms/"+url.PathEscape(label), nil, &res, http.StatusOK); err != nil {
		return nil, err
	}
	return res.Cancelled, nil
}

// CancelTimeSpec cancels the alarm set for timeSpec.
func (c *Client) CancelTimeSpec(ctx context.Context, timeSpec string) (*model.Alarm, error) {
	var res server.CancelResponse
	if err := c.do(ctx, http.MethodDelete, "/alarms/at/"+url.PathEscape(timeSpec), nil, &res, http.StatusOK); err != nil {
		return nil, err
	}
	return res.Cancelled, nil
}

// List returns the pending alarms in insertion order.
func (c *Client) List(ctx context.Context) ([]model.Alarm, error) {
	var res server.ListResponse
	if err := c.do(ctx, http.MethodGet, "/alarms", nil, &res, http.StatusOK); err != nil {
		return nil, err
	}
	return res.Alarms, nil
}

// Health fetches GET /health.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var res map[string]any
	err := c.do(ctx, http.MethodGet, "/health", nil, &res, http.StatusOK)
	return res, err
}

// Metrics fetches GET /metrics.
func (c *Client) Metrics(ctx context.Context) (map[string]any, error) {
	var res map[string]any
	err := c.do(ctx, http.MethodGet, "/metrics", nil, &res, http.StatusOK)
	return res, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, accept ...int) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "alarmd-cli/1.0")
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(server.RequestIDHeader, id)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrDaemonUnreachable, "%s: %v", logging.MaskURL(c.base), err)
	}
	defer resp.Body.Close()

	logging.LoggerFromContext(ctx).Debug("api call",
		"method", method,
		"path", path,
		logging.KeyStatus, resp.StatusCode,
		logging.KeyDuration, time.Since(start).Milliseconds(),
	)

	for _, code := range accept {
		if resp.StatusCode == code {
			if out == nil {
				return nil
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("decode %s %s response: %w", method, path, err)
			}
			return nil
		}
	}
	return decodeError(resp)
}

// decodeError turns an error answer back into the error kinds the daemon
// classified it as, so the CLI can print the same suggestions.
func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var e server.ErrorResponse
	if err := json.Unmarshal(data, &e); err != nil || e.Error == "" {
		e.Error = strings.TrimSpace(string(data))
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return apperrors.NewUserError(e.Error, e.Suggestion)
	case http.StatusNotFound:
		return &remoteError{msg: e.Error, kind: apperrors.ErrAlarmNotFound}
	case http.StatusServiceUnavailable:
		return &remoteError{msg: e.Error, kind: apperrors.ErrDaemonUnreachable}
	default:
		return apperrors.NewSystemError(fmt.Sprintf("daemon error (HTTP %d): %s", resp.StatusCode, e.Error), nil)
	}
}

// remoteError keeps the daemon's message verbatim while still matching the
// sentinel with errors.Is.
type remoteError struct {
	msg  string
	kind error
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.kind }
