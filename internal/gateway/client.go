// Package gateway is the typed boundary to the remote booking service.
// It translates local calls into the service's REST contract and maps
// every failure into the rejected/unreachable split the rest of the
// client depends on.
package gateway

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

	"github.com/google/uuid"

	"github.com/example/salon-booking/internal/booking"
)

// DefaultTimeout bounds every call. The service itself never bounds
// wait time, so a slow request fails here as unreachable.
const DefaultTimeout = 10 * time.Second

type Client struct {
	hc      *http.Client
	baseURL string
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		hc:      &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// BookingRequest is the POST /book body.
type BookingRequest struct {
	Date   string `json:"date"`
	SlotID int    `json:"slotId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	People int    `json:"people"`
}

// CancelRequest is the POST /cancel body. People tells the service how
// much capacity to restore.
type CancelRequest struct {
	Date   string `json:"date"`
	SlotID int    `json:"slotId"`
	Email  string `json:"email"`
	People int    `json:"people"`
}

// MutationResponse is what /book and /cancel return on success: a
// message plus the mutated day's capacity. Callers still refresh the
// whole capacity map rather than patching from Data.
type MutationResponse struct {
	Message string               `json:"message"`
	Data    *booking.DayCapacity `json:"data,omitempty"`
}

// FetchDayCapacities returns the full per-date capacity map.
func (c *Client) FetchDayCapacities(ctx context.Context) (map[string]booking.DayCapacity, error) {
	body, err := c.do(ctx, http.MethodGet, "/bookings", nil)
	if err != nil {
		return nil, err
	}
	out := map[string]booking.DayCapacity{}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode capacities: %w", err)
	}
	return out, nil
}

func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (*MutationResponse, error) {
	body, err := c.do(ctx, http.MethodPost, "/book", req)
	if err != nil {
		return nil, err
	}
	var res MutationResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode booking response: %w", err)
	}
	return &res, nil
}

func (c *Client) CancelBooking(ctx context.Context, req CancelRequest) (*MutationResponse, error) {
	body, err := c.do(ctx, http.MethodPost, "/cancel", req)
	if err != nil {
		return nil, err
	}
	var res MutationResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode cancel response: %w", err)
	}
	return &res, nil
}

func (c *Client) FetchHistory(ctx context.Context, email string) ([]booking.BookingRecord, error) {
	body, err := c.do(ctx, http.MethodGet, "/my-bookings/"+url.PathEscape(email), nil)
	if err != nil {
		return nil, err
	}
	var out []booking.BookingRecord
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return out, nil
}

// DeleteHistory wipes a customer's booking history; used only by
// account deletion.
func (c *Client) DeleteHistory(ctx context.Context, email string) error {
	_, err := c.do(ctx, http.MethodPost, "/delete-my-bookings", struct {
		Email string `json:"email"`
	}{Email: email})
	return err
}

func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", nil)
	return err
}

// do issues one request. A transport-level failure becomes
// UnreachableError; any status >= 400 becomes RejectedError carrying
// the message field from the error body when present.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jb, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(jb)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	// Request id lets server logs spot duplicate submissions; the
	// client itself never retries.
	req.Header.Set("X-Request-ID", uuid.NewString())

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, &UnreachableError{Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &UnreachableError{Err: err}
	}
	if res.StatusCode >= 400 {
		return nil, &RejectedError{Status: res.StatusCode, Message: extractMessage(body)}
	}
	return body, nil
}

// Error bodies carry the human-readable text in "message"; some
// framework-level rejections put it in "detail" instead.
func extractMessage(body []byte) string {
	var r struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	_ = json.Unmarshal(body, &r)
	if r.Message != "" {
		return r.Message
	}
	return r.Detail
}
