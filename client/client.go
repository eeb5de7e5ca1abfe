// Package client drives the billing flows of the Legal Forge API from a Go
// frontend: starting a checkout, opening the billing portal and reading the
// profile that gates the UI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	ErrNotAuthenticated = errors.New("you need to sign in first")
	ErrNoRedirectURL    = errors.New("the server did not return a redirect URL")
)

// Redirector sends the user's browser to a Stripe hosted page.
type Redirector interface {
	Redirect(url string) error
}

type RedirectFunc func(url string) error

func (f RedirectFunc) Redirect(url string) error { return f(url) }

// APIError is a non-2xx answer. Message is safe to show to the user.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

type Client struct {
	BaseURL    string
	HTTP       *http.Client
	Redirector Redirector

	inflight singleflight.Group
}

func New(baseURL string, r Redirector) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTP:       &http.Client{Timeout: 15 * time.Second},
		Redirector: r,
	}
}

type redirectResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// StartCheckout asks the API for a Checkout Session and redirects to it.
// Calls that overlap for the same token and plan share one request and one
// redirect.
func (c *Client) StartCheckout(ctx context.Context, token string, planID uint) error {
	if token == "" {
		return ErrNotAuthenticated
	}
	key := fmt.Sprintf("checkout:%s:%d", token, planID)
	_, err, _ := c.inflight.Do(key, func() (interface{}, error) {
		var out redirectResponse
		body := map[string]uint{"planId": planID}
		if err := c.do(ctx, http.MethodPost, "/plans/create-checkout-session", token, body, &out); err != nil {
			return nil, err
		}
		return nil, c.redirect(out.URL)
	})
	return err
}

// OpenPortal redirects to the Stripe billing portal. Whatever the user changes
// there reaches the API through webhooks, not through this client.
func (c *Client) OpenPortal(ctx context.Context, token string) error {
	if token == "" {
		return ErrNotAuthenticated
	}
	_, err, _ := c.inflight.Do("portal:"+token, func() (interface{}, error) {
		var out redirectResponse
		if err := c.do(ctx, http.MethodPost, "/plans/create-portal-session", token, nil, &out); err != nil {
			return nil, err
		}
		return nil, c.redirect(out.URL)
	})
	return err
}

func (c *Client) redirect(url string) error {
	if url == "" {
		return ErrNoRedirectURL
	}
	if c.Redirector == nil {
		return errors.New("client: no redirector configured")
	}
	return c.Redirector.Redirect(url)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("could not reach the server: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: "Something went wrong, please try again"}
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			apiErr.Message = e.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
