package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/monzo/terrors"
)

// ErrServiceUnavailable is the terrors code for a conversion service that
// cannot be reached at all.
const ErrServiceUnavailable = "service_unavailable"

// StartHint tells the operator how to bring the conversion service up.
const StartHint = "Make sure Functions are running: func host start"

const maxErrorDetail = 256

// Client forwards conversion payloads to the conversion service.
type Client struct {
	url    *url.URL
	client *http.Client
	status *Status
}

// New creates a Client for the service at u. Every call is bounded by
// timeout, including reading the workbook.
func New(u *url.URL, timeout time.Duration) *Client {
	return &Client{
		url: u,
		client: &http.Client{
			Timeout: timeout,
		},
		status: &Status{},
	}
}

// URL returns the conversion service base URL.
func (c *Client) URL() *url.URL {
	return c.url
}

// Address is the host:port the service is expected on.
func (c *Client) Address() string {
	return c.url.Host
}

// Status returns the last known reachability of the service. Only the health
// checker records reachability; calls feed the response time average.
func (c *Client) Status() *Status {
	return c.status
}

// Convert POSTs payload as JSON to path on the conversion service and returns
// the response body. It never retries. Errors are terrors coded
// service_unavailable when the service could not be reached or did not answer
// in time, and internal_service for everything else.
func (c *Client) Convert(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, terrors.InternalService("encode_payload", "Error: "+err.Error(), nil)
	}

	endpoint := c.url.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, terrors.InternalService("build_request", "Error: "+err.Error(), nil)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	res, err := c.client.Do(req)
	if err != nil {
		return nil, c.classify(err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, c.classify(err)
	}

	c.status.RecordResponse(time.Since(start))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, terrors.InternalService("upstream_status",
			fmt.Sprintf("Error: conversion service responded with %s%s", res.Status, errorDetail(data)),
			map[string]string{"upstream_status": res.Status},
		)
	}

	return data, nil
}

// Probe dials the service without sending a request.
func (c *Client) Probe(ctx context.Context, timeout time.Duration) error {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", hostPort(c.url))
	if err != nil {
		return err
	}
	return conn.Close()
}

func (c *Client) classify(err error) error {
	if !IsUnreachable(err) {
		return terrors.InternalService("request_failed", "Error: "+err.Error(), map[string]string{
			"cause": err.Error(),
		})
	}

	return terrors.New(ErrServiceUnavailable+".connect",
		fmt.Sprintf("Cannot connect to local Functions host on %s. %s", c.Address(), StartHint),
		map[string]string{"cause": err.Error()},
	)
}

// IsUnreachable reports whether err means the service could not be reached:
// refused or failed dials, DNS failures and timeouts.
func IsUnreachable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// errorDetail extracts something readable from a failed response: the error
// field of a JSON body, or the start of a text body.
func errorDetail(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return ": " + payload.Error
	}

	detail := strings.TrimSpace(string(body))
	if detail == "" {
		return ""
	}
	if len(detail) > maxErrorDetail {
		detail = detail[:maxErrorDetail] + "..."
	}
	return ": " + detail
}

func hostPort(u *url.URL) string {
	if u.Port() != "" {
		return u.Host
	}
	if u.Scheme == "https" {
		return net.JoinHostPort(u.Hostname(), "443")
	}
	return net.JoinHostPort(u.Hostname(), "80")
}
