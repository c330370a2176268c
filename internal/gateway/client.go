package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"charge-console/internal/schema"
)

// Client provides REST access to the charging-platform backend. One
// client is shared between sessions; the bearer token is passed per
// call because every session carries its own.
type Client struct {
	base string
	http *resty.Client
}

type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithHTTPClient swaps the underlying resty client (tests).
func WithHTTPClient(rc *resty.Client) Option {
	return func(c *Client) {
		c.http = rc
	}
}

// New returns a new Client for the given base URL.
func New(base string, opts ...Option) *Client {
	c := &Client{base: base, http: resty.New()}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) req(ctx context.Context, token string) *resty.Request {
	r := c.http.R().SetContext(ctx).SetHeader("X-Request-Id", uuid.New().String())
	if token != "" {
		r.SetAuthToken(token)
	}
	return r
}

// List fetches all records of a resource, unpaged. Used to populate
// dropdowns (operators, stations, connector types).
func (c *Client) List(ctx context.Context, token, resource string) ([]schema.Record, error) {
	var out []schema.Record
	resp, err := c.req(ctx, token).SetResult(&out).Get(c.base + "/" + resource)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", resource, err)
	}
	if resp.IsError() {
		return nil, remoteErr("load "+resource, resp.StatusCode(), resp.Body())
	}
	return out, nil
}

// Get fetches one record by id.
func (c *Client) Get(ctx context.Context, token, resource, id string) (schema.Record, error) {
	var out schema.Record
	resp, err := c.req(ctx, token).SetResult(&out).Get(c.base + "/" + resource + "/" + id)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", resource, id, err)
	}
	if resp.IsError() {
		return nil, remoteErr("load "+resource, resp.StatusCode(), resp.Body())
	}
	return out, nil
}

// GetPaged posts a PagingRequest to the resource's Paging endpoint.
func (c *Client) GetPaged(ctx context.Context, token, resource string, req schema.PagingRequest) (*schema.PagingResponse, error) {
	var out schema.PagingResponse
	resp, err := c.req(ctx, token).SetBody(req).SetResult(&out).Post(c.base + "/" + resource + "/Paging")
	if err != nil {
		return nil, fmt.Errorf("paging %s: %w", resource, err)
	}
	if resp.IsError() {
		return nil, remoteErr("load "+resource, resp.StatusCode(), resp.Body())
	}
	return &out, nil
}

// ListByOperator fetches rows scoped to one operator tenant.
func (c *Client) ListByOperator(ctx context.Context, token, resource, operatorID string) ([]schema.Record, error) {
	var out []schema.Record
	resp, err := c.req(ctx, token).SetResult(&out).Get(c.base + "/" + resource + "/ByOperator/" + operatorID)
	if err != nil {
		return nil, fmt.Errorf("list %s by operator: %w", resource, err)
	}
	if resp.IsError() {
		return nil, remoteErr("load "+resource, resp.StatusCode(), resp.Body())
	}
	return out, nil
}

// Create posts a new record. The payload must not contain an id.
func (c *Client) Create(ctx context.Context, token, resource string, body schema.Record) (schema.Record, error) {
	var out schema.Record
	resp, err := c.req(ctx, token).SetBody(body).SetResult(&out).Post(c.base + "/" + resource)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", resource, err)
	}
	if resp.IsError() {
		return nil, remoteErr("create "+resource, resp.StatusCode(), resp.Body())
	}
	return out, nil
}

// Update puts a record by id. The id is already in the URL; callers
// strip it (and other server-owned fields) from the payload first.
func (c *Client) Update(ctx context.Context, token, resource, id string, body schema.Record) (schema.Record, error) {
	var out schema.Record
	resp, err := c.req(ctx, token).SetBody(body).SetResult(&out).Put(c.base + "/" + resource + "/" + id)
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", resource, id, err)
	}
	if resp.IsError() {
		return nil, remoteErr("update "+resource, resp.StatusCode(), resp.Body())
	}
	return out, nil
}

// Delete removes a record by id. Success bodies are not parsed; some
// backends return an empty or non-JSON body on delete. Only error
// responses are parsed as JSON.
func (c *Client) Delete(ctx context.Context, token, resource, id string) error {
	resp, err := c.req(ctx, token).Delete(c.base + "/" + resource + "/" + id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", resource, id, err)
	}
	if resp.IsError() {
		return remoteErr("delete "+resource, resp.StatusCode(), resp.Body())
	}
	return nil
}

// ToggleActivate flips a record's active flag.
func (c *Client) ToggleActivate(ctx context.Context, token, resource, id string) error {
	resp, err := c.req(ctx, token).Put(c.base + "/" + resource + "/ToggleActivate/" + id)
	if err != nil {
		return fmt.Errorf("toggle activate %s/%s: %w", resource, id, err)
	}
	if resp.IsError() {
		return remoteErr("update "+resource, resp.StatusCode(), resp.Body())
	}
	return nil
}

// Approve accepts an account request with an admin response message.
func (c *Client) Approve(ctx context.Context, token, resource, id, adminResponse string) error {
	return c.decide(ctx, token, resource, "Approve", id, adminResponse)
}

// Reject declines an account request with an admin response message.
func (c *Client) Reject(ctx context.Context, token, resource, id, adminResponse string) error {
	return c.decide(ctx, token, resource, "Reject", id, adminResponse)
}

func (c *Client) decide(ctx context.Context, token, resource, action, id, adminResponse string) error {
	body := map[string]string{"adminResponse": adminResponse}
	resp, err := c.req(ctx, token).SetBody(body).Put(c.base + "/" + resource + "/" + action + "/" + id)
	if err != nil {
		return fmt.Errorf("%s %s/%s: %w", action, resource, id, err)
	}
	if resp.IsError() {
		return remoteErr(action+" "+resource, resp.StatusCode(), resp.Body())
	}
	return nil
}

// ConnectorTypes fetches the connector type enumeration.
func (c *Client) ConnectorTypes(ctx context.Context, token string) ([]schema.Record, error) {
	var out []schema.Record
	resp, err := c.req(ctx, token).SetResult(&out).Get(c.base + "/ConnectorTypes/types")
	if err != nil {
		return nil, fmt.Errorf("connector types: %w", err)
	}
	if resp.IsError() {
		return nil, remoteErr("load connector types", resp.StatusCode(), resp.Body())
	}
	return out, nil
}

// QRCode fetches the generated QR code for a record as a base64 PNG.
func (c *Client) QRCode(ctx context.Context, token, resource, id string) (string, error) {
	resp, err := c.req(ctx, token).Get(c.base + "/" + resource + "/QRCode/" + id)
	if err != nil {
		return "", fmt.Errorf("qr code %s/%s: %w", resource, id, err)
	}
	if resp.IsError() {
		return "", remoteErr("load QR code", resp.StatusCode(), resp.Body())
	}
	var body struct {
		QRCode string `json:"qrCode"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil || body.QRCode == "" {
		// Some deployments return the raw base64 payload directly.
		return string(resp.Body()), nil
	}
	return body.QRCode, nil
}

func extractMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	return parsed.Message
}
