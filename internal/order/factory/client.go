// Package factory talks to the external order-fulfillment service that
// issues pizza-specific signed tokens.
package factory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Diner identifies the ordering user in the fulfillment payload.
type Diner struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Fulfillment is the factory's answer to a successful order.
type Fulfillment struct {
	JWT       string `json:"jwt"`
	ReportURL string `json:"reportUrl"`
}

// Error is a fulfillment failure reported by the factory. ReportURL, when
// present, points at the factory's diagnostic page for the failed order.
type Error struct {
	Status    int
	Message   string
	ReportURL string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("factory: %s", e.Message)
	}
	return fmt.Sprintf("factory: status %d", e.Status)
}

// Client calls the fulfillment factory. All requests carry an explicit
// timeout; the factory is a remote dependency and must not stall orders
// indefinitely.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a Client.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type fulfillPayload struct {
	Diner Diner `json:"diner"`
	Order any   `json:"order"`
}

type factoryFailure struct {
	Message   string `json:"message"`
	ReportURL string `json:"reportUrl"`
}

// Fulfill submits an order for fulfillment and returns the issued token.
func (c *Client) Fulfill(ctx context.Context, diner Diner, order any) (*Fulfillment, error) {
	body, err := json.Marshal(fulfillPayload{Diner: diner, Order: order})
	if err != nil {
		return nil, fmt.Errorf("factory: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/order", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("factory: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		var failure factoryFailure
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return nil, &Error{Status: resp.StatusCode, Message: failure.Message, ReportURL: failure.ReportURL}
	}

	var fulfillment Fulfillment
	if err := json.NewDecoder(resp.Body).Decode(&fulfillment); err != nil {
		return nil, &Error{Status: resp.StatusCode, Message: "invalid factory response"}
	}
	return &fulfillment, nil
}
