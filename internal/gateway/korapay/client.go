// Package korapay adapts the Korapay checkout API for wallet top-ups.
package korapay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"dailychow/internal/gateway"

	"github.com/shopspring/decimal"
)

// Client calls the Korapay charges API with the account secret key.
type Client struct {
	gw *gateway.Client
}

// NewClient creates a Korapay client.
func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		gw: gateway.NewClient(gateway.Config{
			BaseURL: baseURL,
			Auth:    gateway.StaticBearer{Key: secretKey},
		}),
	}
}

// ChargeParams describes a checkout charge to initialize.
type ChargeParams struct {
	Amount      decimal.Decimal
	Currency    string
	Reference   string
	Narration   string
	RedirectURL string
	Customer    Customer
	Metadata    map[string]string
}

// InitializeCharge creates a hosted checkout charge and returns it with the
// checkout URL the payer is redirected to.
func (c *Client) InitializeCharge(ctx context.Context, params ChargeParams) (*Charge, error) {
	req := chargeRequest{
		Amount:      params.Amount,
		Currency:    params.Currency,
		Reference:   params.Reference,
		Narration:   params.Narration,
		RedirectURL: params.RedirectURL,
		Customer:    params.Customer,
		Metadata:    params.Metadata,
	}
	return c.charge(ctx, http.MethodPost, "/charges/initialize", req)
}

// GetCharge fetches the current provider state of a charge by reference.
func (c *Client) GetCharge(ctx context.Context, reference string) (*Charge, error) {
	path := "/charges/" + url.PathEscape(reference)
	return c.charge(ctx, http.MethodGet, path, nil)
}

func (c *Client) charge(ctx context.Context, method, path string, body interface{}) (*Charge, error) {
	var env envelope
	if err := c.gw.Do(ctx, method, path, body, &env); err != nil {
		return nil, err
	}
	if !env.Status {
		return nil, &gateway.Error{Message: env.Message}
	}
	var charge Charge
	if err := json.Unmarshal(env.Data, &charge); err != nil {
		return nil, fmt.Errorf("failed to decode charge data: %w", err)
	}
	return &charge, nil
}
