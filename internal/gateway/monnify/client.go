// Package monnify adapts the Monnify disbursement API for bank transfers.
// Monnify authenticates with short-lived bearer tokens obtained by a
// basic-auth login, so the client carries a refreshing authenticator.
package monnify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"dailychow/internal/gateway"

	"github.com/shopspring/decimal"
)

// Monnify disbursements are slower to settle than card charges, so the
// backoff schedule is stretched out.
var retryDelays = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}

// Client calls the Monnify disbursement API.
type Client struct {
	gw            *gateway.Client
	sourceAccount string
}

// NewClient creates a Monnify client. apiKey and secretKey are the basic-auth
// login pair; sourceAccount is the wallet account transfers are funded from.
func NewClient(baseURL, apiKey, secretKey, sourceAccount string) *Client {
	auth := gateway.NewTokenAuthenticator(loginTokenSource(baseURL, apiKey, secretKey))
	return &Client{
		gw: gateway.NewClient(gateway.Config{
			BaseURL:     baseURL,
			Auth:        auth,
			RetryDelays: retryDelays,
		}),
		sourceAccount: sourceAccount,
	}
}

// loginTokenSource exchanges the basic-auth key pair for a bearer token. The
// login goes through its own unauthenticated client so token refresh cannot
// recurse into itself.
func loginTokenSource(baseURL, apiKey, secretKey string) gateway.TokenSource {
	login := gateway.NewClient(gateway.Config{
		BaseURL: baseURL,
		Auth:    basicAuth{apiKey: apiKey, secretKey: secretKey},
	})
	return func(ctx context.Context) (string, time.Duration, error) {
		var env envelope
		if err := login.Do(ctx, http.MethodPost, "/api/v1/auth/login", struct{}{}, &env); err != nil {
			return "", 0, fmt.Errorf("failed to log in to transfer provider: %w", err)
		}
		if !env.RequestSuccessful {
			return "", 0, &gateway.Error{Message: env.ResponseMessage}
		}
		var body loginBody
		if err := json.Unmarshal(env.ResponseBody, &body); err != nil {
			return "", 0, fmt.Errorf("failed to decode login response: %w", err)
		}
		return body.AccessToken, time.Duration(body.ExpiresIn) * time.Second, nil
	}
}

type basicAuth struct {
	apiKey    string
	secretKey string
}

func (a basicAuth) Apply(_ context.Context, req *http.Request) error {
	credentials := base64.StdEncoding.EncodeToString([]byte(a.apiKey + ":" + a.secretKey))
	req.Header.Set("Authorization", "Basic "+credentials)
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var env envelope
	if err := c.gw.Do(ctx, method, path, body, &env); err != nil {
		return err
	}
	if !env.RequestSuccessful {
		return &gateway.Error{Message: env.ResponseMessage}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.ResponseBody, out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}

// ListBanks fetches the provider's supported bank list.
func (c *Client) ListBanks(ctx context.Context) ([]Bank, error) {
	var banks []Bank
	if err := c.call(ctx, http.MethodGet, "/api/v1/banks", nil, &banks); err != nil {
		return nil, err
	}
	return banks, nil
}

// ValidateAccount resolves the holder name of a bank account. A rejection
// means the account number and bank code do not match a real account.
func (c *Client) ValidateAccount(ctx context.Context, accountNumber, bankCode string) (string, error) {
	path := fmt.Sprintf("/api/v1/disbursements/account/validate?accountNumber=%s&bankCode=%s",
		url.QueryEscape(accountNumber), url.QueryEscape(bankCode))
	var body validateBody
	if err := c.call(ctx, http.MethodGet, path, nil, &body); err != nil {
		return "", err
	}
	return body.AccountName, nil
}

// TransferParams describes a single outbound transfer.
type TransferParams struct {
	Amount        decimal.Decimal
	Reference     string
	Narration     string
	BankCode      string
	AccountNumber string
}

// InitiateTransfer submits a single disbursement. The returned status may be
// non-terminal; callers poll GetTransferStatus until it settles.
func (c *Client) InitiateTransfer(ctx context.Context, params TransferParams) (*Disbursement, error) {
	req := disbursementRequest{
		Amount:                   params.Amount,
		Reference:                params.Reference,
		Narration:                params.Narration,
		DestinationBankCode:      params.BankCode,
		DestinationAccountNumber: params.AccountNumber,
		Currency:                 "NGN",
		SourceAccountNumber:      c.sourceAccount,
	}
	var disbursement Disbursement
	if err := c.call(ctx, http.MethodPost, "/api/v2/disbursements/single", req, &disbursement); err != nil {
		return nil, err
	}
	return &disbursement, nil
}

// GetTransferStatus fetches the current provider state of a transfer.
func (c *Client) GetTransferStatus(ctx context.Context, reference string) (*Disbursement, error) {
	path := "/api/v2/disbursements/single/summary?reference=" + url.QueryEscape(reference)
	var disbursement Disbursement
	if err := c.call(ctx, http.MethodGet, path, nil, &disbursement); err != nil {
		return nil, err
	}
	return &disbursement, nil
}

// Terminal reports whether a provider status will no longer change.
func Terminal(status string) bool {
	switch status {
	case StatusSuccess, StatusFailed, StatusReversed, StatusExpired:
		return true
	}
	return false
}
