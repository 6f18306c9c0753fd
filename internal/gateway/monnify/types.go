package monnify

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type envelope struct {
	RequestSuccessful bool            `json:"requestSuccessful"`
	ResponseMessage   string          `json:"responseMessage"`
	ResponseCode      string          `json:"responseCode"`
	ResponseBody      json.RawMessage `json:"responseBody"`
}

type loginBody struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// Bank is one entry of the provider's supported bank list.
type Bank struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type validateBody struct {
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
	BankCode      string `json:"bankCode"`
}

type disbursementRequest struct {
	Amount                   decimal.Decimal `json:"amount"`
	Reference                string          `json:"reference"`
	Narration                string          `json:"narration"`
	DestinationBankCode      string          `json:"destinationBankCode"`
	DestinationAccountNumber string          `json:"destinationAccountNumber"`
	Currency                 string          `json:"currency"`
	SourceAccountNumber      string          `json:"sourceAccountNumber"`
}

// Disbursement is the provider's view of a single transfer.
type Disbursement struct {
	Reference   string          `json:"reference"`
	ProviderRef string          `json:"transactionReference"`
	Amount      decimal.Decimal `json:"amount"`
	TotalFee    decimal.Decimal `json:"totalFee"`
	Status      string          `json:"status"`
	DateCreated string          `json:"dateCreated"`
}

// Provider disbursement statuses.
const (
	StatusSuccess    = "SUCCESS"
	StatusFailed     = "FAILED"
	StatusPending    = "PENDING"
	StatusReversed   = "REVERSED"
	StatusExpired    = "EXPIRED"
	StatusProcessing = "PROCESSING"
)
