package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/taibogaston/admininmo-sub000/service/business"
)

// Client talks to the online payment gateway REST API.
type Client struct {
	BaseURL         string
	AccessToken     string
	Currency        string
	NotificationURL string
	HttpClient      *http.Client
}

// New creates a gateway client with a TLS only transport.
func New(baseURL, accessToken, currency, notificationURL string, timeout time.Duration) *Client {
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:    10,
		IdleConnTimeout: 30 * time.Second,
	}

	return &Client{
		BaseURL:         baseURL,
		AccessToken:     accessToken,
		Currency:        currency,
		NotificationURL: notificationURL,
		HttpClient: &http.Client{
			Transport: tr,
			Timeout:   timeout,
		},
	}
}

// paymentResponse is the subset of the gateway payment resource the service reads.
type paymentResponse struct {
	ID                json.Number     `json:"id"`
	Status            string          `json:"status"`
	StatusDetail      string          `json:"status_detail"`
	ExternalReference string          `json:"external_reference"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
}

type preferenceItem struct {
	Title      string      `json:"title"`
	Quantity   int         `json:"quantity"`
	UnitPrice  json.Number `json:"unit_price"`
	CurrencyID string      `json:"currency_id,omitempty"`
}

type preferenceRequest struct {
	Items             []preferenceItem `json:"items"`
	ExternalReference string           `json:"external_reference"`
	NotificationURL   string           `json:"notification_url,omitempty"`
}

type preferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// GetPayment fetches a payment by the gateway's identifier.
func (c *Client) GetPayment(ctx context.Context, id string) (*business.GatewayPayment, error) {
	endpoint := fmt.Sprintf("%s/v1/payments/%s", c.BaseURL, url.PathEscape(id))

	var resp paymentResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, errors.Wrapf(err, "could not fetch gateway payment %s", id)
	}

	return &business.GatewayPayment{
		ID:                resp.ID.String(),
		Status:            resp.Status,
		StatusDetail:      resp.StatusDetail,
		ExternalReference: resp.ExternalReference,
		Amount:            resp.TransactionAmount,
	}, nil
}

// CreateCheckout registers a checkout preference and returns where the tenant pays.
func (c *Client) CreateCheckout(ctx context.Context, request business.CheckoutRequest) (*business.Checkout, error) {
	body := preferenceRequest{
		Items: []preferenceItem{{
			Title:      request.Title,
			Quantity:   1,
			UnitPrice:  json.Number(request.Amount.StringFixed(2)),
			CurrencyID: c.Currency,
		}},
		ExternalReference: request.ExternalReference,
		NotificationURL:   c.NotificationURL,
	}

	var resp preferenceResponse
	if err := c.do(ctx, http.MethodPost, c.BaseURL+"/checkout/preferences", body, &resp); err != nil {
		return nil, errors.Wrap(err, "could not create checkout preference")
	}
	return &business.Checkout{PreferenceID: resp.ID, CheckoutURL: resp.InitPoint}, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("gateway responded %s, body: %s", resp.Status, string(respBody))
	}

	decoder := json.NewDecoder(bytes.NewReader(respBody))
	decoder.UseNumber()
	return decoder.Decode(out)
}
