package hoosat

import (
	"context"
	"errors"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Namp88/hoosat-web-extension-sub000/internal/infrastructure/resilience"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/types"
)

// Client talks to the Hoosat REST proxy. A circuit breaker fails calls
// fast while the proxy is down.
type Client struct {
	http    *resty.Client
	breaker *resilience.Breaker
}

// ClientConfig configures the node proxy client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	// OnBreakerChange observes breaker transitions; may be nil.
	OnBreakerChange func(name string, from, to resilience.State)
}

// NewClient creates a node proxy client with a retry policy for transient
// proxy failures.
func NewClient(cfg ClientConfig) *Client {
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/json")
	breaker := resilience.New("node-proxy", resilience.Settings{
		Trip:          5,
		Cooldown:      30 * time.Second,
		OnStateChange: cfg.OnBreakerChange,
	})
	return &Client{http: http, breaker: breaker}
}

type balanceResponse struct {
	Balance string `json:"balance"`
}

// Utxo is one spendable output as reported by the proxy.
type Utxo struct {
	Outpoint struct {
		TransactionID string `json:"transactionId"`
		Index         uint32 `json:"index"`
	} `json:"outpoint"`
	UtxoEntry struct {
		Amount        string `json:"amount"`
		BlockDaaScore string `json:"blockDaaScore"`
		IsCoinbase    bool   `json:"isCoinbase"`
	} `json:"utxoEntry"`
}

type utxosResponse struct {
	Utxos []Utxo `json:"utxos"`
}

type submitResponse struct {
	TransactionID string `json:"transactionId"`
}

// GetBalance returns the confirmed balance for address, in sompi.
func (c *Client) GetBalance(ctx context.Context, address string) (string, error) {
	var out balanceResponse
	err := c.breaker.Do(func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&out).
			SetPathParam("address", address).
			Get("/addresses/{address}/balance")
		if err != nil {
			return types.NewError(types.FaultEngine, "failed to get balance: %v", err)
		}
		if resp.IsError() {
			return types.NewError(types.FaultEngine, "failed to get balance: proxy returned %s", resp.Status())
		}
		return nil
	})
	if err != nil {
		return "", unavailableOr(err)
	}
	return out.Balance, nil
}

// GetUtxos returns the spendable outputs for address.
func (c *Client) GetUtxos(ctx context.Context, address string) ([]Utxo, error) {
	var out utxosResponse
	err := c.breaker.Do(func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&out).
			SetPathParam("address", address).
			Get("/addresses/{address}/utxos")
		if err != nil {
			return types.NewError(types.FaultEngine, "failed to get utxos: %v", err)
		}
		if resp.IsError() {
			return types.NewError(types.FaultEngine, "failed to get utxos: proxy returned %s", resp.Status())
		}
		return nil
	})
	if err != nil {
		return nil, unavailableOr(err)
	}
	return out.Utxos, nil
}

// SubmitTransaction broadcasts a signed transaction and returns its id.
func (c *Client) SubmitTransaction(ctx context.Context, signedTx interface{}) (string, error) {
	var out submitResponse
	err := c.breaker.Do(func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(signedTx).
			SetResult(&out).
			Post("/transactions")
		if err != nil {
			return types.NewError(types.FaultEngine, "failed to submit transaction: %v", err)
		}
		if resp.IsError() {
			return types.NewError(types.FaultEngine, "failed to submit transaction: proxy returned %s", resp.Status())
		}
		return nil
	})
	if err != nil {
		return "", unavailableOr(err)
	}
	return out.TransactionID, nil
}

// unavailableOr translates a fast-failed call into an engine fault.
func unavailableOr(err error) error {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return types.NewError(types.FaultEngine, "node proxy unavailable")
	}
	return err
}
