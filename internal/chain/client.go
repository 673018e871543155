// Copyright (c) 2026 dotandev
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dotandev/vigil/internal/errors"
	"github.com/dotandev/vigil/internal/logger"
	"github.com/dotandev/vigil/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// TokenProgramID is the SPL token program address used for balance lookups.
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// SystemProgramID exists on every cluster, which makes it a convenient
// probe target for connectivity checks.
const SystemProgramID = "11111111111111111111111111111111"

// ReadClient is the read/simulate surface consumed by the snapshot service
// and the dry-run simulator. There is deliberately no commit capability on
// this interface.
type ReadClient interface {
	GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error)
	GetMultipleAccounts(ctx context.Context, addresses []string) (map[string]*AccountInfo, error)
	GetProgramAccounts(ctx context.Context, programID string) ([]ProgramAccount, error)
	GetTokenAccountsByOwner(ctx context.Context, owner string) ([]TokenBalance, error)
	GetLatestBlockhash(ctx context.Context) (*LatestBlockhash, error)
	SimulateTransaction(ctx context.Context, txBase64 string) (*SimulateResult, error)
	Health(ctx context.Context) error
}

// CommitClient extends ReadClient with actual submission. Only the
// explicitly gated committing simulator may hold one.
type CommitClient interface {
	ReadClient
	SendTransaction(ctx context.Context, txBase64 string) (string, error)
}

// authTransport is a custom HTTP RoundTripper that adds authentication headers
type authTransport struct {
	token     string
	transport http.RoundTripper
}

// RoundTrip implements http.RoundTripper interface
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	return t.transport.RoundTrip(req)
}

// Client talks JSON-RPC to a Solana RPC endpoint. It is safe for
// concurrent use; the orchestrator shares one read-only client across all
// scenario executions.
type Client struct {
	Endpoint string
	retrier  *Retrier
	token    string // stored for reference, not logged
	nextID   atomic.Int64
}

// NewClient creates a new RPC client for the given endpoint. Token can be
// provided via the token parameter or VIGIL_RPC_TOKEN environment variable.
func NewClient(endpoint, token string) *Client {
	httpClient := &http.Client{Timeout: 60 * time.Second}
	if token != "" {
		httpClient.Transport = &authTransport{
			token:     token,
			transport: http.DefaultTransport,
		}
		logger.Logger.Debug("RPC client initialized with authentication")
	} else {
		logger.Logger.Debug("RPC client initialized without authentication")
	}

	return &Client{
		Endpoint: endpoint,
		retrier:  NewRetrier(DefaultRetryConfig(), httpClient),
		token:    token,
	}
}

// NewClientWithRetry creates a client with a custom retry policy, used by
// tests and by callers with unusual rate limit budgets.
func NewClientWithRetry(endpoint, token string, retry RetryConfig) *Client {
	c := NewClient(endpoint, token)
	c.retrier = NewRetrier(retry, c.retrier.client)
	return c
}

type rpcRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

// contextValue is the {context:{slot}, value:...} wrapper most account
// methods respond with.
type contextValue struct {
	Value json.RawMessage `json:"value"`
}

// call performs one JSON-RPC request and decodes result into out.
func (c *Client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	tracer := telemetry.GetTracer()
	ctx, span := tracer.Start(ctx, "rpc_"+method)
	span.SetAttributes(attribute.String("rpc.endpoint", c.Endpoint))
	defer span.End()

	// Set a timeout if context doesn't have one
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	reqBody := rpcRequest{
		Jsonrpc: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		span.RecordError(err)
		return errors.WrapMarshalFailed(err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.Endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		span.RecordError(err)
		return errors.WrapRPCConnectionFailed(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.retrier.Do(ctx, req)
	if err != nil {
		span.RecordError(err)
		logger.Logger.Error("RPC request failed", "method", method, "error", err)
		return err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return errors.WrapRPCConnectionFailed(err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBytes, &rpcResp); err != nil {
		span.RecordError(err)
		return errors.WrapUnmarshalFailed(err, string(respBytes))
	}

	if rpcResp.Error != nil {
		span.SetAttributes(attribute.Int("rpc.error_code", rpcResp.Error.Code))
		return errors.WrapRPCConnectionFailed(
			fmt.Errorf("rpc error: %s (code %d)", rpcResp.Error.Message, rpcResp.Error.Code))
	}

	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			span.RecordError(err)
			return errors.WrapUnmarshalFailed(err, string(rpcResp.Result))
		}
	}

	return nil
}

// GetAccountInfo fetches one account. A missing account surfaces as
// errors.ErrAccountNotFound so callers can distinguish it from transport
// failures.
func (c *Client) GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error) {
	logger.Logger.Debug("Fetching account info", "address", address)

	var wrapped contextValue
	params := []interface{}{address, map[string]interface{}{
		"encoding":   "base64",
		"commitment": "confirmed",
	}}
	if err := c.call(ctx, "getAccountInfo", params, &wrapped); err != nil {
		return nil, err
	}

	if len(wrapped.Value) == 0 || string(wrapped.Value) == "null" {
		return nil, errors.WrapAccountNotFound(address)
	}

	var raw rawAccount
	if err := json.Unmarshal(wrapped.Value, &raw); err != nil {
		return nil, errors.WrapUnmarshalFailed(err, string(wrapped.Value))
	}
	return raw.decode()
}

// GetMultipleAccounts fetches several accounts in one round trip. Missing
// accounts are simply absent from the returned map.
func (c *Client) GetMultipleAccounts(ctx context.Context, addresses []string) (map[string]*AccountInfo, error) {
	out := make(map[string]*AccountInfo, len(addresses))
	if len(addresses) == 0 {
		return out, nil
	}

	var wrapped struct {
		Value []json.RawMessage `json:"value"`
	}
	params := []interface{}{addresses, map[string]interface{}{
		"encoding":   "base64",
		"commitment": "confirmed",
	}}
	if err := c.call(ctx, "getMultipleAccounts", params, &wrapped); err != nil {
		return nil, err
	}

	for i, v := range wrapped.Value {
		if i >= len(addresses) {
			break
		}
		if len(v) == 0 || string(v) == "null" {
			continue
		}
		var raw rawAccount
		if err := json.Unmarshal(v, &raw); err != nil {
			return nil, errors.WrapUnmarshalFailed(err, string(v))
		}
		info, err := raw.decode()
		if err != nil {
			return nil, err
		}
		out[addresses[i]] = info
	}

	logger.Logger.Debug("Accounts fetched", "requested", len(addresses), "found", len(out))
	return out, nil
}

// GetProgramAccounts lists every account owned by a program.
func (c *Client) GetProgramAccounts(ctx context.Context, programID string) ([]ProgramAccount, error) {
	var raw []struct {
		Pubkey  string     `json:"pubkey"`
		Account rawAccount `json:"account"`
	}
	params := []interface{}{programID, map[string]interface{}{
		"encoding":   "base64",
		"commitment": "confirmed",
	}}
	if err := c.call(ctx, "getProgramAccounts", params, &raw); err != nil {
		return nil, err
	}

	accounts := make([]ProgramAccount, 0, len(raw))
	for _, entry := range raw {
		info, err := entry.Account.decode()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, ProgramAccount{Address: entry.Pubkey, Info: info})
	}
	return accounts, nil
}

// GetTokenAccountsByOwner returns the SPL token balances held by owner.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner string) ([]TokenBalance, error) {
	var wrapped struct {
		Value []struct {
			Account struct {
				Data struct {
					Parsed struct {
						Info struct {
							Mint        string `json:"mint"`
							TokenAmount struct {
								Amount   string `json:"amount"`
								Decimals uint8  `json:"decimals"`
							} `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"account"`
		} `json:"value"`
	}

	params := []interface{}{
		owner,
		map[string]interface{}{"programId": TokenProgramID},
		map[string]interface{}{"encoding": "jsonParsed", "commitment": "confirmed"},
	}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &wrapped); err != nil {
		return nil, err
	}

	balances := make([]TokenBalance, 0, len(wrapped.Value))
	for _, entry := range wrapped.Value {
		info := entry.Account.Data.Parsed.Info
		amount, err := strconv.ParseUint(info.TokenAmount.Amount, 10, 64)
		if err != nil {
			return nil, errors.WrapUnmarshalFailed(err, info.TokenAmount.Amount)
		}
		balances = append(balances, TokenBalance{
			Mint:     info.Mint,
			Amount:   amount,
			Decimals: info.TokenAmount.Decimals,
		})
	}
	return balances, nil
}

// GetLatestBlockhash fetches a recent blockhash for transaction building.
func (c *Client) GetLatestBlockhash(ctx context.Context) (*LatestBlockhash, error) {
	var wrapped struct {
		Value LatestBlockhash `json:"value"`
	}
	params := []interface{}{map[string]interface{}{"commitment": "confirmed"}}
	if err := c.call(ctx, "getLatestBlockhash", params, &wrapped); err != nil {
		return nil, err
	}
	return &wrapped.Value, nil
}

// SimulateTransaction executes the transaction against current cluster
// state without submitting it for inclusion. Signature verification is
// disabled and the blockhash replaced so partially signed probes from
// disposable identities still execute.
func (c *Client) SimulateTransaction(ctx context.Context, txBase64 string) (*SimulateResult, error) {
	tracer := telemetry.GetTracer()
	ctx, span := tracer.Start(ctx, "simulate_transaction")
	span.SetAttributes(attribute.Int("tx.size_bytes", len(txBase64)))
	defer span.End()

	var wrapped struct {
		Value SimulateResult `json:"value"`
	}
	params := []interface{}{txBase64, map[string]interface{}{
		"encoding":               "base64",
		"sigVerify":              false,
		"replaceRecentBlockhash": true,
		"commitment":             "confirmed",
	}}
	if err := c.call(ctx, "simulateTransaction", params, &wrapped); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("simulation.failed", wrapped.Value.Failed()),
		attribute.Int("simulation.log_lines", len(wrapped.Value.Logs)),
	)
	logger.Logger.Debug("Simulation response received",
		"failed", wrapped.Value.Failed(),
		"units_consumed", wrapped.Value.UnitsConsumed,
	)
	return &wrapped.Value, nil
}

// SendTransaction submits a signed transaction for inclusion. This is the
// dangerous path: only the committing simulator calls it, and only when
// commit mode was enabled at construction time.
func (c *Client) SendTransaction(ctx context.Context, txBase64 string) (string, error) {
	logger.Logger.Warn("Submitting transaction to the ledger", "endpoint", c.Endpoint)

	var signature string
	params := []interface{}{txBase64, map[string]interface{}{"encoding": "base64"}}
	if err := c.call(ctx, "sendTransaction", params, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// Health checks the RPC endpoint's health method.
func (c *Client) Health(ctx context.Context) error {
	var status string
	if err := c.call(ctx, "getHealth", nil, &status); err != nil {
		return err
	}
	if status != "ok" {
		return errors.WrapRPCConnectionFailed(fmt.Errorf("node health: %s", status))
	}
	return nil
}
