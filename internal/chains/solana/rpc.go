package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/walletgraph/walletgraph/internal/adapter"
)

// RPCClient is a minimal Solana JSON-RPC client covering the calls this
// backend needs. Requests go through the shared HTTP adapter so retries and
// mocking behave like every other outbound call.
type RPCClient struct {
	endpoint   string
	httpClient adapter.HTTPClient
}

// NewRPCClient creates a Solana JSON-RPC client for an endpoint
func NewRPCClient(endpoint string, httpClient adapter.HTTPClient) *RPCClient {
	return &RPCClient{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (c *RPCClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode rpc request: %w", err)
	}

	respBody, err := c.httpClient.Post(ctx, c.endpoint, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("rpc call %s failed: %w", method, err)
	}

	var envelope struct {
		Error  *rpcError       `json:"error"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to decode rpc response: %w", err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("rpc call %s failed: %w", method, envelope.Error)
	}

	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("failed to decode rpc result for %s: %w", method, err)
		}
	}

	return nil
}

// GetBalance retrieves the lamport balance of an account
func (c *RPCClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	var result struct {
		Value uint64 `json:"value"`
	}
	if err := c.call(ctx, "getBalance", []interface{}{address}, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// TokenAccount is one SPL token account as returned by getTokenAccountsByOwner
// with jsonParsed encoding
type TokenAccount struct {
	Mint     string
	Amount   string
	Decimals uint8
}

// GetTokenAccountsByOwner retrieves the SPL token accounts held by an owner
func (c *RPCClient) GetTokenAccountsByOwner(ctx context.Context, owner string) ([]TokenAccount, error) {
	params := []interface{}{
		owner,
		map[string]string{"programId": solana.TokenProgramID.String()},
		map[string]string{"encoding": "jsonParsed"},
	}

	var result struct {
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
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &result); err != nil {
		return nil, err
	}

	accounts := make([]TokenAccount, 0, len(result.Value))
	for _, v := range result.Value {
		info := v.Account.Data.Parsed.Info
		accounts = append(accounts, TokenAccount{
			Mint:     info.Mint,
			Amount:   info.TokenAmount.Amount,
			Decimals: info.TokenAmount.Decimals,
		})
	}

	return accounts, nil
}

// SignatureInfo is one entry from getSignaturesForAddress
type SignatureInfo struct {
	Signature string      `json:"signature"`
	Slot      uint64      `json:"slot"`
	BlockTime *int64      `json:"blockTime"`
	Err       interface{} `json:"err"`
}

// GetSignaturesForAddress retrieves signatures touching an address, newest
// first. before and until are exclusive signature bounds; empty means
// unbounded.
func (c *RPCClient) GetSignaturesForAddress(ctx context.Context, address string, before, until string, limit int) ([]SignatureInfo, error) {
	opts := map[string]interface{}{}
	if before != "" {
		opts["before"] = before
	}
	if until != "" {
		opts["until"] = until
	}
	if limit > 0 {
		opts["limit"] = limit
	}

	var result []SignatureInfo
	if err := c.call(ctx, "getSignaturesForAddress", []interface{}{address, opts}, &result); err != nil {
		return nil, err
	}

	return result, nil
}
