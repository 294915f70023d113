package ledger

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"docseal/pkg/platform/sentinel"
)

// RPCClient talks JSON-RPC to an EVM node and eth_calls the DocumentHash
// contract. It implements Client.
type RPCClient struct {
	rpcURL   string
	contract string
	http     *http.Client
	logger   *slog.Logger
	nextID   atomic.Int64
}

// NewRPCClient builds a ledger client for the contract at contractAddress.
func NewRPCClient(rpcURL, contractAddress string, logger *slog.Logger) *RPCClient {
	return &RPCClient{
		rpcURL:   rpcURL,
		contract: contractAddress,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC round trip. Failures wrap
// sentinel.ErrUnavailable so callers can fall back to safe defaults.
func (c *RPCClient) call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", method, sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %w: status %d", method, sentinel.ErrUnavailable, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("%s: %w: decode response: %w", method, sentinel.ErrUnavailable, err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("%s: %w: rpc error %d: %s", method, sentinel.ErrUnavailable, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

// ethCall executes a read-only contract call and returns the hex return data.
func (c *RPCClient) ethCall(ctx context.Context, callData []byte) (string, error) {
	result, err := c.call(ctx, "eth_call", map[string]string{
		"to":   c.contract,
		"data": "0x" + hex.EncodeToString(callData),
	}, "latest")
	if err != nil {
		return "", err
	}
	var returnData string
	if err := json.Unmarshal(result, &returnData); err != nil {
		return "", fmt.Errorf("eth_call: %w: %w", sentinel.ErrUnavailable, err)
	}
	return returnData, nil
}

// IsConnected reports whether the node answers at all. Used once at worker
// startup; a false here is fatal for that run.
func (c *RPCClient) IsConnected(ctx context.Context) bool {
	_, err := c.call(ctx, "eth_blockNumber")
	if err != nil {
		c.logger.Warn("ledger connection check failed", "error", err)
		return false
	}
	return true
}

func (c *RPCClient) HashExists(ctx context.Context, contentHash string) (bool, error) {
	returnData, err := c.ethCall(ctx, encodeStringCall(sigHashExists, contentHash))
	if err != nil {
		return false, err
	}
	reader, err := newABIReader(returnData)
	if err != nil {
		return false, err
	}
	return reader.bool(0)
}

func (c *RPCClient) DocumentByID(ctx context.Context, identifier string) (*Document, error) {
	doc, err := c.documentCall(ctx, encodeStringCall(sigGetDocumentInfo, identifier))
	if err != nil {
		return nil, err
	}
	// First tuple member is the content hash when querying by identifier.
	return &Document{
		Identifier:     identifier,
		ContentHash:    doc.first,
		CreatorAddress: doc.creator,
		BlockNumber:    doc.number,
	}, nil
}

func (c *RPCClient) DocumentByHash(ctx context.Context, contentHash string) (*Document, error) {
	doc, err := c.documentCall(ctx, encodeStringCall(sigGetDocumentByHash, contentHash))
	if err != nil {
		return nil, err
	}
	// First tuple member is the identifier when querying by hash.
	return &Document{
		Identifier:     doc.first,
		ContentHash:    contentHash,
		CreatorAddress: doc.creator,
		BlockNumber:    doc.number,
	}, nil
}

// documentTuple is the raw (string, address, uint256) contract return.
type documentTuple struct {
	first   string
	creator string
	number  int64
}

func (c *RPCClient) documentCall(ctx context.Context, callData []byte) (*documentTuple, error) {
	returnData, err := c.ethCall(ctx, callData)
	if err != nil {
		return nil, err
	}
	reader, err := newABIReader(returnData)
	if err != nil {
		return nil, err
	}
	first, err := reader.stringHead(0)
	if err != nil {
		return nil, err
	}
	if first == "" {
		// The contract signals "unknown document" with an empty first member.
		return nil, sentinel.ErrNotFound
	}
	creator, err := reader.address(1)
	if err != nil {
		return nil, err
	}
	number, err := reader.uint(2)
	if err != nil {
		return nil, err
	}
	return &documentTuple{first: first, creator: creator, number: number}, nil
}

func (c *RPCClient) DocumentsByCreator(ctx context.Context, creatorAddress string) ([]string, error) {
	callData, err := encodeAddressCall(sigGetDocumentsByCreate, creatorAddress)
	if err != nil {
		return nil, err
	}
	returnData, err := c.ethCall(ctx, callData)
	if err != nil {
		return nil, err
	}
	reader, err := newABIReader(returnData)
	if err != nil {
		return nil, err
	}
	return reader.stringSlice()
}

func (c *RPCClient) CreatorDocumentCount(ctx context.Context, creatorAddress string) (int64, error) {
	callData, err := encodeAddressCall(sigGetCreatorDocCount, creatorAddress)
	if err != nil {
		return 0, err
	}
	returnData, err := c.ethCall(ctx, callData)
	if err != nil {
		return 0, err
	}
	reader, err := newABIReader(returnData)
	if err != nil {
		return 0, err
	}
	return reader.uint(0)
}

func (c *RPCClient) LatestBlockNumber(ctx context.Context) (int64, error) {
	result, err := c.call(ctx, "eth_blockNumber")
	if err != nil {
		return 0, err
	}
	var quantity string
	if err := json.Unmarshal(result, &quantity); err != nil {
		return 0, fmt.Errorf("eth_blockNumber: %w: %w", sentinel.ErrUnavailable, err)
	}
	return parseQuantity(quantity)
}

type logEntry struct {
	Topics          []string `json:"topics"`
	BlockNumber     string   `json:"blockNumber"`
	TransactionHash string   `json:"transactionHash"`
}

// StoredEvents fetches DocumentStored events in the inclusive block range.
func (c *RPCClient) StoredEvents(ctx context.Context, fromBlock, toBlock int64) ([]Event, error) {
	result, err := c.call(ctx, "eth_getLogs", map[string]any{
		"fromBlock": formatQuantity(fromBlock),
		"toBlock":   formatQuantity(toBlock),
		"address":   c.contract,
		"topics":    []string{eventTopic(sigDocumentStored)},
	})
	if err != nil {
		return nil, err
	}

	var entries []logEntry
	if err := json.Unmarshal(result, &entries); err != nil {
		return nil, fmt.Errorf("eth_getLogs: %w: %w", sentinel.ErrUnavailable, err)
	}

	events := make([]Event, 0, len(entries))
	for _, entry := range entries {
		if len(entry.Topics) < 2 {
			c.logger.Warn("event log missing creator topic", "tx", entry.TransactionHash)
			continue
		}
		creator, err := topicAddress(entry.Topics[1])
		if err != nil {
			c.logger.Warn("event log has malformed creator topic", "tx", entry.TransactionHash, "error", err)
			continue
		}
		blockNumber, err := parseQuantity(entry.BlockNumber)
		if err != nil {
			c.logger.Warn("event log has malformed block number", "tx", entry.TransactionHash, "error", err)
			continue
		}
		events = append(events, Event{
			CreatorAddress:  creator,
			BlockNumber:     blockNumber,
			TransactionHash: entry.TransactionHash,
		})
	}
	return events, nil
}
