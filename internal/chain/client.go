// Package chain reads ERC-721 state from a live EVM chain over JSON-RPC.
// It never sends transactions and never caches ownership or approval.
package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/letmeget/swapgate/internal/pkg/apperrors"
)

// ReasonExecutionReverted is reported when a view call reverts on chain,
// typically for a token id that was never minted.
const ReasonExecutionReverted = "execution-reverted"

type Client struct {
	rpcURL  string
	mu      sync.Mutex
	client  *ethclient.Client
	timeout time.Duration
	retries int
}

func NewClient(rpcURL string, timeout time.Duration, retries int) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	return &Client{
		rpcURL:  strings.TrimSpace(rpcURL),
		timeout: timeout,
		retries: retries,
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.rpcURL != ""
}

// BlockNumber returns the latest block height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var height uint64
	err := c.withRetry(ctx, func(ctx context.Context, client *ethclient.Client) error {
		n, err := client.BlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("rpc call failed: %w", err)
		}
		height = n
		return nil
	})
	return height, err
}

func (c *Client) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	var output []byte
	err := c.withRetry(ctx, func(ctx context.Context, client *ethclient.Client) error {
		out, err := client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
		if err != nil {
			if isRevert(err) {
				revert := apperrors.Revert(ReasonExecutionReverted)
				revert.Cause = err
				return &permanent{revert}
			}
			return fmt.Errorf("rpc call failed: %w", err)
		}
		output = out
		return nil
	})
	return output, err
}

// permanent marks an error that retrying cannot fix.
type permanent struct {
	err *apperrors.AppError
}

func (p *permanent) Error() string { return p.err.Error() }

func (c *Client) withRetry(ctx context.Context, fn func(context.Context, *ethclient.Client) error) error {
	if !c.Configured() {
		return apperrors.New(apperrors.ErrUpstream, "rpc url not configured", nil)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		client, err := c.getClient(attemptCtx)
		if err != nil {
			cancel()
			lastErr = err
			if !shouldRetry(ctx, attempt, c.retries) {
				break
			}
			continue
		}

		err = fn(attemptCtx, client)
		cancel()
		if err == nil {
			return nil
		}
		if p, ok := err.(*permanent); ok {
			return p.err
		}
		lastErr = err
		if !shouldRetry(ctx, attempt, c.retries) {
			break
		}
	}
	return apperrors.New(apperrors.ErrUpstream, "chain read failed", lastErr)
}

func (c *Client) getClient(ctx context.Context) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	client, err := ethclient.DialContext(ctx, c.rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect rpc: %w", err)
	}
	c.client = client
	return c.client, nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		c.client.Close()
		c.client = nil
	}
}

func isRevert(err error) bool {
	return strings.Contains(err.Error(), "execution reverted")
}

func shouldRetry(ctx context.Context, attempt, max int) bool {
	if attempt >= max {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	default:
	}
	time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
	return true
}
