package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/letmeget/swapgate/internal/token"
)

const erc721ABIJSON = `[
{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"ownerOf","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"getApproved","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"operator","type":"address"}],"name":"isApprovedForAll","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"}
]`

var erc721ABI = mustParseABI(erc721ABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse abi: %v", err))
	}
	return parsed
}

// ERC721 is a read-only view of a deployed ERC-721 contract.
type ERC721 struct {
	client  *Client
	address common.Address
}

var _ token.Reader = (*ERC721)(nil)

func NewERC721(client *Client, address common.Address) *ERC721 {
	return &ERC721{client: client, address: address}
}

func (e *ERC721) Address() common.Address { return e.address }

func (e *ERC721) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	return e.callAddress(ctx, "ownerOf", tokenID)
}

func (e *ERC721) GetApproved(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	return e.callAddress(ctx, "getApproved", tokenID)
}

func (e *ERC721) IsApprovedForAll(ctx context.Context, owner, operator common.Address) (bool, error) {
	out, err := e.call(ctx, "isApprovedForAll", owner, operator)
	if err != nil {
		return false, err
	}
	approved, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("isApprovedForAll: unexpected output %T", out[0])
	}
	return approved, nil
}

func (e *ERC721) callAddress(ctx context.Context, method string, args ...interface{}) (common.Address, error) {
	out, err := e.call(ctx, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s: unexpected output %T", method, out[0])
	}
	return addr, nil
}

func (e *ERC721) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := erc721ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack call data: %w", err)
	}
	output, err := e.client.call(ctx, e.address, data)
	if err != nil {
		return nil, err
	}
	out, err := erc721ABI.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to unpack output: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty output", method)
	}
	return out, nil
}
