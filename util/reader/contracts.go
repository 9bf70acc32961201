package reader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"

	jarviscommon "github.com/tranvictor/approvalscan/common"
)

// ErrNoContractData is returned when a call succeeds but the target returns
// nothing, which is what an EOA or a contract without the method looks like.
var ErrNoContractData = errors.New("contract returned no data")

// IsContractFailure reports whether err came from the contract itself
// (revert, empty or undecodable return) rather than from the chain being
// unreachable.
func IsContractFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, jarviscommon.ErrChainUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !Classify(err).IsTransient()
}

// Contracts does typed ERC20/721/1155 reads through a ChainClient. A nil
// block means latest.
type Contracts struct {
	client ChainClient
}

func NewContracts(client ChainClient) *Contracts {
	return &Contracts{client: client}
}

func (c *Contracts) read(ctx context.Context, block *big.Int, caddr common.Address, a *abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := a.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	out, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &caddr,
		Data: data,
	}, block)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s on %s: %w", method, caddr.Hex(), ErrNoContractData)
	}
	values, err := a.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("%s on %s: %w: %w", method, caddr.Hex(), ErrNoContractData, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s on %s: %w", method, caddr.Hex(), ErrNoContractData)
	}
	return values, nil
}

func (c *Contracts) Allowance(ctx context.Context, block *big.Int, token, owner, spender common.Address) (*big.Int, error) {
	values, err := c.read(ctx, block, token, jarviscommon.GetERC20ABI(), "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	result, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("allowance on %s: unexpected type %T", token.Hex(), values[0])
	}
	return result, nil
}

// IsApprovedForAll has the same selector for ERC721 and ERC1155.
func (c *Contracts) IsApprovedForAll(ctx context.Context, block *big.Int, token, owner, operator common.Address) (bool, error) {
	values, err := c.read(ctx, block, token, jarviscommon.GetERC721ABI(), "isApprovedForAll", owner, operator)
	if err != nil {
		return false, err
	}
	result, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("isApprovedForAll on %s: unexpected type %T", token.Hex(), values[0])
	}
	return result, nil
}

func (c *Contracts) GetApproved(ctx context.Context, block *big.Int, token common.Address, tokenID *big.Int) (common.Address, error) {
	values, err := c.read(ctx, block, token, jarviscommon.GetERC721ABI(), "getApproved", tokenID)
	if err != nil {
		return common.Address{}, err
	}
	result, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("getApproved on %s: unexpected type %T", token.Hex(), values[0])
	}
	return result, nil
}

func (c *Contracts) SupportsInterface(ctx context.Context, block *big.Int, token common.Address, interfaceID [4]byte) (bool, error) {
	values, err := c.read(ctx, block, token, jarviscommon.GetERC721ABI(), "supportsInterface", interfaceID)
	if err != nil {
		return false, err
	}
	result, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("supportsInterface on %s: unexpected type %T", token.Hex(), values[0])
	}
	return result, nil
}

func (c *Contracts) stringOrBytes32(ctx context.Context, block *big.Int, token common.Address, method string) (string, error) {
	values, err := c.read(ctx, block, token, jarviscommon.GetERC20ABI(), method)
	if err == nil {
		if s, ok := values[0].(string); ok {
			return strings.TrimSpace(s), nil
		}
	}
	if err != nil && !IsContractFailure(err) {
		return "", err
	}
	values, err2 := c.read(ctx, block, token, jarviscommon.GetBytes32ERC20ABI(), method)
	if err2 != nil {
		if err != nil {
			return "", err
		}
		return "", err2
	}
	raw, ok := values[0].([32]byte)
	if !ok {
		return "", fmt.Errorf("%s on %s: unexpected type %T", method, token.Hex(), values[0])
	}
	return strings.TrimSpace(string(bytes.TrimRight(raw[:], "\x00"))), nil
}

// Symbol falls back to the bytes32 variant used by a few early tokens.
func (c *Contracts) Symbol(ctx context.Context, block *big.Int, token common.Address) (string, error) {
	return c.stringOrBytes32(ctx, block, token, "symbol")
}

func (c *Contracts) Name(ctx context.Context, block *big.Int, token common.Address) (string, error) {
	return c.stringOrBytes32(ctx, block, token, "name")
}

func (c *Contracts) Decimals(ctx context.Context, block *big.Int, token common.Address) (uint8, error) {
	values, err := c.read(ctx, block, token, jarviscommon.GetERC20ABI(), "decimals")
	if err != nil {
		return 0, err
	}
	result, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals on %s: unexpected type %T", token.Hex(), values[0])
	}
	return result, nil
}

func (c *Contracts) IsContract(ctx context.Context, block *big.Int, addr common.Address) (bool, error) {
	code, err := c.client.CodeAt(ctx, addr, block)
	if err != nil {
		return false, err
	}
	return len(code) > 0, nil
}

func (c *Contracts) BlockTime(ctx context.Context, number uint64) (time.Time, error) {
	header, err := c.client.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(header.Time), 0).UTC(), nil
}

// FinalizedBlock returns the chain's finalized height. Nodes that do not
// know the finalized tag get latest minus confirmations instead.
func (c *Contracts) FinalizedBlock(ctx context.Context, confirmations uint64) (uint64, error) {
	header, err := c.client.HeaderByNumber(ctx, big.NewInt(int64(rpc.FinalizedBlockNumber)))
	if err == nil && header != nil && header.Number != nil {
		return header.Number.Uint64(), nil
	}
	if err != nil && errors.Is(err, jarviscommon.ErrChainUnavailable) {
		return 0, err
	}
	latest, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, err
	}
	n := latest.Number.Uint64()
	if n < confirmations {
		return 0, nil
	}
	return n - confirmations, nil
}
