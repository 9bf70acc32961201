package reader

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainClient is everything a scan needs from a chain: one event query and
// three state reads. Reads take an explicit block so a whole scan sees one
// consistent height.
type ChainClient interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// EthereumNode is a single RPC endpoint. EthReader fans calls out to a set
// of them.
type EthereumNode interface {
	ChainClient
	NodeName() string
	NodeURL() string
}
