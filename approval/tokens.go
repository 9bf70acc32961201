package approval

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	jarviscommon "github.com/tranvictor/approvalscan/common"
	"github.com/tranvictor/approvalscan/util/addrbook"
	"github.com/tranvictor/approvalscan/util/cache"
	"github.com/tranvictor/approvalscan/util/reader"
)

const (
	UnknownSymbol = "Unknown"
	UnknownName   = "Unknown Token"
)

type TokenInfo struct {
	Address  common.Address
	Standard Standard
	Symbol   string
	Name     string
	// Decimals is nil when neither the contract nor the directory know it.
	Decimals *uint8
}

// TokenResolver reads token metadata, falling back to the curated token
// directory and then to "Unknown". One resolver serves one scan; its cache
// dies with it.
type TokenResolver struct {
	contracts *reader.Contracts
	book      addrbook.AddressResolver
	chainID   uint64
	block     *big.Int
	cache     *cache.Cache[TokenInfo]
	logger    *zap.Logger
}

func NewTokenResolver(contracts *reader.Contracts, book addrbook.AddressResolver, chainID uint64, block uint64, logger *zap.Logger) *TokenResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenResolver{
		contracts: contracts,
		book:      book,
		chainID:   chainID,
		block:     new(big.Int).SetUint64(block),
		cache:     cache.New[TokenInfo](),
		logger:    logger,
	}
}

// Resolve never fails. Metadata it cannot read is filled from the directory
// or left as Unknown.
func (t *TokenResolver) Resolve(ctx context.Context, a Resolved) TokenInfo {
	key := fmt.Sprintf("%s/%s/%t", a.Token.Hex(), a.Standard, a.ForAll)
	info, _ := t.cache.GetOrLoad(key, func() (TokenInfo, error) {
		return t.load(ctx, a), nil
	})
	return info
}

func (t *TokenResolver) load(ctx context.Context, a Resolved) TokenInfo {
	info := TokenInfo{Address: a.Token, Standard: a.Standard}
	if a.ForAll {
		info.Standard = t.detectMultiToken(ctx, a.Token)
	}

	if symbol, err := t.contracts.Symbol(ctx, t.block, a.Token); err == nil {
		info.Symbol = symbol
	}
	if name, err := t.contracts.Name(ctx, t.block, a.Token); err == nil {
		info.Name = name
	}
	if info.Standard == ERC20 {
		if decimals, err := t.contracts.Decimals(ctx, t.block, a.Token); err == nil {
			info.Decimals = &decimals
		} else {
			t.logger.Debug("token decimals unavailable", zap.String("token", a.Token.Hex()), zap.Error(err))
		}
	}

	if entry, found := t.book.Resolve(t.chainID, a.Token); found && entry.Kind == addrbook.KindToken {
		if info.Symbol == "" {
			info.Symbol = entry.Symbol
		}
		if info.Name == "" {
			info.Name = entry.Name
		}
		if info.Decimals == nil && info.Standard == ERC20 {
			info.Decimals = entry.Decimals
		}
	}
	if info.Symbol == "" {
		info.Symbol = UnknownSymbol
	}
	if info.Name == "" {
		info.Name = UnknownName
	}
	return info
}

// detectMultiToken tells ERC1155 collections from ERC721 ones through
// ERC-165. Anything that does not answer is reported as ERC721.
func (t *TokenResolver) detectMultiToken(ctx context.Context, token common.Address) Standard {
	ok, err := t.contracts.SupportsInterface(ctx, t.block, token, jarviscommon.InterfaceID(jarviscommon.ERC1155InterfaceID))
	if err == nil && ok {
		return ERC1155
	}
	return ERC721
}
