package spender

import (
	"context"
	"errors"
	"math/big"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	jarviscommon "github.com/tranvictor/approvalscan/common"
	"github.com/tranvictor/approvalscan/metrics"
	"github.com/tranvictor/approvalscan/util/addrbook"
	"github.com/tranvictor/approvalscan/util/explorers"
	"github.com/tranvictor/approvalscan/util/reader"
)

type Info struct {
	Address    common.Address
	IsContract bool
	Verified   bool
	// Name comes from the known entity directory, else from the explorer.
	// Empty when neither knows the address.
	Name string
}

// Degraded is the classification used when lookups fail: assume a
// contract, never verified, no name.
func Degraded(addr common.Address) Info {
	return Info{Address: addr, IsContract: true}
}

type Classifier struct {
	contracts *reader.Contracts
	verifier  explorers.SourceVerifier
	book      addrbook.AddressResolver
	chainID   uint64
	fanout    int
	logger    *zap.Logger
}

// NewClassifier builds a classifier. verifier may be nil when no explorer
// is configured; known directory entries then still count as verified.
func NewClassifier(
	contracts *reader.Contracts,
	verifier explorers.SourceVerifier,
	book addrbook.AddressResolver,
	chainID uint64,
	fanout int,
	logger *zap.Logger,
) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		contracts: contracts,
		verifier:  verifier,
		book:      book,
		chainID:   chainID,
		fanout:    fanout,
		logger:    logger,
	}
}

// ClassifyAll classifies each distinct spender once, concurrently. It never
// fails; the only error it returns is the context's.
func (c *Classifier) ClassifyAll(ctx context.Context, spenders []common.Address, block uint64) (map[common.Address]Info, error) {
	unique := []common.Address{}
	seen := map[common.Address]bool{}
	for _, s := range spenders {
		if !seen[s] {
			seen[s] = true
			unique = append(unique, s)
		}
	}

	var mu sync.Mutex
	result := make(map[common.Address]Info, len(unique))
	at := new(big.Int).SetUint64(block)
	_ = jarviscommon.RunParallel(ctx, c.fanout, unique, func(ctx context.Context, s common.Address) error {
		info := c.Classify(ctx, s, at)
		mu.Lock()
		result[s] = info
		mu.Unlock()
		return nil
	})
	return result, ctx.Err()
}

// Classify looks one spender up. Lookup failures degrade: a failed code
// read means an unnamed unverified contract, a failed verification lookup
// means "unverified".
func (c *Classifier) Classify(ctx context.Context, addr common.Address, at *big.Int) Info {
	info := Degraded(addr)
	isContract, err := c.contracts.IsContract(ctx, at, addr)
	if err != nil {
		c.degraded(addr, "code", err)
		return info
	}
	entry, known := c.book.Resolve(c.chainID, addr)
	if known {
		info.Name = entry.Name
	}
	info.IsContract = isContract
	if !isContract {
		return info
	}

	if c.verifier == nil {
		info.Verified = known
		return info
	}
	source, err := c.verifier.ContractSource(ctx, addr)
	if err != nil {
		if !errors.Is(err, explorers.ErrNoAPIKey) {
			c.degraded(addr, "explorer", err)
		}
		info.Verified = known
		return info
	}
	info.Verified = source.Verified || known
	if info.Name == "" {
		info.Name = source.Name
	}
	return info
}

func (c *Classifier) degraded(addr common.Address, source string, err error) {
	metrics.ClassificationDegraded.WithLabelValues(strconv.FormatUint(c.chainID, 10), source).Inc()
	c.logger.Warn("spender classification degraded",
		zap.String("spender", addr.Hex()),
		zap.String("source", source),
		zap.Error(err),
	)
}
