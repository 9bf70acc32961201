package approval

import (
	"context"
	"fmt"
	"iter"
	"math/big"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	jarviscommon "github.com/tranvictor/approvalscan/common"
	"github.com/tranvictor/approvalscan/metrics"
	"github.com/tranvictor/approvalscan/networks"
	"github.com/tranvictor/approvalscan/util/reader"
)

// Collector walks the whole history of a chain for Approval and
// ApprovalForAll logs whose owner topic is the wallet.
type Collector struct {
	client    reader.ChainClient
	chain     string
	maxWindow uint64
	start     uint64
	logger    *zap.Logger
}

func NewCollector(client reader.ChainClient, network networks.Network, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxWindow := network.GetLogRangeLimit()
	if maxWindow == 0 {
		maxWindow = networks.DEFAULT_LOG_RANGE_LIMIT
	}
	return &Collector{
		client:    client,
		chain:     strconv.FormatUint(network.GetChainID(), 10),
		maxWindow: maxWindow,
		start:     network.GetStartBlock(),
		logger:    logger,
	}
}

func (c *Collector) filter(owner common.Address, from, to uint64) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Topics: [][]common.Hash{
			{jarviscommon.ApprovalTopic, jarviscommon.ApprovalForAllTopic},
			{jarviscommon.AddressToTopic(owner)},
		},
	}
}

// Collect lazily yields every approval event of wallet up to toBlock, in
// chain order. The sequence stops after yielding the first error: an
// ErrInvalidAddress for a malformed wallet, or the chain client's error
// (wrapping ErrChainUnavailable once its retries are exhausted). A node
// that refuses even a one block window is reported as unavailable too.
//
// Windows start at the network's log range limit. A window the node
// refuses as too large is halved and retried; after a success the window
// doubles again up to the limit.
func (c *Collector) Collect(ctx context.Context, wallet string, toBlock uint64) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		owner, err := jarviscommon.ParseAddress(wallet)
		if err != nil {
			yield(Event{}, err)
			return
		}
		window := c.maxWindow
		for from := c.start; from <= toBlock; {
			to := toBlock
			if toBlock-from >= window {
				to = from + window - 1
			}
			logs, err := c.client.FilterLogs(ctx, c.filter(owner, from, to))
			if err != nil {
				if reader.IsRangeError(err) && window > 1 {
					window /= 2
					metrics.CollectorWindowsTotal.WithLabelValues(c.chain, "shrunk").Inc()
					c.logger.Debug("log window rejected, halving",
						zap.Uint64("from", from),
						zap.Uint64("to", to),
						zap.Uint64("window", window),
						zap.Error(err),
					)
					continue
				}
				if reader.IsRangeError(err) {
					// the node refuses even a single block
					err = fmt.Errorf("%w: %w", jarviscommon.ErrChainUnavailable, err)
				}
				yield(Event{}, fmt.Errorf("querying approval logs %d-%d: %w", from, to, err))
				return
			}
			metrics.CollectorWindowsTotal.WithLabelValues(c.chain, "ok").Inc()

			for _, e := range c.decode(owner, logs) {
				if !yield(e, nil) {
					return
				}
			}
			from = to + 1
			if window < c.maxWindow {
				window = min(window*2, c.maxWindow)
			}
			if to == toBlock {
				return
			}
		}
	}
}

func (c *Collector) decode(owner common.Address, logs []types.Log) []Event {
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		if logs[i].TxIndex != logs[j].TxIndex {
			return logs[i].TxIndex < logs[j].TxIndex
		}
		return logs[i].Index < logs[j].Index
	})
	events := make([]Event, 0, len(logs))
	for _, l := range logs {
		if l.Removed {
			continue
		}
		e, err := DecodeLog(l)
		if err != nil {
			c.logger.Warn("skipping undecodable log",
				zap.String("token", l.Address.Hex()),
				zap.String("tx_hash", l.TxHash.Hex()),
				zap.Error(err),
			)
			continue
		}
		// nodes match topics positionally, guard against sloppy providers
		if e.Owner != owner {
			continue
		}
		events = append(events, e)
	}
	return events
}
