package reader

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	jarviscommon "github.com/tranvictor/approvalscan/common"
	"github.com/tranvictor/approvalscan/config"
	"github.com/tranvictor/approvalscan/metrics"
	"github.com/tranvictor/approvalscan/networks"
)

const (
	DEFAULT_BACKOFF_BASE time.Duration = 200 * time.Millisecond
	DEFAULT_BACKOFF_MAX  time.Duration = 2 * time.Second
)

type Options struct {
	// Timeout bounds a single attempt against the node set.
	Timeout     time.Duration
	MaxAttempts int
	Backoff     Backoff
	// RatePerSecond <= 0 disables rate limiting.
	RatePerSecond float64
	Burst         int
	Logger        *zap.Logger
}

// DefaultOptions reads the tunables from config.
func DefaultOptions(logger *zap.Logger) Options {
	return Options{
		Timeout:       config.RPCTimeout,
		MaxAttempts:   config.MaxAttempts,
		Backoff:       Backoff{Base: DEFAULT_BACKOFF_BASE, Max: DEFAULT_BACKOFF_MAX},
		RatePerSecond: config.RPCRatePerSecond,
		Burst:         config.RPCBurst,
		Logger:        logger,
	}
}

// EthReader is a ChainClient over several nodes of one chain. Each attempt
// asks every node concurrently and takes the first answer. Attempts that
// fail only with transient errors are repeated with capped exponential
// backoff; when they run out the error wraps common.ErrChainUnavailable.
// Terminal errors such as reverts come back unchanged so callers can tell a
// misbehaving contract from an outage.
type EthReader struct {
	chain   string
	nodes   []EthereumNode
	limiter *rate.Limiter
	opts    Options
	logger  *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewEthReaderGeneric(chainID uint64, nodes map[string]string, opts Options) *EthReader {
	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	ns := make([]EthereumNode, 0, len(nodes))
	for _, name := range names {
		ns = append(ns, NewOneNodeReader(name, nodes[name]))
	}
	return NewEthReaderWithNodes(chainID, ns, opts)
}

func NewEthReaderWithNodes(chainID uint64, nodes []EthereumNode, opts Options) *EthReader {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DEFAULT_RPC_TIMEOUT
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	return &EthReader{
		chain:   strconv.FormatUint(chainID, 10),
		nodes:   nodes,
		limiter: limiter,
		opts:    opts,
		logger:  opts.Logger.With(zap.Uint64("chain_id", chainID)),
		sleep:   sleepContext,
	}
}

// Close drops the connections of every node that holds one.
func (r *EthReader) Close() {
	for _, n := range r.nodes {
		if c, ok := n.(interface{ Close() }); ok {
			c.Close()
		}
	}
}

// NewEthReader connects to the nodes configured for network.
func NewEthReader(network networks.Network, opts Options) *EthReader {
	return NewEthReaderGeneric(network.GetChainID(), networks.Nodes(network), opts)
}

func wrapError(e error, name string) error {
	if e == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, e)
}

type nodeResponse[T any] struct {
	value T
	err   error
}

// raceNodes asks every node and returns the first success. When all nodes
// fail it returns every error joined, plus whether any of them was terminal.
func raceNodes[T any](ctx context.Context, nodes []EthereumNode, call func(context.Context, EthereumNode) (T, error)) (T, bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resCh := make(chan nodeResponse[T], len(nodes))
	for i := range nodes {
		n := nodes[i]
		go func() {
			v, err := call(ctx, n)
			resCh <- nodeResponse[T]{value: v, err: wrapError(err, n.NodeName())}
		}()
	}
	var zero T
	errs := []error{}
	terminal := false
	for i := 0; i < len(nodes); i++ {
		result := <-resCh
		if result.err == nil {
			return result.value, false, nil
		}
		if !Classify(result.err).IsTransient() {
			terminal = true
		}
		errs = append(errs, result.err)
	}
	return zero, terminal, errors.Join(errs...)
}

func do[T any](ctx context.Context, er *EthReader, method string, call func(context.Context, EthereumNode) (T, error)) (T, error) {
	var zero T
	if len(er.nodes) == 0 {
		return zero, fmt.Errorf("%w: no node configured for chain %s", jarviscommon.ErrChainUnavailable, er.chain)
	}
	var lastErr error
	for attempt := 0; attempt < er.opts.MaxAttempts; attempt++ {
		if attempt > 0 {
			metrics.RPCRetriesTotal.WithLabelValues(er.chain, method).Inc()
			delay := er.opts.Backoff.Delay(attempt - 1)
			er.logger.Debug("retrying rpc call",
				zap.String("method", method),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if err := er.sleep(ctx, delay); err != nil {
				break
			}
		}
		if er.limiter != nil {
			if err := er.limiter.Wait(ctx); err != nil {
				break
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, er.opts.Timeout)
		v, terminal, err := raceNodes(attemptCtx, er.nodes, call)
		cancel()
		if err == nil {
			metrics.RPCCallsTotal.WithLabelValues(er.chain, method, "ok").Inc()
			return v, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if terminal {
			metrics.RPCCallsTotal.WithLabelValues(er.chain, method, "terminal").Inc()
			return zero, err
		}
	}

	metrics.RPCCallsTotal.WithLabelValues(er.chain, method, "unavailable").Inc()
	if ctx.Err() != nil {
		if lastErr == nil {
			lastErr = ctx.Err()
		}
		return zero, fmt.Errorf("%w: %s: %w", jarviscommon.ErrChainUnavailable, method, errors.Join(ctx.Err(), lastErr))
	}
	return zero, fmt.Errorf("%w: %s failed after %d attempts: %w",
		jarviscommon.ErrChainUnavailable, method, er.opts.MaxAttempts, lastErr)
}

func (er *EthReader) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return do(ctx, er, "eth_getLogs", func(ctx context.Context, n EthereumNode) ([]types.Log, error) {
		return n.FilterLogs(ctx, q)
	})
}

func (er *EthReader) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return do(ctx, er, "eth_call", func(ctx context.Context, n EthereumNode) ([]byte, error) {
		return n.CallContract(ctx, msg, blockNumber)
	})
}

func (er *EthReader) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return do(ctx, er, "eth_getCode", func(ctx context.Context, n EthereumNode) ([]byte, error) {
		return n.CodeAt(ctx, account, blockNumber)
	})
}

func (er *EthReader) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return do(ctx, er, "eth_getBlockByNumber", func(ctx context.Context, n EthereumNode) (*types.Header, error) {
		return n.HeaderByNumber(ctx, number)
	})
}
