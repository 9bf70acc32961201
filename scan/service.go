package scan

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	jarviscommon "github.com/tranvictor/approvalscan/common"
	"github.com/tranvictor/approvalscan/networks"
	"github.com/tranvictor/approvalscan/util/addrbook"
	"github.com/tranvictor/approvalscan/util/explorers"
	"github.com/tranvictor/approvalscan/util/reader"
)

// Backend connects a network's chain client and source verifier.
type Backend func(network networks.Network) (reader.ChainClient, explorers.SourceVerifier)

// LiveBackend reads the chain through the network's RPC nodes and checks
// sources on its block explorer.
func LiveBackend(logger *zap.Logger) Backend {
	return func(network networks.Network) (reader.ChainClient, explorers.SourceVerifier) {
		return reader.NewEthReader(network, reader.DefaultOptions(logger)), explorers.NewVerifier(network)
	}
}

// Service hands out one Scanner per supported chain. Scanners share their
// chain client (and its rate limiter) but no scan state.
type Service struct {
	backend Backend
	book    addrbook.AddressResolver
	opts    Options
	logger  *zap.Logger

	mu       sync.Mutex
	scanners map[uint64]*Scanner
	clients  []reader.ChainClient
}

func NewService(backend Backend, book addrbook.AddressResolver, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		backend:  backend,
		book:     book,
		opts:     opts,
		logger:   logger,
		scanners: map[uint64]*Scanner{},
	}
}

func (s *Service) ScannerFor(chainID uint64) (*Scanner, error) {
	network, err := networks.GetNetworkByID(chainID)
	if err != nil {
		return nil, fmt.Errorf("%w: chain id %d", jarviscommon.ErrUnsupportedChain, chainID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sc, found := s.scanners[chainID]; found {
		return sc, nil
	}
	client, verifier := s.backend(network)
	sc := NewScanner(network, client, verifier, s.book, s.opts, s.logger)
	s.scanners[chainID] = sc
	s.clients = append(s.clients, client)
	return sc, nil
}

// Close releases the node connections of every chain scanned so far.
// Scanners handed out before stay usable and reconnect on demand.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		if closer, ok := c.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}

// Scan validates wallet and chainID before touching the network.
func (s *Service) Scan(ctx context.Context, wallet string, chainID uint64) (*Result, error) {
	if _, err := jarviscommon.ParseAddress(wallet); err != nil {
		return nil, err
	}
	sc, err := s.ScannerFor(chainID)
	if err != nil {
		return nil, err
	}
	return sc.Scan(ctx, wallet)
}
