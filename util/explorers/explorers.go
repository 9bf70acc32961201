package explorers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/approvalscan/networks"
)

const CACHE_TIME_OUT = 10 * time.Minute

// ErrNoAPIKey means the explorer needs a key and none is configured.
var ErrNoAPIKey = errors.New("block explorer api key is not configured")

// ContractSource is what an explorer knows about a contract's published
// source.
type ContractSource struct {
	Name     string
	Verified bool
}

// SourceVerifier looks up whether a contract's source is published on a
// block explorer.
type SourceVerifier interface {
	ContractSource(ctx context.Context, address common.Address) (ContractSource, error)
}

// NewVerifier picks the client matching the network's explorer API.
func NewVerifier(network networks.Network) SourceVerifier {
	switch network.GetBlockExplorerType() {
	case networks.EXPLORER_TYPE_BLOCKSCOUT:
		return NewBlockscoutExplorer(network.GetBlockExplorerAPIURL())
	default:
		return NewEtherscanLikeExplorer(
			network.GetBlockExplorerAPIURL(),
			network.GetChainID(),
			network.GetBlockExplorerAPIKey(),
		)
	}
}

type cacheEntry struct {
	source ContractSource
	at     time.Time
}

// sourceCache remembers successful lookups for CACHE_TIME_OUT. Failures are
// never cached.
type sourceCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

func newSourceCache() *sourceCache {
	return &sourceCache{entries: map[string]cacheEntry{}, now: time.Now}
}

func (c *sourceCache) get(address common.Address) (ContractSource, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := strings.ToLower(address.Hex())
	e, found := c.entries[key]
	if !found || c.now().Sub(e.at) > CACHE_TIME_OUT {
		return ContractSource{}, false
	}
	return e.source, true
}

func (c *sourceCache) set(address common.Address, source ContractSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[strings.ToLower(address.Hex())] = cacheEntry{source: source, at: c.now()}
}
