package networks

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"sync"
)

var (
	EthereumMainnet Network = NewGenericEtherscanNetwork(GenericEtherscanNetworkConfig{
		Name:              "mainnet",
		DisplayName:       "Ethereum",
		AlternativeNames:  []string{"ethereum", "eth"},
		ChainID:           1,
		NativeTokenSymbol: "ETH",
		BlockTime:         12,
		NodeVariableName:  "ETHEREUM_MAINNET_NODE",
		DefaultNodes: map[string]string{
			"mainnet-publicnode": "https://ethereum-rpc.publicnode.com",
			"mainnet-llamarpc":   "https://eth.llamarpc.com",
		},
		BlockExplorerURL: "https://etherscan.io",
		LogRangeLimit:    1_000_000,
	})

	Polygon Network = NewGenericEtherscanNetwork(GenericEtherscanNetworkConfig{
		Name:              "polygon",
		DisplayName:       "Polygon",
		AlternativeNames:  []string{"matic"},
		ChainID:           137,
		NativeTokenSymbol: "POL",
		BlockTime:         2,
		NodeVariableName:  "POLYGON_MAINNET_NODE",
		DefaultNodes: map[string]string{
			"polygon-rpc":        "https://polygon-rpc.com",
			"polygon-publicnode": "https://polygon-bor-rpc.publicnode.com",
		},
		BlockExplorerURL: "https://polygonscan.com",
		LogRangeLimit:    2_000_000,
		Confirmations:    256,
	})

	ArbitrumMainnet Network = NewGenericEtherscanNetwork(GenericEtherscanNetworkConfig{
		Name:              "arbitrum",
		DisplayName:       "Arbitrum",
		AlternativeNames:  []string{"arb"},
		ChainID:           42161,
		NativeTokenSymbol: "ETH",
		BlockTime:         1,
		NodeVariableName:  "ARBITRUM_MAINNET_NODE",
		DefaultNodes: map[string]string{
			"arbitrum-official": "https://arb1.arbitrum.io/rpc",
		},
		BlockExplorerURL: "https://arbiscan.io",
		LogRangeLimit:    5_000_000,
	})

	OptimismMainnet Network = NewGenericEtherscanNetwork(GenericEtherscanNetworkConfig{
		Name:              "optimism",
		DisplayName:       "Optimism",
		AlternativeNames:  []string{"op"},
		ChainID:           10,
		NativeTokenSymbol: "ETH",
		BlockTime:         2,
		NodeVariableName:  "OPTIMISM_MAINNET_NODE",
		DefaultNodes: map[string]string{
			"optimism-official": "https://mainnet.optimism.io",
		},
		BlockExplorerURL: "https://optimistic.etherscan.io",
		LogRangeLimit:    2_000_000,
	})

	BaseMainnet Network = NewGenericEtherscanNetwork(GenericEtherscanNetworkConfig{
		Name:              "base",
		DisplayName:       "Base",
		ChainID:           8453,
		NativeTokenSymbol: "ETH",
		BlockTime:         2,
		NodeVariableName:  "BASE_MAINNET_NODE",
		DefaultNodes: map[string]string{
			"base-official": "https://mainnet.base.org",
		},
		BlockExplorerURL: "https://basescan.org",
		LogRangeLimit:    2_000_000,
	})
)

// Insert more Network implementation here to support
// more chains
var supportedNetworks = []Network{
	EthereumMainnet,
	Polygon,
	ArbitrumMainnet,
	OptimismMainnet,
	BaseMainnet,
}

var (
	globalSupportedNetworks = newSupportedNetworks()
	ErrNetworkNotFound      = fmt.Errorf("network not found")
)

type networks struct {
	mu           sync.RWMutex
	networks     map[string]Network
	networksByID map[uint64]Network
}

func (n *networks) register(network Network) {
	n.networks[network.GetName()] = network
	n.networksByID[network.GetChainID()] = network
	for _, an := range network.GetAlternativeNames() {
		n.networks[an] = network
	}
}

func (n *networks) getNetworkByID(id uint64) (Network, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	res, found := n.networksByID[id]
	if !found {
		return nil, fmt.Errorf("network id %d is not supported: %w", id, ErrNetworkNotFound)
	}
	return res, nil
}

func (n *networks) getNetwork(name string) (Network, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	res, found := n.networks[name]
	if !found {
		return nil, fmt.Errorf("network name '%s': %w", name, ErrNetworkNotFound)
	}
	return res, nil
}

func newSupportedNetworks() *networks {
	result := &networks{
		networks:     map[string]Network{},
		networksByID: map[uint64]Network{},
	}
	for _, n := range supportedNetworks {
		if _, found := result.networks[n.GetName()]; found {
			panic(
				fmt.Errorf(
					"network with name or alternative name of '%s' already exists",
					n.GetName(),
				),
			)
		}
		result.register(n)
	}

	// load custom networks from ~/.approvalscan/networks/
	customNetworks, err := loadCustomNetworks()
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to load custom networks: %s. Ignore and continue with built-in networks.\n", err)
		return result
	}

	for _, n := range customNetworks {
		if _, idFound := result.networksByID[n.GetChainID()]; idFound {
			fmt.Fprintf(os.Stderr, "Network with id '%d' already exists. Using custom network.\n", n.GetChainID())
		}
		result.register(n)
	}
	return result
}

func loadCustomNetworks() ([]Network, error) {
	usr, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	customNetworksDir := filepath.Join(usr.HomeDir, ".approvalscan", "networks")
	files, err := filepath.Glob(filepath.Join(customNetworksDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob json files in %s: %w", customNetworksDir, err)
	}

	networks := []Network{}

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", file, err)
		}

		network, err := NewNetworkFromJSON(content)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to parse network from file %s: %s. Ignore and continue with other custom networks.\n", file, err)
			continue
		}

		networks = append(networks, network)
	}

	return networks, nil
}

func NewNetworkFromJSON(content []byte) (Network, error) {
	networkConfig := GenericEtherscanNetworkConfig{}
	err := json.Unmarshal(content, &networkConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal network config: %w", err)
	}
	if networkConfig.Name == "" || networkConfig.ChainID == 0 {
		return nil, fmt.Errorf("network config needs a name and a chain id")
	}
	if networkConfig.BlockExplorerURL == "" {
		return nil, fmt.Errorf("network %s has no block explorer url", networkConfig.Name)
	}

	return NewGenericEtherscanNetwork(networkConfig), nil
}

// GetSupportedNetworks returns every registered network once, ordered by
// chain id.
func GetSupportedNetworks() []Network {
	globalSupportedNetworks.mu.RLock()
	defer globalSupportedNetworks.mu.RUnlock()
	res := []Network{}
	for _, n := range globalSupportedNetworks.networksByID {
		res = append(res, n)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].GetChainID() < res[j].GetChainID() })
	return res
}

func GetNetwork(name string) (Network, error) {
	return globalSupportedNetworks.getNetwork(name)
}

func GetNetworkByID(id uint64) (Network, error) {
	return globalSupportedNetworks.getNetworkByID(id)
}

// AddNetwork registers network for the lifetime of the process.
func AddNetwork(network Network) {
	globalSupportedNetworks.mu.Lock()
	defer globalSupportedNetworks.mu.Unlock()
	globalSupportedNetworks.register(network)
}
