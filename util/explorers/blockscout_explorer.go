package explorers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// BlockscoutExplorer reads verification status from the Blockscout v2 REST
// API, used by rollups that do not run an Etherscan instance.
type BlockscoutExplorer struct {
	Domain string

	client *http.Client
	cache  *sourceCache
}

func NewBlockscoutExplorer(domain string) *BlockscoutExplorer {
	return &BlockscoutExplorer{
		Domain: strings.TrimSuffix(domain, "/"),
		client: &http.Client{Timeout: 10 * time.Second},
		cache:  newSourceCache(),
	}
}

// SmartContractResponse is the subset of /api/v2/smart-contracts/{address}
// we read.
type SmartContractResponse struct {
	IsVerified          bool   `json:"is_verified"`
	IsFullyVerified     bool   `json:"is_fully_verified"`
	IsPartiallyVerified bool   `json:"is_partially_verified"`
	IsSelfDestructed    bool   `json:"is_self_destructed"`
	Name                string `json:"name"`
}

func (be *BlockscoutExplorer) ContractSource(ctx context.Context, address common.Address) (ContractSource, error) {
	if cached, found := be.cache.get(address); found {
		return cached, nil
	}
	url := fmt.Sprintf("%s/api/v2/smart-contracts/%s", be.Domain, address.Hex())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ContractSource{}, err
	}
	resp, err := be.client.Do(req)
	if err != nil {
		return ContractSource{}, err
	}
	defer resp.Body.Close()

	// blockscout answers 404 for addresses it has no verified source for
	if resp.StatusCode == http.StatusNotFound {
		source := ContractSource{}
		be.cache.set(address, source)
		return source, nil
	}
	if resp.StatusCode != http.StatusOK {
		return ContractSource{}, fmt.Errorf("explorer returned http %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ContractSource{}, err
	}
	parsed := SmartContractResponse{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ContractSource{}, err
	}
	source := ContractSource{
		Name:     strings.TrimSpace(parsed.Name),
		Verified: parsed.IsVerified || parsed.IsFullyVerified || parsed.IsPartiallyVerified,
	}
	be.cache.set(address, source)
	return source, nil
}
