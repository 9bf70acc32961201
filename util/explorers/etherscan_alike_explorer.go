package explorers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/time/rate"
)

// Etherscan free tier allows 5 calls per second per key.
const DEFAULT_ETHERSCAN_RPS = 5

type EtherscanLikeExplorer struct {
	ChainID uint64
	APIURL  string
	APIKey  string

	client  *http.Client
	limiter *rate.Limiter
	cache   *sourceCache
}

// NewEtherscanLikeExplorer talks to the Etherscan V2 multichain API (or any
// explorer exposing the same module=contract endpoints) at apiURL.
func NewEtherscanLikeExplorer(apiURL string, chainID uint64, apiKey string) *EtherscanLikeExplorer {
	return &EtherscanLikeExplorer{
		ChainID: chainID,
		APIURL:  strings.TrimSuffix(apiURL, "/"),
		APIKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(DEFAULT_ETHERSCAN_RPS, 1),
		cache:   newSourceCache(),
	}
}

func (ee *EtherscanLikeExplorer) GetSourceCodeAPIURL(address string) string {
	q := url.Values{}
	q.Set("chainid", strconv.FormatUint(ee.ChainID, 10))
	q.Set("module", "contract")
	q.Set("action", "getsourcecode")
	q.Set("address", address)
	q.Set("apikey", ee.APIKey)
	return fmt.Sprintf("%s?%s", ee.APIURL, q.Encode())
}

type sourceCodeResult struct {
	SourceCode     string `json:"SourceCode"`
	ABI            string `json:"ABI"`
	ContractName   string `json:"ContractName"`
	Proxy          string `json:"Proxy"`
	Implementation string `json:"Implementation"`
}

type sourceCodeResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (r *sourceCodeResponse) IsOK() bool {
	return r.Status == "1"
}

func (ee *EtherscanLikeExplorer) ContractSource(ctx context.Context, address common.Address) (ContractSource, error) {
	if ee.APIKey == "" {
		return ContractSource{}, ErrNoAPIKey
	}
	if cached, found := ee.cache.get(address); found {
		return cached, nil
	}
	if err := ee.limiter.Wait(ctx); err != nil {
		return ContractSource{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ee.GetSourceCodeAPIURL(address.Hex()), nil)
	if err != nil {
		return ContractSource{}, err
	}
	resp, err := ee.client.Do(req)
	if err != nil {
		return ContractSource{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ContractSource{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return ContractSource{}, fmt.Errorf("explorer returned http %d", resp.StatusCode)
	}

	parsed := sourceCodeResponse{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ContractSource{}, fmt.Errorf("couldn't unmarshal %s to source code response: %w", string(body), err)
	}
	if !parsed.IsOK() {
		// on failure result is a plain string such as "Invalid API Key"
		var reason string
		_ = json.Unmarshal(parsed.Result, &reason)
		return ContractSource{}, fmt.Errorf("error from explorer: %s %s", parsed.Message, reason)
	}
	results := []sourceCodeResult{}
	if err := json.Unmarshal(parsed.Result, &results); err != nil {
		return ContractSource{}, fmt.Errorf("couldn't unmarshal source code result: %w", err)
	}
	source := ContractSource{}
	if len(results) > 0 {
		r := results[0]
		source.Name = strings.TrimSpace(r.ContractName)
		source.Verified = source.Name != "" || strings.TrimSpace(r.SourceCode) != ""
	}
	ee.cache.set(address, source)
	return source, nil
}
