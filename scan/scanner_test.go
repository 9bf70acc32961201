package scan_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jarviscommon "github.com/tranvictor/approvalscan/common"
	"github.com/tranvictor/approvalscan/networks"
	"github.com/tranvictor/approvalscan/risk"
	"github.com/tranvictor/approvalscan/scan"
	"github.com/tranvictor/approvalscan/util/addrbook"
	"github.com/tranvictor/approvalscan/util/explorers"
	"github.com/tranvictor/approvalscan/util/reader"
	"github.com/tranvictor/approvalscan/util/reader/fakereader"
)

var (
	owner   = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	router  = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	drainer = common.HexToAddress("0x00000000000000000000000000000000dEaDBeef")
	eoa     = common.HexToAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	usdc    = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	dai     = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	bayc    = common.HexToAddress("0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D")

	now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
)

type verifier map[common.Address]explorers.ContractSource

func (v verifier) ContractSource(ctx context.Context, addr common.Address) (explorers.ContractSource, error) {
	return v[addr], nil
}

func testNetwork() networks.Network {
	return networks.NewGenericEtherscanNetwork(networks.GenericEtherscanNetworkConfig{
		Name:             "testnet",
		ChainID:          31337,
		BlockExplorerURL: "https://explorer.test",
		LogRangeLimit:    1_000_000,
	})
}

func daysAgo(d int) uint64 {
	return uint64(now.Add(-time.Duration(d) * 24 * time.Hour).Unix())
}

func newScanner(fake *fakereader.FakeReader, states *[]scan.State) *scan.Scanner {
	opts := scan.Options{
		Timeout: 5 * time.Second,
		FanOut:  1,
		Now:     func() time.Time { return now },
	}
	if states != nil {
		opts.OnStateChange = func(s scan.State) { *states = append(*states, s) }
	}
	return scan.NewScanner(
		testNetwork(),
		fake,
		verifier{router: {Name: "UniswapV2Router02", Verified: true}},
		addrbook.Map{},
		opts,
		nil,
	)
}

// wallet is a mainnet-like history: one unlimited USDC approval to an
// unverified contract, an exact DAI approval to a verified router, a DAI
// approval revoked since, and an NFT approval whose token moved on.
func wallet() *fakereader.FakeReader {
	fake := fakereader.New(1_000)
	fake.SetCode(drainer, []byte{0x60})
	fake.SetCode(router, []byte{0x60})

	fake.AddApproval(usdc, owner, drainer, jarviscommon.MaxUint256, 100, 0, 0)
	fake.SetBlockTime(100, daysAgo(200))
	fake.Token(usdc).SetAllowance(owner, drainer, jarviscommon.MaxUint256)

	fake.AddApproval(dai, owner, router, big.NewInt(5e18), 900, 0, 0)
	fake.SetBlockTime(900, daysAgo(10))
	fake.Token(dai).SetAllowance(owner, router, big.NewInt(5e18))

	fake.AddApproval(dai, owner, eoa, big.NewInt(7), 500, 0, 0)
	fake.Token(dai).SetAllowance(owner, eoa, big.NewInt(0))

	fake.AddTokenApproval(bayc, owner, eoa, big.NewInt(3), 600, 0, 0)
	fake.Token(bayc).SetApproved(big.NewInt(3), common.Address{})
	return fake
}

func TestScanScoresLiveApprovals(t *testing.T) {
	var states []scan.State
	result, err := newScanner(wallet(), &states).Scan(context.Background(), owner.Hex())
	require.NoError(t, err)

	assert.Equal(t, owner.Hex(), result.Wallet)
	assert.Equal(t, uint64(31337), result.ChainID)
	assert.Equal(t, uint64(1_000), result.BlockNumber)
	assert.Equal(t, scan.StatusComplete, result.Status)
	assert.Equal(t, risk.ScoringVersion, result.ScoringVersion)
	assert.NotEmpty(t, result.ScanID)

	assert.Equal(t, scan.Summary{TotalApprovals: 2, Dangerous: 1, Safe: 1}, result.Summary)
	require.Len(t, result.Approvals.Dangerous, 1)
	require.Len(t, result.Approvals.Safe, 1)
	assert.Empty(t, result.Approvals.Risky)

	bad := result.Approvals.Dangerous[0]
	assert.Equal(t, 75, bad.RiskScore)
	assert.Equal(t, risk.Dangerous, bad.Category)
	assert.Equal(t, []string{risk.ReasonUnlimited, risk.ReasonUnverified, risk.ReasonOld}, bad.RiskReasons)
	assert.Equal(t, usdc.Hex(), bad.Token.Address)
	assert.Equal(t, scan.TypeERC20, bad.ApprovalType)
	assert.Equal(t, jarviscommon.MaxUint256.String(), bad.Allowance)
	assert.Equal(t, scan.UnlimitedLabel, bad.AllowanceFormatted)
	assert.True(t, bad.IsUnlimited)
	assert.Equal(t, 200, bad.AgeDays)
	assert.Equal(t, uint64(100), bad.GrantedBlock)
	assert.True(t, bad.Spender.IsContract)
	assert.False(t, bad.Spender.Verified)
	assert.Equal(t, "https://revoke.cash/address/"+owner.Hex()+"?chainId=31337", bad.RevokeURL)
	assert.Equal(t, "https://explorer.test/address/"+drainer.Hex(), bad.EtherscanURL)

	good := result.Approvals.Safe[0]
	assert.Equal(t, 0, good.RiskScore)
	assert.Empty(t, good.RiskReasons)
	assert.Equal(t, "UniswapV2Router02", good.Spender.Name)
	assert.Equal(t, 10, good.AgeDays)

	for _, a := range result.All() {
		assert.NotEqual(t, eoa.Hex(), a.Spender.Address, "revoked and superseded grants never show")
	}

	assert.Equal(t, []scan.State{
		scan.StateStarted,
		scan.StateCollectingEvents,
		scan.StateResolving,
		scan.StateClassifying,
		scan.StateScoring,
		scan.StateAggregating,
		scan.StateCompleted,
	}, states)
}

func TestScanTotalsAddUp(t *testing.T) {
	result, err := newScanner(wallet(), nil).Scan(context.Background(), owner.Hex())
	require.NoError(t, err)
	s := result.Summary
	assert.Equal(t, s.TotalApprovals, s.Dangerous+s.Risky+s.Safe)
	assert.Len(t, result.All(), s.TotalApprovals)
}

func TestScanCleanWallet(t *testing.T) {
	result, err := newScanner(fakereader.New(1_000), nil).Scan(context.Background(), owner.Hex())
	require.NoError(t, err)
	assert.Equal(t, 100, result.HygieneScore)
	assert.Equal(t, risk.LabelClean, result.HygieneLabel)

	raw, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"approvals":{"dangerous":[],"risky":[],"safe":[]}`)
}

func TestScanRejectsInvalidAddressBeforeIO(t *testing.T) {
	fake := wallet()
	var states []scan.State
	_, err := newScanner(fake, &states).Scan(context.Background(), "0x1234")
	assert.ErrorIs(t, err, jarviscommon.ErrInvalidAddress)
	assert.Zero(t, fake.Calls(fakereader.MethodHeaderByNumber))
	assert.Zero(t, fake.Calls(fakereader.MethodFilterLogs))
	assert.Equal(t, scan.StateFailed, states[len(states)-1])
}

func TestScanFailsWhenChainUnavailable(t *testing.T) {
	fake := wallet()
	fake.FailNext(fakereader.MethodFilterLogs, fmt.Errorf("%w: eth_getLogs failed after 3 attempts", jarviscommon.ErrChainUnavailable))
	var states []scan.State
	result, err := newScanner(fake, &states).Scan(context.Background(), owner.Hex())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, jarviscommon.ErrChainUnavailable)
	assert.Equal(t, jarviscommon.CodeChainUnavailable, jarviscommon.ErrorCode(err))
	assert.Equal(t, scan.StateFailed, states[len(states)-1])
}

func TestScanDeadlineIsChainUnavailable(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	result, err := newScanner(wallet(), nil).Scan(ctx, owner.Hex())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, jarviscommon.ErrChainUnavailable)
}

func TestScanFailsWhenNoApprovalCanBeVerified(t *testing.T) {
	fake := wallet()
	outage := fmt.Errorf("%w: eth_call", jarviscommon.ErrChainUnavailable)
	for i := 0; i < 20; i++ {
		fake.FailNext(fakereader.MethodCallContract, outage)
	}
	var states []scan.State
	result, err := newScanner(fake, &states).Scan(context.Background(), owner.Hex())
	assert.Nil(t, result, "no clean report for a wallet that could not be read")
	assert.ErrorIs(t, err, jarviscommon.ErrChainUnavailable)
	assert.Equal(t, jarviscommon.CodeChainUnavailable, jarviscommon.ErrorCode(err))
	assert.Equal(t, scan.StateFailed, states[len(states)-1])
}

func TestScanFlagsIncompleteResolution(t *testing.T) {
	fake := wallet()
	// the first live read is lost to an outage
	fake.FailNext(fakereader.MethodCallContract, fmt.Errorf("%w: eth_call", jarviscommon.ErrChainUnavailable))
	result, err := newScanner(fake, nil).Scan(context.Background(), owner.Hex())
	require.Error(t, err)
	assert.ErrorIs(t, err, jarviscommon.ErrResolutionIncomplete)
	require.NotNil(t, result)
	assert.True(t, result.Incomplete())
	assert.Equal(t, 1, result.Unresolved)
	assert.Equal(t, 1, result.Summary.TotalApprovals)
}

func TestResultJSONKeepsLargeAllowances(t *testing.T) {
	result, err := newScanner(wallet(), nil).Scan(context.Background(), owner.Hex())
	require.NoError(t, err)

	raw, err := json.Marshal(result)
	require.NoError(t, err)
	var back scan.Result
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, *result, back)

	allowance := back.Approvals.Dangerous[0].Allowance
	assert.Len(t, allowance, 78)
	assert.Equal(t, "115792089237316195423570985008687907853269984665640564039457584007913129639935", allowance)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	for _, key := range []string{"wallet", "chain_id", "hygiene_score", "hygiene_label", "summary", "approvals"} {
		assert.Contains(t, generic, key)
	}
	first := generic["approvals"].(map[string]any)["dangerous"].([]any)[0].(map[string]any)
	for _, key := range []string{
		"token", "spender", "approval_type", "allowance", "is_unlimited", "age_days",
		"risk_score", "category", "risk_reasons", "revoke_url", "etherscan_url",
	} {
		assert.Contains(t, first, key)
	}
}

func TestServiceRejectsUnsupportedChain(t *testing.T) {
	called := false
	svc := scan.NewService(func(n networks.Network) (reader.ChainClient, explorers.SourceVerifier) {
		called = true
		return fakereader.New(1), nil
	}, addrbook.Map{}, scan.Options{}, nil)

	_, err := svc.Scan(context.Background(), owner.Hex(), 999_999)
	assert.ErrorIs(t, err, jarviscommon.ErrUnsupportedChain)
	assert.False(t, called)

	_, err = svc.Scan(context.Background(), "not an address", 1)
	assert.ErrorIs(t, err, jarviscommon.ErrInvalidAddress)
}

func TestServiceReusesScannerPerChain(t *testing.T) {
	built := 0
	svc := scan.NewService(func(n networks.Network) (reader.ChainClient, explorers.SourceVerifier) {
		built++
		return fakereader.New(1), nil
	}, addrbook.Map{}, scan.Options{}, nil)

	a, err := svc.ScannerFor(1)
	require.NoError(t, err)
	b, err := svc.ScannerFor(1)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, built)
	assert.Equal(t, uint64(1), a.Network().GetChainID())
}

type closingClient struct {
	*fakereader.FakeReader
	closed int
}

func (c *closingClient) Close() { c.closed++ }

func TestServiceCloseReleasesClients(t *testing.T) {
	clients := []*closingClient{}
	svc := scan.NewService(func(n networks.Network) (reader.ChainClient, explorers.SourceVerifier) {
		c := &closingClient{FakeReader: fakereader.New(1)}
		clients = append(clients, c)
		return c, nil
	}, addrbook.Map{}, scan.Options{}, nil)

	_, err := svc.ScannerFor(1)
	require.NoError(t, err)
	_, err = svc.ScannerFor(137)
	require.NoError(t, err)

	svc.Close()
	require.Len(t, clients, 2)
	for _, c := range clients {
		assert.Equal(t, 1, c.closed)
	}
}
