package util_test

import (
	"context"
	"encoding/json"
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
	"github.com/tranvictor/approvalscan/ui"
	"github.com/tranvictor/approvalscan/util"
	"github.com/tranvictor/approvalscan/util/addrbook"
	"github.com/tranvictor/approvalscan/util/reader/fakereader"
)

var (
	owner   = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	drainer = common.HexToAddress("0x00000000000000000000000000000000dEaDBeef")
	usdc    = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

func sampleResult() *scan.Result {
	return &scan.Result{
		Wallet:       owner.Hex(),
		ChainID:      1,
		BlockNumber:  20_123_456,
		Status:       scan.StatusComplete,
		HygieneScore: 55,
		HygieneLabel: risk.LabelAtRisk,
		Summary:      scan.Summary{TotalApprovals: 2, Dangerous: 1, Safe: 1},
		Approvals: scan.Buckets{
			Dangerous: []scan.ScoredApproval{{
				Token:              scan.Token{Address: usdc.Hex(), Symbol: "USDC", Type: "ERC20"},
				Spender:            scan.Spender{Address: drainer.Hex(), IsContract: true},
				ApprovalType:       scan.TypeERC20,
				Allowance:          jarviscommon.MaxUint256.String(),
				AllowanceFormatted: scan.UnlimitedLabel,
				IsUnlimited:        true,
				AgeDays:            1200,
				RiskScore:          85,
				Category:           risk.Dangerous,
				RiskReasons:        []string{risk.ReasonUnlimited, risk.ReasonUnverified, risk.ReasonOld},
				RevokeURL:          "https://revoke.cash/address/" + owner.Hex() + "?chainId=1",
			}},
			Risky: []scan.ScoredApproval{},
			Safe: []scan.ScoredApproval{{
				Token:        scan.Token{Address: "0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D", Symbol: "Unknown"},
				Spender:      scan.Spender{Address: "0x00000000000000ADc04C56Bf30aC9d3c0aAF14dC", IsContract: true, Verified: true, Name: "OpenSea: Seaport 1.5"},
				ApprovalType: scan.TypeERC721,
				TokenID:      "7",
				Category:     risk.Safe,
				RiskReasons:  []string{},
			}},
		},
	}
}

func TestBuildReportDisplay(t *testing.T) {
	d := util.BuildReportDisplay(sampleResult())
	assert.Equal(t, "Ethereum (1)", d.Chain)
	assert.Equal(t, "20,123,456", d.Block)
	assert.Equal(t, ui.StyledText{Text: "55/100 At Risk", Severity: ui.SeverityWarn}, d.Hygiene)
	assert.Empty(t, d.Notice)
	require.Len(t, d.Buckets, 2, "empty buckets are left out")

	bad := d.Buckets[0].Approvals[0]
	assert.Equal(t, "Dangerous (1)", d.Buckets[0].Title)
	assert.Equal(t, "USDC", bad.Token)
	assert.Equal(t, ui.SeverityWarn, bad.Spender.Severity, "unverified contract")
	assert.Equal(t, "0x0000...", bad.Spender.Text[:9])
	assert.Equal(t, "Unlimited", bad.Amount)
	assert.Equal(t, "1,200 days", bad.Age)
	assert.Equal(t, ui.StyledText{Text: "85 dangerous", Severity: ui.SeverityError}, bad.Risk)
	assert.Equal(t, "Unlimited Allowance, Unverified Contract, Old Approval", bad.Reasons)

	nft := d.Buckets[1].Approvals[0]
	assert.Equal(t, "0xBC4C...f13D", nft.Token)
	assert.Equal(t, "#7", nft.Amount)
	assert.Equal(t, "OpenSea: Seaport 1.5", nft.Spender.Text)
	assert.Equal(t, "https://revoke.cash/address/"+owner.Hex()+"?chainId=1", d.RevokeURL)
}

func TestReportDisplayMarshalsPlainText(t *testing.T) {
	raw, err := json.Marshal(util.BuildReportDisplay(sampleResult()))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"hygiene":"55/100 At Risk"`)
	assert.NotContains(t, string(raw), "\x1b[")
}

func TestPrintReport(t *testing.T) {
	r := ui.NewRecordingUI()
	util.PrintReport(r, sampleResult())

	assert.Equal(t, []string{"Approval report", "Dangerous (1)", "Safe (1)"}, r.Messages("Section"))
	assert.Contains(t, r.Messages("KeyValue"), "Hygiene: 55/100 At Risk")
	tables := r.Tables()
	require.Len(t, tables, 2)
	assert.Equal(t, []string{"Token", "Spender", "Type", "Amount", "Age", "Risk", "Reasons"}, tables[0][0])
	assert.Equal(t, "85 dangerous", tables[0][1][5])
	assert.True(t, r.HasMessage("Revoke approvals at https://revoke.cash"))
}

func TestPrintReportCriticalHygiene(t *testing.T) {
	result := sampleResult()
	r := ui.NewRecordingUI()
	util.PrintReport(r, result)
	assert.Empty(t, r.Messages("Critical"))

	result.HygieneScore, result.HygieneLabel = 12, risk.LabelCritical
	r = ui.NewRecordingUI()
	util.PrintReport(r, result)
	assert.Len(t, r.Messages("Critical"), 1)
	assert.Len(t, r.Tables(), 2, "bucket tables are printed indented")
}

func TestPrintReportIncompleteAndClean(t *testing.T) {
	result := &scan.Result{
		Wallet:       owner.Hex(),
		ChainID:      137,
		Status:       scan.StatusIncomplete,
		Unresolved:   3,
		HygieneScore: 100,
		HygieneLabel: risk.LabelClean,
	}
	r := ui.NewRecordingUI()
	util.PrintReport(r, result)
	assert.Len(t, r.Messages("Warn"), 1)
	assert.True(t, r.HasMessage("3 approvals could not be verified"))
	assert.Equal(t, []string{"No active approvals found."}, r.Messages("Success"))
	assert.Contains(t, r.Messages("KeyValue"), "Chain: Polygon (137)")
}

func TestPrintSpendersAndValidation(t *testing.T) {
	r := ui.NewRecordingUI()
	util.PrintSpenders(r, addrbook.NewBook(addrbook.KnownSpenders).Search("seaport", 1))
	require.Len(t, r.Tables(), 1)
	assert.Contains(t, r.Tables()[0][1][0], "Seaport")

	r = ui.NewRecordingUI()
	util.PrintSpenders(r, nil)
	assert.Equal(t, []string{"No known address matches."}, r.Messages("Warn"))

	r = ui.NewRecordingUI()
	util.PrintValidation(r, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", jarviscommon.ValidateAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"))
	assert.Equal(t, []string{"Checksum: " + owner.Hex()}, r.Messages("KeyValue"))

	r = ui.NewRecordingUI()
	util.PrintValidation(r, "0x12", jarviscommon.ValidateAddress("0x12"))
	assert.Len(t, r.Messages("Error"), 1)
}

func TestPrintNetworks(t *testing.T) {
	r := ui.NewRecordingUI()
	util.PrintNetworks(r, networks.GetSupportedNetworks())
	require.Len(t, r.Tables(), 1)
	assert.Equal(t, "1", r.Tables()[0][1][0])
}

func TestNetworkFromFlag(t *testing.T) {
	n, err := util.NetworkFromFlag("137")
	require.NoError(t, err)
	assert.Equal(t, "polygon", n.GetName())

	n, err = util.NetworkFromFlag("ETH")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n.GetChainID())

	_, err = util.NetworkFromFlag("999999")
	assert.ErrorIs(t, err, jarviscommon.ErrUnsupportedChain)
	_, err = util.NetworkFromFlag("ropsten")
	assert.ErrorIs(t, err, jarviscommon.ErrUnsupportedChain)
}

func TestScanWithProgressFollowsStages(t *testing.T) {
	fake := fakereader.New(1_000)
	fake.AddApproval(usdc, owner, drainer, big.NewInt(10), 10, 0, 0)
	fake.Token(usdc).SetAllowance(owner, drainer, big.NewInt(10))

	network, err := networks.GetNetworkByID(1)
	require.NoError(t, err)
	scanner := scan.NewScanner(network, fake, nil, addrbook.Map{}, scan.Options{
		Timeout: 5 * time.Second,
		Now:     func() time.Time { return time.Unix(0, 0).Add(24 * time.Hour) },
	}, nil)

	r := ui.NewRecordingUI()
	result, err := util.ScanWithProgress(context.Background(), r, scanner, owner.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.TotalApprovals)
	assert.Equal(t, []string{
		util.StageMessage(scan.StateStarted),
		util.StageMessage(scan.StateCollectingEvents),
		util.StageMessage(scan.StateResolving),
		util.StageMessage(scan.StateClassifying),
		util.StageMessage(scan.StateScoring),
		util.StageMessage(scan.StateAggregating),
		util.StageMessage(scan.StateCompleted),
	}, r.Messages("Progress"))
}
