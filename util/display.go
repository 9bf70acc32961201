package util

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	jarviscommon "github.com/tranvictor/approvalscan/common"
	"github.com/tranvictor/approvalscan/networks"
	"github.com/tranvictor/approvalscan/risk"
	"github.com/tranvictor/approvalscan/scan"
	"github.com/tranvictor/approvalscan/ui"
	"github.com/tranvictor/approvalscan/util/addrbook"
)

var printer = message.NewPrinter(language.English)

// ── Severity helpers ─────────────────────────────────────────────────────────

func CategorySeverity(c risk.Category) ui.Severity {
	switch c {
	case risk.Dangerous:
		return ui.SeverityError
	case risk.Risky:
		return ui.SeverityWarn
	default:
		return ui.SeveritySuccess
	}
}

func HygieneSeverity(label string) ui.Severity {
	switch label {
	case risk.LabelCritical:
		return ui.SeverityError
	case risk.LabelAtRisk:
		return ui.SeverityWarn
	default:
		return ui.SeveritySuccess
	}
}

// styledSpender shows the spender's name when one is known. Unnamed
// spenders show a shortened address, in yellow when they are contracts
// nobody verified and in red when they are plain accounts.
func styledSpender(s scan.Spender) ui.StyledText {
	if s.Name != "" {
		return ui.StyledText{Text: s.Name, Severity: ui.SeveritySuccess}
	}
	text := jarviscommon.ShortAddress(jarviscommon.HexToAddress(s.Address))
	switch {
	case !s.IsContract:
		return ui.StyledText{Text: text + " (EOA)", Severity: ui.SeverityError}
	case !s.Verified:
		return ui.StyledText{Text: text, Severity: ui.SeverityWarn}
	default:
		return ui.StyledText{Text: text}
	}
}

// ── Build phase (pure: no UI side-effects) ──────────────────────────────────

func tokenLabel(t scan.Token) string {
	if t.Symbol == "" || t.Symbol == "Unknown" {
		return jarviscommon.ShortAddress(jarviscommon.HexToAddress(t.Address))
	}
	return t.Symbol
}

func amountLabel(a scan.ScoredApproval) string {
	switch a.ApprovalType {
	case scan.TypeERC721:
		return "#" + a.TokenID
	case scan.TypeERC721All, scan.TypeERC1155All:
		return "all tokens"
	}
	return a.AllowanceFormatted
}

func buildApprovalDisplay(a scan.ScoredApproval) ApprovalDisplay {
	return ApprovalDisplay{
		Token:   tokenLabel(a.Token),
		Spender: styledSpender(a.Spender),
		Type:    a.ApprovalType,
		Amount:  amountLabel(a),
		Age:     printer.Sprintf("%d days", a.AgeDays),
		Risk: ui.StyledText{
			Text:     fmt.Sprintf("%d %s", a.RiskScore, a.Category),
			Severity: CategorySeverity(a.Category),
		},
		Reasons: strings.Join(a.RiskReasons, ", "),
	}
}

func buildBucket(title string, c risk.Category, approvals []scan.ScoredApproval) BucketDisplay {
	b := BucketDisplay{
		Title:    fmt.Sprintf("%s (%d)", title, len(approvals)),
		Severity: CategorySeverity(c),
	}
	for _, a := range approvals {
		b.Approvals = append(b.Approvals, buildApprovalDisplay(a))
	}
	return b
}

func chainLabel(chainID uint64) string {
	if n, err := networks.GetNetworkByID(chainID); err == nil {
		return fmt.Sprintf("%s (%d)", n.GetDisplayName(), chainID)
	}
	return fmt.Sprintf("%d", chainID)
}

func BuildReportDisplay(result *scan.Result) *ReportDisplay {
	d := &ReportDisplay{
		Wallet: result.Wallet,
		Chain:  chainLabel(result.ChainID),
		Block:  printer.Sprintf("%d", result.BlockNumber),
		Hygiene: ui.StyledText{
			Text:     fmt.Sprintf("%d/100 %s", result.HygieneScore, result.HygieneLabel),
			Severity: HygieneSeverity(result.HygieneLabel),
		},
		Summary: printer.Sprintf("%d approvals: %d dangerous, %d risky, %d safe",
			result.Summary.TotalApprovals,
			result.Summary.Dangerous,
			result.Summary.Risky,
			result.Summary.Safe,
		),
	}
	if result.Incomplete() {
		d.Notice = printer.Sprintf(
			"%d approvals could not be verified and are not shown. Run the scan again for a complete report.",
			result.Unresolved,
		)
	}
	for _, b := range []BucketDisplay{
		buildBucket("Dangerous", risk.Dangerous, result.Approvals.Dangerous),
		buildBucket("Risky", risk.Risky, result.Approvals.Risky),
		buildBucket("Safe", risk.Safe, result.Approvals.Safe),
	} {
		if len(b.Approvals) > 0 {
			d.Buckets = append(d.Buckets, b)
		}
	}
	if all := result.All(); len(all) > 0 {
		d.RevokeURL = all[0].RevokeURL
	}
	return d
}

// ── Print phase (reads only from the display struct, colours via u.Style) ────

var approvalHeaders = []string{"Token", "Spender", "Type", "Amount", "Age", "Risk", "Reasons"}

func PrintReportDisplay(u ui.UI, d *ReportDisplay) {
	u.Section("Approval report")
	u.KeyValue([][2]string{
		{"Wallet", d.Wallet},
		{"Chain", d.Chain},
		{"Block", d.Block},
		{"Hygiene", u.Style(d.Hygiene)},
		{"Summary", d.Summary},
	})
	if d.Hygiene.Severity == ui.SeverityError {
		u.Critical("Hygiene is critical. Revoke the dangerous approvals first.")
	}
	if d.Notice != "" {
		u.Warn("%s", d.Notice)
	}
	if len(d.Buckets) == 0 {
		u.Success("No active approvals found.")
		return
	}
	for _, b := range d.Buckets {
		u.Section(u.Style(ui.StyledText{Text: b.Title, Severity: b.Severity}))
		rows := make([][]string, 0, len(b.Approvals))
		for _, a := range b.Approvals {
			rows = append(rows, []string{
				a.Token,
				u.Style(a.Spender),
				a.Type,
				a.Amount,
				a.Age,
				u.Style(a.Risk),
				a.Reasons,
			})
		}
		u.Indent().Table(approvalHeaders, rows)
	}
	if d.RevokeURL != "" {
		u.Info("")
		u.Info("Revoke approvals at %s", d.RevokeURL)
	}
}

func PrintReport(u ui.UI, result *scan.Result) {
	PrintReportDisplay(u, BuildReportDisplay(result))
}

// PrintNetworks lists every supported chain.
func PrintNetworks(u ui.UI, list []networks.Network) {
	rows := make([][]string, 0, len(list))
	for _, n := range list {
		rows = append(rows, []string{
			fmt.Sprintf("%d", n.GetChainID()),
			n.GetName(),
			n.GetDisplayName(),
			n.GetBlockExplorerURL(),
			n.GetNodeVariableName(),
		})
	}
	u.Table([]string{"Chain ID", "Name", "Display name", "Explorer", "Node variable"}, rows)
}

func PrintValidation(u ui.UI, input string, v jarviscommon.AddressValidation) {
	if !v.Valid {
		u.Error("%s: %s", input, v.Error)
		return
	}
	u.Success("Valid address")
	u.KeyValue([][2]string{{"Checksum", v.Checksum}})
}

// PrintSpenders lists directory entries found by a search.
func PrintSpenders(u ui.UI, entries []addrbook.Entry) {
	if len(entries) == 0 {
		u.Warn("No known address matches.")
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		chains := "all"
		if len(e.ChainIDs) > 0 {
			ids := make([]string, 0, len(e.ChainIDs))
			for _, id := range e.ChainIDs {
				ids = append(ids, fmt.Sprintf("%d", id))
			}
			chains = strings.Join(ids, ",")
		}
		rows = append(rows, []string{e.Name, string(e.Kind), e.Address.Hex(), chains})
	}
	u.Table([]string{"Name", "Kind", "Address", "Chains"}, rows)
}
