package scan

import (
	"math/big"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tranvictor/approvalscan/approval"
	"github.com/tranvictor/approvalscan/risk"
)

const (
	StatusComplete   = "complete"
	StatusIncomplete = "incomplete"

	UnlimitedLabel = "Unlimited"
)

// Approval types as reported to callers.
const (
	TypeERC20      = "ERC20"
	TypeERC721     = "ERC721"
	TypeERC721All  = "ERC721_ALL"
	TypeERC1155All = "ERC1155_ALL"
)

type Token struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Decimals *uint8 `json:"decimals,omitempty"`
}

type Spender struct {
	Address    string `json:"address"`
	IsContract bool   `json:"is_contract"`
	Name       string `json:"name"`
	Verified   bool   `json:"verified"`
}

type ScoredApproval struct {
	Token        Token   `json:"token"`
	Spender      Spender `json:"spender"`
	ApprovalType string  `json:"approval_type"`
	TokenID      string  `json:"token_id,omitempty"`
	// Allowance is the raw integer in base 10. It is a string so that 78
	// digit values survive JSON decoders that use float64.
	Allowance          string        `json:"allowance"`
	AllowanceFormatted string        `json:"allowance_formatted"`
	IsUnlimited        bool          `json:"is_unlimited"`
	AgeDays            int           `json:"age_days"`
	GrantedBlock       uint64        `json:"granted_block"`
	TxHash             string        `json:"tx_hash"`
	RiskScore          int           `json:"risk_score"`
	Category           risk.Category `json:"category"`
	RiskReasons        []string      `json:"risk_reasons"`
	RevokeURL          string        `json:"revoke_url"`
	EtherscanURL       string        `json:"etherscan_url"`
}

type Summary struct {
	TotalApprovals int `json:"total_approvals"`
	Dangerous      int `json:"dangerous"`
	Risky          int `json:"risky"`
	Safe           int `json:"safe"`
}

type Buckets struct {
	Dangerous []ScoredApproval `json:"dangerous"`
	Risky     []ScoredApproval `json:"risky"`
	Safe      []ScoredApproval `json:"safe"`
}

// Result is the report of one scan. It is never modified after Scan
// returns it.
type Result struct {
	ScanID         string  `json:"scan_id"`
	Wallet         string  `json:"wallet"`
	ChainID        uint64  `json:"chain_id"`
	BlockNumber    uint64  `json:"block_number"`
	Status         string  `json:"status"`
	Unresolved     int     `json:"unresolved"`
	HygieneScore   int     `json:"hygiene_score"`
	HygieneLabel   string  `json:"hygiene_label"`
	Summary        Summary `json:"summary"`
	Approvals      Buckets `json:"approvals"`
	ScoringVersion string  `json:"scoring_version"`
	HygieneVersion string  `json:"hygiene_version"`
}

func (r *Result) Incomplete() bool {
	return r.Status == StatusIncomplete
}

// All returns every approval, most dangerous bucket first.
func (r *Result) All() []ScoredApproval {
	result := make([]ScoredApproval, 0, r.Summary.TotalApprovals)
	result = append(result, r.Approvals.Dangerous...)
	result = append(result, r.Approvals.Risky...)
	result = append(result, r.Approvals.Safe...)
	return result
}

func approvalType(a approval.Resolved, standard approval.Standard) string {
	switch a.Kind {
	case approval.KindSingleToken:
		return TypeERC721
	case approval.KindAllTokens:
		if standard == approval.ERC1155 {
			return TypeERC1155All
		}
		return TypeERC721All
	default:
		return TypeERC20
	}
}

// FormatAllowance scales a raw ERC20 allowance by the token's decimals.
// Unlimited allowances read "Unlimited"; NFT grants and tokens with
// unknown decimals show the raw integer.
func FormatAllowance(allowance *big.Int, decimals *uint8, unlimited bool) string {
	if unlimited {
		return UnlimitedLabel
	}
	if allowance == nil {
		return "0"
	}
	if decimals == nil {
		return allowance.String()
	}
	return decimal.NewFromBigInt(allowance, -int32(*decimals)).String()
}

// sortBucket orders by risk score, then age, both descending. Token and
// spender addresses break the remaining ties.
func sortBucket(bucket []ScoredApproval) {
	sort.SliceStable(bucket, func(i, j int) bool {
		a, b := bucket[i], bucket[j]
		if a.RiskScore != b.RiskScore {
			return a.RiskScore > b.RiskScore
		}
		if a.AgeDays != b.AgeDays {
			return a.AgeDays > b.AgeDays
		}
		if c := strings.Compare(strings.ToLower(a.Token.Address), strings.ToLower(b.Token.Address)); c != 0 {
			return c < 0
		}
		if c := strings.Compare(strings.ToLower(a.Spender.Address), strings.ToLower(b.Spender.Address)); c != 0 {
			return c < 0
		}
		return a.TokenID < b.TokenID
	})
}
