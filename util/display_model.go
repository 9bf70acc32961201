package util

import "github.com/tranvictor/approvalscan/ui"

// ApprovalDisplay is one table row of the report. StyledText fields
// marshal as plain strings; their Severity only drives terminal colour.
type ApprovalDisplay struct {
	Token   string        `json:"token"`
	Spender ui.StyledText `json:"spender"`
	Type    string        `json:"type"`
	Amount  string        `json:"amount"`
	Age     string        `json:"age"`
	Risk    ui.StyledText `json:"risk"`
	Reasons string        `json:"reasons"`
}

// BucketDisplay is one risk category with its rows, most severe first.
type BucketDisplay struct {
	Title     string            `json:"title"`
	Severity  ui.Severity       `json:"-"`
	Approvals []ApprovalDisplay `json:"approvals"`
}

// ReportDisplay is the human readable view of a scan.Result.
type ReportDisplay struct {
	Wallet    string          `json:"wallet"`
	Chain     string          `json:"chain"`
	Block     string          `json:"block"`
	Hygiene   ui.StyledText   `json:"hygiene"`
	Summary   string          `json:"summary"`
	Notice    string          `json:"notice,omitempty"`
	Buckets   []BucketDisplay `json:"buckets"`
	RevokeURL string          `json:"revoke_url"`
}
