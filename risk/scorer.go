// Package risk turns resolved approvals into risk scores and a wallet
// hygiene score. Both are versioned policies: changing a weight, threshold
// or multiplier changes the meaning of every earlier report and must bump
// the matching version constant.
package risk

import (
	"time"

	"github.com/tranvictor/approvalscan/approval"
	"github.com/tranvictor/approvalscan/spender"
)

const ScoringVersion = "2024-01.v1"

type Category string

const (
	Safe      Category = "safe"
	Risky     Category = "risky"
	Dangerous Category = "dangerous"
)

const (
	ReasonUnlimited  = "Unlimited Allowance"
	ReasonEOA        = "EOA Spender"
	ReasonForAll     = "Approval For All"
	ReasonUnverified = "Unverified Contract"
	ReasonOld        = "Old Approval"
)

const (
	SafeMax  = 30
	RiskyMax = 60

	OldApprovalDays     = 180
	VeryOldApprovalDays = 365
)

// Facts is everything the rules look at.
type Facts struct {
	Unlimited  bool
	ForAll     bool
	IsContract bool
	Verified   bool
	AgeDays    int
}

type rule struct {
	reason string
	weight func(f Facts) int
}

func flat(w int, applies func(f Facts) bool) func(f Facts) int {
	return func(f Facts) int {
		if applies(f) {
			return w
		}
		return 0
	}
}

// rules is evaluated in order; the order only fixes the order of reasons.
var rules = []rule{
	{ReasonUnlimited, flat(40, func(f Facts) bool { return f.Unlimited })},
	{ReasonEOA, flat(35, func(f Facts) bool { return !f.IsContract })},
	{ReasonForAll, flat(25, func(f Facts) bool { return f.ForAll })},
	{ReasonUnverified, flat(20, func(f Facts) bool { return f.IsContract && !f.Verified })},
	{ReasonOld, func(f Facts) int {
		switch {
		case f.AgeDays >= VeryOldApprovalDays:
			return 25
		case f.AgeDays >= OldApprovalDays:
			return 15
		}
		return 0
	}},
}

type Assessment struct {
	Score    int
	Category Category
	Reasons  []string
}

// AgeDays counts whole days between grantedAt and now, never negative.
func AgeDays(grantedAt, now time.Time) int {
	if grantedAt.IsZero() || now.Before(grantedAt) {
		return 0
	}
	return int(now.Sub(grantedAt) / (24 * time.Hour))
}

func FactsOf(a approval.Resolved, s spender.Info, now time.Time) Facts {
	return Facts{
		Unlimited:  a.Kind == approval.KindUnlimitedAmount,
		ForAll:     a.Kind == approval.KindAllTokens,
		IsContract: s.IsContract,
		Verified:   s.Verified,
		AgeDays:    AgeDays(a.GrantedAt, now),
	}
}

// Score is pure: the same approval, spender and clock always produce the
// same assessment.
func Score(a approval.Resolved, s spender.Info, now time.Time) Assessment {
	return ScoreFacts(FactsOf(a, s, now))
}

func ScoreFacts(f Facts) Assessment {
	total := 0
	reasons := []string{}
	for _, r := range rules {
		if w := r.weight(f); w > 0 {
			total += w
			reasons = append(reasons, r.reason)
		}
	}
	total = clamp(total, 0, 100)
	return Assessment{
		Score:    total,
		Category: CategoryOf(total),
		Reasons:  reasons,
	}
}

// CategoryOf maps [0,30] to safe, (30,60] to risky and (60,100] to dangerous.
func CategoryOf(score int) Category {
	switch {
	case score <= SafeMax:
		return Safe
	case score <= RiskyMax:
		return Risky
	default:
		return Dangerous
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
