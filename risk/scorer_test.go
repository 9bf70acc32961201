package risk

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/approvalscan/approval"
	jarviscommon "github.com/tranvictor/approvalscan/common"
	"github.com/tranvictor/approvalscan/spender"
)

var now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func daysAgo(d int) time.Time {
	return now.Add(-time.Duration(d) * 24 * time.Hour)
}

func TestCategoryBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  Category
	}{
		{0, Safe},
		{30, Safe},
		{31, Risky},
		{60, Risky},
		{61, Dangerous},
		{100, Dangerous},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, CategoryOf(tc.score), "score %d", tc.score)
	}
}

func TestScoreUnlimitedUnverifiedOld(t *testing.T) {
	a := approval.Resolved{
		Kind:      approval.KindUnlimitedAmount,
		Standard:  approval.ERC20,
		Allowance: jarviscommon.MaxUint256,
		GrantedAt: daysAgo(200),
		Active:    true,
	}
	got := Score(a, spender.Info{IsContract: true}, now)
	assert.Equal(t, 75, got.Score)
	assert.Equal(t, Dangerous, got.Category)
	assert.Equal(t, []string{ReasonUnlimited, ReasonUnverified, ReasonOld}, got.Reasons)
}

func TestScoreExactAmountToVerifiedContract(t *testing.T) {
	a := approval.Resolved{
		Kind:      approval.KindExactAmount,
		Standard:  approval.ERC20,
		Allowance: big.NewInt(1_000_000),
		GrantedAt: daysAgo(10),
		Active:    true,
	}
	got := Score(a, spender.Info{IsContract: true, Verified: true}, now)
	assert.Equal(t, 0, got.Score)
	assert.Equal(t, Safe, got.Category)
	assert.Empty(t, got.Reasons)
	assert.NotNil(t, got.Reasons)
}

func TestScoreEOAForAllClamps(t *testing.T) {
	got := ScoreFacts(Facts{Unlimited: true, ForAll: true, AgeDays: 400})
	// 40 + 35 + 25 + 25
	assert.Equal(t, 100, got.Score)
	assert.Equal(t, []string{ReasonUnlimited, ReasonEOA, ReasonForAll, ReasonOld}, got.Reasons)
}

func TestOldApprovalSteps(t *testing.T) {
	base := Facts{IsContract: true, Verified: true}
	for days, want := range map[int]int{0: 0, 179: 0, 180: 15, 364: 15, 365: 25, 2000: 25} {
		f := base
		f.AgeDays = days
		assert.Equal(t, want, ScoreFacts(f).Score, "%d days", days)
	}
}

func TestScoreIsMonotonic(t *testing.T) {
	all := []Facts{}
	for mask := 0; mask < 1<<5; mask++ {
		f := Facts{
			Unlimited:  mask&1 != 0,
			ForAll:     mask&2 != 0,
			IsContract: mask&4 == 0,
			Verified:   mask&8 == 0,
		}
		if mask&16 != 0 {
			f.AgeDays = 200
		}
		all = append(all, f)
	}
	// Adding one more true condition never lowers the score.
	for _, f := range all {
		before := ScoreFacts(f).Score
		more := []Facts{}
		if !f.Unlimited {
			g := f
			g.Unlimited = true
			more = append(more, g)
		}
		if !f.ForAll {
			g := f
			g.ForAll = true
			more = append(more, g)
		}
		if f.IsContract && f.Verified {
			g := f
			g.Verified = false
			more = append(more, g)
		}
		if f.AgeDays < VeryOldApprovalDays {
			g := f
			g.AgeDays = VeryOldApprovalDays
			more = append(more, g)
		}
		for _, g := range more {
			assert.GreaterOrEqual(t, ScoreFacts(g).Score, before, "%+v -> %+v", f, g)
		}
	}
}

func TestAgeDays(t *testing.T) {
	assert.Equal(t, 0, AgeDays(time.Time{}, now))
	assert.Equal(t, 0, AgeDays(now.Add(time.Hour), now))
	assert.Equal(t, 0, AgeDays(now.Add(-23*time.Hour), now))
	assert.Equal(t, 200, AgeDays(daysAgo(200), now))
}

func TestFactsOfAllTokens(t *testing.T) {
	f := FactsOf(approval.Resolved{Kind: approval.KindAllTokens, GrantedAt: now}, spender.Degraded(jarviscommon.ZeroAddress), now)
	require.True(t, f.ForAll)
	assert.False(t, f.Unlimited)
	assert.True(t, f.IsContract)
	assert.False(t, f.Verified)
	assert.Equal(t, 45, ScoreFacts(f).Score)
}
