// Package scan runs the whole approval scan of one wallet on one chain:
// pin a block, collect approval events, verify them live, classify the
// spenders, score, and aggregate the report.
package scan

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tranvictor/approvalscan/approval"
	jarviscommon "github.com/tranvictor/approvalscan/common"
	"github.com/tranvictor/approvalscan/config"
	"github.com/tranvictor/approvalscan/metrics"
	"github.com/tranvictor/approvalscan/networks"
	"github.com/tranvictor/approvalscan/risk"
	"github.com/tranvictor/approvalscan/spender"
	"github.com/tranvictor/approvalscan/util/addrbook"
	"github.com/tranvictor/approvalscan/util/explorers"
	"github.com/tranvictor/approvalscan/util/reader"
)

type State string

const (
	StateStarted          State = "Started"
	StateCollectingEvents State = "CollectingEvents"
	StateResolving        State = "Resolving"
	StateClassifying      State = "Classifying"
	StateScoring          State = "Scoring"
	StateAggregating      State = "Aggregating"
	StateCompleted        State = "Completed"
	StateFailed           State = "Failed"
)

type Options struct {
	// Timeout bounds the whole scan. Zero means no bound beyond the
	// caller's context.
	Timeout time.Duration
	FanOut  int
	// OnStateChange is called synchronously on every transition.
	OnStateChange func(State)
	Now           func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Timeout: config.ScanTimeout,
		FanOut:  config.FanOut,
		Now:     time.Now,
	}
}

type Scanner struct {
	network  networks.Network
	client   reader.ChainClient
	verifier explorers.SourceVerifier
	book     addrbook.AddressResolver
	opts     Options
	logger   *zap.Logger
}

// NewScanner wires a scanner for one network. verifier may be nil.
func NewScanner(
	network networks.Network,
	client reader.ChainClient,
	verifier explorers.SourceVerifier,
	book addrbook.AddressResolver,
	opts Options,
	logger *zap.Logger,
) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FanOut <= 0 {
		opts.FanOut = config.DEFAULT_FANOUT
	}
	return &Scanner{
		network:  network,
		client:   client,
		verifier: verifier,
		book:     book,
		opts:     opts,
		logger:   logger,
	}
}

func (s *Scanner) Network() networks.Network {
	return s.network
}

// WithStateHook returns a copy of s reporting its transitions to fn.
func (s *Scanner) WithStateHook(fn func(State)) *Scanner {
	c := *s
	c.opts.OnStateChange = fn
	return &c
}

func (s *Scanner) transition(logger *zap.Logger, state State) {
	logger.Debug("scan state", zap.String("stage", string(state)))
	if s.opts.OnStateChange != nil {
		s.opts.OnStateChange(state)
	}
}

// chainError makes sure running out of time reads as the chain being
// unavailable.
func chainError(stage string, err error) error {
	if errors.Is(err, jarviscommon.ErrChainUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: scan deadline exceeded while %s: %w", jarviscommon.ErrChainUnavailable, stage, err)
	}
	return fmt.Errorf("%s: %w", stage, err)
}

// unverifiable turns a resolution that verified nothing into an outage, so
// a wallet the chain could not be read for is never reported as clean.
func unverifiable(incomplete *jarviscommon.IncompleteError) error {
	msg := fmt.Sprintf("none of the %d approvals of record could be verified", incomplete.Unresolved)
	if incomplete.Cause == nil {
		return fmt.Errorf("%w: %s", jarviscommon.ErrChainUnavailable, msg)
	}
	return fmt.Errorf("%w: %s: %w", jarviscommon.ErrChainUnavailable, msg, incomplete.Cause)
}

// Scan produces the report of wallet. It fails with ErrInvalidAddress
// before any network access, and with an error wrapping
// ErrChainUnavailable when the chain cannot be read. When some approvals
// could not be verified it returns the report of the rest, marked
// incomplete, together with a *common.IncompleteError. When none could be
// verified the scan fails with ErrChainUnavailable.
func (s *Scanner) Scan(ctx context.Context, wallet string) (result *Result, err error) {
	begin := time.Now()
	chain := strconv.FormatUint(s.network.GetChainID(), 10)
	scanID := uuid.NewString()
	logger := s.logger.With(
		zap.String("scan_id", scanID),
		zap.Uint64("chain_id", s.network.GetChainID()),
		zap.String("wallet", wallet),
	)
	s.transition(logger, StateStarted)

	defer func() {
		outcome := StatusComplete
		switch {
		case err == nil:
		case result != nil:
			outcome = StatusIncomplete
		default:
			outcome = strings.ToLower(jarviscommon.ErrorCode(err))
			s.transition(logger, StateFailed)
			logger.Warn("scan failed", zap.Error(err))
		}
		metrics.ScansTotal.WithLabelValues(chain, outcome).Inc()
		metrics.ScanDuration.WithLabelValues(chain).Observe(time.Since(begin).Seconds())
	}()

	owner, err := jarviscommon.ParseAddress(wallet)
	if err != nil {
		return nil, err
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	contracts := reader.NewContracts(s.client)
	block, err := contracts.FinalizedBlock(ctx, s.network.GetConfirmations())
	if err != nil {
		return nil, chainError("pinning the finalized block", err)
	}
	logger = logger.With(zap.Uint64("block", block))

	s.transition(logger, StateCollectingEvents)
	collector := approval.NewCollector(s.client, s.network, logger)
	grants, err := approval.LatestGrants(collector.Collect(ctx, owner.Hex(), block))
	if err != nil {
		return nil, chainError("collecting approval events", err)
	}
	logger.Debug("collected grants of record", zap.Int("grants", len(grants)))

	s.transition(logger, StateResolving)
	resolved, resolveErr := approval.NewResolver(contracts, s.opts.FanOut, logger).Resolve(ctx, owner, grants, block)
	var incomplete *jarviscommon.IncompleteError
	if resolveErr != nil && !errors.As(resolveErr, &incomplete) {
		return nil, chainError("resolving approvals", resolveErr)
	}
	if incomplete != nil && len(resolved) == 0 {
		return nil, unverifiable(incomplete)
	}

	s.transition(logger, StateClassifying)
	spenders, tokens := s.classify(ctx, contracts, resolved, block, logger)

	s.transition(logger, StateScoring)
	now := s.opts.Now()
	scored := make([]ScoredApproval, 0, len(resolved))
	assessments := make([]risk.Assessment, 0, len(resolved))
	for i, a := range resolved {
		info, found := spenders[a.Spender]
		if !found {
			info = spender.Degraded(a.Spender)
		}
		assessment := risk.Score(a, info, now)
		assessments = append(assessments, assessment)
		scored = append(scored, s.scoredApproval(owner, a, tokens[i], info, assessment, now))
	}

	s.transition(logger, StateAggregating)
	result = s.aggregate(scanID, owner, block, scored, assessments)
	if incomplete != nil {
		result.Status = StatusIncomplete
		result.Unresolved = incomplete.Unresolved
	}
	metrics.ApprovalsFound.WithLabelValues(chain).Observe(float64(result.Summary.TotalApprovals))

	s.transition(logger, StateCompleted)
	logger.Info("scan finished",
		zap.String("status", result.Status),
		zap.Int("approvals", result.Summary.TotalApprovals),
		zap.Int("hygiene_score", result.HygieneScore),
		zap.Duration("took", time.Since(begin)),
	)
	if incomplete != nil {
		return result, incomplete
	}
	return result, nil
}

// classify looks up every distinct spender and every approval's token.
// Neither lookup can fail the scan.
func (s *Scanner) classify(
	ctx context.Context,
	contracts *reader.Contracts,
	resolved []approval.Resolved,
	block uint64,
	logger *zap.Logger,
) (map[common.Address]spender.Info, []approval.TokenInfo) {
	addrs := make([]common.Address, 0, len(resolved))
	for _, a := range resolved {
		addrs = append(addrs, a.Spender)
	}

	var (
		wg       sync.WaitGroup
		spenders map[common.Address]spender.Info
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		classifier := spender.NewClassifier(contracts, s.verifier, s.book, s.network.GetChainID(), s.opts.FanOut, logger)
		spenders, _ = classifier.ClassifyAll(ctx, addrs, block)
	}()

	tokenResolver := approval.NewTokenResolver(contracts, s.book, s.network.GetChainID(), block, logger)
	tokens := make([]approval.TokenInfo, len(resolved))
	indexes := make([]int, len(resolved))
	for i := range indexes {
		indexes[i] = i
	}
	_ = jarviscommon.RunParallel(ctx, s.opts.FanOut, indexes, func(ctx context.Context, i int) error {
		tokens[i] = tokenResolver.Resolve(ctx, resolved[i])
		return nil
	})
	wg.Wait()

	for i := range tokens {
		if tokens[i].Address == (common.Address{}) {
			// never resolved because the context ended first
			tokens[i] = approval.TokenInfo{
				Address:  resolved[i].Token,
				Standard: resolved[i].Standard,
				Symbol:   approval.UnknownSymbol,
				Name:     approval.UnknownName,
			}
		}
	}
	if ctx.Err() != nil {
		logger.Warn("classification cut short", zap.Error(ctx.Err()))
	}
	return spenders, tokens
}

func (s *Scanner) scoredApproval(
	owner common.Address,
	a approval.Resolved,
	token approval.TokenInfo,
	info spender.Info,
	assessment risk.Assessment,
	now time.Time,
) ScoredApproval {
	result := ScoredApproval{
		Token: Token{
			Address:  token.Address.Hex(),
			Symbol:   token.Symbol,
			Name:     token.Name,
			Type:     string(token.Standard),
			Decimals: token.Decimals,
		},
		Spender: Spender{
			Address:    info.Address.Hex(),
			IsContract: info.IsContract,
			Name:       info.Name,
			Verified:   info.Verified,
		},
		ApprovalType:       approvalType(a, token.Standard),
		Allowance:          a.Allowance.String(),
		AllowanceFormatted: FormatAllowance(a.Allowance, token.Decimals, a.IsUnlimited()),
		IsUnlimited:        a.IsUnlimited(),
		AgeDays:            risk.AgeDays(a.GrantedAt, now),
		GrantedBlock:       a.GrantedBlock,
		TxHash:             a.TxHash.Hex(),
		RiskScore:          assessment.Score,
		Category:           assessment.Category,
		RiskReasons:        assessment.Reasons,
		RevokeURL:          networks.RevokeURL(s.network, owner.Hex()),
		EtherscanURL:       networks.AddressURL(s.network, a.Spender.Hex()),
	}
	if a.TokenID != nil {
		result.TokenID = a.TokenID.String()
	}
	return result
}

func (s *Scanner) aggregate(
	scanID string,
	owner common.Address,
	block uint64,
	scored []ScoredApproval,
	assessments []risk.Assessment,
) *Result {
	summary := risk.Summarize(assessments)
	hygiene, label := risk.Hygiene(assessments)
	buckets := Buckets{
		Dangerous: []ScoredApproval{},
		Risky:     []ScoredApproval{},
		Safe:      []ScoredApproval{},
	}
	for _, a := range scored {
		switch a.Category {
		case risk.Dangerous:
			buckets.Dangerous = append(buckets.Dangerous, a)
		case risk.Risky:
			buckets.Risky = append(buckets.Risky, a)
		default:
			buckets.Safe = append(buckets.Safe, a)
		}
	}
	sortBucket(buckets.Dangerous)
	sortBucket(buckets.Risky)
	sortBucket(buckets.Safe)

	return &Result{
		ScanID:       scanID,
		Wallet:       owner.Hex(),
		ChainID:      s.network.GetChainID(),
		BlockNumber:  block,
		Status:       StatusComplete,
		HygieneScore: hygiene,
		HygieneLabel: label,
		Summary: Summary{
			TotalApprovals: summary.Total,
			Dangerous:      summary.Dangerous,
			Risky:          summary.Risky,
			Safe:           summary.Safe,
		},
		Approvals:      buckets,
		ScoringVersion: risk.ScoringVersion,
		HygieneVersion: risk.HygieneVersion,
	}
}
