package reader

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/rpc"
)

type Class string

const (
	ClassTerminal  Class = "terminal"
	ClassTransient Class = "transient"
)

type Decision struct {
	Class  Class
	Reason string
}

func (d Decision) IsTransient() bool {
	return d.Class == ClassTransient
}

// Classify decides whether repeating the call that produced err may succeed.
// Range errors from eth_getLogs are terminal here: repeating the same window
// never helps, the caller has to shrink it.
func Classify(err error) Decision {
	if err == nil {
		return Decision{Class: ClassTerminal, Reason: "nil_error"}
	}
	if errors.Is(err, context.Canceled) {
		return Decision{Class: ClassTerminal, Reason: "context_canceled"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Decision{Class: ClassTransient, Reason: "context_deadline_exceeded"}
	}
	if errors.Is(err, ethereum.NotFound) {
		return Decision{Class: ClassTerminal, Reason: "not_found"}
	}
	if IsRangeError(err) {
		return Decision{Class: ClassTerminal, Reason: "range_too_large"}
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == 429 || httpErr.StatusCode == 408 || httpErr.StatusCode >= 500:
			return Decision{Class: ClassTransient, Reason: "http_" + httpErr.Status}
		default:
			return Decision{Class: ClassTerminal, Reason: "http_" + httpErr.Status}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Decision{Class: ClassTransient, Reason: "net_timeout"}
	}

	lower := strings.ToLower(err.Error())
	if containsAny(lower, terminalMessageTokens) {
		return Decision{Class: ClassTerminal, Reason: "message_terminal"}
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return classifyJSONRPCCode(rpcErr.ErrorCode())
	}

	if containsAny(lower, transientMessageTokens) {
		return Decision{Class: ClassTransient, Reason: "message_transient"}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Decision{Class: ClassTransient, Reason: "net_op"}
	}

	return Decision{Class: ClassTerminal, Reason: "unknown_terminal_default"}
}

func classifyJSONRPCCode(code int) Decision {
	// 3 is the geth code for execution reverted
	if code == 3 {
		return Decision{Class: ClassTerminal, Reason: "jsonrpc_reverted"}
	}
	if code == -32603 || code == -32005 {
		return Decision{Class: ClassTransient, Reason: "jsonrpc_server_transient"}
	}
	if code <= -32000 && code >= -32099 {
		return Decision{Class: ClassTransient, Reason: "jsonrpc_server_range"}
	}
	return Decision{Class: ClassTerminal, Reason: "jsonrpc_terminal"}
}

// IsRangeError reports whether a node rejected an eth_getLogs query for
// covering too many blocks or producing too many results.
func IsRangeError(err error) bool {
	if err == nil {
		return false
	}
	lower := strings.ToLower(err.Error())
	if containsAny(lower, rateLimitMessageTokens) {
		return false
	}
	return containsAny(lower, rangeMessageTokens)
}

func containsAny(msg string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(msg, token) {
			return true
		}
	}
	return false
}

var rangeMessageTokens = []string{
	"query returned more than",
	"block range",
	"range too large",
	"range is too large",
	"exceed maximum block range",
	"too many blocks",
	"is limited to a",
	"response size exceeded",
	"log response size",
	"query timeout exceeded",
}

// throttling replies share words with range errors ("limit exceeded") and
// must back off instead of shrinking the window
var rateLimitMessageTokens = []string{
	"rate limit",
	"too many requests",
	"request limit",
	"capacity exceeded",
	"throttl",
}

var transientMessageTokens = []string{
	"timeout",
	"timed out",
	"temporar",
	"unavailable",
	"connection reset",
	"connection refused",
	"broken pipe",
	"eof",
	"too many requests",
	"rate limit",
	"request limit",
	"capacity exceeded",
	"throttl",
	"header not found",
	"server closed idle connection",
}

var terminalMessageTokens = []string{
	"execution reverted",
	"invalid argument",
	"invalid params",
	"method not found",
	"parse error",
	"invalid opcode",
	"out of gas",
}

// Backoff is a capped exponential delay: Base, 2*Base, 4*Base... never
// more than Max.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := b.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
