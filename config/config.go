package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DEFAULT_SCAN_TIMEOUT   = 60 * time.Second
	DEFAULT_RPC_TIMEOUT    = 10 * time.Second
	DEFAULT_FANOUT         = 8
	DEFAULT_MAX_ATTEMPTS   = 3
	DEFAULT_RPC_RPS        = 20
	DEFAULT_RPC_BURST      = 10
	DEFAULT_LISTEN_ADDRESS = ":8000"
)

var Network string

var (
	JSONOutput bool

	ScanTimeout time.Duration = DEFAULT_SCAN_TIMEOUT
	FanOut      int           = DEFAULT_FANOUT

	RPCTimeout       time.Duration = DEFAULT_RPC_TIMEOUT
	MaxAttempts      int           = DEFAULT_MAX_ATTEMPTS
	RPCRatePerSecond float64       = DEFAULT_RPC_RPS
	RPCBurst         int           = DEFAULT_RPC_BURST

	EtherscanAPIKey string

	ListenAddress string = DEFAULT_LISTEN_ADDRESS
	CORSOrigins          = []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	}

	LogDev bool
)

// Load reads an optional .env file and lets APPROVALSCAN_* variables override
// the defaults above. Flags bound to the same variables are parsed after
// Load and therefore win.
func Load() {
	// a missing .env is normal when the variables come from the environment
	_ = godotenv.Load()

	if v, ok := lookup("APPROVALSCAN_SCAN_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			ScanTimeout = d
		}
	}
	if v, ok := lookup("APPROVALSCAN_RPC_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			RPCTimeout = d
		}
	}
	if v, ok := lookup("APPROVALSCAN_FANOUT"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			FanOut = n
		}
	}
	if v, ok := lookup("APPROVALSCAN_MAX_ATTEMPTS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			MaxAttempts = n
		}
	}
	if v, ok := lookup("APPROVALSCAN_RPC_RPS"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			RPCRatePerSecond = f
		}
	}
	if v, ok := lookup("APPROVALSCAN_LISTEN"); ok {
		ListenAddress = v
	}
	if v, ok := lookup("APPROVALSCAN_CORS_ORIGINS"); ok {
		origins := []string{}
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		CORSOrigins = origins
	}
	if v, ok := lookup("APPROVALSCAN_LOG_DEV"); ok {
		LogDev, _ = strconv.ParseBool(v)
	}
	if v, ok := lookup("ETHERSCAN_API_KEY"); ok {
		EtherscanAPIKey = v
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
