package billingclient

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BaseURL string
	APIKey  string

	Timeout time.Duration

	RetryCount int
	RetryDelay time.Duration

	// RateLimit is expressed in requests per minute. Zero disables limiting.
	RateLimit int
	RateBurst int

	CircuitBreakerEnabled bool
	CBFailureThreshold    int
	CBRecoveryTime        time.Duration
	CBMinRequests         int
	CBSamplingDuration    time.Duration
	CBHalfOpenMaxSuccess  int
}

func LoadFromEnv() Config {
	return Config{
		BaseURL: strings.TrimRight(os.Getenv("BILLING_FUNCTIONS_URL"), "/"),
		APIKey:  os.Getenv("BILLING_FUNCTIONS_API_KEY"),

		Timeout: time.Second * time.Duration(getInt("BILLING_CLIENT_TIMEOUT", 10)),

		RetryCount: getInt("BILLING_CLIENT_RETRY_COUNT", 2),
		RetryDelay: time.Millisecond * time.Duration(getInt("BILLING_CLIENT_RETRY_DELAY_MS", 250)),

		RateLimit: getInt("BILLING_CLIENT_RATE_LIMIT", 600),
		RateBurst: getInt("BILLING_CLIENT_RATE_BURST", 10),

		CircuitBreakerEnabled: getBool("BILLING_CLIENT_ENABLE_CIRCUIT_BREAKER", true),
		CBFailureThreshold:    getInt("BILLING_CLIENT_CIRCUIT_BREAKER_FAILURE_THRESHOLD", 5),
		CBRecoveryTime:        time.Second * time.Duration(getInt("BILLING_CLIENT_CIRCUIT_BREAKER_RECOVERY_TIME", 30)),
		CBMinRequests:         getInt("BILLING_CLIENT_CIRCUIT_BREAKER_MIN_REQUESTS", 10),
		CBSamplingDuration:    time.Second * time.Duration(getInt("BILLING_CLIENT_CIRCUIT_BREAKER_SAMPLING_DURATION", 60)),
		CBHalfOpenMaxSuccess:  getInt("BILLING_CLIENT_CIRCUIT_BREAKER_HALF_OPEN_MAX_SUCCESS", 3),
	}
}

func getInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		return v == "true"
	}
	return def
}
