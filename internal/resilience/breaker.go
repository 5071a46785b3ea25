package resilience

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// NewBreaker wraps an outbound capability in a circuit breaker. The circuit
// opens after five consecutive failures and probes again after the timeout,
// so a dead scoring or orchestration endpoint stops absorbing retries.
func NewBreaker(name string, logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
}
