package config

import (
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// NewCircuitBreaker creates a circuit breaker with the service's standard
// settings. The name identifies the protected dependency in logs.
func NewCircuitBreaker(name string, log *zap.Logger) *gobreaker.CircuitBreaker {
	var timeout time.Duration

	switch name {
	case "RabbitMQ-Publisher":
		timeout = 30 * time.Second
	case "Consultant-Model":
		timeout = 60 * time.Second
	default:
		timeout = 10 * time.Second
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log != nil {
				log.Warn("circuit breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			}
		},
	})
}
