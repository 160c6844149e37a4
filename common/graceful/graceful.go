package graceful

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Laisky/zap"

	"github.com/songquanpeng/prompt-studio/common/logger"
)

// Lifecycle manager for graceful shutdown: evaluations can run for minutes, so the server
// stops admitting new ones and waits for the running ones before exiting.

var (
	inFlightEvaluations int64
	draining            atomic.Bool
)

// BeginEvaluation increments the in-flight evaluation counter and returns the matching release
// function. It reports false (and counts nothing) once draining has started.
func BeginEvaluation() (func(), bool) {
	if draining.Load() {
		return func() {}, false
	}
	atomic.AddInt64(&inFlightEvaluations, 1)
	var released atomic.Bool
	return func() {
		if released.CompareAndSwap(false, true) {
			atomic.AddInt64(&inFlightEvaluations, -1)
		}
	}, true
}

// InFlight returns the number of running evaluations.
func InFlight() int64 { return atomic.LoadInt64(&inFlightEvaluations) }

// SetDraining flips the draining flag to true.
func SetDraining() { draining.Store(true) }

// IsDraining returns whether the server is currently draining.
func IsDraining() bool { return draining.Load() }

// Drain waits until no evaluation is in flight, bounded by the ctx deadline.
func Drain(ctx context.Context) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		n := InFlight()
		if n == 0 {
			logger.Logger.Info("graceful drain complete")
			return nil
		}

		select {
		case <-ctx.Done():
			logger.Logger.Error("graceful drain timeout", zap.Int64("in_flight_evaluations", n))
			return ctx.Err()
		case <-ticker.C:
			logger.Logger.Debug("draining...", zap.Int64("in_flight_evaluations", n))
		}
	}
}

// reset is used by tests.
func reset() {
	draining.Store(false)
	atomic.StoreInt64(&inFlightEvaluations, 0)
}
