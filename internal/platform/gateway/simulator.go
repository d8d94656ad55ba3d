// Package gateway simulates a payment provider for development and tests.
// A charge sits for a configurable delay, then resolves SUCCESS or FAILED
// and reports back the way a provider webhook would.
package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	OutcomeSuccess = "SUCCESS"
	OutcomeFailed  = "FAILED"
)

// Callback delivers a resolved charge. The payment reconciler's
// ReportOutcome satisfies this.
type Callback func(ctx context.Context, transactionID, status string, gatewayResponse *string)

type Simulator struct {
	delay      time.Duration
	successPct int
	callback   Callback
	log        zerolog.Logger

	mu   sync.Mutex
	rng  *rand.Rand
	wg   sync.WaitGroup
	quit chan struct{}
}

// NewSimulator builds a simulator resolving charges after delay, with
// successPct percent of them succeeding.
func NewSimulator(delay time.Duration, successPct int, callback Callback, log zerolog.Logger) *Simulator {
	if successPct < 0 {
		successPct = 0
	}
	if successPct > 100 {
		successPct = 100
	}
	return &Simulator{
		delay:      delay,
		successPct: successPct,
		callback:   callback,
		log:        log,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		quit:       make(chan struct{}),
	}
}

// Charge accepts a pending transaction and resolves it asynchronously.
func (s *Simulator) Charge(transactionID, gw string, amount float64) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-time.After(s.delay):
		case <-s.quit:
			return
		}

		status := OutcomeFailed
		if s.roll() {
			status = OutcomeSuccess
		}
		resp := fmt.Sprintf(`{"provider":%q,"transaction_id":%q,"amount":%.2f,"result":%q}`,
			gw, transactionID, amount, status)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info().
			Str("transaction_id", transactionID).
			Str("gateway", gw).
			Str("status", status).
			Msg("gateway charge resolved")
		s.callback(ctx, transactionID, status, &resp)
	}()
}

func (s *Simulator) roll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(100) < s.successPct
}

// Close stops accepting resolutions and waits for in-flight charges.
func (s *Simulator) Close() {
	close(s.quit)
	s.wg.Wait()
}
