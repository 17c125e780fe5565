package pricefeed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Akshit358/Finsage/internal/logger"
	"github.com/Akshit358/Finsage/internal/metrics"
	"github.com/Akshit358/Finsage/internal/model"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("price feed circuit breaker is open")

// State represents the circuit breaker state.
type State int

const (
	StateClosed   State = 0 // requests pass through
	StateOpen     State = 1 // requests rejected immediately
	StateHalfOpen State = 2 // one probe allowed through
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker guards a price feed. After maxFailures consecutive failures it
// opens and fails fast for resetTimeout, then lets one probe through: a
// successful probe closes it, a failed one reopens it.
type Breaker struct {
	next model.PriceFeed

	mu           sync.Mutex
	state        State
	failures     int
	maxFailures  int
	resetTimeout time.Duration
	lastFailure  time.Time
	now          func() time.Time

	metrics *metrics.Metrics
	log     *logrus.Entry

	// OnStateChange is called on every transition, under the breaker lock.
	OnStateChange func(from, to State)
}

// NewBreaker wraps next. maxFailures < 1 is treated as 1.
func NewBreaker(next model.PriceFeed, maxFailures int, resetTimeout time.Duration, m *metrics.Metrics, log *logrus.Entry) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Breaker{
		next:         next,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		now:          time.Now,
		metrics:      m,
		log:          log.WithField("component", "price-breaker"),
	}
}

// CurrentPrice implements model.PriceFeed.
func (b *Breaker) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	b.mu.Lock()
	if b.state == StateOpen {
		if b.now().Sub(b.lastFailure) <= b.resetTimeout {
			b.mu.Unlock()
			return 0, ErrCircuitOpen
		}
		b.transition(StateHalfOpen)
	}
	b.mu.Unlock()

	price, err := b.next.CurrentPrice(ctx, symbol)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		b.lastFailure = b.now()
		if b.state == StateHalfOpen || b.failures >= b.maxFailures {
			b.transition(StateOpen)
		}
		return 0, err
	}

	if b.state == StateHalfOpen {
		b.transition(StateClosed)
	}
	b.failures = 0
	return price, nil
}

// CurrentState returns the breaker state.
func (b *Breaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if to == StateClosed {
		b.failures = 0
	}
	b.metrics.SetFeedBreakerState(int(to))
	b.log.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Warn("state change")
	if b.OnStateChange != nil {
		b.OnStateChange(from, to)
	}
}
