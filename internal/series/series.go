// Package series holds ordered, append-only price histories for one symbol.
//
// A Series is the input to every indicator in internal/indicator. Points are
// never mutated once appended and every read returns a copy, so a snapshot
// taken for indicator math cannot change underneath the caller.
package series

import (
	"sync"

	"github.com/Akshit358/Finsage/internal/ringbuf"
)

// Series is an ordered sequence of prices, oldest first.
// Unbounded series grow without limit; bounded series keep the newest points.
type Series struct {
	symbol string

	mu     sync.RWMutex
	points []float64     // unbounded storage
	ring   *ringbuf.Ring // bounded storage, nil when unbounded
}

// New creates an unbounded series.
func New(symbol string) *Series {
	return &Series{symbol: symbol}
}

// NewBounded creates a series that keeps at most capacity points.
func NewBounded(symbol string, capacity int) *Series {
	return &Series{symbol: symbol, ring: ringbuf.New(capacity)}
}

// FromValues creates an unbounded series seeded with prices.
func FromValues(symbol string, prices []float64) *Series {
	s := New(symbol)
	s.points = append(make([]float64, 0, len(prices)), prices...)
	return s
}

// Symbol returns the series' symbol.
func (s *Series) Symbol() string { return s.symbol }

// Append adds one point at the end.
func (s *Series) Append(price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ring != nil {
		s.ring.Push(price)
		return
	}
	s.points = append(s.points, price)
}

// Len returns the number of points held.
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ring != nil {
		return s.ring.Len()
	}
	return len(s.points)
}

// Tail returns the last n points, or fewer if the series is shorter.
func (s *Series) Tail(n int) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ring != nil {
		return s.ring.Tail(n)
	}
	if n > len(s.points) {
		n = len(s.points)
	}
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	copy(out, s.points[len(s.points)-n:])
	return out
}

// Values returns a copy of every point.
func (s *Series) Values() []float64 {
	return s.Tail(s.Len())
}

// Last returns the newest point.
func (s *Series) Last() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ring != nil {
		return s.ring.Last()
	}
	if len(s.points) == 0 {
		return 0, false
	}
	return s.points[len(s.points)-1], true
}
