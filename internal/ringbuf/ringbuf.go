// Package ringbuf provides a fixed-capacity ring of float64 samples that
// overwrites its oldest entry when full. It backs bounded price series.
//
// A Ring is not safe for concurrent use; callers serialize access.
package ringbuf

// Ring keeps the newest Cap() samples in insertion order.
type Ring struct {
	buf  []float64
	head uint64 // total samples ever pushed

	evicted uint64
}

// New creates a ring holding at most capacity samples. Minimum capacity is 1.
func New(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]float64, capacity)}
}

// Push appends v, evicting the oldest sample when the ring is full.
// Returns false when a sample was evicted.
func (r *Ring) Push(v float64) bool {
	size := uint64(len(r.buf))
	r.buf[r.head%size] = v
	r.head++
	if r.head > size {
		r.evicted++
		return false
	}
	return true
}

// Len returns the number of samples held.
func (r *Ring) Len() int {
	if r.head < uint64(len(r.buf)) {
		return int(r.head)
	}
	return len(r.buf)
}

// Cap returns the ring capacity.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Evicted returns how many samples were overwritten.
func (r *Ring) Evicted() uint64 {
	return r.evicted
}

// Tail copies the newest n samples, oldest first. n is clamped to Len().
func (r *Ring) Tail(n int) []float64 {
	l := r.Len()
	if n > l {
		n = l
	}
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	size := uint64(len(r.buf))
	start := r.head - uint64(n)
	for i := 0; i < n; i++ {
		out[i] = r.buf[(start+uint64(i))%size]
	}
	return out
}

// Last returns the newest sample.
func (r *Ring) Last() (float64, bool) {
	if r.head == 0 {
		return 0, false
	}
	size := uint64(len(r.buf))
	return r.buf[(r.head-1)%size], true
}
