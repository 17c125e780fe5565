package gateway

import (
	"sort"
	"sync"
)

// ReplayBuffer keeps the newest envelopes of one user, keyed by their
// sequence number, so a reconnecting client can backfill what it missed.
// Sequence numbers must be pushed in increasing order.
type ReplayBuffer struct {
	mu    sync.RWMutex
	seqs  []int64
	data  [][]byte
	head  int // index of the oldest entry
	count int
}

// NewReplayBuffer creates a buffer holding up to capacity envelopes.
func NewReplayBuffer(capacity int) *ReplayBuffer {
	if capacity <= 0 {
		capacity = 256
	}
	return &ReplayBuffer{
		seqs: make([]int64, capacity),
		data: make([][]byte, capacity),
	}
}

// Push stores a copy of data under seq, evicting the oldest entry when full.
func (rb *ReplayBuffer) Push(seq int64, data []byte) {
	frame := append([]byte(nil), data...)

	rb.mu.Lock()
	defer rb.mu.Unlock()
	size := len(rb.seqs)
	slot := (rb.head + rb.count) % size
	if rb.count == size {
		slot = rb.head
		rb.head = (rb.head + 1) % size
	} else {
		rb.count++
	}
	rb.seqs[slot] = seq
	rb.data[slot] = frame
}

// Since returns the envelopes with seq > afterSeq, oldest first.
func (rb *ReplayBuffer) Since(afterSeq int64) [][]byte {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	size := len(rb.seqs)
	first := sort.Search(rb.count, func(i int) bool {
		return rb.seqs[(rb.head+i)%size] > afterSeq
	})
	if first == rb.count {
		return nil
	}
	out := make([][]byte, 0, rb.count-first)
	for i := first; i < rb.count; i++ {
		out = append(out, rb.data[(rb.head+i)%size])
	}
	return out
}

// Oldest returns the seq of the oldest buffered envelope.
func (rb *ReplayBuffer) Oldest() (int64, bool) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	if rb.count == 0 {
		return 0, false
	}
	return rb.seqs[rb.head], true
}

// Len returns the number of buffered envelopes.
func (rb *ReplayBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}
