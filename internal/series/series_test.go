package series

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeries_AppendAndTail(t *testing.T) {
	s := New("AAPL")
	for _, p := range []float64{100, 101, 102} {
		s.Append(p)
	}

	assert.Equal(t, "AAPL", s.Symbol())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []float64{101, 102}, s.Tail(2))

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 102.0, last)
}

func TestSeries_TailShorterThanRequested(t *testing.T) {
	testTable := []struct {
		name   string
		prices []float64
		n      int
		expect []float64
	}{
		{name: "empty series", prices: nil, n: 5, expect: []float64{}},
		{name: "fewer points", prices: []float64{1, 2}, n: 5, expect: []float64{1, 2}},
		{name: "zero request", prices: []float64{1, 2}, n: 0, expect: []float64{}},
		{name: "negative request", prices: []float64{1, 2}, n: -3, expect: []float64{}},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			s := FromValues("X", testCase.prices)
			assert.Equal(t, testCase.expect, s.Tail(testCase.n))
		})
	}
}

func TestSeries_ReadsAreCopies(t *testing.T) {
	s := FromValues("X", []float64{1, 2, 3})
	v := s.Values()
	v[0] = 42

	assert.Equal(t, []float64{1, 2, 3}, s.Values())
}

func TestSeries_FromValuesDoesNotAlias(t *testing.T) {
	src := []float64{1, 2, 3}
	s := FromValues("X", src)
	src[0] = 42

	assert.Equal(t, 1.0, s.Tail(3)[0])
}

func TestSeries_Bounded(t *testing.T) {
	s := NewBounded("X", 3)
	for i := 1; i <= 5; i++ {
		s.Append(float64(i))
	}

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []float64{3, 4, 5}, s.Values())
	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 5.0, last)
}

func TestSeries_EmptyLast(t *testing.T) {
	_, ok := New("X").Last()
	assert.False(t, ok)
	_, ok = NewBounded("X", 2).Last()
	assert.False(t, ok)
}

func TestSeries_ConcurrentAppend(t *testing.T) {
	s := New("X")
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Append(1)
				_ = s.Tail(10)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, s.Len())
}
