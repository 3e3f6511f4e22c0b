package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fib is the classic fork/join stress case: deeply recursive, heavily
// branching, and small enough per call that scheduler overhead would show
// up immediately if the fast paths (own-deque pop, inline self-join)
// weren't pulling their weight.
func fib(w *Worker, n int64) int64 {
	if n < 2 {
		return n
	}
	var a, b int64
	Fork(w, &a, func(cw *Worker) int64 { return fib(cw, n-1) })
	Call(w, &b, func(cw *Worker) int64 { return fib(cw, n-2) })
	Join(w)
	return a + b
}

func TestFibSingleWorker(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	got := SyncWait(p, func(w *Worker) int64 { return fib(w, 20) })
	assert.Equal(t, int64(6765), got)
}

func TestFibEightWorkers(t *testing.T) {
	p := NewPool(8)
	defer p.Close()

	got := SyncWait(p, func(w *Worker) int64 { return fib(w, 20) })
	assert.Equal(t, int64(6765), got)
}

func TestFibParkOnIdle(t *testing.T) {
	p := NewPool(4, WithParkOnIdle(true))
	defer p.Close()

	got := SyncWait(p, func(w *Worker) int64 { return fib(w, 15) })
	assert.Equal(t, int64(610), got)
}

// treeSum sums a depth/breadth tree using CoNew to allocate a runtime-sized
// result slice and one Fork per branch, exercising the "number of children
// only known at runtime" path distinct from fib's fixed fan-out of one.
func treeSum(w *Worker, depth, breadth int) int64 {
	if depth <= 0 {
		return 1
	}
	results := CoNew[int64](w, breadth)
	for i := 0; i < breadth; i++ {
		i := i
		Fork(w, &results[i], func(cw *Worker) int64 { return treeSum(cw, depth-1, breadth) })
	}
	Join(w)

	var total int64
	for _, r := range results {
		total += r
	}
	return total
}

func TestTreeSumDepth5Breadth5(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	got := SyncWait(p, func(w *Worker) int64 { return treeSum(w, 5, 5) })
	// A depth-5, breadth-5 tree has 5^5 leaves, each contributing 1.
	assert.Equal(t, int64(3125), got)
}

func TestTreeSumSingleLeafNode(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	got := SyncWait(p, func(w *Worker) int64 { return treeSum(w, 0, 5) })
	assert.Equal(t, int64(1), got)
}

func TestSyncWaitEmptyTask(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	got := SyncWait(p, func(w *Worker) int { return 42 })
	assert.Equal(t, 42, got)
}

// TestNestedCoNewInsideFork exercises Fork+CoNew+Join nested two levels
// deep inside a fib-shaped recursion, checking a frame started via Fork
// can itself fork through CoNew without disturbing its own parent's join
// counter.
func TestNestedCoNewInsideFork(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	var outer func(w *Worker, n int64) int64
	outer = func(w *Worker, n int64) int64 {
		if n < 2 {
			return n
		}
		results := CoNew[int64](w, 2)
		Fork(w, &results[0], func(cw *Worker) int64 { return outer(cw, n-1) })
		Fork(w, &results[1], func(cw *Worker) int64 { return outer(cw, n-2) })
		Join(w)
		return results[0] + results[1]
	}

	got := SyncWait(p, func(w *Worker) int64 { return outer(w, 10) })
	assert.Equal(t, int64(55), got)
}

func TestSyncWaitRepeatedRootSubmissions(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	for i := 0; i < 20; i++ {
		n := int64(i % 15)
		got := SyncWait(p, func(w *Worker) int64 { return fib(w, n) })
		require.Equal(t, fibRef(n), got)
	}
}

func fibRef(n int64) int64 {
	if n < 2 {
		return n
	}
	return fibRef(n-1) + fibRef(n-2)
}

func TestPoolCloseWhileIdleIsClean(t *testing.T) {
	p := NewPool(4)
	err := p.Close()
	assert.NoError(t, err)
}

func TestPoolCloseAfterUseIsClean(t *testing.T) {
	p := NewPool(4)
	SyncWait(p, func(w *Worker) int64 { return fib(w, 10) })
	err := p.Close()
	assert.NoError(t, err)
}
