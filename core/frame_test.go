package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameJoinCounterArithmetic(t *testing.T) {
	f := &frame{}
	f.join.Store(1) // self

	f.onFork() // one child forked
	f.onFork() // a second child forked
	assert.Equal(t, int64(3), f.join.Load())

	assert.False(t, f.onChildComplete()) // first child finishes: 3 -> 2
	assert.False(t, f.onChildComplete()) // second child finishes: 2 -> 1
	assert.True(t, f.onChildComplete())  // Join's own decrement: 1 -> 0
}

func TestFrameStateRoundTrip(t *testing.T) {
	f := &frame{}
	assert.Equal(t, stateExecuting, f.getState())

	f.setState(stateAwaitingJoin)
	assert.Equal(t, stateAwaitingJoin, f.getState())

	f.setState(stateCompleted)
	assert.Equal(t, stateCompleted, f.getState())
}

func TestFrameOwnerTracksMostRecentWorker(t *testing.T) {
	f := &frame{}
	w1, w2 := &Worker{id: 1}, &Worker{id: 2}

	f.owner.Store(w1)
	assert.Same(t, w1, f.owner.Load())

	f.owner.Store(w2)
	assert.Same(t, w2, f.owner.Load())
}
