package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolDefaultsWorkerCount(t *testing.T) {
	p := NewPool(0)
	defer p.Close()
	assert.Greater(t, p.NumWorkers(), 0)
}

func TestNewPoolHonorsExplicitWorkerCount(t *testing.T) {
	p := NewPool(6)
	defer p.Close()
	assert.Equal(t, 6, p.NumWorkers())
}

func TestStealReturnsOwnWorkFirst(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	w := p.contexts[0]
	own := &frame{}
	w.dq.pushBottom(own)

	got, ok := p.steal(w)
	require.True(t, ok)
	assert.Same(t, own, got)
}

func TestStealFindsVictimWork(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	victim := p.contexts[1]
	planted := &frame{}
	victim.dq.pushBottom(planted)

	thief := p.contexts[0]
	got, ok := p.steal(thief)
	require.True(t, ok)
	assert.Same(t, planted, got)
}

func TestStealSingleWorkerNoVictimsReturnsFalse(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	_, ok := p.steal(p.contexts[0])
	assert.False(t, ok)
}

func TestCloseReportsRaceWhenRootStillInFlight(t *testing.T) {
	p := NewPool(2)
	p.rootInFlight.Store(true)

	err := p.Close()
	assert.ErrorIs(t, err, ErrShutdownRace)
}

func TestDrainWakeMovesFramesToOwnDeque(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	w := p.contexts[0]
	f1, f2 := &frame{}, &frame{}
	w.schedule(f1)
	w.schedule(f2)

	w.drainWake()
	assert.Equal(t, int64(2), w.dq.size())
}
