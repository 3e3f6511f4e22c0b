package core

import "sync/atomic"

// frameState tracks the three states scheduling decisions actually branch
// on: a frame runs, may move to awaitingJoin while its owner busy-helps
// until its children finish, then back to executing, and finally
// completed once its body has returned.
type frameState int32

const (
	stateExecuting frameState = iota
	stateAwaitingJoin
	stateCompleted
)

// frame is one unit of forked work: a parent link, an atomic join counter
// seeded to 1 for the frame's own self-reference, and a body to run.
//
// Fork pushes the child frame itself onto the deque and lets the parent's
// continuation be whatever Go code follows the Fork call, running on the
// parent's own goroutine -- there is no stackful, resumable call frame to
// push and later resume on an arbitrary worker the way a coroutine-based
// runtime would. Join is where a parked parent gets back onto a worker:
// its own goroutine becomes a thief, popping or stealing work until its
// join counter clears, rather than waiting for the scheduler to hand its
// continuation to whoever's free. Owner exclusivity over deque push/pop,
// the join-counter arithmetic, and a stolen frame allocating only against
// its new owner's fiber stack all hold exactly as they would under a
// coroutine-based design -- only the mechanism that gets a parked parent
// running again differs.
type frame struct {
	parent *frame

	// join is 1 (self) + the number of forked-but-not-yet-completed
	// children. Join() subtracts the self-contribution; the decrement
	// that drives it to zero is what "completes" the frame as far as
	// scheduling is concerned.
	join atomic.Int64

	state atomic.Int32

	// owner records whichever Worker is currently executing this frame's
	// body, updated every time the frame is (re)started.
	owner atomic.Pointer[Worker]

	// run executes the child's body against whichever worker ends up
	// popping or stealing this frame, writes its result through the
	// caller-supplied slot, and resolves the parent's join counter.
	run func(w *Worker)
}

func (f *frame) onFork() {
	f.join.Add(1)
}

// onChildComplete decrements the join counter and reports whether this was
// the last outstanding obligation (self included) to clear, i.e. whether
// the caller is responsible for waking a parent parked in Join.
func (f *frame) onChildComplete() bool {
	return f.join.Add(-1) == 0
}

func (f *frame) setState(s frameState) {
	f.state.Store(int32(s))
}

func (f *frame) getState() frameState {
	return frameState(f.state.Load())
}
