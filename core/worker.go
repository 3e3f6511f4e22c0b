package core

// Worker is the per-thread context: one deque, one FiberStack, one RNG
// stream, one wake-list, one identifier. A Worker is exclusively owned by
// the goroutine driving it for the lifetime of the pool -- except context
// 0, which is handed to whichever goroutine is currently blocked in
// SyncWait.
//
// Task bodies receive their executing Worker explicitly
// (func(w *Worker) T) rather than looking one up through a package-level
// goroutine-local slot -- Go has no such thing, and threading it through
// the call explicitly is the idiomatic substitute: whichever Worker ends
// up running a frame, after a steal or otherwise, is exactly the w its
// body is handed.
type Worker struct {
	id    int
	pool  *Pool
	dq    *deque[*frame]
	stack *FiberStack
	rng   xoshiro256ss
	wake  wakeList

	// current is the frame whose body is presently executing on this
	// Worker's goroutine. It is goroutine-confined state: only the
	// goroutine acting as this Worker ever reads or writes it.
	current *frame
}

// ID reports the worker's index in [0, N).
func (w *Worker) ID() int { return w.id }

// schedule hands f to this worker from any goroutine. The owning worker
// drains its wake-list at the top of every outer steal-loop iteration.
func (w *Worker) schedule(f *frame) {
	w.wake.schedule(f)
}

// drainWake moves anything waiting on the wake-list onto the bottom of
// this worker's own deque, in the order it arrived.
func (w *Worker) drainWake() {
	woken := w.wake.tryPopAll()
	for i := len(woken) - 1; i >= 0; i-- {
		w.dq.pushBottom(woken[i])
	}
}

func (w *Worker) randVictim(n int) int {
	return w.rng.intn(n)
}
