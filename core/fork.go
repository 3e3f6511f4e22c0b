package core

// This file is the runtime's public surface: SyncWait, Fork, Call, Join,
// CoNew. All five are free functions (every one but Join generic) taking the calling Worker
// explicitly, rather than methods on some implicit "current task" -- Go
// has no goroutine-local storage to hang an implicit current frame off,
// so the Worker doubles as both "the context doing the work" and "a
// handle to the currently executing frame" (Worker.current).

// runFrame executes fn(cw) as the body of frame f: records which worker
// currently owns f, takes a stack watermark before fn runs so every
// grandchild it forks can be freed in one shot afterwards, and notifies
// parent (if any) once f's own result is in slot.
func runFrame[T any](cw *Worker, f *frame, parent *frame, slot *T, fn func(w *Worker) T) {
	prev := cw.current
	cw.current = f
	f.owner.Store(cw)
	f.setState(stateExecuting)

	mark := cw.stack.mark()
	*slot = fn(cw)
	cw.stack.freeTo(mark)

	f.setState(stateCompleted)
	cw.current = prev

	if parent != nil {
		parent.onChildComplete()
	}
}

// SyncWait submits fn as a root task and blocks the calling goroutine
// until it completes, returning its result. It is the only place this
// library performs a blocking wait on behalf of a non-runtime caller.
//
// Only one root task may be in flight at a time; concurrent SyncWait
// calls on the same Pool are serialized.
func SyncWait[T any](p *Pool, fn func(w *Worker) T) T {
	p.submitMu.Lock()
	defer p.submitMu.Unlock()

	ctx0 := p.contexts[0]
	ctx0.current = nil

	root := &frame{}
	root.join.Store(1)

	var result T
	root.run = func(w *Worker) {
		runFrame(w, root, nil, &result, fn)
	}

	p.logger.Debug().Msg("waking workers")
	p.rootInFlight.Store(true)
	p.wakeAll()

	p.logger.Debug().Msg("root task starts")
	p.resume(ctx0, root)

	// Running root.run to completion above already ran every descendant
	// fork/join to completion too -- a plain Go function call can't return
	// "partway" the way a suspended coroutine handle could, so there is
	// nothing left for the submitter to help steal once resume returns.
	p.logger.Debug().Msg("root task completes")
	p.rootInFlight.Store(false)
	p.wakeAll()

	return result
}

// Fork schedules fn as a child of the frame currently executing on w,
// storing its result through slot once it completes, and returns
// immediately: the calling goroutine's subsequent code is the parent's
// continuation. The child may run on w (if nobody steals it before w's
// next Join) or on whichever worker steals it first.
func Fork[T any](w *Worker, slot *T, fn func(w *Worker) T) {
	parent := w.current
	parent.onFork()

	child := w.stack.allocFrame()
	child.parent = parent
	child.join.Store(1)
	child.run = func(cw *Worker) {
		runFrame(cw, child, parent, slot, fn)
	}

	w.dq.pushBottom(child)
}

// Call runs fn synchronously on w and stores its result through slot. It
// allocates a child frame exactly like Fork does, so any Fork/Join inside
// fn binds to that frame's own join counter rather than the caller's --
// the only difference from Fork is that the frame is run inline instead
// of being pushed onto the deque, so it is never visible to a thief.
func Call[T any](w *Worker, slot *T, fn func(w *Worker) T) {
	parent := w.current
	parent.onFork()

	child := w.stack.allocFrame()
	child.parent = parent
	child.join.Store(1)

	runFrame(w, child, parent, slot, fn)
}

// Join suspends the frame currently executing on w until every child it
// has forked since the previous Join completes. "Suspend" here means w
// itself starts helping the scheduler -- popping its own deque first (the
// cheap path for a just-forked, never-stolen child), then stealing from
// others -- until the frame's join counter reaches zero.
//
// Returning re-arms the counter to 1 (the frame's own self-reference), so
// a frame that forks and joins more than once starts each new round from
// the same baseline instead of drifting negative.
func Join(w *Worker) {
	f := w.current
	f.setState(stateAwaitingJoin)

	if f.join.Add(-1) != 0 {
		w.pool.helpUntil(w, func() bool {
			return f.join.Load() == 0
		})
	}

	f.join.Store(1)
	f.setState(stateExecuting)
}

// CoNew allocates a slice of n zero-valued result slots for use as Fork/
// Call targets, for when the number of children is only known at
// runtime. It is deliberately plain GC'd memory rather than a FiberStack
// arena: the FiberStack only ever carves out one concrete type (frame),
// and a per-instantiation arena for arbitrary T would need one bump
// region per distinct T the caller ever instantiates CoNew with, keyed
// at runtime -- a generic-over-T arena, not the single-type one
// FiberStack already is. Result slots also outlive the mark/freeTo
// window of the frame that allocates them (the parent reads them after
// Join, once its children's frames are already reclaimed), so they
// cannot share the same bump-and-rewind lifetime as frame allocation
// even in principle. w is accepted for API symmetry with Fork/Call and
// to leave room for a future per-T pool.
func CoNew[T any](w *Worker, n int) []T {
	return make([]T, n)
}
