package core

import "sync/atomic"

// wakeNode is an intrusive node: the payload is embedded directly rather
// than boxed separately.
type wakeNode struct {
	next *wakeNode
	f    *frame
}

// wakeList is a per-worker lock-free MPSC stack used to hand external
// submissions to a worker. schedule is a CAS loop open to any goroutine;
// tryPopAll is only ever called by the owning worker, which atomically
// swaps the head with nil and drains the resulting FILO chain.
//
// The deque can't serve this role itself: pushBottom is owner-only, and an
// external submitter is by definition not the deque's owner.
type wakeList struct {
	head atomic.Pointer[wakeNode]
}

func (w *wakeList) schedule(f *frame) {
	n := &wakeNode{f: f}
	for {
		old := w.head.Load()
		n.next = old
		if w.head.CompareAndSwap(old, n) {
			return
		}
	}
}

// tryPopAll atomically detaches the whole chain and returns it as a slice,
// most-recently-scheduled first.
func (w *wakeList) tryPopAll() []*frame {
	head := w.head.Swap(nil)
	if head == nil {
		return nil
	}
	var out []*frame
	for n := head; n != nil; n = n.next {
		out = append(out, n.f)
	}
	return out
}
