package core

import (
	"context"
	"unsafe"

	"golang.org/x/sync/semaphore"
)

// minSegmentFrames is the smallest segment the bump allocator ever hands
// out; segments above this grow geometrically.
const minSegmentFrames = 256

var frameSize = int64(unsafe.Sizeof(frame{}))

// segment is one chunk of a worker's fiber stack: a contiguous array of
// frame values plus a bump offset into it. Frames are carved out of a
// segment front-to-back in allocation order and reclaimed back-to-front
// (LIFO) via freeTo.
//
// Backing storage is typed ([]frame, not []byte) so the Go GC scans the
// parent/run pointers each frame holds exactly as it would any other
// struct; an untyped byte arena with unsafe reinterpretation would be
// unsound the moment a frame holds a pointer, which every frame does.
type segment struct {
	frames []frame
	offset int
	prev   *segment
}

func newSegment(n int, prev *segment) *segment {
	if n < minSegmentFrames {
		n = minSegmentFrames
	}
	return &segment{frames: make([]frame, n), prev: prev}
}

// mark is an opaque position on a FiberStack, captured by a caller so it
// can later free everything allocated since.
type mark struct {
	seg    *segment
	offset int
}

// FiberStack is a per-worker segmented, bump-allocated cactus stack: a
// backing array is grown geometrically and reused across allocations,
// never freed while a thief might still be reading a frame carved out of
// it. It only ever arena-allocates one concrete type (frame); CoNew's
// result-slot arrays are ordinary GC'd slices (see fork.go) rather than
// sharing this arena, since arbitrary generic result types can't be
// reinterpreted out of an untyped byte arena without hiding embedded
// pointers from the garbage collector.
type FiberStack struct {
	top      *segment
	freeList []*segment
	sem      *semaphore.Weighted // shared budget across all workers; nil if unbounded
	held     int64               // frames currently reserved against sem by this stack
}

func newFiberStack(sem *semaphore.Weighted) *FiberStack {
	return &FiberStack{sem: sem}
}

// allocFrame carves the next frame slot off the top segment, growing or
// reusing a segment as needed.
func (s *FiberStack) allocFrame() *frame {
	if s.top == nil || s.top.offset >= len(s.top.frames) {
		s.grow()
	}
	f := &s.top.frames[s.top.offset]
	s.top.offset++
	*f = frame{}
	return f
}

func (s *FiberStack) grow() {
	// Reuse a retained segment before allocating a new one.
	if n := len(s.freeList); n > 0 {
		seg := s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
		seg.offset = 0
		seg.prev = s.top
		s.top = seg
		return
	}

	size := minSegmentFrames
	if s.top != nil {
		size = len(s.top.frames) * 2
	}

	s.reserve(int64(size))
	s.top = newSegment(size, s.top)
}

// reserve blocks until sem (if any) has room for size more frames. A
// blocked reservation is ordinary backpressure against a finite, shared
// budget (core.WithMaxStackBytes); it blocks forever rather than failing,
// matching a worker pool that will eventually free frames and make room.
func (s *FiberStack) reserve(frames int64) {
	if s.sem == nil {
		return
	}
	if err := s.sem.Acquire(context.Background(), frames*frameSize); err != nil {
		panic("forkjoin: fiber stack memory budget exhausted: " + err.Error())
	}
	s.held += frames * frameSize
}

// freeTo rewinds the bump pointer to a previously captured mark, reclaiming
// every frame allocated above it. Segments that become fully empty move to
// freeList rather than being released.
func (s *FiberStack) freeTo(m mark) {
	for s.top != nil && s.top != m.seg {
		done := s.top
		s.freeList = append(s.freeList, done)
		s.top = done.prev
	}
	if s.top != nil {
		s.top.offset = m.offset
	}
}

func (s *FiberStack) mark() mark {
	if s.top == nil {
		return mark{}
	}
	return mark{seg: s.top, offset: s.top.offset}
}

// release returns any budget this stack still holds back to the shared
// semaphore. Called once, at pool shutdown.
func (s *FiberStack) release() {
	if s.sem != nil && s.held > 0 {
		s.sem.Release(s.held)
		s.held = 0
	}
}

func newStackGovernor(maxBytes int64) *semaphore.Weighted {
	if maxBytes <= 0 {
		return nil
	}
	return semaphore.NewWeighted(maxBytes)
}
