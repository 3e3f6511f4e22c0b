package core

import "testing"

func TestNextPow2(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 32: 32, 33: 64}
	for in, want := range cases {
		if got := nextPow2(in); got != want {
			t.Errorf("nextPow2(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestRingStoreLoad(t *testing.T) {
	r := newRing[int](4)
	if r.capacity() != 4 {
		t.Fatalf("capacity = %d, want 4", r.capacity())
	}

	for i := int64(0); i < 4; i++ {
		r.store(i, int(i)*10)
	}
	for i := int64(0); i < 4; i++ {
		if got := r.load(i); got != int(i)*10 {
			t.Errorf("load(%d) = %d, want %d", i, got, int(i)*10)
		}
	}

	// Indices wrap modulo capacity.
	r.store(4, 999)
	if got := r.load(0); got != 999 {
		t.Errorf("load(0) after wraparound store = %d, want 999", got)
	}
}

func TestRingResizePreservesRange(t *testing.T) {
	r := newRing[int](4)
	for i := int64(0); i < 4; i++ {
		r.store(i, int(i))
	}

	bigger := r.resize(4, 0)
	if bigger.capacity() != 8 {
		t.Fatalf("resized capacity = %d, want 8", bigger.capacity())
	}
	for i := int64(0); i < 4; i++ {
		if got := bigger.load(i); got != int(i) {
			t.Errorf("resized load(%d) = %d, want %d", i, got, i)
		}
	}
}
