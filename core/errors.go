package core

import "github.com/pkg/errors"

// ErrShutdownRace is returned by Pool.Close when it observes a root task
// still in flight. Calling Close during an in-flight root is a
// programming error; Close still shuts the pool down regardless, but
// reports the misuse instead of silently racing, since a stack-carrying
// error costs nothing on a path that is, by definition, already abnormal.
var ErrShutdownRace = errors.New("forkjoin: pool closed while a root task was still in flight")

// Debug, when true, makes assertf panic on a failed condition. Go has no
// build-time assertion stripping as cheap as C's NDEBUG, so this is a
// plain runtime switch instead, left off by default. Nothing in the
// package calls assertf, so setting Debug does not change the runtime's
// behaviour.
var Debug = false

func assertf(cond bool, format string, args ...any) {
	if !cond && Debug {
		panic(errors.Errorf(format, args...))
	}
}
