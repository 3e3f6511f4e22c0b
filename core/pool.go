package core

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// stealAttempts is the number of failed steal probes a worker makes before
// re-checking its stop condition.
const stealAttempts = 1024

// deque capacity each worker starts with; grows on overflow (deque.go).
const initialDequeCapacity = 256

// Option configures a Pool at construction time.
type Option func(*poolConfig)

type poolConfig struct {
	logger        zerolog.Logger
	parkOnIdle    bool
	maxStackBytes int64
}

// WithLogger attaches a zerolog.Logger the pool uses for worker-lifecycle
// diagnostics (root start/completion, worker wake/work/return, pool close)
// at Debug level. Individual steals are not logged.
func WithLogger(l zerolog.Logger) Option {
	return func(c *poolConfig) { c.logger = l }
}

// WithParkOnIdle swaps the outer busy-spin wait (the default) for a
// sync.Cond park once a worker has no root task to help with. Per-task
// Join always busy-helps regardless of this option -- only the outer
// idle-wait boundary's parking behaviour is configurable.
func WithParkOnIdle(park bool) Option {
	return func(c *poolConfig) { c.parkOnIdle = park }
}

// WithMaxStackBytes bounds the total memory every worker's FiberStack may
// hand out at once. Zero (the default) means unbounded.
func WithMaxStackBytes(n int64) Option {
	return func(c *poolConfig) { c.maxStackBytes = n }
}

// Pool is a fixed-size work-stealing thread pool.
type Pool struct {
	contexts []*Worker
	logger   zerolog.Logger
	park     bool

	rootInFlight atomic.Bool
	stopped      atomic.Bool

	rootMu   sync.Mutex
	rootCond *sync.Cond

	submitMu sync.Mutex // at most one root task in flight at a time

	wg sync.WaitGroup
}

// NewPool constructs a pool of n worker contexts. Context 0 is reserved
// for whichever goroutine is inside SyncWait; only n-1 dedicated worker
// goroutines are started.
//
// n <= 0 defaults to runtime.GOMAXPROCS(0), the Go analogue of
// std::thread::hardware_concurrency().
func NewPool(n int, opts ...Option) *Pool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n < 1 {
		n = 1
	}

	cfg := poolConfig{logger: defaultLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Pool{
		logger: cfg.logger,
		park:   cfg.parkOnIdle,
	}
	p.rootCond = sync.NewCond(&p.rootMu)

	governor := newStackGovernor(cfg.maxStackBytes)

	p.contexts = make([]*Worker, n)
	rng := seedXoshiro()
	for i := range p.contexts {
		p.contexts[i] = &Worker{
			id:    i,
			pool:  p,
			dq:    newDeque[*frame](initialDequeCapacity),
			stack: newFiberStack(governor),
			rng:   rng,
		}
		rng.longJump()
	}

	p.wg.Add(n - 1)
	for i := 1; i < n; i++ {
		go p.workerLoop(p.contexts[i])
	}

	return p
}

// NumWorkers reports the pool's fixed worker count, including context 0.
func (p *Pool) NumWorkers() int { return len(p.contexts) }

func (p *Pool) wakeAll() {
	p.rootMu.Lock()
	p.rootCond.Broadcast()
	p.rootMu.Unlock()
}

// workerLoop is a dedicated worker thread: wait for a root task, help
// steal work until it completes, repeat, until stop is requested.
func (p *Pool) workerLoop(w *Worker) {
	defer p.wg.Done()
	for {
		p.waitForRoot(w)

		if p.stopped.Load() {
			p.logger.Debug().Int("worker", w.id).Msg("worker returns")
			return
		}

		p.logger.Debug().Int("worker", w.id).Msg("worker works")
		p.helpUntil(w, func() bool {
			return !p.rootInFlight.Load() || p.stopped.Load()
		})
	}
}

// waitForRoot blocks until a root task is in flight, either by parking
// on rootCond or busy-spinning, depending on WithParkOnIdle.
func (p *Pool) waitForRoot(w *Worker) {
	if p.rootInFlight.Load() || p.stopped.Load() {
		p.logger.Debug().Int("worker", w.id).Msg("worker wakes")
		return
	}
	if p.park {
		p.rootMu.Lock()
		for !p.rootInFlight.Load() && !p.stopped.Load() {
			p.rootCond.Wait()
		}
		p.rootMu.Unlock()
		return
	}
	for !p.rootInFlight.Load() && !p.stopped.Load() {
		runtime.Gosched()
	}
}

// steal tries the owner's own deque bottom first (cheap, LIFO -- the "child
// stays local" fast path), then up to stealAttempts random victims' tops.
// victim == self is retried uncounted against the attempt budget.
func (p *Pool) steal(w *Worker) (*frame, bool) {
	if f, ok := w.dq.popBottom(); ok {
		return f, true
	}

	n := len(p.contexts)
	if n <= 1 {
		return nil, false
	}

	for attempt := 0; attempt < stealAttempts; {
		victim := w.randVictim(n)
		if victim == w.id {
			continue
		}
		if f, ok := p.contexts[victim].dq.steal(); ok {
			return f, true
		}
		attempt++
	}
	return nil, false
}

// helpUntil is the generic steal loop: it keeps finding and running work,
// its own or stolen, until cond reports true. Both the outer per-worker
// idle loop and Join use it; Join's cond checks a single frame's join
// counter instead of the pool-wide root flag.
func (p *Pool) helpUntil(w *Worker, cond func() bool) {
	for !cond() {
		w.drainWake()
		if f, ok := p.steal(w); ok {
			p.resume(w, f)
			continue
		}
		if cond() {
			return
		}
		runtime.Gosched()
	}
}

// resume runs a (possibly just-stolen) frame's body on w. A stolen frame's
// own forks always land on w's FiberStack/deque, never the victim's.
func (p *Pool) resume(w *Worker, f *frame) {
	f.run(w)
}

// Close requests all worker threads stop, wakes any parked ones, and
// blocks until they've exited. It must not be called while a root task is
// in flight; if it is, Close still shuts down cleanly but
// returns ErrShutdownRace.
func (p *Pool) Close() error {
	var err error
	if p.rootInFlight.Load() {
		err = ErrShutdownRace
	}

	p.stopped.Store(true)
	p.rootInFlight.Store(true) // wake any sleepers, same trick SyncWait's wake uses
	p.wakeAll()
	p.wg.Wait()

	for _, w := range p.contexts {
		w.stack.release()
	}

	p.logger.Debug().Msg("pool closed")
	return err
}
