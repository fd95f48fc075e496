// Package sandbox executes untrusted, administrator-supplied regular
// expression matches inside a fixed-size worker pool with a hard
// wall-clock deadline per match.
//
// Go's regexp package is RE2-based and does not backtrack, but pattern
// evaluation cost is still linear in pattern-size times subject-size, and
// future matcher plug-ins may not share RE2's guarantees. The pool treats
// every job as potentially runaway: a worker that misses its deadline is
// abandoned (never returned to the pool) and a replacement worker takes
// its slot, so one pathological pattern cannot starve the pool over time.
package sandbox

import (
	"errors"
	"log/slog"
	"regexp"
	"sync/atomic"
	"time"
)

var (
	// ErrTimedOut indicates the match exceeded its deadline. Callers treat
	// this as "no match"; it is never fatal.
	ErrTimedOut = errors.New("sandbox: match timed out")
	// ErrBusy indicates the job queue is full, or too many workers are
	// currently abandoned mid-job. Callers treat this as "no match".
	ErrBusy = errors.New("sandbox: worker pool busy")
	// ErrClosed indicates the pool has been shut down.
	ErrClosed = errors.New("sandbox: pool closed")
)

const (
	jobPending int32 = iota
	jobDone
	jobAbandoned
)

type job struct {
	fn    func() []string
	state atomic.Int32
	done  chan []string
}

// Pool is a fixed-size set of match workers with a bounded job queue.
type Pool struct {
	logger *slog.Logger
	jobs   chan *job
	closed chan struct{}

	size int
	// callers currently admitted (running or waiting for a worker);
	// capped at size+queueDepth. Channel buffer state alone cannot be the
	// admission check: an idle worker is only briefly parked in its
	// receive, and a non-blocking send would reject in that gap.
	inflight atomic.Int64
	// number of workers currently abandoned and still burning CPU on a
	// runaway job; bounds total goroutines at size+maxAbandoned
	abandoned    atomic.Int32
	maxAbandoned int32
}

// NewPool starts a pool of `size` workers with a job queue of depth
// `queueDepth`. Pool sizing bounds worst-case CPU exposure to malicious
// patterns.
func NewPool(size, queueDepth int, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	if size < 1 {
		size = 1
	}
	if queueDepth < 0 {
		queueDepth = 0
	}
	p := &Pool{
		logger:       logger.With("system", "sandbox"),
		jobs:         make(chan *job, queueDepth),
		closed:       make(chan struct{}),
		size:         size,
		maxAbandoned: int32(size * 2),
	}
	for i := 0; i < size; i++ {
		go p.worker()
	}
	poolWorkers.Set(float64(size))
	return p
}

// Exec runs the compiled pattern against subject, returning all matches.
// Returns ErrTimedOut if the deadline fires first, or ErrBusy if the job
// could not even be queued. The call always returns within roughly the
// given timeout regardless of pattern behavior.
func (p *Pool) Exec(pattern *regexp.Regexp, subject string, timeout time.Duration) ([]string, error) {
	return p.ExecFunc(func() []string {
		return pattern.FindAllString(subject, -1)
	}, timeout)
}

// ExecFunc runs an arbitrary match function under the pool's deadline and
// replacement discipline. Escape hatch for matchers that are not plain
// regular expressions.
func (p *Pool) ExecFunc(fn func() []string, timeout time.Duration) ([]string, error) {
	select {
	case <-p.closed:
		return nil, ErrClosed
	default:
	}
	if p.abandoned.Load() >= p.maxAbandoned {
		busyCount.Inc()
		return nil, ErrBusy
	}
	if n := p.inflight.Add(1); n > int64(p.size+cap(p.jobs)) {
		p.inflight.Add(-1)
		busyCount.Inc()
		return nil, ErrBusy
	}
	defer p.inflight.Add(-1)

	jb := &job{
		fn:   fn,
		done: make(chan []string, 1),
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	start := time.Now()

	// Admitted under the cap, so a worker or queue slot will free up;
	// wait for it, but never past the deadline.
	select {
	case p.jobs <- jb:
	case <-timer.C:
		timeoutCount.Inc()
		return nil, ErrTimedOut
	case <-p.closed:
		return nil, ErrClosed
	}

	select {
	case out := <-jb.done:
		execDuration.Observe(time.Since(start).Seconds())
		return out, nil
	case <-timer.C:
	}

	// Deadline fired. Try to claim the job; the worker may have finished
	// in the race window.
	if jb.state.CompareAndSwap(jobPending, jobAbandoned) {
		// The worker running this job will retire when the job returns.
		// Spawn its replacement now so the pool does not shrink while the
		// runaway match keeps executing.
		n := p.abandoned.Add(1)
		abandonedGauge.Set(float64(n))
		timeoutCount.Inc()
		p.logger.Warn("sandbox match timed out, worker abandoned", "timeout", timeout, "abandoned", n)
		select {
		case <-p.closed:
		default:
			go p.worker()
		}
		return nil, ErrTimedOut
	}
	// lost the race: the result is already buffered
	out := <-jb.done
	execDuration.Observe(time.Since(start).Seconds())
	return out, nil
}

func (p *Pool) worker() {
	for {
		select {
		case <-p.closed:
			return
		case jb := <-p.jobs:
			out := p.run(jb)
			if jb.state.CompareAndSwap(jobPending, jobDone) {
				jb.done <- out
				continue
			}
			// The caller already gave up on this job; this worker was
			// replaced at abandon time, so retire rather than rejoin.
			n := p.abandoned.Add(-1)
			abandonedGauge.Set(float64(n))
			return
		}
	}
}

func (p *Pool) run(jb *job) (out []string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("sandbox match panicked", "err", r)
			out = nil
		}
	}()
	return jb.fn()
}

// Close shuts the pool down. In-flight jobs finish; queued jobs are
// dropped.
func (p *Pool) Close() {
	select {
	case <-p.closed:
	default:
		close(p.closed)
	}
}
