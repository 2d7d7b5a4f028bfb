package busan

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// JobFunc is the unit of work executed once per input.
type JobFunc[In, Out any] func(ctx context.Context, input In, index int) (Out, error)

// AdmissionFunc decides whether the pending input at index may start while
// the inputs at running are executing. running is a snapshot in launch order;
// the callee may keep or mutate it freely.
type AdmissionFunc func(index int, running []int) bool

// Result is yielded by Next in job-completion order.
type Result[Out any] struct {
	Index int
	Value Out
}

type jobDoneEvent[Out any] struct {
	index int
	value Out
	err   error
}

// schedulerState is owned by the manager goroutine. Every mutation is fully
// applied before the manager yields to another command or event, which is
// what keeps the pending/running/queue bookkeeping consistent without locks.
type schedulerState[Out any] struct {
	pending     []int // not yet started, input order
	running     []int // currently executing, launch order
	results     []Result[Out]
	waiter      chan nextReply[Out] // at most one outstanding pull
	completed   int
	launched    int
	reported    int   // completion events received, discarded ones included
	termErr     error // sticky; set once by failure or stuck detection
	waitWaiters []chan error
}

// Run starts jobs for inputs with at most maxAtOnce executing at any instant
// and returns the stream of their results in completion order.
//
// Run panics if maxAtOnce < 1. A zero-length inputs slice yields an already
// terminated stream. The ctx is handed to every job invocation; the runner
// itself never cancels jobs once launched.
func Run[In, Out any](ctx context.Context, fn JobFunc[In, Out], maxAtOnce int, inputs []In, opts ...Option) *Stream[Out] {
	if maxAtOnce < 1 {
		panic("busan: maxAtOnce must be at least 1")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	eg := &errgroup.Group{}
	eg.SetLimit(maxAtOnce)

	s := &Stream[Out]{
		cfg:       cfg,
		maxAtOnce: maxAtOnce,
		total:     len(inputs),
		cmdCh:     make(chan any),
		evtCh:     make(chan jobDoneEvent[Out]),
	}

	var startErr error
	if fn == nil {
		startErr = ErrNilJob
	}

	launch := func(index int) {
		input := inputs[index]
		eg.Go(func() error {
			var (
				value  Out
				jobErr error
			)

			defer func() {
				s.evtCh <- jobDoneEvent[Out]{index: index, value: value, err: jobErr}
			}()

			if cfg.panicToError {
				defer func() {
					if r := recover(); r != nil {
						jobErr = fmt.Errorf("busan: panic recovered: %v", r)
					}
				}()
			}

			value, jobErr = fn(ctx, input, index)
			return nil
		})
	}

	go s.manage(launch, startErr)

	return s
}

func (s *Stream[Out]) manage(launch func(index int), startErr error) {
	st := schedulerState[Out]{
		pending: make([]int, s.total),
		results: make([]Result[Out], 0, s.cfg.resultBuffer),
	}
	for i := range st.pending {
		st.pending[i] = i
	}
	if startErr != nil {
		s.fail(&st, startErr)
	}

	// Initial batch. May already prove the scheduler stuck when the
	// predicate rejects everything up front.
	s.admit(&st, launch)

	for {
		select {
		case raw := <-s.cmdCh:
			switch cmd := raw.(type) {
			case nextCmd[Out]:
				s.handleNext(&st, cmd.resp)

			case cancelNextCmd[Out]:
				if st.waiter != cmd.resp {
					continue // already resolved, cancellation lost the race
				}
				st.waiter = nil
				cmd.resp <- nextReply[Out]{err: cmd.err}

			case waitCmd:
				if s.settled(&st) {
					cmd.resp <- st.termErr
					continue
				}
				st.waitWaiters = append(st.waitWaiters, cmd.resp)
			}

		case evt := <-s.evtCh:
			s.handleDone(&st, evt, launch)
		}
	}
}

// admit scans the pending list from the front and launches every candidate
// the predicate accepts while a slot is free. A launch changes the running
// set, which may change the predicate's verdict for candidates already
// skipped in this pass, so the scan restarts from the head after each launch.
func (s *Stream[Out]) admit(st *schedulerState[Out], launch func(index int)) {
	if st.termErr != nil {
		return
	}

scan:
	for len(st.running) < s.maxAtOnce && len(st.pending) > 0 {
		for i, idx := range st.pending {
			if s.cfg.admit != nil && !s.cfg.admit(idx, append([]int(nil), st.running...)) {
				continue
			}
			st.pending = append(st.pending[:i], st.pending[i+1:]...)
			st.running = append(st.running, idx)
			st.launched++
			launch(idx)
			continue scan
		}
		break // full pass without a launch; verdicts cannot change now
	}

	// Nothing runs and something is still pending: the running set can
	// never change again, so no remaining candidate can ever be admitted.
	if len(st.pending) > 0 && len(st.running) == 0 {
		s.fail(st, &StuckSchedulerError{Indices: append([]int(nil), st.pending...)})
	}
}

func (s *Stream[Out]) handleDone(st *schedulerState[Out], evt jobDoneEvent[Out], launch func(index int)) {
	st.running = removeRunning(st.running, evt.index)
	st.reported++

	if st.termErr != nil {
		s.settle(st) // fire-and-forget straggler, outcome discarded
		return
	}

	if evt.err != nil {
		s.fail(st, &JobError{Index: evt.index, Err: evt.err})
		return
	}

	st.completed++

	// Backfill the freed slot before the outcome goes downstream; a stuck
	// verdict found here supersedes the outcome.
	s.admit(st, launch)
	if st.termErr != nil {
		return
	}

	res := Result[Out]{Index: evt.index, Value: evt.value}
	if st.waiter != nil {
		waiter := st.waiter
		st.waiter = nil
		waiter <- nextReply[Out]{res: res, ok: true}
	} else {
		st.results = append(st.results, res)
	}
	s.settle(st)
}

func (s *Stream[Out]) handleNext(st *schedulerState[Out], resp chan nextReply[Out]) {
	if len(st.results) > 0 {
		res := st.results[0]
		st.results = st.results[1:]
		resp <- nextReply[Out]{res: res, ok: true}
		return
	}
	if st.termErr != nil {
		resp <- nextReply[Out]{err: st.termErr}
		return
	}
	if st.completed == s.total {
		resp <- nextReply[Out]{} // drained, completion signal repeats
		return
	}
	if st.waiter != nil {
		resp <- nextReply[Out]{err: ErrConcurrentNext}
		return
	}
	st.waiter = resp
}

// fail records the terminal error, stops all further admission, drops
// unconsumed results, and resolves a waiting pull with the error.
func (s *Stream[Out]) fail(st *schedulerState[Out], err error) {
	st.termErr = err
	st.pending = nil
	st.results = nil
	if st.waiter != nil {
		waiter := st.waiter
		st.waiter = nil
		waiter <- nextReply[Out]{err: err}
	}
	s.settle(st)
}

// settled reports whether no further launch or completion event can happen.
func (s *Stream[Out]) settled(st *schedulerState[Out]) bool {
	if st.reported != st.launched {
		return false
	}
	return st.termErr != nil || st.completed == s.total
}

func (s *Stream[Out]) settle(st *schedulerState[Out]) {
	if !s.settled(st) {
		return
	}
	for _, waiter := range st.waitWaiters {
		waiter <- st.termErr
	}
	st.waitWaiters = st.waitWaiters[:0]
}

func removeRunning(running []int, index int) []int {
	for i, idx := range running {
		if idx == index {
			copy(running[i:], running[i+1:])
			return running[:len(running)-1]
		}
	}
	return running
}
