package busan

import (
	"context"
)

// Stream is the pull side of a Run: results surface one at a time, in the
// order the jobs finished.
type Stream[Out any] struct {
	cfg       config
	maxAtOnce int
	total     int

	cmdCh chan any
	evtCh chan jobDoneEvent[Out]
}

type nextReply[Out any] struct {
	res Result[Out]
	ok  bool
	err error
}

type nextCmd[Out any] struct {
	resp chan nextReply[Out]
}

type cancelNextCmd[Out any] struct {
	resp chan nextReply[Out]
	err  error
}

type waitCmd struct {
	resp chan error
}

// Next blocks until one job completes, the stream terminates, or the caller
// context ends.
//
// Terminal errors (job failure, stuck scheduler) are sticky: once returned,
// every later Next returns the same error. An abandoned pull (ctx ended) is
// not terminal; the next Next waits again. At most one Next may wait at a
// time; a concurrent call fails immediately with ErrConcurrentNext.
func (s *Stream[Out]) Next(ctx context.Context) (res Result[Out], ok bool, err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	resp := make(chan nextReply[Out], 1)
	s.cmdCh <- nextCmd[Out]{resp: resp}

	stopCancelWatcher := make(chan struct{})
	if done := ctx.Done(); done != nil {
		go func() {
			select {
			case <-done:
				s.cmdCh <- cancelNextCmd[Out]{resp: resp, err: ctx.Err()}
			case <-stopCancelWatcher:
			}
		}()
	}

	reply := <-resp
	close(stopCancelWatcher)
	return reply.res, reply.ok, reply.err
}

// Results adapts Next(ctx) into a range-friendly results channel.
//
// The channel observes completions in the same order as Next and closes when
// the stream terminates, normally or not. Use Wait to learn the terminal
// error after the channel closes.
func (s *Stream[Out]) Results(ctx context.Context) <-chan Result[Out] {
	if ctx == nil {
		ctx = context.Background()
	}

	out := make(chan Result[Out])
	go func() {
		defer close(out)
		for {
			res, ok, err := s.Next(ctx)
			if err != nil || !ok {
				return
			}

			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Wait blocks until the run is fully accounted for: every launched job has
// reported back, including jobs whose outcomes were discarded after a
// terminal error, and no further launch can happen. It reports the terminal
// error (nil when the run completed normally). Wait does not consume
// results; a normal run is waitable even while its queue is still full.
func (s *Stream[Out]) Wait() error {
	resp := make(chan error, 1)
	s.cmdCh <- waitCmd{resp: resp}
	return <-resp
}
