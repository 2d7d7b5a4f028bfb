package busan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func BenchmarkRun(b *testing.B) {
	workloads := []struct {
		name      string
		mixed     bool
		jobs      int
		maxAtOnce int
		gated     bool
	}{
		{name: "short/open", mixed: false, jobs: 256, maxAtOnce: 32, gated: false},
		{name: "short/gated", mixed: false, jobs: 256, maxAtOnce: 32, gated: true},
		{name: "mixed/open", mixed: true, jobs: 256, maxAtOnce: 32, gated: false},
		{name: "mixed/gated", mixed: true, jobs: 256, maxAtOnce: 32, gated: true},
	}

	for _, tc := range workloads {
		tc := tc
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if err := runBenchCase(tc.jobs, tc.maxAtOnce, tc.mixed, tc.gated); err != nil {
					b.Fatalf("run failed: %v", err)
				}
			}
		})
	}
}

func BenchmarkErrgroupBaseline(b *testing.B) {
	workloads := []struct {
		name  string
		mixed bool
		jobs  int
		limit int
	}{
		{name: "short", mixed: false, jobs: 256, limit: 32},
		{name: "mixed", mixed: true, jobs: 256, limit: 32},
	}

	for _, tc := range workloads {
		tc := tc
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if err := runErrgroupBaselineCase(tc.jobs, tc.limit, tc.mixed); err != nil {
					b.Fatalf("run failed: %v", err)
				}
			}
		})
	}
}

func runBenchCase(jobs, maxAtOnce int, mixed, gated bool) error {
	inputs := make([]int, jobs)
	for i := range inputs {
		inputs[i] = i
	}

	var opts []Option
	if gated {
		// Evens and odds exclude each other; exercises the rescan path.
		opts = append(opts, WithAdmission(func(index int, running []int) bool {
			for _, r := range running {
				if r%2 != index%2 {
					return false
				}
			}
			return true
		}))
	}

	s := Run(context.Background(), func(ctx context.Context, in, idx int) (int, error) {
		return runBenchJob(ctx, in, mixed)
	}, maxAtOnce, inputs, opts...)

	seen := 0
	for {
		_, ok, err := s.Next(context.Background())
		if err != nil {
			return fmt.Errorf("next failed: %w", err)
		}
		if !ok {
			break
		}
		seen++
	}
	if seen != jobs {
		return fmt.Errorf("expected %d results, got %d", jobs, seen)
	}

	return s.Wait()
}

func runErrgroupBaselineCase(jobs, limit int, mixed bool) error {
	eg := &errgroup.Group{}
	eg.SetLimit(limit)

	results := make(chan int, jobs)

	var mu sync.Mutex
	var firstErr error

	for i := 0; i < jobs; i++ {
		idx := i
		eg.Go(func() error {
			v, err := runBenchJob(context.Background(), idx, mixed)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			results <- v
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	close(results)

	seen := 0
	for range results {
		seen++
	}
	if firstErr != nil {
		return firstErr
	}
	if seen != jobs {
		return errors.New("lost results")
	}
	return nil
}

func runBenchJob(ctx context.Context, idx int, mixed bool) (int, error) {
	if mixed && idx%8 == 0 {
		select {
		case <-time.After(50 * time.Microsecond):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return idx * 2, nil
}
