package busan_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/jaeyoung0509/busan"
)

func ExampleRun() {
	// 1) Start the batch. maxAtOnce=1 makes completion order deterministic
	// for the example; real runs use a higher cap.
	s := busan.Run(context.Background(), func(_ context.Context, in int, _ int) (int, error) {
		return in * 2, nil
	}, 1, []int{10, 20, 30})

	// 2) Pull completions one at a time.
	for {
		res, ok, err := s.Next(context.Background())
		if err != nil {
			panic(err)
		}
		if !ok {
			break
		}
		fmt.Printf("index=%d value=%d\n", res.Index, res.Value)
	}
	// Output:
	// index=0 value=20
	// index=1 value=40
	// index=2 value=60
}

func ExampleRun_results() {
	// Results is a range-friendly adapter over Next.
	s := busan.Run(context.Background(), func(_ context.Context, in string, _ int) (string, error) {
		return in + "!", nil
	}, 1, []string{"a", "b"})

	for res := range s.Results(context.Background()) {
		fmt.Println(res.Value)
	}
	fmt.Println(s.Wait() == nil)
	// Output:
	// a!
	// b!
	// true
}

func ExampleWithAdmission() {
	// A predicate that rejects everything while nothing runs can never make
	// progress; the stream reports the stuck scheduler on the first pull.
	s := busan.Run(context.Background(), func(_ context.Context, in int, _ int) (int, error) {
		return in, nil
	}, 1, []int{1, 2}, busan.WithAdmission(func(int, []int) bool { return false }))

	_, _, err := s.Next(context.Background())

	var stuck *busan.StuckSchedulerError
	fmt.Println(errors.As(err, &stuck), stuck.Indices)
	// Output:
	// true [0 1]
}
