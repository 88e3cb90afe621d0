package worker

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Job is one unit of work run by Ordered
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a Job produces; a failed job reports its error here
type Result interface {
	GetError() error
}

// Ordered runs jobs on at most workers goroutines and hands every result to
// fn in submission order, on the calling goroutine. Returning false from fn
// cancels the jobs still running and skips the ones not started. Ordered
// returns only after every started job has finished.
func Ordered(ctx context.Context, workers int, jobs []Job, fn func(i int, r Result) bool) {
	if len(jobs) == 0 {
		return
	}
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	// A buffered slot per job lets workers finish ahead of a slow consumer
	slots := make([]chan Result, len(jobs))
	for i := range slots {
		slots[i] = make(chan Result, 1)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		for i, job := range jobs {
			if ctx.Err() != nil {
				return
			}
			g.Go(func() error {
				slots[i] <- job.Execute(ctx)
				return nil
			})
		}
	}()

	defer func() {
		cancel()
		<-dispatched
		_ = g.Wait()
	}()

	for i := range jobs {
		select {
		case r := <-slots[i]:
			if !fn(i, r) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
