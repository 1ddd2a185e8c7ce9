// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jobsqueue

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/log"
)

var (
	// ErrDuplicateJob is returned when a job name is registered twice.
	ErrDuplicateJob = errors.New("job already registered")

	// ErrInvalidInterval is returned for non-positive job intervals.
	ErrInvalidInterval = errors.New("job interval must be positive")
)

// Queue runs named periodic jobs, each on its own goroutine. Invocations of
// the same job never overlap: a job runs synchronously on its goroutine, and
// ticks that fire while it is still running collapse into the ticker's single
// buffered slot. A job that panics is logged and skipped; the schedule keeps
// going.
type Queue struct {
	logger log.Logger

	mu   sync.Mutex
	jobs map[string]struct{}

	wg       sync.WaitGroup
	quit     chan struct{}
	stopOnce sync.Once
}

// New creates an empty job queue.
func New(logger log.Logger) *Queue {
	return &Queue{
		logger: logger,
		jobs:   make(map[string]struct{}),
		quit:   make(chan struct{}),
	}
}

// Register schedules fn to run every interval under the given name. Names are
// unique for the lifetime of the queue; re-registering one is an error.
func (q *Queue) Register(name string, fn func(), interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %q (%v)", ErrInvalidInterval, name, interval)
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	select {
	case <-q.quit:
		return fmt.Errorf("queue stopped, cannot register %q", name)
	default:
	}
	if _, ok := q.jobs[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateJob, name)
	}
	q.jobs[name] = struct{}{}

	q.wg.Add(1)
	go q.run(name, fn, interval)
	return nil
}

func (q *Queue) run(name string, fn func(), interval time.Duration) {
	defer q.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			q.invoke(name, fn)
		case <-q.quit:
			return
		}
	}
}

func (q *Queue) invoke(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Scheduled job panicked", "name", name, "err", r)
		}
	}()
	fn()
}

// Stop halts all job schedules and waits for in-flight invocations to finish.
// New ticks are not issued after Stop returns.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() { close(q.quit) })
	q.wg.Wait()
}
