// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jobsqueue

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	queue := New(log.NewNoOpLogger())
	t.Cleanup(queue.Stop)
	return queue
}

func TestJobRunsPeriodically(t *testing.T) {
	queue := newTestQueue(t)

	var runs atomic.Int64
	require.NoError(t, queue.Register("counter", func() { runs.Add(1) }, 5*time.Millisecond))

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)
}

func TestJobInvocationsNeverOverlap(t *testing.T) {
	queue := newTestQueue(t)

	var (
		inFlight atomic.Int32
		overlaps atomic.Int32
		runs     atomic.Int32
	)
	job := func() {
		if inFlight.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(15 * time.Millisecond) // three tick periods
		inFlight.Add(-1)
		runs.Add(1)
	}
	require.NoError(t, queue.Register("slow", job, 5*time.Millisecond))

	require.Eventually(t, func() bool { return runs.Load() >= 4 }, time.Second, time.Millisecond)
	require.Zero(t, overlaps.Load())
}

func TestDuplicateNameRejected(t *testing.T) {
	queue := newTestQueue(t)

	require.NoError(t, queue.Register("job", func() {}, time.Minute))
	err := queue.Register("job", func() {}, time.Minute)
	require.ErrorIs(t, err, ErrDuplicateJob)
}

func TestInvalidIntervalRejected(t *testing.T) {
	queue := newTestQueue(t)
	require.ErrorIs(t, queue.Register("job", func() {}, 0), ErrInvalidInterval)
}

func TestPanickingJobKeepsSchedule(t *testing.T) {
	queue := newTestQueue(t)

	var runs atomic.Int64
	require.NoError(t, queue.Register("flaky", func() {
		runs.Add(1)
		panic("boom")
	}, 5*time.Millisecond))

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)
}

func TestStopHaltsJobsAndRejectsRegistration(t *testing.T) {
	queue := New(log.NewNoOpLogger())

	var runs atomic.Int64
	require.NoError(t, queue.Register("counter", func() { runs.Add(1) }, 5*time.Millisecond))
	require.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, time.Millisecond)

	queue.Stop()
	after := runs.Load()
	time.Sleep(25 * time.Millisecond)
	require.Equal(t, after, runs.Load())

	require.Error(t, queue.Register("late", func() {}, time.Minute))
	queue.Stop() // idempotent
}
