package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countResult struct {
	err error
}

func (r *countResult) GetError() error { return r.err }

type countJob struct {
	duration time.Duration
	fail     bool
	executed *int32
	inFlight *int32
	peak     *int32
}

func (j *countJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.inFlight != nil {
		now := atomic.AddInt32(j.inFlight, 1)
		for {
			prev := atomic.LoadInt32(j.peak)
			if now <= prev || atomic.CompareAndSwapInt32(j.peak, prev, now) {
				break
			}
		}
		defer atomic.AddInt32(j.inFlight, -1)
	}

	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &countResult{err: ctx.Err()}
		}
	}

	if j.fail {
		return &countResult{err: errors.New("job failed")}
	}
	return &countResult{}
}

func TestNewPoolMinimumWorkers(t *testing.T) {
	for _, workers := range []int{-1, 0} {
		p := NewPool(workers)
		if p.workers != 1 {
			t.Errorf("NewPool(%d) workers = %d, want 1", workers, p.workers)
		}
		p.Shutdown()
	}
}

func TestPoolExecutesAllJobs(t *testing.T) {
	var executed int32
	p := NewPool(4)
	p.Start()

	for i := 0; i < 20; i++ {
		p.Submit(&countJob{executed: &executed})
	}
	results := p.Wait()

	if len(results) != 20 {
		t.Errorf("got %d results, want 20", len(results))
	}
	if n := atomic.LoadInt32(&executed); n != 20 {
		t.Errorf("executed %d jobs, want 20", n)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	var inFlight, peak int32
	p := NewPool(3)
	p.Start()

	for i := 0; i < 12; i++ {
		p.Submit(&countJob{duration: 20 * time.Millisecond, inFlight: &inFlight, peak: &peak})
	}
	p.Wait()

	if got := atomic.LoadInt32(&peak); got > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", got)
	}
}

func TestPoolCollectsErrors(t *testing.T) {
	p := NewPool(2)
	p.Start()

	p.Submit(&countJob{})
	p.Submit(&countJob{fail: true})
	p.Submit(&countJob{fail: true})
	results := p.Wait()

	failures := 0
	for _, r := range results {
		if r.GetError() != nil {
			failures++
		}
	}
	if failures != 2 {
		t.Errorf("got %d failures, want 2", failures)
	}
}

func TestPoolManyJobsNeverBlockSubmit(t *testing.T) {
	// Far more jobs than the jobs+results buffers can hold. Results must
	// be drained while submission is still in progress or Submit stalls.
	var executed int32
	p := NewPool(1)
	p.Start()

	done := make(chan []Result, 1)
	go func() {
		for i := 0; i < 50; i++ {
			p.Submit(&countJob{executed: &executed})
		}
		done <- p.Wait()
	}()

	select {
	case results := <-done:
		if len(results) != 50 {
			t.Errorf("got %d results, want 50", len(results))
		}
		if n := atomic.LoadInt32(&executed); n != 50 {
			t.Errorf("executed %d jobs, want 50", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pool stalled with more jobs than channel buffers")
	}
}

func TestPoolSubmitAfterShutdown(t *testing.T) {
	var executed int32
	p := NewPool(2)
	p.Start()
	p.Shutdown()

	// must not panic or execute
	p.Submit(&countJob{executed: &executed})

	if n := atomic.LoadInt32(&executed); n != 0 {
		t.Errorf("job executed after shutdown")
	}
}
