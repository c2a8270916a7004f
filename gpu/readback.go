package gpu

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openfluke/webgpu/wgpu"
)

// poller drives map completion for one device. wgpu only delivers map
// callbacks while the device is polled, so a single goroutine per session
// polls whenever a readback is outstanding and sleeps otherwise.
type poller struct {
	dev *wgpu.Device

	mu       sync.Mutex
	pending  map[uint64]*job
	mapped   []mapResult
	stopping bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

type mapResult struct {
	job    *job
	status wgpu.BufferMapAsyncStatus
}

func newPoller(dev *wgpu.Device) *poller {
	p := &poller{
		dev:     dev,
		pending: map[uint64]*job{},
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// mapRead requests a read mapping of the job's readback buffer and hands the
// job to the poller. The job must be in JobCopying.
func (p *poller) mapRead(j *job) error {
	p.mu.Lock()
	p.pending[j.id] = j
	p.mu.Unlock()

	j.advance(JobAwaitingMap)
	err := j.readback.MapAsync(wgpu.MapModeRead, 0, j.layout.PaddedSize, func(status wgpu.BufferMapAsyncStatus) {
		p.notify(j, status)
	})
	if err != nil {
		p.mu.Lock()
		delete(p.pending, j.id)
		p.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrMapFailure, err)
	}

	select {
	case p.wake <- struct{}{}:
	default:
	}
	return nil
}

// notify is the map callback. It may run on any goroutine that drives wgpu,
// so it only records the status; the poller does the rest.
func (p *poller) notify(j *job, status wgpu.BufferMapAsyncStatus) {
	p.mu.Lock()
	p.mapped = append(p.mapped, mapResult{job: j, status: status})
	p.mu.Unlock()
}

func (p *poller) run() {
	defer close(p.done)
	for {
		p.mu.Lock()
		outstanding := len(p.pending)
		stopping := p.stopping
		p.mu.Unlock()

		if outstanding == 0 {
			if stopping {
				return
			}
			select {
			case <-p.wake:
			case <-p.quit:
			}
			continue
		}

		p.dev.Poll(true, nil)
		if p.drain() == 0 {
			time.Sleep(time.Millisecond)
		}
	}
}

// drain finishes every job whose callback has fired and returns how many.
func (p *poller) drain() int {
	p.mu.Lock()
	ready := p.mapped
	p.mapped = nil
	finished := ready[:0]
	for _, r := range ready {
		if _, ok := p.pending[r.job.id]; ok {
			delete(p.pending, r.job.id)
			finished = append(finished, r)
		}
	}
	p.mu.Unlock()

	for _, r := range finished {
		r.job.finishMap(r.status)
	}
	return len(finished)
}

// stop lets outstanding readbacks finish, then ends the poll goroutine.
func (p *poller) stop() {
	p.mu.Lock()
	if p.stopping {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.stopping = true
	p.mu.Unlock()
	close(p.quit)
	<-p.done
}

// finishMap copies the logical bytes out of the mapped readback buffer, then
// unmaps and frees every buffer of the job.
func (j *job) finishMap(status wgpu.BufferMapAsyncStatus) {
	if status != wgpu.BufferMapAsyncStatusSuccess {
		j.fail(fmt.Errorf("%w: map status %d", ErrMapFailure, status))
		return
	}
	j.advance(JobMapped)

	data := j.readback.GetMappedRange(0, uint(j.layout.PaddedSize))
	if data == nil {
		j.readback.Unmap()
		j.fail(fmt.Errorf("%w: mapped range nil", ErrMapFailure))
		return
	}
	result := make([]byte, j.layout.LogicalSize)
	copy(result, j.layout.Trim(data))
	j.readback.Unmap()

	j.complete(result)
}

// Pending is the handle returned by Sort. It resolves exactly once, to either
// the sorted values or an error.
type Pending[T Element] struct {
	j *job
}

var closedDone = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// Done is closed once the result is available.
func (p *Pending[T]) Done() <-chan struct{} {
	if p.j == nil {
		return closedDone
	}
	return p.j.done
}

// State reports the job's current state. Empty inputs never create a job and
// report JobCompleted.
func (p *Pending[T]) State() JobState {
	if p.j == nil {
		return JobCompleted
	}
	return p.j.State()
}

// Wait blocks until the job resolves or ctx ends. Cancelling ctx only stops
// the wait; the device finishes the job and its buffers are still released.
func (p *Pending[T]) Wait(ctx context.Context) ([]T, error) {
	if p.j == nil {
		return []T{}, nil
	}
	select {
	case <-p.j.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if p.j.err != nil {
		return nil, p.j.err
	}
	out := make([]T, p.j.layout.Count)
	copy(out, wgpu.FromBytes[T](p.j.result))
	return out, nil
}
