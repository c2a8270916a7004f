package gpu

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openfluke/ranksort/logging"
	"github.com/openfluke/ranksort/metrics"
	"github.com/openfluke/webgpu/wgpu"
	"github.com/sirupsen/logrus"
)

// JobState is where a sort job is in its life. States only move forward one
// step at a time; any step may instead end in Failed.
type JobState int32

const (
	JobCreated JobState = iota
	JobBuffersAllocated
	JobDispatched
	JobCopying
	JobAwaitingMap
	JobMapped
	JobCompleted
	JobFailed
)

func (s JobState) String() string {
	switch s {
	case JobCreated:
		return "created"
	case JobBuffersAllocated:
		return "buffers-allocated"
	case JobDispatched:
		return "dispatched"
	case JobCopying:
		return "copying"
	case JobAwaitingMap:
		return "awaiting-map"
	case JobMapped:
		return "mapped"
	case JobCompleted:
		return "completed"
	case JobFailed:
		return "failed"
	default:
		return fmt.Sprintf("JobState(%d)", int32(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s JobState) Terminal() bool { return s == JobCompleted || s == JobFailed }

// job is one sort call's device resources and its completion signal.
type job struct {
	id     uint64
	layout Layout
	state  atomic.Int32
	start  time.Time

	input     *wgpu.Buffer
	length    *wgpu.Buffer
	output    *wgpu.Buffer
	readback  *wgpu.Buffer
	bindGroup *wgpu.BindGroup

	once   sync.Once
	done   chan struct{}
	result []byte
	err    error
}

func newJob(id uint64, layout Layout) *job {
	j := &job{
		id:     id,
		layout: layout,
		start:  time.Now(),
		done:   make(chan struct{}),
	}
	metrics.JobsInflight.Inc()
	j.log().Debug("job state")
	return j
}

func (j *job) State() JobState { return JobState(j.state.Load()) }

func (j *job) log() *logrus.Entry {
	return logging.ForJob(j.id, j.layout.Kind.String(), j.layout.Count).
		WithField(logging.FieldState, j.State().String())
}

// advance moves the job one step forward. Skipping a step or leaving a
// terminal state is a bug in this package.
func (j *job) advance(to JobState) {
	from := j.State()
	if from.Terminal() || to != from+1 || to == JobFailed {
		panic(fmt.Sprintf("gpu: job %d: invalid transition %v -> %v", j.id, from, to))
	}
	j.state.Store(int32(to))
	j.log().Debug("job state")
}

// complete hands the host copy of the result to waiters. The job must be Mapped.
func (j *job) complete(result []byte) {
	j.release()
	j.advance(JobCompleted)
	j.resolve(result, nil)
	metrics.JobsTotal.WithLabelValues(j.layout.Kind.String(), metrics.OutcomeCompleted).Inc()
	metrics.JobDuration.WithLabelValues(j.layout.Kind.String()).Observe(time.Since(j.start).Seconds())
}

// fail moves the job to Failed from any non-terminal state and frees its buffers.
func (j *job) fail(err error) {
	from := j.State()
	if from.Terminal() {
		return
	}
	j.release()
	j.state.Store(int32(JobFailed))
	j.log().WithError(err).Debugf("job failed after %v", from)
	j.resolve(nil, err)
	metrics.JobsTotal.WithLabelValues(j.layout.Kind.String(), metrics.OutcomeFailed).Inc()
}

// resolve fires the completion signal. Only the first call has any effect.
func (j *job) resolve(result []byte, err error) {
	j.once.Do(func() {
		j.result = result
		j.err = err
		metrics.JobsInflight.Dec()
		close(j.done)
	})
}

// release destroys every buffer the job created. Safe to call repeatedly.
func (j *job) release() {
	if j.bindGroup != nil {
		j.bindGroup.Release()
		j.bindGroup = nil
	}
	for _, b := range []**wgpu.Buffer{&j.input, &j.length, &j.output, &j.readback} {
		if *b != nil {
			(*b).Destroy()
			(*b).Release()
			*b = nil
		}
	}
}
