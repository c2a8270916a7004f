package gpu

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStateOrder(t *testing.T) {
	order := []JobState{JobCreated, JobBuffersAllocated, JobDispatched, JobCopying, JobAwaitingMap, JobMapped, JobCompleted}
	for i := 1; i < len(order); i++ {
		assert.Equal(t, order[i-1]+1, order[i])
	}
	assert.True(t, JobCompleted.Terminal())
	assert.True(t, JobFailed.Terminal())
	assert.False(t, JobMapped.Terminal())
	assert.Equal(t, "awaiting-map", JobAwaitingMap.String())
}

func TestJobAdvanceRejectsSkips(t *testing.T) {
	j := newJob(1, PlanLayout(KindUint32, 4, 4))
	defer j.fail(errors.New("cleanup"))

	j.advance(JobBuffersAllocated)
	assert.Equal(t, JobBuffersAllocated, j.State())
	assert.Panics(t, func() { j.advance(JobCopying) })
	assert.Panics(t, func() { j.advance(JobFailed) })
}

func TestJobCompleteResolvesOnce(t *testing.T) {
	j := newJob(2, PlanLayout(KindUint32, 2, 4))
	for _, s := range []JobState{JobBuffersAllocated, JobDispatched, JobCopying, JobAwaitingMap, JobMapped} {
		j.advance(s)
	}
	j.complete([]byte{1, 0, 0, 0, 2, 0, 0, 0})
	assert.Equal(t, JobCompleted, j.State())

	// late failures do not overwrite a completed job
	j.fail(errors.New("late"))
	assert.Equal(t, JobCompleted, j.State())

	p := &Pending[uint32]{j: j}
	got, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2}, got)
	assert.Panics(t, func() { j.advance(JobFailed) })
}

func TestJobFailFromAnyState(t *testing.T) {
	boom := errors.New("boom")
	for _, upTo := range []JobState{JobCreated, JobBuffersAllocated, JobDispatched, JobCopying, JobAwaitingMap, JobMapped} {
		j := newJob(3, PlanLayout(KindFloat32, 1, 4))
		for s := JobBuffersAllocated; s <= upTo; s++ {
			j.advance(s)
		}
		j.fail(boom)
		assert.Equal(t, JobFailed, j.State(), "failed from %v", upTo)

		p := &Pending[float32]{j: j}
		select {
		case <-p.Done():
		default:
			t.Fatalf("job failed from %v but Done is open", upTo)
		}
		_, err := p.Wait(context.Background())
		assert.ErrorIs(t, err, boom)
	}
}

func TestPendingWaitHonoursContext(t *testing.T) {
	j := newJob(4, PlanLayout(KindInt32, 1, 4))
	defer j.fail(errors.New("cleanup"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Pending[int32]{j: j}).Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, JobCreated, j.State())
}
