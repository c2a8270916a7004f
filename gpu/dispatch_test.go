package gpu

import (
	"testing"

	"github.com/openfluke/ranksort/detector"
	"github.com/openfluke/ranksort/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failedJobs(t *testing.T, kind Kind) float64 {
	t.Helper()
	snap, err := metrics.Snapshot()
	require.NoError(t, err)
	return snap["ranksort_jobs_total{kind="+kind.String()+",outcome=failed}"]
}

func TestSubmitRejectionsCountAsFailed(t *testing.T) {
	tests := []struct {
		name    string
		session *Session
		count   int
		wantErr error
	}{
		{
			name:    "too many workgroups",
			session: &Session{Limits: detector.Limits{MaxComputeWorkgroupsPerDimension: 2}, alignment: 256},
			count:   200,
			wantErr: ErrDeviceRequestFailed,
		},
		{
			name:    "binding too large",
			session: &Session{Limits: detector.Limits{MaxStorageBufferBindingSize: 64}, alignment: 4},
			count:   100,
			wantErr: ErrDeviceRequestFailed,
		},
		{
			name:    "closed",
			session: &Session{closed: true},
			count:   1,
			wantErr: ErrSessionClosed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := failedJobs(t, KindInt32)
			j, err := tt.session.submit(KindInt32, make([]byte, tt.count*4), tt.count)
			assert.Nil(t, j)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before+1, failedJobs(t, KindInt32))
		})
	}
}

func TestSortNilSessionCountsAsFailed(t *testing.T) {
	before := failedJobs(t, KindFloat32)
	_, err := Sort(nil, []float32{1})
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.Equal(t, before+1, failedJobs(t, KindFloat32))
}

func TestSessionAlignmentIsLayoutAlignment(t *testing.T) {
	s := &Session{alignment: 256}
	assert.Equal(t, uint64(256), s.Alignment())
	l := PlanLayout(KindUint32, 3, s.Alignment())
	assert.Zero(t, l.PaddedSize%s.Alignment())
}
