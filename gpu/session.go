package gpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/openfluke/ranksort/detector"
	"github.com/openfluke/ranksort/logging"
	"github.com/openfluke/webgpu/wgpu"
)

// Session owns a device and its queue. Create it once and reuse it for every
// sort: device creation is by far the most expensive step.
//
// A Session may be shared by concurrent Sort calls. Submission is append-only
// and every job's buffers are private to that job.
type Session struct {
	Device  *wgpu.Device
	Queue   *wgpu.Queue
	Adapter detector.Report
	Limits  detector.Limits

	instance  *wgpu.Instance // only set when the session created it
	alignment uint64

	mu        sync.Mutex // guards pipelines
	pipelines map[Kind]*rankPipeline

	// life is read-held while a job submits and write-held by Close.
	life   sync.RWMutex
	closed bool

	nextJob atomic.Uint64
	poller  *poller
}

// Open creates an instance, selects an adapter and requests a session from it.
// The instance and adapter are owned by the returned session.
func Open() (*Session, error) {
	inst := wgpu.CreateInstance(nil)
	if inst == nil {
		return nil, fmt.Errorf("%w: failed to create WebGPU instance", ErrDeviceRequestFailed)
	}

	adapter, err := SelectAdapter(inst)
	if err != nil {
		inst.Release()
		return nil, err
	}
	defer adapter.Release()

	s, err := NewSession(adapter)
	if err != nil {
		inst.Release()
		return nil, err
	}
	s.instance = inst
	return s, nil
}

// NewSession requests a device and queue from adapter.
func NewSession(adapter *Adapter) (*Session, error) {
	if adapter == nil || adapter.handle == nil {
		return nil, ErrNoAdapterFound
	}

	dev, err := adapter.handle.RequestDevice(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceRequestFailed, err)
	}
	if dev == nil {
		return nil, ErrDeviceRequestFailed
	}

	limits := detector.LimitsOf(dev.GetLimits())
	if limits.MaxComputeWorkgroupSizeX < WorkgroupSize || limits.MaxComputeInvocationsPerWorkgroup < WorkgroupSize {
		dev.Release()
		return nil, fmt.Errorf("%w: device cannot run %d-lane workgroups (max x %d, max invocations %d)",
			ErrDeviceRequestFailed, WorkgroupSize, limits.MaxComputeWorkgroupSizeX, limits.MaxComputeInvocationsPerWorkgroup)
	}

	q := dev.GetQueue()
	if q == nil {
		dev.Release()
		return nil, fmt.Errorf("%w: device has no queue", ErrDeviceRequestFailed)
	}

	logging.Infof("Using GPU Adapter: %s (Vendor: %s)", adapter.Report.Name, adapter.Report.Vendor)

	s := &Session{
		Device:    dev,
		Queue:     q,
		Adapter:   adapter.Report,
		Limits:    limits,
		alignment: uint64(limits.MinStorageBufferOffsetAlignment),
		pipelines: map[Kind]*rankPipeline{},
	}
	s.poller = newPoller(dev)
	return s, nil
}

// Alignment is the storage buffer alignment job buffers are padded to.
func (s *Session) Alignment() uint64 { return s.alignment }

// Close waits for every submitted job to finish, then releases pipelines,
// the queue and the device. It is safe to call more than once.
func (s *Session) Close() {
	s.life.Lock()
	if s.closed {
		s.life.Unlock()
		return
	}
	s.closed = true
	s.life.Unlock()

	s.mu.Lock()
	pipelines := s.pipelines
	s.pipelines = nil
	s.mu.Unlock()

	s.poller.stop()

	for _, p := range pipelines {
		p.release()
	}
	s.Queue.Release()
	s.Device.Release()
	if s.instance != nil {
		s.instance.Release()
	}
}
