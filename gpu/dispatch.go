package gpu

import (
	"fmt"

	"github.com/openfluke/ranksort/logging"
	"github.com/openfluke/ranksort/metrics"
	"github.com/openfluke/webgpu/wgpu"
)

// submit runs every synchronous step of a job: allocation, binding, encoding,
// submission and the map request. raw holds exactly count elements of kind.
// On error the job is already Failed and released.
func (s *Session) submit(kind Kind, raw []byte, count int) (*job, error) {
	s.life.RLock()
	defer s.life.RUnlock()
	if s.closed {
		return nil, reject(kind, ErrSessionClosed)
	}

	layout := PlanLayout(kind, count, s.Alignment())
	if err := s.checkLimits(layout); err != nil {
		return nil, reject(kind, err)
	}
	pipe, err := s.pipeline(kind)
	if err != nil {
		return nil, reject(kind, err)
	}

	j := newJob(s.nextJob.Add(1), layout)
	if err := j.allocate(s.Device, raw); err != nil {
		j.fail(err)
		return nil, err
	}
	if err := j.bind(s.Device, pipe); err != nil {
		j.fail(err)
		return nil, err
	}
	if err := j.encode(s.Device, s.Queue, pipe); err != nil {
		j.fail(err)
		return nil, err
	}
	if err := s.poller.mapRead(j); err != nil {
		j.fail(err)
		return nil, err
	}
	return j, nil
}

// reject counts a job refused before any device work as failed.
func reject(kind Kind, err error) error {
	metrics.JobsTotal.WithLabelValues(kind.String(), metrics.OutcomeFailed).Inc()
	logging.ForJob(0, kind.String(), 0).WithError(err).Debug("job rejected")
	return err
}

func (s *Session) checkLimits(l Layout) error {
	if limit := s.Limits.MaxComputeWorkgroupsPerDimension; limit > 0 && l.Workgroups > limit {
		return fmt.Errorf("%w: %d workgroups exceed device limit %d", ErrDeviceRequestFailed, l.Workgroups, limit)
	}
	if limit := s.Limits.MaxStorageBufferBindingSize; limit > 0 && l.PaddedSize > limit {
		return fmt.Errorf("%w: %d byte buffer exceeds storage binding limit %d", ErrDeviceRequestFailed, l.PaddedSize, limit)
	}
	return nil
}

func (j *job) label(role string) string {
	return fmt.Sprintf("RankSort%d_%s", j.id, role)
}

// allocate creates the input, length, output and readback buffers.
func (j *job) allocate(dev *wgpu.Device, raw []byte) error {
	l := j.layout
	var err error

	j.input, err = dev.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    j.label("Input"),
		Contents: l.Pad(raw),
		Usage:    wgpu.BufferUsageStorage,
	})
	if err != nil {
		return fmt.Errorf("create input buffer: %w", err)
	}

	// The kernel bounds its scan by this value, never by the padded input size.
	j.length, err = dev.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    j.label("Length"),
		Contents: wgpu.ToBytes([]uint32{uint32(l.Count)}),
		Usage:    wgpu.BufferUsageStorage,
	})
	if err != nil {
		return fmt.Errorf("create length buffer: %w", err)
	}

	j.output, err = dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: j.label("Output"),
		Size:  l.PaddedSize,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create output buffer: %w", err)
	}

	j.readback, err = dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: j.label("Readback"),
		Size:  l.PaddedSize,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create readback buffer: %w", err)
	}

	metrics.PaddingBytes.WithLabelValues(l.Kind.String()).Add(float64(l.PaddingBytes))
	j.advance(JobBuffersAllocated)
	return nil
}

func (j *job) bind(dev *wgpu.Device, pipe *rankPipeline) error {
	var err error
	j.bindGroup, err = dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  j.label("Bind"),
		Layout: pipe.bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: j.input, Size: j.input.GetSize()},
			{Binding: 1, Buffer: j.output, Size: j.output.GetSize()},
			{Binding: 2, Buffer: j.length, Size: j.length.GetSize()},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	return nil
}

// encode records the compute pass and the output->readback copy in one
// command buffer, so the copy always observes the finished kernel.
func (j *job) encode(dev *wgpu.Device, q *wgpu.Queue, pipe *rankPipeline) error {
	enc, err := dev.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: j.label("Encoder")})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	defer enc.Release()

	pass := enc.BeginComputePass(&wgpu.ComputePassDescriptor{Label: j.label("Pass")})
	pass.SetPipeline(pipe.pipeline)
	pass.SetBindGroup(0, j.bindGroup, nil)
	pass.DispatchWorkgroups(j.layout.Workgroups, 1, 1)
	pass.End()
	pass.Release()
	j.advance(JobDispatched)

	enc.CopyBufferToBuffer(j.output, 0, j.readback, 0, j.layout.PaddedSize)
	cmd, err := enc.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish command: %w", err)
	}
	q.Submit(cmd)
	cmd.Release()
	j.advance(JobCopying)
	return nil
}
