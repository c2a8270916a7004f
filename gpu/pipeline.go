package gpu

import (
	"fmt"

	"github.com/openfluke/webgpu/wgpu"
)

// rankPipeline is the compiled kernel for one kind plus its bind group layout.
type rankPipeline struct {
	kind            Kind
	bindGroupLayout *wgpu.BindGroupLayout
	pipeline        *wgpu.ComputePipeline
}

// pipeline returns the cached pipeline for kind, compiling it on first use.
func (s *Session) pipeline(kind Kind) (*rankPipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pipelines[kind]; ok {
		return p, nil
	}
	p, err := compileRankPipeline(s.Device, kind)
	if err != nil {
		return nil, err
	}
	s.pipelines[kind] = p
	return p, nil
}

func compileRankPipeline(dev *wgpu.Device, kind Kind) (*rankPipeline, error) {
	shader, err := KernelSource(kind)
	if err != nil {
		return nil, err
	}
	label := "RankSort_" + kind.String()

	module, err := dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label + "_Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shader},
	})
	if err != nil {
		return nil, fmt.Errorf("shader compile: %w", err)
	}
	defer module.Release()

	bgl, err := dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: label + "_BGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}}, // Input
			{Binding: 1, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}},         // Output
			{Binding: 2, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}}, // Length
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bgl: %w", err)
	}

	pipelineLayout, err := dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label + "_Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		bgl.Release()
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	defer pipelineLayout.Release()

	pipeline, err := dev.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  label + "_Pipe",
		Layout: pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		bgl.Release()
		return nil, fmt.Errorf("pipeline create: %w", err)
	}

	return &rankPipeline{kind: kind, bindGroupLayout: bgl, pipeline: pipeline}, nil
}

func (p *rankPipeline) release() {
	if p.pipeline != nil {
		p.pipeline.Release()
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
	}
}
