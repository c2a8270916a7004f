package pods

import "context"

// GPUHooks describes the optional GPU backend. Keep it slice-based so CPU fallback is easy.
type GPUHooks interface {
	DispatchSortU32(ctx context.Context, in []uint32) ([]uint32, error)
	DispatchSortI32(ctx context.Context, in []int32) ([]int32, error)
	DispatchSortF32(ctx context.Context, in []float32) ([]float32, error)
}

// Default to a no-op GPU so everything runs without a device.
var GPU GPUHooks = noopGPU{}

type noopGPU struct{}

func (noopGPU) DispatchSortU32(context.Context, []uint32) ([]uint32, error)   { return nil, ErrNoGPU }
func (noopGPU) DispatchSortI32(context.Context, []int32) ([]int32, error)     { return nil, ErrNoGPU }
func (noopGPU) DispatchSortF32(context.Context, []float32) ([]float32, error) { return nil, ErrNoGPU }
