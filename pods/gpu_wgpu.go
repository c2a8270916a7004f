package pods

import (
	"context"

	"github.com/openfluke/ranksort/gpu"
)

// SessionHooks runs GPU pods on a WebGPU session.
type SessionHooks struct {
	Session *gpu.Session
}

func (h SessionHooks) DispatchSortU32(ctx context.Context, in []uint32) ([]uint32, error) {
	return gpu.SortSync(ctx, h.Session, in)
}

func (h SessionHooks) DispatchSortI32(ctx context.Context, in []int32) ([]int32, error) {
	return gpu.SortSync(ctx, h.Session, in)
}

func (h SessionHooks) DispatchSortF32(ctx context.Context, in []float32) ([]float32, error) {
	return gpu.SortSync(ctx, h.Session, in)
}
