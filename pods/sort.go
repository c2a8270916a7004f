package pods

import (
	"context"
	"errors"
	"fmt"

	"github.com/openfluke/ranksort/gpu"
	"golang.org/x/sync/errgroup"
)

// SortIn.Values must be a []uint32, []int32 or []float32.
type SortIn struct {
	Values any
}
type SortOut struct {
	Values any
	OnGPU  bool
}

type RankSortPod struct{}

func (RankSortPod) Name() string { return "sort/rank" }

func (RankSortPod) Run(x *ExecContext, in any) (any, error) {
	args, ok := in.(SortIn)
	if !ok {
		return nil, errors.New("SortIn expected")
	}
	switch v := args.Values.(type) {
	case []uint32:
		return runSort(x, v, GPUHooks.DispatchSortU32)
	case []int32:
		return runSort(x, v, GPUHooks.DispatchSortI32)
	case []float32:
		return runSort(x, v, GPUHooks.DispatchSortF32)
	default:
		return nil, fmt.Errorf("%w: %T", gpu.ErrUnsupportedElementKind, args.Values)
	}
}

func runSort[T gpu.Element](x *ExecContext, in []T, dispatch func(GPUHooks, context.Context, []T) ([]T, error)) (SortOut, error) {
	ctx := x.baseCtx()
	if x.UseGPU && x.GPU != nil {
		out, err := dispatch(x.GPU, ctx, in)
		if err == nil {
			return SortOut{Values: out, OnGPU: true}, nil
		}
		if !errors.Is(err, ErrNoGPU) {
			return SortOut{}, err
		}
	}
	out, err := RankSortCPU(ctx, in, x.workers())
	if err != nil {
		return SortOut{}, err
	}
	return SortOut{Values: out}, nil
}

// RankSortCPU computes the same ranks the GPU kernel does, one workgroup-sized
// block of indices per task, then scatters sequentially. A nil ctx means
// context.Background().
func RankSortCPU[T gpu.Element](ctx context.Context, in []T, workers int) ([]T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	n := len(in)
	ranks := make([]int, n)

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for start := 0; start < n; start += gpu.WorkgroupSize {
		end := min(start+gpu.WorkgroupSize, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				ranks[i] = gpu.Rank(in, i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]T, n)
	for i, r := range ranks {
		out[r] = in[i]
	}
	return out, nil
}
