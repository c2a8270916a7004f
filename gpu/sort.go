package gpu

import (
	"context"
	"fmt"

	"github.com/openfluke/ranksort/metrics"
	"github.com/openfluke/webgpu/wgpu"
	"golang.org/x/sync/errgroup"
)

// Sort submits input for sorting on s and returns without waiting for the
// device. The result is ascending and stable: equal values keep their input
// order. input is not modified and may be reused once Sort returns.
//
// Empty input resolves immediately without touching the device.
func Sort[T Element](s *Session, input []T) (*Pending[T], error) {
	kind := KindOf[T]()
	if len(input) == 0 {
		metrics.JobsTotal.WithLabelValues(kind.String(), metrics.OutcomeEmpty).Inc()
		return &Pending[T]{}, nil
	}
	if s == nil {
		return nil, reject(kind, fmt.Errorf("%w: nil session", ErrSessionClosed))
	}
	j, err := s.submit(kind, wgpu.ToBytes(input), len(input))
	if err != nil {
		return nil, err
	}
	return &Pending[T]{j: j}, nil
}

// SortSync is Sort followed by Wait.
func SortSync[T Element](ctx context.Context, s *Session, input []T) ([]T, error) {
	p, err := Sort(s, input)
	if err != nil {
		return nil, err
	}
	return p.Wait(ctx)
}

// SortAll sorts every input on s and returns the results in input order.
//
// With limit <= 0 every input is submitted before any result is awaited, so
// the queue sees the jobs in input order. A positive limit bounds the number
// of jobs in flight; submission order between concurrent jobs is then not
// fixed. The first error cancels the remaining waits.
func SortAll[T Element](ctx context.Context, s *Session, inputs [][]T, limit int) ([][]T, error) {
	out := make([][]T, len(inputs))
	g, gctx := errgroup.WithContext(ctx)

	if limit <= 0 {
		pending := make([]*Pending[T], len(inputs))
		for i, in := range inputs {
			p, err := Sort(s, in)
			if err != nil {
				return nil, fmt.Errorf("submit job %d: %w", i, err)
			}
			pending[i] = p
		}
		for i, p := range pending {
			g.Go(func() error {
				res, err := p.Wait(gctx)
				if err != nil {
					return fmt.Errorf("job %d: %w", i, err)
				}
				out[i] = res
				return nil
			})
		}
	} else {
		g.SetLimit(limit)
		for i, in := range inputs {
			g.Go(func() error {
				res, err := SortSync(gctx, s, in)
				if err != nil {
					return fmt.Errorf("job %d: %w", i, err)
				}
				out[i] = res
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// SortBytes sorts little-endian elements of a kind chosen at runtime.
// raw must hold a whole number of elements.
func SortBytes(ctx context.Context, s *Session, kind Kind, raw []byte) ([]byte, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedElementKind, kind)
	}
	if len(raw)%kind.Size() != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %v elements", ErrUnsupportedElementKind, len(raw), kind)
	}
	count := len(raw) / kind.Size()
	if count == 0 {
		metrics.JobsTotal.WithLabelValues(kind.String(), metrics.OutcomeEmpty).Inc()
		return []byte{}, nil
	}
	if s == nil {
		return nil, reject(kind, fmt.Errorf("%w: nil session", ErrSessionClosed))
	}

	j, err := s.submit(kind, raw, count)
	if err != nil {
		return nil, err
	}
	select {
	case <-j.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if j.err != nil {
		return nil, j.err
	}
	return append([]byte(nil), j.result...), nil
}
