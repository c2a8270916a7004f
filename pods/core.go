package pods

import (
	"context"
	"runtime"
	"time"

	"github.com/openfluke/ranksort/detector"
	"github.com/openfluke/ranksort/gpu"
)

// Pod is a unit of work such as a rank sort or a verification pass.
type Pod interface {
	Name() string
	Run(ctx *ExecContext, in any) (out any, err error)
}

// ExecContext carries execution choices and capabilities.
type ExecContext struct {
	Ctx     context.Context
	UseGPU  bool             // high-level knob; pods may override per-op
	Report  *detector.Report // adapter the GPU hooks run on, if any
	GPU     GPUHooks         // nil unless a session was attached
	Workers int              // CPU fallback parallelism; <= 0 means GOMAXPROCS
	Now     time.Time
}

func NewContext(ctx context.Context) *ExecContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ExecContext{
		Ctx:     ctx,
		UseGPU:  false,
		Workers: runtime.GOMAXPROCS(0),
		Now:     time.Now(),
	}
}

func (ec *ExecContext) WithGPU(g GPUHooks) *ExecContext {
	ec.GPU = g
	ec.UseGPU = g != nil
	return ec
}

// WithSession routes GPU work to s and records its adapter.
func (ec *ExecContext) WithSession(s *gpu.Session) *ExecContext {
	if s == nil {
		return ec.WithGPU(nil)
	}
	rep := s.Adapter
	ec.Report = &rep
	return ec.WithGPU(SessionHooks{Session: s})
}

// Device names where GPU pods run: the attached adapter, or "cpu".
func (ec *ExecContext) Device() string {
	if !ec.UseGPU || ec.GPU == nil {
		return "cpu"
	}
	if ec.Report == nil || ec.Report.Name == "" {
		return "gpu"
	}
	return ec.Report.Name
}

// baseCtx returns Ctx, or context.Background() for a zero ExecContext.
func (ec *ExecContext) baseCtx() context.Context {
	if ec.Ctx == nil {
		return context.Background()
	}
	return ec.Ctx
}

func (ec *ExecContext) workers() int {
	if ec.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return ec.Workers
}
