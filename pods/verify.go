package pods

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/openfluke/ranksort/gpu"
)

// VerifyIn pairs a sort input with its output; both must share an element type.
type VerifyIn struct {
	Input  any
	Output any
}
type VerifyOut struct {
	Sorted      bool
	Permutation bool
	// FirstUnsorted is the first index i with Output[i] > Output[i+1], or -1.
	FirstUnsorted int
	// Unverifiable is set for float inputs holding NaN, whose order is undefined.
	Unverifiable bool
}

// OK reports whether the output is a sorted permutation of the input.
func (v VerifyOut) OK() bool { return v.Unverifiable || (v.Sorted && v.Permutation) }

type VerifyPod struct{}

func (VerifyPod) Name() string { return "sort/verify" }

func (VerifyPod) Run(x *ExecContext, in any) (any, error) {
	args, ok := in.(VerifyIn)
	if !ok {
		return nil, errors.New("VerifyIn expected")
	}
	switch input := args.Input.(type) {
	case []uint32:
		return verifyAs(input, args.Output)
	case []int32:
		return verifyAs(input, args.Output)
	case []float32:
		if slices.ContainsFunc(input, func(v float32) bool { return math.IsNaN(float64(v)) }) {
			return VerifyOut{FirstUnsorted: -1, Unverifiable: true}, nil
		}
		return verifyAs(input, args.Output)
	default:
		return nil, fmt.Errorf("%w: %T", gpu.ErrUnsupportedElementKind, args.Input)
	}
}

func verifyAs[T gpu.Element](input []T, output any) (VerifyOut, error) {
	out, ok := output.([]T)
	if !ok {
		return VerifyOut{}, fmt.Errorf("output is %T, want %T", output, input)
	}
	return Verify(input, out), nil
}

// Verify checks out against in. It does not modify either slice.
func Verify[T gpu.Element](in, out []T) VerifyOut {
	res := VerifyOut{Sorted: true, FirstUnsorted: -1}
	for i := 1; i < len(out); i++ {
		if out[i] < out[i-1] {
			res.Sorted = false
			res.FirstUnsorted = i - 1
			break
		}
	}

	if len(in) == len(out) {
		a := slices.Clone(in)
		b := slices.Clone(out)
		slices.Sort(a)
		slices.Sort(b)
		res.Permutation = slices.Equal(a, b)
	}
	return res
}
