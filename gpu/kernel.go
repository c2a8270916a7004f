package gpu

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
)

//go:embed shaders/rank_sort.wgsl
var rankSortShader string

var rankSortTemplate = template.Must(template.New("shaders/rank_sort.wgsl").Parse(rankSortShader))

type kernelSettings struct {
	Elem          string
	WorkgroupSize int
}

// KernelSource renders the rank sort WGSL for one element kind.
// Only the element type token differs between kinds.
func KernelSource(kind Kind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedElementKind, kind)
	}
	var buf bytes.Buffer
	if err := rankSortTemplate.Execute(&buf, kernelSettings{
		Elem:          kind.String(),
		WorkgroupSize: WorkgroupSize,
	}); err != nil {
		return "", fmt.Errorf("render rank sort kernel: %w", err)
	}
	return buf.String(), nil
}

// Rank is the host-side form of what each kernel invocation computes:
// the number of elements smaller than in[i] plus the number of equal
// elements before i.
func Rank[T Element](in []T, i int) int {
	v := in[i]
	rank := 0
	for j, w := range in {
		if w < v || (w == v && j < i) {
			rank++
		}
	}
	return rank
}
