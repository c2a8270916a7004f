package gpu_test

import (
	"context"
	"iter"
	"math"
	"math/rand"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/openfluke/ranksort/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sessionOnce sync.Once
	session     *gpu.Session
	sessionErr  error
)

// openSession shares one session across the package's tests and skips
// when the machine has no usable adapter.
func openSession(t *testing.T) *gpu.Session {
	t.Helper()
	sessionOnce.Do(func() {
		session, sessionErr = gpu.Open()
	})
	if sessionErr != nil {
		t.Skipf("no WebGPU device: %v", sessionErr)
	}
	return session
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSortEmptyNeedsNoDevice(t *testing.T) {
	p, err := gpu.Sort[uint32](nil, nil)
	require.NoError(t, err)
	assert.Equal(t, gpu.JobCompleted, p.State())
	got, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	raw, err := gpu.SortBytes(context.Background(), nil, gpu.KindFloat32, []byte{})
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestSortNilSession(t *testing.T) {
	_, err := gpu.Sort(nil, []int32{1})
	assert.ErrorIs(t, err, gpu.ErrSessionClosed)
}

func TestSortBytesRejectsPartialElements(t *testing.T) {
	_, err := gpu.SortBytes(context.Background(), nil, gpu.KindUint32, []byte{1, 2, 3})
	assert.ErrorIs(t, err, gpu.ErrUnsupportedElementKind)
	_, err = gpu.SortBytes(context.Background(), nil, gpu.Kind(9), []byte{1, 2, 3, 4})
	assert.ErrorIs(t, err, gpu.ErrUnsupportedElementKind)
}

func TestSortExamples(t *testing.T) {
	s := openSession(t)
	ctx := testContext(t)

	u, err := gpu.SortSync(ctx, s, []uint32{2, 5, 1, 7, 3, 3, 6, 8, 9, 4, 77, 33})
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3, 3, 4, 5, 6, 7, 8, 9, 33, 77}, u)

	i, err := gpu.SortSync(ctx, s, []int32{-5, 3, -5, 0})
	require.NoError(t, err)
	assert.Equal(t, []int32{-5, -5, 0, 3}, i)

	f, err := gpu.SortSync(ctx, s, []float32{1.5, -0.25, 1e9, -1e9, 0})
	require.NoError(t, err)
	assert.Equal(t, []float32{-1e9, -0.25, 0, 1.5, 1e9}, f)

	one, err := gpu.SortSync(ctx, s, []uint32{42})
	require.NoError(t, err)
	assert.Equal(t, []uint32{42}, one)
}

func TestSortDoesNotModifyInput(t *testing.T) {
	s := openSession(t)
	in := []uint32{9, 8, 7}
	_, err := gpu.SortSync(testContext(t), s, in)
	require.NoError(t, err)
	assert.Equal(t, []uint32{9, 8, 7}, in)
}

func TestSortExtremes(t *testing.T) {
	s := openSession(t)
	ctx := testContext(t)

	u, err := gpu.SortSync(ctx, s, []uint32{math.MaxUint32, 0, 1, math.MaxUint32})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, math.MaxUint32, math.MaxUint32}, u)

	i, err := gpu.SortSync(ctx, s, []int32{math.MaxInt32, math.MinInt32, 0, -1})
	require.NoError(t, err)
	assert.Equal(t, []int32{math.MinInt32, -1, 0, math.MaxInt32}, i)
}

type testData[T gpu.Element] struct {
	input    []T
	expected []T
}

func generateTestData[T gpu.Element](r *rand.Rand, gen func(*rand.Rand) T, sizes ...int) iter.Seq[testData[T]] {
	return func(yield func(testData[T]) bool) {
		for _, n := range sizes {
			in := make([]T, n)
			for i := range in {
				in[i] = gen(r)
			}
			exp := slices.Clone(in)
			slices.Sort(exp)
			if !yield(testData[T]{input: in, expected: exp}) {
				return
			}
		}
	}
}

// sizes straddling the workgroup width and common alignments
var sizes = []int{1, 2, 3, 63, 64, 65, 127, 128, 129, 255, 256, 1000, 4097}

func TestSortRandomSizes(t *testing.T) {
	s := openSession(t)
	ctx := testContext(t)
	r := rand.New(rand.NewSource(0))

	for td := range generateTestData(r, func(r *rand.Rand) uint32 { return r.Uint32() }, sizes...) {
		got, err := gpu.SortSync(ctx, s, td.input)
		require.NoError(t, err)
		require.Len(t, got, len(td.input))
		assert.Equal(t, td.expected, got, "n=%d", len(td.input))
	}
	for td := range generateTestData(r, func(r *rand.Rand) int32 { return int32(r.Intn(21) - 10) }, sizes...) {
		got, err := gpu.SortSync(ctx, s, td.input)
		require.NoError(t, err)
		assert.Equal(t, td.expected, got, "n=%d", len(td.input))
	}
	for td := range generateTestData(r, func(r *rand.Rand) float32 { return float32(r.NormFloat64()) }, sizes...) {
		got, err := gpu.SortSync(ctx, s, td.input)
		require.NoError(t, err)
		assert.Equal(t, td.expected, got, "n=%d", len(td.input))
	}
}

func TestSortSameValue(t *testing.T) {
	s := openSession(t)
	in := make([]int32, 300)
	for i := range in {
		in[i] = 7
	}
	got, err := gpu.SortSync(testContext(t), s, in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

// +0 and -0 compare equal but keep their sign bit through the copy, so a
// sort that reorders ties is visible in the output's sign bits.
type signedZeroCase struct {
	in        []float32
	wantSigns []bool
}

func signedZeroCases() []signedZeroCase {
	neg := float32(math.Copysign(0, -1))
	return []signedZeroCase{
		// zeros are +,-,-,+ which reads the same reversed
		{[]float32{0, neg, 1, neg, 0, -1}, []bool{true, false, true, true, false, false}},
		// zeros are +,-,-,- so reversing them changes the output
		{[]float32{0, neg, 1, neg, neg, -1}, []bool{true, false, true, true, true, false}},
		{[]float32{neg, 0, 0}, []bool{true, false, false}},
	}
}

func signBits(v []float32) []bool {
	out := make([]bool, len(v))
	for i, f := range v {
		out[i] = math.Signbit(float64(f))
	}
	return out
}

func TestSortIsStable(t *testing.T) {
	s := openSession(t)
	ctx := testContext(t)

	for _, c := range signedZeroCases() {
		got, err := gpu.SortSync(ctx, s, c.in)
		require.NoError(t, err)
		assert.Equal(t, c.wantSigns, signBits(got), "input %v", c.in)
	}

	// many ties spread across several workgroups
	r := rand.New(rand.NewSource(1))
	neg := float32(math.Copysign(0, -1))
	big := make([]float32, 700)
	var wantBig []bool
	for i := range big {
		switch r.Intn(3) {
		case 0:
			big[i] = neg
		case 1:
			big[i] = 0
		default:
			big[i] = 2
		}
	}
	for _, v := range big {
		if v == 0 {
			wantBig = append(wantBig, math.Signbit(float64(v)))
		}
	}
	got, err := gpu.SortSync(ctx, s, big)
	require.NoError(t, err)
	assert.Equal(t, wantBig, signBits(got[:len(wantBig)]))
}

func TestSortIdempotent(t *testing.T) {
	s := openSession(t)
	ctx := testContext(t)
	r := rand.New(rand.NewSource(2))
	for td := range generateTestData(r, func(r *rand.Rand) float32 { return r.Float32() }, 200) {
		once, err := gpu.SortSync(ctx, s, td.input)
		require.NoError(t, err)
		twice, err := gpu.SortSync(ctx, s, once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestSortBytes(t *testing.T) {
	s := openSession(t)
	raw := []byte{3, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0}
	got, err := gpu.SortBytes(testContext(t), s, gpu.KindUint32, raw)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0}, got)
}

func TestSortAll(t *testing.T) {
	s := openSession(t)
	ctx := testContext(t)
	r := rand.New(rand.NewSource(3))

	var inputs, expected [][]int32
	for td := range generateTestData(r, func(r *rand.Rand) int32 { return int32(r.Uint32()) }, sizes...) {
		inputs = append(inputs, td.input)
		expected = append(expected, td.expected)
	}
	inputs = append(inputs, nil)
	expected = append(expected, []int32{})

	for _, limit := range []int{0, 1, 4} {
		got, err := gpu.SortAll(ctx, s, inputs, limit)
		require.NoError(t, err, "limit=%d", limit)
		assert.Equal(t, expected, got, "limit=%d", limit)
	}
}

func TestSortPendingResolves(t *testing.T) {
	s := openSession(t)
	p, err := gpu.Sort(s, []uint32{3, 2, 1})
	require.NoError(t, err)

	select {
	case <-p.Done():
	case <-time.After(30 * time.Second):
		t.Fatal("job never resolved")
	}
	assert.Equal(t, gpu.JobCompleted, p.State())
	got, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, got)
}

func TestSessionAlignment(t *testing.T) {
	s := openSession(t)
	a := s.Alignment()
	require.NotZero(t, a)
	assert.Equal(t, uint64(s.Limits.MinStorageBufferOffsetAlignment), a)
	assert.Zero(t, a&(a-1), "alignment %d is not a power of two", a)

	ctx := testContext(t)
	for _, n := range []int{1, 63, 65, 1000} {
		l := gpu.PlanLayout(gpu.KindFloat32, n, a)
		assert.Zero(t, l.PaddedSize%max(a, 4), "n=%d", n)

		in := make([]float32, n)
		for i := range in {
			in[i] = float32(n - i)
		}
		got, err := gpu.SortSync(ctx, s, in)
		require.NoError(t, err)
		assert.Len(t, got, n)
	}
}

func TestSessionCloseRejectsNewWork(t *testing.T) {
	openSession(t)
	s, err := gpu.Open()
	require.NoError(t, err)

	p, err := gpu.Sort(s, []float32{2, 1})
	require.NoError(t, err)
	s.Close()
	s.Close()

	// work submitted before Close still completes
	got, err := p.Wait(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, got)

	_, err = gpu.Sort(s, []float32{1})
	assert.ErrorIs(t, err, gpu.ErrSessionClosed)
}
