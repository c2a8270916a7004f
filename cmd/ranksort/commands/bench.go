package commands

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/openfluke/ranksort/gpu"
	"github.com/openfluke/ranksort/logging"
	"github.com/openfluke/ranksort/metrics"
	"github.com/openfluke/ranksort/pods"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Sort many random arrays and report timings",
	Long: `Generate bench.jobs arrays of bench.size random values, sort them all
through one session and check every result against a CPU sort.

With --concurrency 0 every job is submitted before any result is awaited.`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().Int("jobs", 1000, "number of arrays to sort")
	benchCmd.Flags().Int("size", 1000, "elements per array")
	benchCmd.Flags().Int("concurrency", 0, "max jobs in flight (0 submits all up front)")
	benchCmd.Flags().Int64("seed", 1, "random seed")
	benchCmd.Flags().String("kind", "u32", "element type: u32, i32 or f32")

	viper.BindPFlag("bench.jobs", benchCmd.Flags().Lookup("jobs"))
	viper.BindPFlag("bench.size", benchCmd.Flags().Lookup("size"))
	viper.BindPFlag("bench.concurrency", benchCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("bench.seed", benchCmd.Flags().Lookup("seed"))

	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	kind, err := kindFlag(cmd)
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(cfg.Bench.Seed))

	switch kind {
	case gpu.KindUint32:
		return bench(cmd, func() uint32 { return rng.Uint32() })
	case gpu.KindInt32:
		return bench(cmd, func() int32 { return int32(rng.Uint32()) })
	default:
		return bench(cmd, func() float32 { return rng.Float32()*2e6 - 1e6 })
	}
}

func bench[T gpu.Element](cmd *cobra.Command, gen func() T) error {
	b := cfg.Bench
	inputs := make([][]T, b.Jobs)
	for i := range inputs {
		in := make([]T, b.Size)
		for k := range in {
			in[k] = gen()
		}
		inputs[i] = in
	}

	begin := time.Now()
	s, err := openSession()
	if err != nil {
		return err
	}
	if s != nil {
		defer s.Close()
	}

	start := time.Now()
	var outs [][]T
	if s != nil {
		outs, err = gpu.SortAll(cmd.Context(), s, inputs, b.Concurrency)
	} else {
		outs, err = sortAllCPU(cmd.Context(), inputs)
	}
	if err != nil {
		return err
	}
	sortTime := time.Since(start)

	failed := 0
	for i, out := range outs {
		if !cfg.Sort.Verify {
			break
		}
		if v := pods.Verify(inputs[i], out); !v.Sorted || !v.Permutation {
			failed++
			logging.Errorf("Job %d: result differs from CPU sort (first unsorted index %d)", i, v.FirstUnsorted)
		}
	}
	total := time.Since(begin)

	w := cmd.OutOrStdout()
	device := "cpu"
	if s != nil {
		device = s.Adapter.Name
	}
	fmt.Fprintf(w, "device:     %s\n", device)
	fmt.Fprintf(w, "jobs:       %d x %d %s\n", b.Jobs, b.Size, gpu.KindOf[T]())
	fmt.Fprintf(w, "total time: %v\n", total)
	fmt.Fprintf(w, "sort time:  %v\n", sortTime)
	if cfg.Sort.Verify {
		fmt.Fprintf(w, "verified:   %d/%d\n", len(outs)-failed, len(outs))
	}
	printMetrics(w)

	if failed > 0 {
		return fmt.Errorf("%d of %d results failed verification", failed, len(outs))
	}
	return nil
}

func sortAllCPU[T gpu.Element](ctx context.Context, inputs [][]T) ([][]T, error) {
	outs := make([][]T, len(inputs))
	for i, in := range inputs {
		out, err := pods.RankSortCPU(ctx, in, 0)
		if err != nil {
			return nil, fmt.Errorf("job %d: %w", i, err)
		}
		outs[i] = out
	}
	return outs, nil
}

func printMetrics(w io.Writer) {
	snap, err := metrics.Snapshot()
	if err != nil {
		logging.Warnf("Reading metrics: %v", err)
		return
	}
	keys := make([]string, 0, len(snap))
	for k := range snap {
		if strings.HasPrefix(k, "ranksort_") {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s %g\n", k, snap[k])
	}
}
