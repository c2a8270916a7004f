package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/openfluke/ranksort/gpu"
	"github.com/openfluke/ranksort/logging"
	"github.com/openfluke/ranksort/pods"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var sortCmd = &cobra.Command{
	Use:   "sort [values...]",
	Short: "Sort numbers given as arguments or on stdin",
	Long: `Sort a list of numbers on the GPU and print them in ascending order.

Values are read from the arguments, or from stdin separated by whitespace
when no arguments are given. --kind selects the element type (u32, i32, f32).`,
	Example: `  ranksort sort 2 5 1 7 3 3 6 8 9 4 77 33
  ranksort sort --kind i32 -- -5 3 -5 0
  seq 100 -1 1 | ranksort sort`,
	RunE: runSort,
}

func init() {
	sortCmd.Flags().String("kind", "u32", "element type: u32, i32 or f32")
	sortCmd.Flags().Bool("verify", true, "check the result is a sorted permutation of the input")
	sortCmd.Flags().Duration("timeout", 0, "give up waiting for the device after this long (default from config)")

	viper.BindPFlag("sort.verify", sortCmd.Flags().Lookup("verify"))
	viper.BindPFlag("sort.timeout", sortCmd.Flags().Lookup("timeout"))

	rootCmd.AddCommand(sortCmd)
}

func runSort(cmd *cobra.Command, args []string) error {
	kind, err := kindFlag(cmd)
	if err != nil {
		return err
	}

	words := args
	if len(words) == 0 {
		if cmd.InOrStdin() == os.Stdin && stdinIsTerminal() {
			logging.Infof("Reading values from stdin, end with Ctrl-D")
		}
		words, err = readWords(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	}
	values, err := parseValues(kind, words)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	if s != nil {
		defer s.Close()
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Sort.Timeout)
	defer cancel()
	x := pods.NewContext(ctx).WithSession(s)

	res, err := pods.Run(x, "sort/rank", pods.SortIn{Values: values})
	if err != nil {
		return fmt.Errorf("sort: %w", err)
	}
	out := res.(pods.SortOut)
	where := "cpu"
	if out.OnGPU {
		where = x.Device()
	}
	logging.Debugf("Sorted %d %s values on %s", len(words), kind, where)

	if cfg.Sort.Verify {
		v, err := pods.Run(x, "sort/verify", pods.VerifyIn{Input: values, Output: out.Values})
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		if vo := v.(pods.VerifyOut); !vo.OK() {
			return fmt.Errorf("verify: result is not a sorted permutation (sorted=%v, permutation=%v, first unsorted index %d)",
				vo.Sorted, vo.Permutation, vo.FirstUnsorted)
		} else if vo.Unverifiable {
			logging.Warnf("Input holds NaN, result order is unspecified")
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), formatValues(out.Values))
	return nil
}

// kindFlag resolves --kind, which sort and bench both accept, against sort.kind.
func kindFlag(cmd *cobra.Command) (gpu.Kind, error) {
	if f := cmd.Flags().Lookup("kind"); f != nil && f.Changed {
		return gpu.ParseKind(f.Value.String())
	}
	return gpu.ParseKind(cfg.Sort.Kind)
}

func readWords(r io.Reader) ([]string, error) {
	var words []string
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		words = append(words, sc.Text())
	}
	return words, sc.Err()
}

// parseValues converts words to a slice of the kind's element type.
func parseValues(kind gpu.Kind, words []string) (any, error) {
	switch kind {
	case gpu.KindUint32:
		return parseAll(words, func(w string) (uint32, error) {
			v, err := strconv.ParseUint(w, 10, 32)
			return uint32(v), err
		})
	case gpu.KindInt32:
		return parseAll(words, func(w string) (int32, error) {
			v, err := strconv.ParseInt(w, 10, 32)
			return int32(v), err
		})
	case gpu.KindFloat32:
		return parseAll(words, func(w string) (float32, error) {
			v, err := strconv.ParseFloat(w, 32)
			return float32(v), err
		})
	default:
		return nil, fmt.Errorf("%w: %v", gpu.ErrUnsupportedElementKind, kind)
	}
}

func parseAll[T gpu.Element](words []string, parse func(string) (T, error)) ([]T, error) {
	out := make([]T, len(words))
	for i, w := range words {
		v, err := parse(w)
		if err != nil {
			return nil, fmt.Errorf("value %d %q: %w", i, w, err)
		}
		out[i] = v
	}
	return out, nil
}

func formatValues(values any) string {
	switch v := values.(type) {
	case []uint32:
		return joinValues(v)
	case []int32:
		return joinValues(v)
	case []float32:
		return joinValues(v)
	default:
		return fmt.Sprint(values)
	}
}

func joinValues[T gpu.Element](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}

func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
