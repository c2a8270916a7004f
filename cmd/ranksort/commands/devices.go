package commands

import (
	"fmt"
	"runtime"

	"github.com/openfluke/ranksort/detector"
	"github.com/openfluke/ranksort/gpu"
	"github.com/openfluke/webgpu/wgpu"
	"github.com/spf13/cobra"
)

var devicesJSON bool

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List WebGPU adapters",
	Long: `List every adapter WebGPU can see, on every backend, with its limits
and features. The adapter marked selected is the one sort and bench use:
a discrete GPU if present, else an integrated GPU, else the first adapter.`,
	RunE: runDevices,
}

func init() {
	devicesCmd.Flags().BoolVar(&devicesJSON, "json", false, "print the reports as JSON")
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	inst := wgpu.CreateInstance(nil)
	if inst == nil {
		return fmt.Errorf("%w: no WebGPU instance", gpu.ErrNoAdapterFound)
	}
	defer inst.Release()

	adapters := inst.EnumerateAdapters(nil)
	defer func() {
		for _, a := range adapters {
			a.Release()
		}
	}()

	reports := detector.Survey(adapters)
	if len(reports) > 0 {
		types := make([]wgpu.AdapterType, len(adapters))
		for i, a := range adapters {
			types[i] = a.GetInfo().AdapterType
		}
		idx, _ := gpu.PickAdapter(types)
		reports[idx].Selected = true
	}

	out := cmd.OutOrStdout()
	if devicesJSON {
		js, err := detector.JSON(reports)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, js)
		return nil
	}

	if len(reports) == 0 {
		fmt.Fprintln(out, "No adapters found!")
		return gpu.ErrNoAdapterFound
	}
	fmt.Fprintf(out, "Platform: %s/%s (%s)\n\n", runtime.GOOS, runtime.GOARCH, detector.Runtime())
	for _, r := range reports {
		mark := " "
		if r.Selected {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %s\n", mark, r)
		fmt.Fprintf(out, "    driver: %s\n", r.Driver)
		fmt.Fprintf(out, "    max invocations/workgroup: %d, max workgroups/dim: %d\n",
			r.Limits.MaxComputeInvocationsPerWorkgroup, r.Limits.MaxComputeWorkgroupsPerDimension)
		fmt.Fprintf(out, "    max storage binding: %d bytes, min storage alignment: %d\n",
			r.Limits.MaxStorageBufferBindingSize, r.Limits.MinStorageBufferOffsetAlignment)
		if len(r.Features) > 0 {
			fmt.Fprintf(out, "    features: %v\n", r.Features)
		}
	}
	return nil
}
