package commands

import (
	"fmt"
	"runtime"

	"github.com/openfluke/ranksort/detector"
	"github.com/spf13/cobra"
)

// Version is overridden at link time with -ldflags "-X ...commands.Version=...".
var Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ranksort v%s\n", Version)
		fmt.Println("GPU rank sort over WebGPU")
		fmt.Println("")
		fmt.Printf("Go version: %s\n", runtime.Version())
		fmt.Printf("Platform: %s/%s (%s)\n", runtime.GOOS, runtime.GOARCH, detector.Runtime())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
