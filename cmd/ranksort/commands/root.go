package commands

import (
	"fmt"

	"github.com/openfluke/ranksort/config"
	"github.com/openfluke/ranksort/gpu"
	"github.com/openfluke/ranksort/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ranksort",
	Short: "Sort numeric arrays on the GPU",
	Long: `ranksort sorts arrays of 32-bit numbers with a rank sort compute
shader running through WebGPU.

Every element's final position is computed independently on the device,
so equal values keep their input order.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or $HOME/.ranksort/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("fallback", true, "sort on the CPU when no GPU is usable")

	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("device.fallback", rootCmd.PersistentFlags().Lookup("fallback"))
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	if verbose {
		c.Logging.Level = "debug"
	}
	if err := logging.Init(c.Logging); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		logging.Debugf("Using config file: %s", used)
	}
	cfg = c
	return nil
}

// openSession opens a GPU session. When fallback is allowed a failure is
// logged and (nil, nil) is returned so callers sort on the CPU.
func openSession() (*gpu.Session, error) {
	s, err := gpu.Open()
	if err == nil {
		return s, nil
	}
	if !cfg.Device.Fallback {
		return nil, err
	}
	logging.Warnf("GPU unavailable, sorting on the CPU: %v", err)
	return nil, nil
}
