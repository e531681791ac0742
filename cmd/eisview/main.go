// eisview streams impedance samples from a sensor into a live browser dashboard and replays stored sweeps.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"eisview/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "eisview",
		Short: "Live and replayed electrochemical impedance spectroscopy viewer",
		Long: `eisview reads impedance samples from a sensor (serial gateway, browser BLE bridge or a mock
device), derives magnitude, phase and Nyquist values and serves them to a browser dashboard.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.BindFlags(v, cmd.Flags())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DEFAULT_CONFIG_FILE, "config file")
	config.AddFlags(rootCmd.PersistentFlags())

	load := func() (*config.Config, error) {
		cfg, err := config.Load(v, cfgFile)
		if err != nil {
			return nil, err
		}
		if err := config.SetupLogging(cfg.Logging); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	rootCmd.AddCommand(
		newServeCmd(load),
		newConfigCmd(load),
		newCapturesCmd(load),
	)
	return rootCmd
}
