package main

import (
	"github.com/spf13/cobra"
)

// rootOptions 全局参数
type rootOptions struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "flake",
		Short:         "Snowflake ID generator",
		Long:          "flake generates 64-bit time-ordered IDs: 41-bit milliseconds, 10-bit node, 12-bit sequence.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (yaml|json|toml); searched in . and ./config when empty")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error")

	root.AddCommand(newGenerateCmd(opts))
	root.AddCommand(newDecodeCmd(opts))
	root.AddCommand(newBenchCmd(opts))
	return root
}
