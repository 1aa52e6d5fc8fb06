package main

import (
	"os"

	"github.com/spf13/cobra"
)

type rootCmdConfig struct {
	logger
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rflab",
		Short: "rflab is a tool to grow and tune random forests",
		Long:  `A tool to grow random forests from your data, tune their hyperparameters with cross-validation, test them, and use them to make predictions`,
	}
	config := &rootCmdConfig{}
	rootCmd.PersistentFlags().BoolVarP((*bool)(&(config.logger)), "verbose", "v", false, "")
	rootCmd.AddCommand(versionCmd(), growCmd(config), tuneCmd(config), testCmd(config), predictCmd(config))
	return rootCmd
}
