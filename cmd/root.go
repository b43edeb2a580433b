package cmd

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:           "modelrelay",
	Short:         "Protocol-translating chat completion proxy",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}
