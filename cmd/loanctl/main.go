// cmd/loanctl/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

type rootOptions struct {
	configPath string
	local      bool
	journal    string
	logLevel   string
}

func main() {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "loanctl",
		Short:         "Submit loan applications to the pre-approval workflow",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.local, "local", false, "Run the workflow in process with in-memory stores")
	rootCmd.PersistentFlags().StringVar(&opts.journal, "journal", "memory", "Journal for --local runs (memory or redis)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(submitCmd(opts))
	rootCmd.AddCommand(contactCmd(opts))
	rootCmd.AddCommand(loadtestCmd(opts))
	rootCmd.AddCommand(cancelCmd(opts))
	rootCmd.AddCommand(resumeCmd(opts))
	rootCmd.AddCommand(renderBPMNCmd())
	rootCmd.AddCommand(verifyRegistryCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
