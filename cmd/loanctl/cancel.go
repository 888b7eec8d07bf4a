// cmd/loanctl/cancel.go
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func cancelCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [process-instance-key]",
		Short: "Terminate a running instance on the broker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid process instance key %q: %w", args[0], err)
			}

			e, err := openEnv(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.Close()

			zeebe, err := e.requireZeebe()
			if err != nil {
				return err
			}
			if err := zeebe.Terminate(cmd.Context(), key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Instance %d terminated\n", key)
			return nil
		},
	}
}
