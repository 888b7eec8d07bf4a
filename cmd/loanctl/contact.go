// cmd/loanctl/contact.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"loan-workers/internal/common/validation"
	"loan-workers/internal/workflow"
)

func contactCmd(opts *rootOptions) *cobra.Command {
	var (
		requested bool
		timeout   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "contact [email]",
		Short: "Record whether an applicant wants to be contacted about their latest submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validation.ValidateEmail(args[0]) {
				return fmt.Errorf("invalid email address %q", args[0])
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			e, err := openEnv(ctx, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			h, err := e.starter.StartContact(ctx, args[0], requested)
			if workflow.IsAlreadyRunning(err) {
				return fmt.Errorf("a contact update for %s is already in progress", args[0])
			}
			if err != nil {
				return err
			}
			out, err := h.Await(ctx)
			if err != nil {
				return fmt.Errorf("waiting for %s: %w", h.InstanceKey, err)
			}
			printOutcome(cmd.OutOrStdout(), out, args[0], e.catalog)
			return nil
		},
	}

	cmd.Flags().BoolVar(&requested, "requested", true, "Whether the applicant wants to be contacted")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "How long to wait for the result")
	return cmd
}
