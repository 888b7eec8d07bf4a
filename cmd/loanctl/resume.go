// cmd/loanctl/resume.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"loan-workers/internal/loan"
	"loan-workers/internal/workflow"
)

func resumeCmd(opts *rootOptions) *cobra.Command {
	var (
		contact bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "resume [email]",
		Short: "Continue a local instance interrupted in an earlier run (--local --journal redis)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			e, err := openEnv(ctx, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			local, err := e.requireLocal()
			if err != nil {
				return err
			}

			processID, key := resumeTarget(args[0], contact)
			h, err := local.Resume(ctx, processID, key)
			if workflow.IsAlreadyRunning(err) {
				return fmt.Errorf("%s is still locked by the interrupted run; retry once the lock expires", key)
			}
			if err != nil {
				return err
			}
			out, err := h.Await(ctx)
			if err != nil {
				return fmt.Errorf("waiting for %s: %w", key, err)
			}
			printOutcome(cmd.OutOrStdout(), out, args[0], e.catalog)
			return nil
		},
	}

	cmd.Flags().BoolVar(&contact, "contact", false, "Resume a contact-preference instance instead of a loan evaluation")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "How long to wait for the result")
	return cmd
}

func resumeTarget(email string, contact bool) (string, string) {
	identity := loan.NormalizeIdentity(email)
	if contact {
		return workflow.ContactPreferenceProcessID, loan.ContactInstanceKey(identity)
	}
	return workflow.LoanEvaluationProcessID, loan.InstanceKey(identity)
}
