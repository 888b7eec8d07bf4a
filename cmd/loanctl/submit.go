// cmd/loanctl/submit.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"loan-workers/internal/models"
	"loan-workers/internal/workflow"
)

func submitCmd(opts *rootOptions) *cobra.Command {
	var (
		req     models.ApplicationRequest
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a loan application and wait for the decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			e, err := openEnv(ctx, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			h, err := e.starter.StartLoan(ctx, req)
			if workflow.IsAlreadyRunning(err) {
				return fmt.Errorf("an application for %s is still being processed, check back later", req.Email)
			}
			if err != nil {
				return err
			}
			out, err := h.Await(ctx)
			if err != nil {
				return fmt.Errorf("waiting for %s: %w", h.InstanceKey, err)
			}
			printOutcome(cmd.OutOrStdout(), out, req.Email, e.catalog)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Applicant name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Applicant email")
	cmd.Flags().Float64Var(&req.LoanAmount, "amount", 0, "Requested loan amount")
	cmd.Flags().IntVar(&req.CreditScore, "credit-score", 0, "Credit score (300-850)")
	cmd.Flags().Float64Var(&req.AnnualIncome, "income", 0, "Annual income")
	cmd.Flags().BoolVar(&req.HasBankruptcy, "bankruptcy", false, "Applicant has a bankruptcy on record")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "How long to wait for the decision")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
