// cmd/loanctl/output.go
package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"loan-workers/internal/loan"
	"loan-workers/internal/workflow"
)

// printOutcome writes what an applicant would be shown for out.
func printOutcome(w io.Writer, out *workflow.Outcome, email string, catalog *loan.Catalog) {
	fmt.Fprintf(w, "Instance:  %s\n", out.InstanceKey)
	fmt.Fprintf(w, "State:     %s\n", out.State)

	var (
		dup        *workflow.DuplicateRejectedError
		invalid    *workflow.ValidationError
		failed     *workflow.FailedError
		terminated *workflow.TerminatedError
	)
	switch {
	case out.Err == nil && out.Contact != nil:
		fmt.Fprintf(w, "\n%s\n%s\n", out.Contact.Title, out.Contact.Message)

	case out.Err == nil:
		fmt.Fprintf(w, "Decision:  %s (%s)\n", out.Verdict.Decision, out.Verdict.ReasonCode)
		if out.SubmissionID != "" {
			fmt.Fprintf(w, "Record:    %s\n", out.SubmissionID)
		}
		if out.Message != nil {
			fmt.Fprintf(w, "\n%s\n%s\n", out.Message.Title, out.Message.Message)
			for _, step := range out.Message.NextSteps {
				fmt.Fprintf(w, "  - %s\n", step)
			}
		}
		if out.Notification != nil {
			fmt.Fprintf(w, "\nAgent notification: %s\n", out.Notification.Status)
		}

	case stderrors.As(out.Err, &dup):
		title, message := catalog.RenderDuplicate(email, dup.RemainingDays)
		fmt.Fprintf(w, "\n%s\n%s\n", title, message)

	case stderrors.As(out.Err, &invalid):
		fmt.Fprintln(w, "\nThe application is invalid:")
		for _, issue := range invalid.Errors {
			fmt.Fprintf(w, "  - %s\n", issue)
		}

	case stderrors.As(out.Err, &failed):
		fmt.Fprintf(w, "\nProcessing failed at %s (%s): %s\n", failed.Step, failed.Code, failed.Cause)

	case stderrors.As(out.Err, &terminated):
		fmt.Fprintln(w, "\nThe application was cancelled by an operator.")

	default:
		fmt.Fprintf(w, "\n%s\n", out.Err)
	}
}

func rule(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
}
