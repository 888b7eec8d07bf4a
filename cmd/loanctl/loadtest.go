// cmd/loanctl/loadtest.go
package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"loan-workers/internal/models"
	"loan-workers/internal/workflow"
)

type loadOptions struct {
	count       int
	rps         float64
	concurrency int
	runID       string
}

// loadResult is one submission of a load test.
type loadResult struct {
	n       int
	elapsed time.Duration
	state   workflow.State
	err     error
}

type loadReport struct {
	Count   int
	Failed  int
	Total   time.Duration
	Average time.Duration
	Slowest time.Duration
	ByState map[workflow.State]int
}

// Throughput is completed applications per second.
func (r loadReport) Throughput() float64 {
	if r.Total <= 0 {
		return 0
	}
	return float64(r.Count) / r.Total.Seconds()
}

func (r loadReport) Print(w io.Writer) {
	fmt.Fprintln(w)
	rule(w)
	fmt.Fprintln(w, "Results")
	rule(w)
	fmt.Fprintf(w, "Total applications: %d\n", r.Count)
	fmt.Fprintf(w, "Errors: %d\n", r.Failed)
	fmt.Fprintf(w, "Total time: %.2fs\n", r.Total.Seconds())
	fmt.Fprintf(w, "Average time per application: %.2fs\n", r.Average.Seconds())
	fmt.Fprintf(w, "Slowest application: %.2fs\n", r.Slowest.Seconds())
	fmt.Fprintf(w, "Throughput: %.2f applications/second\n", r.Throughput())

	states := make([]string, 0, len(r.ByState))
	for s := range r.ByState {
		states = append(states, string(s))
	}
	sort.Strings(states)
	for _, s := range states {
		fmt.Fprintf(w, "  %-18s %d\n", s+":", r.ByState[workflow.State(s)])
	}
	rule(w)
}

func loadtestApplication(runID string, n int) models.ApplicationRequest {
	return models.ApplicationRequest{
		Name:         fmt.Sprintf("Test Applicant %d", n),
		Email:        fmt.Sprintf("loadtest-%s-%d@example.com", runID, n),
		LoanAmount:   50000,
		CreditScore:  750,
		AnnualIncome: 150000,
	}
}

// runLoadTest submits opts.count applications paced at opts.rps with at most
// opts.concurrency in flight, writing one line per finished application.
func runLoadTest(ctx context.Context, starter workflow.Starter, opts loadOptions, w io.Writer) loadReport {
	limit := rate.Inf
	if opts.rps > 0 {
		limit = rate.Limit(opts.rps)
	}
	limiter := rate.NewLimiter(limit, 1)
	if opts.concurrency < 1 {
		opts.concurrency = opts.count
	}
	sem := make(chan struct{}, opts.concurrency)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []loadResult
	)
	record := func(r loadResult) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
		if r.err != nil {
			fmt.Fprintf(w, "Application %d: error - %v (%.2fs)\n", r.n, r.err, r.elapsed.Seconds())
			return
		}
		fmt.Fprintf(w, "Application %d: %s (%.2fs)\n", r.n, r.state, r.elapsed.Seconds())
	}

	start := time.Now()
	for n := 1; n <= opts.count; n++ {
		if err := limiter.Wait(ctx); err != nil {
			record(loadResult{n: n, err: err})
			continue
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			defer func() { <-sem }()
			record(submitOne(ctx, starter, loadtestApplication(opts.runID, n), n))
		}(n)
	}
	wg.Wait()

	report := loadReport{Count: opts.count, Total: time.Since(start), ByState: map[workflow.State]int{}}
	var sum time.Duration
	for _, r := range results {
		sum += r.elapsed
		if r.elapsed > report.Slowest {
			report.Slowest = r.elapsed
		}
		if r.err != nil {
			report.Failed++
			continue
		}
		report.ByState[r.state]++
	}
	if len(results) > 0 {
		report.Average = sum / time.Duration(len(results))
	}
	return report
}

func submitOne(ctx context.Context, starter workflow.Starter, req models.ApplicationRequest, n int) loadResult {
	start := time.Now()
	h, err := starter.StartLoan(ctx, req)
	if err != nil {
		return loadResult{n: n, elapsed: time.Since(start), err: err}
	}
	out, err := h.Await(ctx)
	if err != nil {
		return loadResult{n: n, elapsed: time.Since(start), err: err}
	}
	return loadResult{n: n, elapsed: time.Since(start), state: out.State}
}

func loadtestCmd(opts *rootOptions) *cobra.Command {
	lopts := loadOptions{}
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Submit many applications concurrently and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			e, err := openEnv(ctx, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			rule(out)
			fmt.Fprintf(out, "Load Test: Submitting %d Applications\n", lopts.count)
			rule(out)
			runLoadTest(ctx, e.starter, lopts, out).Print(out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&lopts.count, "count", "n", 10, "Number of applications to submit")
	cmd.Flags().Float64Var(&lopts.rps, "rps", 0, "Submissions per second (0 = unlimited)")
	cmd.Flags().IntVar(&lopts.concurrency, "concurrency", 0, "Maximum applications in flight (0 = all)")
	cmd.Flags().StringVar(&lopts.runID, "run-id", time.Now().UTC().Format("20060102150405"), "Suffix making applicant emails unique per run")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Overall deadline")
	return cmd
}
