// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// Expected is what a deployed process requires of one task type.
type Expected struct {
	TaskType string
	Workflow string
	Timeout  time.Duration
	Retries  int
	Optional bool
}

// Verify compares the registry with the task types the processes use and
// returns one line per mismatch, sorted. Registered activities no process
// uses are reported too.
func (r *ActivityRegistry) Verify(expected []Expected) []string {
	var problems []string
	used := make(map[string]bool, len(expected))

	for _, e := range expected {
		used[e.TaskType] = true
		a, ok := r.Find(e.TaskType)
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: not registered", e.TaskType))
			continue
		}
		switch a.ImplementationStatus {
		case StatusCompleted, StatusVerified:
		case StatusPlanned, StatusInProgress:
			problems = append(problems, fmt.Sprintf("%s: still %s", e.TaskType, a.ImplementationStatus))
		default:
			problems = append(problems, fmt.Sprintf("%s: unknown implementation status %q", e.TaskType, a.ImplementationStatus))
		}
		if a.Optional != e.Optional {
			problems = append(problems, fmt.Sprintf("%s: registry optional %t, process uses %t", e.TaskType, a.Optional, e.Optional))
		}
		if a.Retries != e.Retries {
			problems = append(problems, fmt.Sprintf("%s: registry retries %d, process uses %d", e.TaskType, a.Retries, e.Retries))
		}
		timeout, err := time.ParseDuration(a.Timeout)
		switch {
		case err != nil:
			problems = append(problems, fmt.Sprintf("%s: invalid timeout %q", e.TaskType, a.Timeout))
		case timeout != e.Timeout:
			problems = append(problems, fmt.Sprintf("%s: registry timeout %s, process uses %s", e.TaskType, timeout, e.Timeout))
		}
		if e.Workflow != "" && !contains(a.Workflows, e.Workflow) {
			problems = append(problems, fmt.Sprintf("%s: workflow %s not listed", e.TaskType, e.Workflow))
		}
	}

	for _, a := range r.Activities {
		if !used[a.TaskType] {
			problems = append(problems, fmt.Sprintf("%s: registered but not used by any process", a.TaskType))
		}
	}

	sort.Strings(problems)
	return problems
}

// VerifyError wraps the problems reported by Verify.
type VerifyError struct {
	Problems []string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("activity registry out of date: %s", strings.Join(e.Problems, "; "))
}

// Check is Verify as an error, nil when the registry matches.
func (r *ActivityRegistry) Check(expected []Expected) error {
	if problems := r.Verify(expected); len(problems) > 0 {
		return &VerifyError{Problems: problems}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
