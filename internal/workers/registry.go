// internal/workers/registry.go
package workers

import (
	"loan-workers/internal/workflow"
	"loan-workers/pkg/registry"
)

// Expectations lists what defs require of the activity registry.
func Expectations(defs []workflow.Definition) []registry.Expected {
	var out []registry.Expected
	for _, def := range defs {
		for _, s := range def.Steps {
			out = append(out, registry.Expected{
				TaskType: s.TaskType,
				Workflow: def.ProcessID,
				Timeout:  s.Timeout,
				Retries:  s.Policy.MaximumAttempts,
				Optional: s.Optional,
			})
		}
	}
	return out
}
