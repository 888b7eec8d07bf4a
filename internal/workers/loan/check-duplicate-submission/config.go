// internal/workers/loan/check-duplicate-submission/config.go
package checkduplicatesubmission

import (
	"loan-workers/internal/loan"
	"loan-workers/internal/workflow"
)

type Config struct {
	Step  workflow.Step
	Clock loan.Clock
}

func LoadConfig(def workflow.Definition) *Config {
	step, _ := def.Step(TaskType)
	return &Config{
		Step:  step,
		Clock: loan.SystemClock,
	}
}
