// internal/workers/loan/validate-loan-application/config.go
package validateloanapplication

import (
	"loan-workers/internal/workflow"
)

type Config struct {
	Step workflow.Step
}

func LoadConfig(def workflow.Definition) *Config {
	step, _ := def.Step(TaskType)
	return &Config{Step: step}
}
