// internal/workers/loan/persist-submission/config.go
package persistsubmission

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
