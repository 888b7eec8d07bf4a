// internal/workers/loan/update-contact-preference/config.go
package updatecontactpreference

import (
	"loan-workers/internal/loan"
	"loan-workers/internal/workflow"
)

type Config struct {
	Step    workflow.Step
	Catalog *loan.Catalog
	Clock   loan.Clock
}

func LoadConfig(def workflow.Definition, catalog *loan.Catalog) *Config {
	step, _ := def.Step(TaskType)
	return &Config{
		Step:    step,
		Catalog: catalog,
		Clock:   loan.SystemClock,
	}
}
