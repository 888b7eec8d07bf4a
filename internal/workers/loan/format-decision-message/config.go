// internal/workers/loan/format-decision-message/config.go
package formatdecisionmessage

import (
	"loan-workers/internal/loan"
	"loan-workers/internal/workflow"
)

type Config struct {
	Step    workflow.Step
	Catalog *loan.Catalog
}

// LoadConfig reads the message catalogue at catalogPath, or the built-in
// one when the path is empty.
func LoadConfig(def workflow.Definition, catalogPath string) (*Config, error) {
	catalog, err := loan.LoadCatalog(catalogPath)
	if err != nil {
		return nil, err
	}
	step, _ := def.Step(TaskType)
	return &Config{Step: step, Catalog: catalog}, nil
}
