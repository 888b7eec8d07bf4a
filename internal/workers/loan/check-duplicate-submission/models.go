// internal/workers/loan/check-duplicate-submission/models.go
package checkduplicatesubmission

import "loan-workers/internal/models"

type Input struct {
	Identity string              `json:"identity"`
	Rules    models.RuleSnapshot `json:"rules"`
}

type Output struct {
	Duplicate *models.DuplicateCheck `json:"duplicate"`
}
