// internal/workers/loan/persist-submission/models.go
package persistsubmission

import (
	"loan-workers/internal/models"
	"loan-workers/internal/workflow"
)

type Input struct {
	Identity    string                    `json:"identity"`
	Application models.ApplicationRequest `json:"application"`
	Verdict     models.Verdict            `json:"verdict"`
}

type Output struct {
	Submission workflow.SubmissionRef `json:"submission"`
}
