// internal/workers/loan/notify-loan-agent/models.go
package notifyloanagent

import (
	"loan-workers/internal/models"
	"loan-workers/internal/workflow"
)

type Input struct {
	Identity    string                    `json:"identity"`
	Application models.ApplicationRequest `json:"application"`
	Verdict     models.Verdict            `json:"verdict"`
	Submission  workflow.SubmissionRef    `json:"submission"`
}

type Output struct {
	Notification *models.NotificationReceipt `json:"notification"`
}
