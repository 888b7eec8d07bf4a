// internal/workers/loan/format-decision-message/models.go
package formatdecisionmessage

import "loan-workers/internal/models"

type Input struct {
	Application models.ApplicationRequest `json:"application"`
	Verdict     models.Verdict            `json:"verdict"`
}

type Output struct {
	Message *models.DecisionMessage `json:"message"`
}
