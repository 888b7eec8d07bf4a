// internal/workers/loan/evaluate-credit-decision/models.go
package evaluatecreditdecision

import "loan-workers/internal/models"

type Input struct {
	Application models.ApplicationRequest `json:"application"`
	Rules       models.RuleSnapshot       `json:"rules"`
}

type Output struct {
	Verdict models.Verdict `json:"verdict"`
}
