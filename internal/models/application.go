// internal/models/application.go
package models

// ApplicationRequest is a loan pre-approval request as submitted by the
// applicant. It is immutable once a workflow instance owns it.
type ApplicationRequest struct {
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	LoanAmount    float64 `json:"loanAmount"`
	CreditScore   int     `json:"creditScore"`
	AnnualIncome  float64 `json:"annualIncome"`
	HasBankruptcy bool    `json:"hasBankruptcy"`
}

// Credit score range accepted by validation.
const (
	MinValidCreditScore = 300
	MaxValidCreditScore = 850
)
