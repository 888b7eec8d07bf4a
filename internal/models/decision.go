// internal/models/decision.go
package models

import "time"

type Decision string

const (
	DecisionApproved              Decision = "approved"
	DecisionConditionallyApproved Decision = "conditionally_approved"
	DecisionRejected              Decision = "rejected"
)

// ReasonCode explains which rule produced a verdict.
type ReasonCode string

const (
	ReasonBankruptcy                     ReasonCode = "BANKRUPTCY"
	ReasonCreditScoreBelowMinimum        ReasonCode = "CREDIT_SCORE_BELOW_MINIMUM"
	ReasonLoanToIncomeAboveMaximum       ReasonCode = "LOAN_TO_INCOME_ABOVE_MAXIMUM"
	ReasonMeetsAllCriteria               ReasonCode = "MEETS_ALL_CRITERIA"
	ReasonCreditScoreMidBand             ReasonCode = "CREDIT_SCORE_MID_BAND"
	ReasonModerateLoanToIncome           ReasonCode = "MODERATE_LOAN_TO_INCOME"
	ReasonMidBandAndModerateLoanToIncome ReasonCode = "CREDIT_SCORE_MID_BAND_AND_MODERATE_LOAN_TO_INCOME"
)

type ConditionCode string

const (
	ConditionAdjustedLoanAmount      ConditionCode = "ADJUSTED_LOAN_AMOUNT"
	ConditionIncomeVerification      ConditionCode = "INCOME_VERIFICATION"
	ConditionAdditionalDocumentation ConditionCode = "ADDITIONAL_DOCUMENTATION"
)

// Condition is a requirement attached to a conditional approval.
type Condition struct {
	Code            ConditionCode `json:"code"`
	Description     string        `json:"description"`
	SuggestedAmount float64       `json:"suggestedAmount,omitempty"`
}

// LoanTerms are the terms offered for an approved or conditionally approved request.
type LoanTerms struct {
	ApprovedAmount float64 `json:"approvedAmount"`
	LoanToIncome   float64 `json:"loanToIncome"`
}

// Verdict is the outcome of rule evaluation. LoanToIncome is nil when the
// applicant reported no income. DecidedAt is stamped by the evaluate activity.
type Verdict struct {
	Decision     Decision    `json:"decision"`
	ReasonCode   ReasonCode  `json:"reasonCode"`
	LoanToIncome *float64    `json:"loanToIncome,omitempty"`
	Conditions   []Condition `json:"conditions,omitempty"`
	Terms        *LoanTerms  `json:"terms,omitempty"`
	DecidedAt    time.Time   `json:"decidedAt"`
}

// RuleSnapshot is the set of thresholds an instance is evaluated against.
// It is captured once at instance start and travels as a process variable.
type RuleSnapshot struct {
	MinCreditScore          int     `json:"minCreditScore"`
	ApprovalCreditScore     int     `json:"approvalCreditScore"`
	ComfortableLoanToIncome float64 `json:"comfortableLoanToIncome"`
	MaxLoanToIncome         float64 `json:"maxLoanToIncome"`
	CooldownSeconds         int64   `json:"cooldownSeconds"`
}

// Cooldown returns the duplicate submission window.
func (r RuleSnapshot) Cooldown() time.Duration {
	return time.Duration(r.CooldownSeconds) * time.Second
}

// DecisionMessage is the applicant-facing rendering of a verdict.
type DecisionMessage struct {
	Decision  Decision `json:"decision"`
	Title     string   `json:"title"`
	Message   string   `json:"message"`
	NextSteps []string `json:"nextSteps,omitempty"`
}
