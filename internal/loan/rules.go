// internal/loan/rules.go
package loan

import (
	"math"

	"loan-workers/internal/common/config"
	"loan-workers/internal/models"
)

// SnapshotFromConfig captures the configured thresholds for one instance.
func SnapshotFromConfig(cfg config.RulesConfig) models.RuleSnapshot {
	return models.RuleSnapshot{
		MinCreditScore:          cfg.MinCreditScore,
		ApprovalCreditScore:     cfg.ApprovalCreditScore,
		ComfortableLoanToIncome: cfg.ComfortableLoanToIncome,
		MaxLoanToIncome:         cfg.MaxLoanToIncome,
		CooldownSeconds:         int64(cfg.CooldownWindow.Seconds()),
	}
}

// DefaultRules is the snapshot used when no configuration is supplied.
func DefaultRules() models.RuleSnapshot {
	return models.RuleSnapshot{
		MinCreditScore:          620,
		ApprovalCreditScore:     740,
		ComfortableLoanToIncome: 3.0,
		MaxLoanToIncome:         5.0,
		CooldownSeconds:         7 * 24 * 60 * 60,
	}
}

// Evaluate maps a request to a verdict. It is pure: the same request and
// snapshot always produce the same verdict, and DecidedAt is left zero.
//
// Boundaries: credit floors are inclusive (score >= threshold passes), the
// comfortable ratio is exclusive (ratio must be strictly below it) and the
// maximum ratio is inclusive (ratio equal to it is not rejected).
func Evaluate(req models.ApplicationRequest, rules models.RuleSnapshot) models.Verdict {
	if req.HasBankruptcy {
		return rejected(models.ReasonBankruptcy, nil)
	}

	if req.CreditScore < rules.MinCreditScore {
		return rejected(models.ReasonCreditScoreBelowMinimum, ratioPtr(req))
	}

	ratio, ok := loanToIncome(req)
	if !ok || ratio > rules.MaxLoanToIncome {
		return rejected(models.ReasonLoanToIncomeAboveMaximum, ratioPtr(req))
	}

	highCredit := req.CreditScore >= rules.ApprovalCreditScore
	comfortable := ratio < rules.ComfortableLoanToIncome

	if highCredit && comfortable {
		return models.Verdict{
			Decision:     models.DecisionApproved,
			ReasonCode:   models.ReasonMeetsAllCriteria,
			LoanToIncome: ratioPtr(req),
			Terms: &models.LoanTerms{
				ApprovedAmount: req.LoanAmount,
				LoanToIncome:   ratio,
			},
		}
	}

	verdict := models.Verdict{
		Decision:     models.DecisionConditionallyApproved,
		LoanToIncome: ratioPtr(req),
	}

	approvedAmount := req.LoanAmount
	switch {
	case !highCredit && !comfortable:
		verdict.ReasonCode = models.ReasonMidBandAndModerateLoanToIncome
	case !highCredit:
		verdict.ReasonCode = models.ReasonCreditScoreMidBand
	default:
		verdict.ReasonCode = models.ReasonModerateLoanToIncome
	}

	if !comfortable {
		approvedAmount = largestBelow(req.AnnualIncome * rules.ComfortableLoanToIncome)
		verdict.Conditions = append(verdict.Conditions,
			models.Condition{
				Code:            models.ConditionAdjustedLoanAmount,
				Description:     "Loan amount reduced to keep the loan-to-income ratio below the comfortable ceiling",
				SuggestedAmount: approvedAmount,
			},
			models.Condition{
				Code:        models.ConditionIncomeVerification,
				Description: "Proof of income is required",
			},
		)
	}
	if !highCredit {
		verdict.Conditions = append(verdict.Conditions, models.Condition{
			Code:        models.ConditionAdditionalDocumentation,
			Description: "Additional financial documentation is required",
		})
	}

	verdict.Terms = &models.LoanTerms{
		ApprovedAmount: approvedAmount,
		LoanToIncome:   approvedAmount / req.AnnualIncome,
	}
	return verdict
}

func rejected(reason models.ReasonCode, ratio *float64) models.Verdict {
	return models.Verdict{
		Decision:     models.DecisionRejected,
		ReasonCode:   reason,
		LoanToIncome: ratio,
	}
}

// loanToIncome returns false when the ratio is undefined (no income).
func loanToIncome(req models.ApplicationRequest) (float64, bool) {
	if req.AnnualIncome <= 0 {
		return 0, false
	}
	return req.LoanAmount / req.AnnualIncome, true
}

// ratioPtr records the exact ratio the thresholds were compared against.
func ratioPtr(req models.ApplicationRequest) *float64 {
	ratio, ok := loanToIncome(req)
	if !ok {
		return nil
	}
	return &ratio
}

// largestBelow returns the largest whole currency amount strictly below
// limit, so a suggested amount always lands under the comfortable ratio.
func largestBelow(limit float64) float64 {
	return math.Ceil(limit) - 1
}
