// internal/loan/rules_test.go
package loan

import (
	"testing"

	"loan-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(score int, amount, income float64, bankruptcy bool) models.ApplicationRequest {
	return models.ApplicationRequest{
		Name:          "Jane Doe",
		Email:         "jane@example.com",
		LoanAmount:    amount,
		CreditScore:   score,
		AnnualIncome:  income,
		HasBankruptcy: bankruptcy,
	}
}

func conditionCodes(v models.Verdict) []models.ConditionCode {
	var out []models.ConditionCode
	for _, c := range v.Conditions {
		out = append(out, c.Code)
	}
	return out
}

func TestEvaluate_Scenarios(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name     string
		req      models.ApplicationRequest
		decision models.Decision
		reason   models.ReasonCode
	}{
		{"high credit low ratio", request(750, 50000, 150000, false), models.DecisionApproved, models.ReasonMeetsAllCriteria},
		{"high credit moderate ratio", request(750, 100000, 80000, false), models.DecisionApproved, models.ReasonMeetsAllCriteria},
		{"bankruptcy beats everything", request(850, 1000, 1000000, true), models.DecisionRejected, models.ReasonBankruptcy},
		{"score below floor", request(619, 10000, 100000, false), models.DecisionRejected, models.ReasonCreditScoreBelowMinimum},
		{"ratio above maximum", request(800, 510000, 100000, false), models.DecisionRejected, models.ReasonLoanToIncomeAboveMaximum},
		{"no income", request(800, 1000, 0, false), models.DecisionRejected, models.ReasonLoanToIncomeAboveMaximum},
		{"mid band credit", request(700, 100000, 80000, false), models.DecisionConditionallyApproved, models.ReasonCreditScoreMidBand},
		{"moderate ratio", request(780, 400000, 100000, false), models.DecisionConditionallyApproved, models.ReasonModerateLoanToIncome},
		{"both marginal", request(650, 400000, 100000, false), models.DecisionConditionallyApproved, models.ReasonMidBandAndModerateLoanToIncome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Evaluate(tt.req, rules)
			assert.Equal(t, tt.decision, v.Decision)
			assert.Equal(t, tt.reason, v.ReasonCode)
			assert.True(t, v.DecidedAt.IsZero())
		})
	}
}

func TestEvaluate_Boundaries(t *testing.T) {
	rules := DefaultRules()

	t.Run("approval threshold is inclusive", func(t *testing.T) {
		v := Evaluate(request(740, 100000, 100000, false), rules)
		assert.Equal(t, models.DecisionApproved, v.Decision)
	})

	t.Run("comfortable ratio is exclusive", func(t *testing.T) {
		v := Evaluate(request(740, 300000, 100000, false), rules)
		assert.Equal(t, models.DecisionConditionallyApproved, v.Decision)
		assert.Equal(t, models.ReasonModerateLoanToIncome, v.ReasonCode)
	})

	t.Run("minimum score is inclusive", func(t *testing.T) {
		v := Evaluate(request(620, 100000, 100000, false), rules)
		assert.Equal(t, models.DecisionConditionallyApproved, v.Decision)
		assert.Equal(t, models.ReasonCreditScoreMidBand, v.ReasonCode)
	})

	t.Run("maximum ratio is inclusive", func(t *testing.T) {
		v := Evaluate(request(800, 500000, 100000, false), rules)
		assert.Equal(t, models.DecisionConditionallyApproved, v.Decision)
	})
}

func TestEvaluate_Conditions(t *testing.T) {
	v := Evaluate(request(650, 400000, 100000, false), DefaultRules())

	assert.Equal(t, []models.ConditionCode{
		models.ConditionAdjustedLoanAmount,
		models.ConditionIncomeVerification,
		models.ConditionAdditionalDocumentation,
	}, conditionCodes(v))

	assert.Equal(t, 299999.0, v.Conditions[0].SuggestedAmount)
	require.NotNil(t, v.Terms)
	assert.Equal(t, 299999.0, v.Terms.ApprovedAmount)
	assert.Less(t, v.Terms.LoanToIncome, 3.0)
	require.NotNil(t, v.LoanToIncome)
	assert.Equal(t, 4.0, *v.LoanToIncome)
}

func TestEvaluate_SuggestedAmountRoundsDown(t *testing.T) {
	v := Evaluate(request(780, 150000, 33333.5, false), DefaultRules())
	require.Equal(t, models.DecisionConditionallyApproved, v.Decision)
	assert.Equal(t, 100000.0, v.Conditions[0].SuggestedAmount)
}

func TestEvaluate_SuggestedAmountIsApprovable(t *testing.T) {
	rules := DefaultRules()
	first := Evaluate(request(780, 350000, 100000, false), rules)
	require.Equal(t, models.ReasonModerateLoanToIncome, first.ReasonCode)

	suggested := first.Conditions[0].SuggestedAmount
	assert.Equal(t, 299999.0, suggested)

	again := Evaluate(request(780, suggested, 100000, false), rules)
	assert.Equal(t, models.DecisionApproved, again.Decision)
}

func TestEvaluate_RecordsExactRatio(t *testing.T) {
	v := Evaluate(request(800, 500400, 100000, false), DefaultRules())

	assert.Equal(t, models.ReasonLoanToIncomeAboveMaximum, v.ReasonCode)
	require.NotNil(t, v.LoanToIncome)
	assert.Greater(t, *v.LoanToIncome, DefaultRules().MaxLoanToIncome)
	assert.InDelta(t, 5.004, *v.LoanToIncome, 1e-9)
}

func TestEvaluate_MidBandKeepsRequestedAmount(t *testing.T) {
	v := Evaluate(request(700, 100000, 80000, false), DefaultRules())
	assert.Equal(t, []models.ConditionCode{models.ConditionAdditionalDocumentation}, conditionCodes(v))
	require.NotNil(t, v.Terms)
	assert.Equal(t, 100000.0, v.Terms.ApprovedAmount)
}

func TestEvaluate_RejectionHasNoTerms(t *testing.T) {
	v := Evaluate(request(500, 10000, 100000, false), DefaultRules())
	assert.Nil(t, v.Terms)
	assert.Empty(t, v.Conditions)

	noIncome := Evaluate(request(800, 1000, 0, false), DefaultRules())
	assert.Nil(t, noIncome.LoanToIncome)
}

func TestEvaluate_UsesSnapshotThresholds(t *testing.T) {
	strict := DefaultRules()
	strict.ComfortableLoanToIncome = 1.0

	v := Evaluate(request(750, 100000, 80000, false), strict)
	assert.Equal(t, models.DecisionConditionallyApproved, v.Decision)
	assert.Equal(t, models.ReasonModerateLoanToIncome, v.ReasonCode)
}

func TestEvaluate_Deterministic(t *testing.T) {
	rules := DefaultRules()
	for _, req := range []models.ApplicationRequest{
		request(750, 50000, 150000, false),
		request(650, 400000, 100000, false),
		request(300, 1, 0, true),
	} {
		assert.Equal(t, Evaluate(req, rules), Evaluate(req, rules))
	}
}
