// internal/loan/validation_test.go
package loan

import (
	"encoding/json"
	"strings"
	"testing"

	"loan-workers/internal/common/errors"
	"loan-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDocument() map[string]interface{} {
	return map[string]interface{}{
		"name":          "  Jane Doe ",
		"email":         "jane@example.com",
		"loanAmount":    50000.0,
		"creditScore":   750.0,
		"annualIncome":  150000.0,
		"hasBankruptcy": false,
	}
}

func TestValidateApplication_Valid(t *testing.T) {
	req, err := ValidateApplication(validDocument())
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", req.Name)
	assert.Equal(t, 750, req.CreditScore)
	assert.Equal(t, 50000.0, req.LoanAmount)
	assert.False(t, req.HasBankruptcy)
}

func TestValidateApplication_FromJSONNumbers(t *testing.T) {
	dec := json.NewDecoder(strings.NewReader(`{"name":"A","email":"a@b.co","loanAmount":1000,"creditScore":700,"annualIncome":0,"hasBankruptcy":true}`))
	dec.UseNumber()
	var doc map[string]interface{}
	require.NoError(t, dec.Decode(&doc))

	req, err := ValidateApplication(doc)
	require.NoError(t, err)
	assert.Equal(t, 700, req.CreditScore)
	assert.Equal(t, 0.0, req.AnnualIncome)
	assert.True(t, req.HasBankruptcy)
}

func TestValidateApplication_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc map[string]interface{})
		field  string
	}{
		{"missing email", func(d map[string]interface{}) { delete(d, "email") }, "email"},
		{"malformed email", func(d map[string]interface{}) { d["email"] = "not-an-email" }, "email"},
		{"blank name", func(d map[string]interface{}) { d["name"] = "   " }, "name"},
		{"zero loan amount", func(d map[string]interface{}) { d["loanAmount"] = 0.0 }, "loanAmount"},
		{"negative income", func(d map[string]interface{}) { d["annualIncome"] = -1.0 }, "annualIncome"},
		{"score below range", func(d map[string]interface{}) { d["creditScore"] = 299.0 }, "creditScore"},
		{"score above range", func(d map[string]interface{}) { d["creditScore"] = 851.0 }, "creditScore"},
		{"fractional score", func(d map[string]interface{}) { d["creditScore"] = 700.5 }, "creditScore"},
		{"bankruptcy not boolean", func(d map[string]interface{}) { d["hasBankruptcy"] = "no" }, "hasBankruptcy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDocument()
			tt.mutate(doc)

			_, err := ValidateApplication(doc)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
			assert.False(t, errors.Normalize(err).Retryable)

			issues := errors.ValidationIssues(err)
			require.NotEmpty(t, issues)
			assert.True(t, strings.HasPrefix(issues[0], tt.field+":"), issues[0])
		})
	}
}

func TestValidateApplication_ReportsEveryProblem(t *testing.T) {
	doc := validDocument()
	doc["creditScore"] = 100.0
	doc["annualIncome"] = -5.0

	_, err := ValidateApplication(doc)
	require.Error(t, err)
	assert.Len(t, errors.ValidationIssues(err), 2)
}

func TestValidateApplication_Nil(t *testing.T) {
	_, err := ValidateApplication(nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(request(750, 50000, 150000, false)))

	bad := request(900, 50000, 150000, false)
	assert.True(t, errors.IsCode(ValidateRequest(bad), errors.ErrCodeValidationFailed))

	empty := models.ApplicationRequest{}
	assert.Error(t, ValidateRequest(empty))
}
