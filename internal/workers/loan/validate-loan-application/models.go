// internal/workers/loan/validate-loan-application/models.go
package validateloanapplication

import "loan-workers/internal/models"

// Input carries the application exactly as submitted.
type Input struct {
	Application map[string]interface{} `json:"application"`
}

// Output replaces the application with its validated, trimmed form.
type Output struct {
	Application models.ApplicationRequest `json:"application"`
}
