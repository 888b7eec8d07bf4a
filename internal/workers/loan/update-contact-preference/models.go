// internal/workers/loan/update-contact-preference/models.go
package updatecontactpreference

import (
	"loan-workers/internal/models"
	"loan-workers/internal/workflow"
)

type Input struct {
	Identity         string `json:"identity"`
	ContactRequested bool   `json:"contactRequested"`
}

type Output struct {
	ContactPreference models.ContactPreference `json:"contactPreference"`
	ContactMessage    workflow.ContactMessage  `json:"contactMessage"`
}
