// internal/models/notification.go
package models

import "time"

// AgentNotification tells a loan agent a conditional approval needs follow-up.
type AgentNotification struct {
	SubmissionID string      `json:"submissionId"`
	Identity     string      `json:"identity"`
	Name         string      `json:"name"`
	LoanAmount   float64     `json:"loanAmount"`
	Decision     Decision    `json:"decision"`
	ReasonCode   ReasonCode  `json:"reasonCode"`
	Conditions   []Condition `json:"conditions,omitempty"`
}

const (
	NotificationStatusSent     = "sent"
	NotificationStatusDisabled = "disabled"
)

// NotificationReceipt describes what was delivered for an AgentNotification.
type NotificationReceipt struct {
	Status     string    `json:"status"`
	EmailID    string    `json:"emailId,omitempty"`
	EventID    string    `json:"eventId,omitempty"`
	NotifiedAt time.Time `json:"notifiedAt"`
}
