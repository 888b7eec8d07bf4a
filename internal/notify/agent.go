// internal/notify/agent.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"loan-workers/internal/common/errors"
	"loan-workers/internal/common/logger"
	"loan-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SESService is the part of the SES client the notifier needs.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SNSService is the part of the SNS client the notifier needs.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Config struct {
	Enabled   bool
	ToEmail   string
	FromEmail string
	TopicARN  string
}

// AgentNotifier tells loan agents about conditional approvals by email and,
// when a topic is configured, by an SNS event.
type AgentNotifier struct {
	config Config
	ses    SESService
	sns    SNSService
	logger logger.Logger
}

func NewAgentNotifier(cfg Config, sesClient SESService, snsClient SNSService, log logger.Logger) *AgentNotifier {
	return &AgentNotifier{
		config: cfg,
		ses:    sesClient,
		sns:    snsClient,
		logger: log.WithFields(map[string]interface{}{"component": "agent-notifier"}),
	}
}

// Notify delivers n. Delivery failures are retryable NOTIFICATION_SEND_FAILED errors.
func (a *AgentNotifier) Notify(ctx context.Context, n models.AgentNotification, now time.Time) (*models.NotificationReceipt, error) {
	receipt := &models.NotificationReceipt{NotifiedAt: now}
	if !a.config.Enabled {
		receipt.Status = models.NotificationStatusDisabled
		a.logger.Info("agent notifications disabled", map[string]interface{}{"submissionId": n.SubmissionID})
		return receipt, nil
	}

	if a.config.ToEmail != "" && a.ses != nil {
		out, err := a.ses.SendEmail(ctx, &ses.SendEmailInput{
			Destination: &types.Destination{ToAddresses: []string{a.config.ToEmail}},
			Message: &types.Message{
				Subject: &types.Content{Data: aws.String(subject(n))},
				Body:    &types.Body{Text: &types.Content{Data: aws.String(body(n))}},
			},
			Source: aws.String(a.config.FromEmail),
		})
		if err != nil {
			return nil, errors.NewNotificationSendFailedError("ses", err)
		}
		receipt.EmailID = aws.ToString(out.MessageId)
	}

	if a.config.TopicARN != "" && a.sns != nil {
		payload, err := json.Marshal(n)
		if err != nil {
			return nil, errors.NewInternalError(err)
		}
		out, err := a.sns.Publish(ctx, &sns.PublishInput{
			TopicArn: aws.String(a.config.TopicARN),
			Message:  aws.String(string(payload)),
			MessageAttributes: map[string]snstypes.MessageAttributeValue{
				"decision": {DataType: aws.String("String"), StringValue: aws.String(string(n.Decision))},
			},
		})
		if err != nil {
			return nil, errors.NewNotificationSendFailedError("sns", err)
		}
		receipt.EventID = aws.ToString(out.MessageId)
	}

	receipt.Status = models.NotificationStatusSent
	a.logger.Info("loan agent notified", map[string]interface{}{
		"submissionId": n.SubmissionID,
		"emailId":      receipt.EmailID,
		"eventId":      receipt.EventID,
	})
	return receipt, nil
}

func subject(n models.AgentNotification) string {
	return fmt.Sprintf("Conditional approval needs follow-up: %s", n.Name)
}

func body(n models.AgentNotification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Applicant: %s <%s>\n", n.Name, n.Identity)
	fmt.Fprintf(&b, "Submission: %s\n", n.SubmissionID)
	fmt.Fprintf(&b, "Requested amount: %.2f\n", n.LoanAmount)
	fmt.Fprintf(&b, "Reason: %s\n", n.ReasonCode)
	if len(n.Conditions) > 0 {
		b.WriteString("Conditions:\n")
		for _, c := range n.Conditions {
			fmt.Fprintf(&b, "  - %s: %s\n", c.Code, c.Description)
		}
	}
	return b.String()
}
