// Package queue forwards submitted leads to an SQS queue for downstream
// consumers such as a CRM sync.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/callkaidsroofing/lead-intake/internal/events"
	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

// sqsAPI is the subset of the SQS client the publisher needs.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher sends each lead event as one SQS message.
type SQSPublisher struct {
	client   sqsAPI
	queueURL string
	logger   *logging.Logger
}

// NewSQSPublisher wraps client. It panics on a nil client or empty URL, which
// are wiring mistakes.
func NewSQSPublisher(client *sqs.Client, queueURL string, logger *logging.Logger) *SQSPublisher {
	if client == nil {
		panic("queue: SQS client cannot be nil")
	}
	return newSQSPublisher(client, queueURL, logger)
}

func newSQSPublisher(client sqsAPI, queueURL string, logger *logging.Logger) *SQSPublisher {
	if queueURL == "" {
		panic("queue: SQS queueURL cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SQSPublisher{client: client, queueURL: queueURL, logger: logger}
}

// HandleLeadSubmitted publishes evt. The event id is sent as the
// deduplication id so FIFO queues drop redeliveries.
func (p *SQSPublisher) HandleLeadSubmitted(ctx context.Context, evt events.LeadSubmittedV1) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("queue: marshal event: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(events.TypeLeadSubmittedV1)},
			"service":    {DataType: aws.String("String"), StringValue: aws.String(string(evt.Lead.Service))},
		},
	}
	if isFIFO(p.queueURL) {
		input.MessageGroupId = aws.String("leads")
		input.MessageDeduplicationId = aws.String(evt.EventID)
	}

	out, err := p.client.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("queue: failed to send SQS message: %w", err)
	}
	p.logger.Debug("lead event queued", "event_id", evt.EventID, "message_id", aws.ToString(out.MessageId))
	return nil
}

func isFIFO(url string) bool {
	return strings.HasSuffix(url, ".fifo")
}
