package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/openshelf/bookswap/pkg/models"
)

// SQS delays a single message at most 15 minutes; longer reservation
// windows are handled by re-enqueueing in the expiry lambda until the
// deadline passes.
const maxSQSDelay = 15 * time.Minute

// SQSAPI defines the subset of the SQS client the scheduler uses.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// ExpiryMessage is the payload placed on the expiry queue.
type ExpiryMessage struct {
	RequestId string    `json:"request_id"`
	BookId    string    `json:"book_id"`
	Deadline  time.Time `json:"deadline"`
}

// SQSScheduler implements the Scheduler interface using AWS SQS.
type SQSScheduler struct {
	Client   SQSAPI
	QueueURL string
}

// NewSQSScheduler creates a new SQSScheduler.
func NewSQSScheduler(client SQSAPI, queueURL string) *SQSScheduler {
	return &SQSScheduler{
		Client:   client,
		QueueURL: queueURL,
	}
}

// Make sure we conform to the interface
var _ Scheduler = (*SQSScheduler)(nil)

// ScheduleExpiry sends the expiry check to an SQS queue for later
// processing.
func (s *SQSScheduler) ScheduleExpiry(ctx context.Context, req *models.SwapRequest, delay time.Duration) error {
	msg := ExpiryMessage{
		RequestId: req.Id,
		BookId:    req.BookId,
		Deadline:  time.Now().Add(delay),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal expiry message for SQS: %w", err)
	}

	if delay > maxSQSDelay {
		delay = maxSQSDelay
	}

	_, err = s.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:     aws.String(s.QueueURL),
		MessageBody:  aws.String(string(body)),
		DelaySeconds: int32(delay / time.Second),
	})

	if err != nil {
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}

	return nil
}
