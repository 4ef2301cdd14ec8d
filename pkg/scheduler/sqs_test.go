package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/openshelf/bookswap/pkg/models"
	"github.com/openshelf/bookswap/pkg/scheduler/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestScheduleExpiry(t *testing.T) {
	req := &models.SwapRequest{Id: "req-1", BookId: "book-1", State: models.ACCEPTED}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.SQSAPI)
		scheduler := NewSQSScheduler(mockClient, "http://queue.url")

		var sent *sqs.SendMessageInput
		mockClient.On("SendMessage", mock.Anything, mock.AnythingOfType("*sqs.SendMessageInput")).
			Run(func(args mock.Arguments) {
				sent = args.Get(1).(*sqs.SendMessageInput)
			}).
			Return(&sqs.SendMessageOutput{}, nil)

		err := scheduler.ScheduleExpiry(context.Background(), req, 5*time.Minute)

		require.NoError(t, err)
		require.NotNil(t, sent)
		assert.Equal(t, "http://queue.url", *sent.QueueUrl)
		assert.Equal(t, int32(300), sent.DelaySeconds)

		var msg ExpiryMessage
		require.NoError(t, json.Unmarshal([]byte(*sent.MessageBody), &msg))
		assert.Equal(t, "req-1", msg.RequestId)
		assert.Equal(t, "book-1", msg.BookId)
		mockClient.AssertExpectations(t)
	})

	t.Run("Delay Capped At SQS Maximum", func(t *testing.T) {
		mockClient := new(mocks.SQSAPI)
		scheduler := NewSQSScheduler(mockClient, "http://queue.url")

		var sent *sqs.SendMessageInput
		mockClient.On("SendMessage", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				sent = args.Get(1).(*sqs.SendMessageInput)
			}).
			Return(&sqs.SendMessageOutput{}, nil)

		before := time.Now()
		err := scheduler.ScheduleExpiry(context.Background(), req, 72*time.Hour)

		require.NoError(t, err)
		require.NotNil(t, sent)
		assert.Equal(t, int32(900), sent.DelaySeconds)

		// The deadline keeps the full TTL; only the hop is capped.
		var msg ExpiryMessage
		require.NoError(t, json.Unmarshal([]byte(*sent.MessageBody), &msg))
		assert.True(t, msg.Deadline.After(before.Add(71*time.Hour)))
		mockClient.AssertExpectations(t)
	})

	t.Run("Send Fails", func(t *testing.T) {
		mockClient := new(mocks.SQSAPI)
		scheduler := NewSQSScheduler(mockClient, "http://queue.url")

		mockClient.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("sqs is down"))

		err := scheduler.ScheduleExpiry(context.Background(), req, time.Minute)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to send message to SQS")
		mockClient.AssertExpectations(t)
	})
}
