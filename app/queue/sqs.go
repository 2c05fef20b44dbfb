package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
)

const (
	sqsWaitSeconds  = 20
	sqsMaxMessages  = 10
	sqsDeleteTimeout = 10 * time.Second
)

// SQSQueue sends tasks as JSON messages. A message is deleted once it has
// been dispatched; a consumer dying mid-task lets the visibility timeout
// redeliver it.
type SQSQueue struct {
	client      sqsiface.SQSAPI
	queueURL    string
	workerCount int
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func NewSQSQueue(region, endpoint, queueURL string, workerCount int) (*SQSQueue, error) {
	awsConfig := &aws.Config{
		Region: aws.String(region),
	}

	// For local testing with an SQS-compatible endpoint
	if endpoint != "" {
		awsConfig.Endpoint = aws.String(endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return newSQSQueue(sqs.New(sess), queueURL, workerCount), nil
}

func newSQSQueue(client sqsiface.SQSAPI, queueURL string, workerCount int) *SQSQueue {
	return &SQSQueue{
		client:      client,
		queueURL:    queueURL,
		workerCount: workerCount,
	}
}

func (q *SQSQueue) Backend() string {
	return BackendSQS
}

func (q *SQSQueue) Enqueue(ctx context.Context, task Task) error {
	data, err := encodeTask(task)
	if err != nil {
		return err
	}

	_, err = q.client.SendMessageWithContext(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(data)),
		MessageAttributes: map[string]*sqs.MessageAttributeValue{
			"endpoint": {
				DataType:    aws.String("String"),
				StringValue: aws.String(task.Endpoint),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send task: %w", err)
	}
	return nil
}

func (q *SQSQueue) Start(ctx context.Context, dispatcher Dispatcher) {
	workerCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(workerCtx, i, dispatcher)
	}
}

func (q *SQSQueue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

func (q *SQSQueue) worker(ctx context.Context, id int, dispatcher Dispatcher) {
	defer q.wg.Done()

	for ctx.Err() == nil {
		out, err := q.client.ReceiveMessageWithContext(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(q.queueURL),
			MaxNumberOfMessages: aws.Int64(sqsMaxMessages),
			WaitTimeSeconds:     aws.Int64(sqsWaitSeconds),
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("Failed to receive tasks", "worker_id", id, "queue_url", q.queueURL, "error", err)
			sleepCtx(ctx, time.Second)
			continue
		}

		for _, msg := range out.Messages {
			task, err := decodeTask([]byte(aws.StringValue(msg.Body)))
			if err != nil {
				slog.Error("Dropping malformed task", "worker_id", id, "message_id", aws.StringValue(msg.MessageId), "error", err)
			} else {
				deliver(ctx, id, dispatcher, task)
			}

			q.deleteMessage(id, msg)
		}
	}
}

func (q *SQSQueue) deleteMessage(workerID int, msg *sqs.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), sqsDeleteTimeout)
	defer cancel()

	_, err := q.client.DeleteMessageWithContext(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		slog.Warn("Failed to delete task message", "worker_id", workerID, "message_id", aws.StringValue(msg.MessageId), "error", err)
	}
}
