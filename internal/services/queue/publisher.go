package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phambaophuc/sign-recognition/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// PublishJob records the job as pending and hands it to the workers.
func (q *QueueService) PublishJob(ctx context.Context, job *models.RecognitionJob) error {
	job.Status = models.StatusPending
	if err := q.processor.saveJob(ctx, job); err != nil {
		return err
	}

	jobBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = q.channel.Publish(
		"",          // exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         jobBytes,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			MessageId:    job.ID,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	q.logger.Info("Job published to queue", zap.String("job_id", job.ID))
	return nil
}
