package queue

import (
	"fmt"
	"sync/atomic"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const DefaultQueueName = "sign_recognition"

type QueueService struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	logger    *zap.Logger
	queueName string
	processor *JobProcessor

	workers   atomic.Int64
	processed atomic.Int64
	requeued  atomic.Int64
	rejected  atomic.Int64
}

func NewQueueService(
	rabbitmqURL string,
	queueName string,
	processor *JobProcessor,
	logger *zap.Logger,
) (*QueueService, error) {
	if queueName == "" {
		queueName = DefaultQueueName
	}

	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// One unacked job per consumer so slow inferences spread across workers.
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	_, err = channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &QueueService{
		conn:      conn,
		channel:   channel,
		logger:    logger,
		queueName: queueName,
		processor: processor,
	}, nil
}

// Close closes the queue connection
func (q *QueueService) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
