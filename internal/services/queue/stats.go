package queue

import "fmt"

// GetQueueStats combines the broker's view of the queue with this
// process's worker counters.
func (q *QueueService) GetQueueStats() (map[string]interface{}, error) {
	queueInfo, err := q.channel.QueueInspect(q.queueName)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect queue %s: %w", q.queueName, err)
	}

	stats := q.workerStats()
	stats["queue"] = queueInfo.Name
	stats["pending_jobs"] = queueInfo.Messages
	stats["consumers"] = queueInfo.Consumers
	return stats, nil
}

// workerStats reports the jobs handled by the workers of this process.
func (q *QueueService) workerStats() map[string]interface{} {
	return map[string]interface{}{
		"workers":        q.workers.Load(),
		"jobs_processed": q.processed.Load(),
		"jobs_requeued":  q.requeued.Load(),
		"jobs_rejected":  q.rejected.Load(),
	}
}

// HealthCheck reports whether the RabbitMQ connection can still carry jobs.
func (q *QueueService) HealthCheck() string {
	if q.conn == nil || q.conn.IsClosed() {
		return "unhealthy: connection closed"
	}

	if q.channel == nil {
		return "unhealthy: channel not available"
	}

	return "healthy"
}
