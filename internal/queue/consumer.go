package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"
)

// JobHandler processes one analysis job. A returned error is logged; the
// job is not redelivered (submissions are idempotent by video hash, so a
// client retry repairs a lost job).
type JobHandler func(ctx context.Context, job AnalysisJob) error

// Consumer subscribes to the jobs subject in the worker queue group so
// concurrent workers split the stream.
type Consumer struct {
	conn *nats.Conn
	sub  *nats.Subscription
}

func NewConsumer(conn *nats.Conn) *Consumer {
	return &Consumer{conn: conn}
}

func (c *Consumer) Start(ctx context.Context, handler JobHandler) error {
	sub, err := c.conn.QueueSubscribe(SubjectJobs, WorkerGroup, func(msg *nats.Msg) {
		var job AnalysisJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			log.Printf("[Queue] Dropping malformed job payload: %v", err)
			return
		}
		if err := handler(ctx, job); err != nil {
			log.Printf("[Queue] Job %s failed: %v", job.JobID, err)
		}
	})
	if err != nil {
		return err
	}
	c.sub = sub
	return nil
}

func (c *Consumer) Stop() {
	if c.sub != nil {
		if err := c.sub.Drain(); err != nil {
			log.Printf("[Queue] Drain error: %v", err)
		}
	}
}
