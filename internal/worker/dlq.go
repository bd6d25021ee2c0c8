package worker

// dlq.go: Dead Letter Queue
// Jobs that exceed the maximum retry count are moved here for manual inspection.
// Uses a Redis list per source queue: dlq:{original_queue}

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

const DLQPrefix = "dlq:"

// DLQEntry wraps a failed job with metadata for debugging.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // ISO 8601
	Attempts      int             `json:"attempts"`
}

type DeadLetter interface {
	Send(ctx context.Context, entry DLQEntry) error
}

type RedisDLQ struct {
	rdb *redis.Client
}

func NewRedisDLQ(rdb *redis.Client) *RedisDLQ { return &RedisDLQ{rdb: rdb} }

func (q *RedisDLQ) Send(ctx context.Context, entry DLQEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, DLQPrefix+entry.OriginalQueue, data).Err()
}

// Length returns the number of entries in a DLQ for monitoring.
func (q *RedisDLQ) Length(ctx context.Context, queue string) (int64, error) {
	return q.rdb.LLen(ctx, DLQPrefix+queue).Result()
}
