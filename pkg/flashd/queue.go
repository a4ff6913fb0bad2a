package flashd

import (
	"fmt"
	"time"
)

// DefaultJobKey is the Redis list the daemon BRPops jobs from.
const DefaultJobKey = "microboot:jobs"

// DefaultLogChannel is the Pub/Sub channel the daemon publishes
// per-exchange log lines and job results to.
const DefaultLogChannel = "microboot:log"

// broker is the subset of pkg/redis.Client's surface Queue needs.
// Accepting an interface rather than *redis.Client lets tests exercise
// Queue against an in-memory fake instead of a live Redis server.
type broker interface {
	LPush(key, value string) error
	BRPop(timeout time.Duration, key string) ([]string, error)
	Publish(channel, message string) error
}

// Queue is the daemon's view of its Redis-backed work queue and
// Pub/Sub log feed.
type Queue struct {
	client  broker
	jobKey  string
	logChan string
}

// NewQueue wraps an already-connected redis.Client (or, in tests, any
// type satisfying the same LPush/BRPop/Publish surface).
func NewQueue(client broker, jobKey, logChan string) *Queue {
	if jobKey == "" {
		jobKey = DefaultJobKey
	}
	if logChan == "" {
		logChan = DefaultLogChannel
	}
	return &Queue{client: client, jobKey: jobKey, logChan: logChan}
}

// Submit CBOR-encodes job and LPushes it onto the work queue.
func (q *Queue) Submit(job Job) error {
	data, err := EncodeJob(job)
	if err != nil {
		return err
	}
	return q.client.LPush(q.jobKey, string(data))
}

// Next blocks up to timeout for a job to arrive, BRPop-style. Returns
// ok=false on timeout (a nil slice with no error from the broker).
func (q *Queue) Next(timeout time.Duration) (job Job, ok bool, err error) {
	result, err := q.client.BRPop(timeout, q.jobKey)
	if err != nil {
		return Job{}, false, fmt.Errorf("flashd: queue wait: %w", err)
	}
	if result == nil {
		return Job{}, false, nil
	}
	job, err = DecodeJob([]byte(result[1]))
	if err != nil {
		return Job{}, false, err
	}
	return job, true, nil
}

// PublishResult CBOR-encodes result and publishes it to the log
// channel for any attached observer (a CLI, a dashboard).
func (q *Queue) PublishResult(result Result) error {
	data, err := EncodeResult(result)
	if err != nil {
		return err
	}
	return q.client.Publish(q.logChan, string(data))
}

// PublishLogLine mirrors one request/response exchange to the log
// channel as plain text.
func (q *Queue) PublishLogLine(line string) error {
	return q.client.Publish(q.logChan, line)
}
