package flashd

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Operation names a single-device job placed on the work queue.
type Operation string

const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpVerify Operation = "verify"
)

// Job is a CBOR-encoded unit of work pulled off the Redis queue by the
// daemon.
type Job struct {
	ID       string    `cbor:"id"`
	Device   string    `cbor:"device"`
	Op       Operation `cbor:"op"`
	Start    int       `cbor:"start"`
	Length   int       `cbor:"length"`
	Data     []byte    `cbor:"data,omitempty"`
	Relocate bool      `cbor:"relocate,omitempty"`
}

// Result is the envelope published back to the log channel and
// recorded to history once a Job finishes, successfully or not.
type Result struct {
	JobID     string `cbor:"job_id"`
	Status    string `cbor:"status"` // "completed" or "failed"
	Completed int    `cbor:"completed"`
	Total     int    `cbor:"total"`
	Data      []byte `cbor:"data,omitempty"`
	Err       string `cbor:"err,omitempty"`
}

// EncodeJob serializes a Job for LPush.
func EncodeJob(job Job) ([]byte, error) {
	data, err := cbor.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("flashd: encode job: %w", err)
	}
	return data, nil
}

// DecodeJob deserializes a Job pulled off the queue by BRPop.
func DecodeJob(raw []byte) (Job, error) {
	var job Job
	if err := cbor.Unmarshal(raw, &job); err != nil {
		return Job{}, fmt.Errorf("flashd: decode job: %w", err)
	}
	return job, nil
}

// EncodeResult serializes a Result for the Pub/Sub log channel.
func EncodeResult(result Result) ([]byte, error) {
	data, err := cbor.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("flashd: encode result: %w", err)
	}
	return data, nil
}

// DecodeResult parses a Result back out of its CBOR encoding.
func DecodeResult(raw []byte) (Result, error) {
	var result Result
	if err := cbor.Unmarshal(raw, &result); err != nil {
		return Result{}, fmt.Errorf("flashd: decode result: %w", err)
	}
	return result, nil
}
