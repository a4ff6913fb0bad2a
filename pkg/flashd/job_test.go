package flashd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobRoundTrip(t *testing.T) {
	job := Job{ID: "abc123", Device: "attiny85", Op: OpWrite, Start: 0, Length: 32, Data: []byte{1, 2, 3}}
	data, err := EncodeJob(job)
	require.NoError(t, err)

	decoded, err := DecodeJob(data)
	require.NoError(t, err)
	assert.Equal(t, job, decoded)
}

func TestResultRoundTrip(t *testing.T) {
	result := Result{JobID: "abc123", Status: "completed", Completed: 32, Total: 32}
	data, err := EncodeResult(result)
	require.NoError(t, err)

	decoded, err := DecodeResult(data)
	require.NoError(t, err)
	assert.Equal(t, result, decoded)
}

func TestDecodeJobRejectsGarbage(t *testing.T) {
	_, err := DecodeJob([]byte("not cbor"))
	assert.Error(t, err)
}
