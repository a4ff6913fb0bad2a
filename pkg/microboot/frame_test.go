package microboot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1 — READ frame: address 0x1234, checksum seeded at 0x5050.
func TestEncodeReadCommand(t *testing.T) {
	assert.Equal(t, "R12345096\n", encodeReadCommand(0x1234))
}

// S2 — WRITE checksum: address 0x0000, 32 bytes of 0xFF.
func TestEncodeWriteCommand(t *testing.T) {
	data := make([]byte, 32)
	for i := range data {
		data[i] = 0xFF
	}
	cmd, err := encodeWriteCommand(0x0000, data, 0, 32)
	require.NoError(t, err)
	expected := "W0000" + encodeHex(data) + "7030\n"
	assert.Equal(t, expected, cmd)
}

func TestEncodeWriteCommandRangeError(t *testing.T) {
	_, err := encodeWriteCommand(0, []byte{1, 2, 3}, 0, 32)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindRange))
}

// S3 — Parse "+\n" (terminator already stripped) -> empty, no error.
func TestParseResponseOK(t *testing.T) {
	data, err := parseResponse([]byte{'+'})
	require.NoError(t, err)
	assert.Empty(t, data)
}

// S4 — Parse failed status.
func TestParseResponseFail(t *testing.T) {
	_, err := parseResponse([]byte{'-'})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindProtocol))
}

func TestParseResponseOddLengthPayload(t *testing.T) {
	_, err := parseResponse([]byte("+ABC"))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindProtocol))
}

func TestParseResponseBadHexDigit(t *testing.T) {
	_, err := parseResponse([]byte("+ZZ5050"))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindProtocol))
}

func TestParseResponseBadChecksum(t *testing.T) {
	// Valid hex, wrong checksum trailer.
	_, err := parseResponse([]byte("+AA0000"))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindProtocol))
}

func TestAlignedLength(t *testing.T) {
	cases := []struct{ length, blockSize, want int }{
		{32, 32, 32},
		{1, 32, 32},
		{33, 32, 64},
		{64, 32, 64},
		{0, 16, 0},
	}
	for _, c := range cases {
		got := alignedLength(c.length, c.blockSize)
		assert.Equal(t, c.want, got)
		assert.Equal(t, 0, got%c.blockSize)
		if c.length > 0 {
			assert.GreaterOrEqual(t, got, c.length)
			assert.Less(t, got, c.length+c.blockSize)
		}
	}
}
