// Package gencmd is the offline protocol command generator: it
// produces the literal on-wire READ/WRITE strings without a live
// connection, for test-harness use, matching gencommand.py.
package gencmd

import (
	"fmt"
	"math/rand"

	"github.com/thegaragelab/microboot/pkg/microboot"
)

// DefaultBlockSize matches gencommand.py's default of 16 bytes, used
// when the caller has not queried a live device for its advertised
// block size.
const DefaultBlockSize = 16

// ReadCommands returns the sequence of READ command-line strings
// needed to cover length bytes starting at start, aligned to
// blockSize. blockSize must fit in a single byte, matching the wire
// format's own BlockSize field.
func ReadCommands(start, length, blockSize int) ([]string, error) {
	if _, err := microboot.ByteValue(blockSize); err != nil {
		return nil, fmt.Errorf("gencmd: block size %w", err)
	}
	alength := alignedLength(length, blockSize)
	var lines []string
	for address := start; address < start+alength; address += blockSize {
		lines = append(lines, microboot.EncodeReadCommand(uint16(address)))
	}
	return lines, nil
}

// WriteCommands returns the sequence of WRITE command-line strings
// needed to write data (exactly length significant bytes, padded with
// 0xFF to the next block boundary — the offline generator's documented
// divergence from the live WRITE's read-modify-write padding; see
// DESIGN.md) starting at start. blockSize must fit in a single byte,
// matching the wire format's own BlockSize field.
func WriteCommands(start, length int, data []byte, blockSize int) ([]string, error) {
	if _, err := microboot.ByteValue(blockSize); err != nil {
		return nil, fmt.Errorf("gencmd: block size %w", err)
	}
	if len(data) < length {
		return nil, fmt.Errorf("gencmd: data array is not of sufficient size (%d > %d)", length, len(data))
	}
	alength := alignedLength(length, blockSize)
	padded := make([]byte, alength)
	copy(padded, data[:length])
	for i := length; i < alength; i++ {
		padded[i] = 0xFF
	}
	var lines []string
	offset := 0
	for address := start; offset < alength; address, offset = address+blockSize, offset+blockSize {
		line, err := microboot.EncodeWriteCommand(uint16(address), padded, offset, blockSize)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// RandomData returns length bytes of uniform random fill, for the
// generator's --random write mode (test-harness data, not a secret).
func RandomData(length int) []byte {
	data := make([]byte, length)
	rand.Read(data)
	return data
}

func alignedLength(length, blockSize int) int {
	if length%blockSize == 0 {
		return length
	}
	return (length/blockSize + 1) * blockSize
}
