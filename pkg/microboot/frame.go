package microboot

import (
	"strconv"
	"strings"
)

// Wire opcodes.
const (
	opRead  = 'R'
	opWrite = 'W'
	opQuery = '?'
	opReset = '!'

	statusOK   = '+'
	statusFail = '-'
	eol        = '\n'
)

// encodeHex renders data as uppercase hex, two characters per byte.
func encodeHex(data []byte) string {
	var b strings.Builder
	b.Grow(len(data) * 2)
	const digits = "0123456789ABCDEF"
	for _, v := range data {
		b.WriteByte(digits[v>>4])
		b.WriteByte(digits[v&0x0F])
	}
	return b.String()
}

// addrBytes splits a 16-bit address into its big-endian byte pair.
func addrBytes(address uint16) []byte {
	return []byte{byte(address >> 8), byte(address)}
}

// encodeReadCommand builds the READ request line for the given address:
// "R" AAHH AALL CCHH CCLL "\n".
func encodeReadCommand(address uint16) string {
	check := checksum(checksumSeed, addrBytes(address))
	var b strings.Builder
	b.WriteByte(opRead)
	b.WriteString(encodeHex(addrBytes(address)))
	b.WriteString(encodeHex(addrBytes(check)))
	b.WriteByte(eol)
	return b.String()
}

// encodeWriteCommand builds the WRITE request line for the given
// address and exactly blockSize bytes of data starting at offset:
// "W" AAHH AALL DD...DD CCHH CCLL "\n".
func encodeWriteCommand(address uint16, data []byte, offset, blockSize int) (string, error) {
	if offset < 0 || offset+blockSize > len(data) {
		return "", newErr(KindRange, "data array is not of sufficient size (%d > %d)", offset+blockSize, len(data))
	}
	block := data[offset : offset+blockSize]
	check := checksum(checksumSeed, addrBytes(address))
	check = checksum(check, block)
	var b strings.Builder
	b.WriteByte(opWrite)
	b.WriteString(encodeHex(addrBytes(address)))
	b.WriteString(encodeHex(block))
	b.WriteString(encodeHex(addrBytes(check)))
	b.WriteByte(eol)
	return b.String(), nil
}

// encodeQueryCommand builds the QUERY request line.
func encodeQueryCommand() string {
	return string([]byte{opQuery, eol})
}

// encodeResetCommand builds the RESET request line.
func encodeResetCommand() string {
	return string([]byte{opReset, eol})
}

// parseResponse decodes a response line (without its trailing '\n' —
// the terminator must already be stripped by the caller) into the
// sequence of bytes it carries.
//
// A "+OK" with no payload yields an empty, non-nil slice. A "+" status
// with payload is hex-decoded and its trailing two bytes verified as
// the checksum of everything before them. A "-" status, or any parse or
// checksum failure, is reported as a Protocol error — the Transport
// layer decides whether to retry, never this function.
func parseResponse(line []byte) ([]byte, error) {
	if len(line) < 1 {
		return nil, newErr(KindProtocol, "empty response")
	}
	status := line[0]
	if status != statusOK && status != statusFail {
		return nil, newErr(KindProtocol, "unrecognised response status %q", status)
	}
	if status == statusFail {
		return nil, newErr(KindProtocol, "device reported failure status")
	}
	payload := line[1:]
	if len(payload) == 0 {
		return []byte{}, nil
	}
	if len(payload)%2 != 0 {
		return nil, newErr(KindProtocol, "odd-length hex payload")
	}
	values := make([]byte, len(payload)/2)
	for i := range values {
		b, err := strconv.ParseUint(string(payload[2*i:2*i+2]), 16, 8)
		if err != nil {
			return nil, wrapErr(KindProtocol, err, "invalid hex digit in response")
		}
		values[i] = byte(b)
	}
	if len(values) < 2 {
		return nil, newErr(KindProtocol, "response too short to carry a checksum")
	}
	data, sum := values[:len(values)-2], values[len(values)-2:]
	check := checksum(checksumSeed, data)
	if byte(check>>8) != sum[0] || byte(check) != sum[1] {
		return nil, newErr(KindProtocol, "checksum does not match - expected 0x%02X%02X, got 0x%02X%02X",
			byte(check>>8), byte(check), sum[0], sum[1])
	}
	return data, nil
}
