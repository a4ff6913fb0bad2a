package microboot

// EncodeReadCommand and EncodeWriteCommand expose the Framing &
// Checksum code path to callers that need to produce command-line
// strings without a live Session — the offline Protocol Command
// Generator (see pkg/gencmd). They wrap the same unexported encoders
// the Session uses.

// EncodeReadCommand builds the literal on-wire READ request line for
// address.
func EncodeReadCommand(address uint16) string {
	return encodeReadCommand(address)
}

// EncodeWriteCommand builds the literal on-wire WRITE request line for
// address, using exactly blockSize bytes of data starting at offset.
func EncodeWriteCommand(address uint16, data []byte, offset, blockSize int) (string, error) {
	return encodeWriteCommand(address, data, offset, blockSize)
}
