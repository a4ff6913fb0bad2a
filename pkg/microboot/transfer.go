package microboot

// ProgressFunc reports transfer progress. It is called once per block
// with the number of bytes completed so far (monotonic, <= total) and
// the total number of bytes requested.
type ProgressFunc func(completed, total int)

// alignedLength rounds length up to the next multiple of blockSize.
// For any start, length, blockSize > 0, the result is a multiple of
// blockSize in [length, length+blockSize).
func alignedLength(length, blockSize int) int {
	if length%blockSize == 0 {
		return length
	}
	return (length/blockSize + 1) * blockSize
}

func (s *Session) blockSize() int {
	return int(s.bootInfo.BlockSize)
}

// validateRange checks start/length against the connected device's
// addressable window. It never sends any bytes.
func (s *Session) validateRange(start, length int) error {
	if !s.Connected() || s.bootInfo == nil {
		return newErr(KindConfiguration, "not connected")
	}
	if start < 0 || length < 0 {
		return newErr(KindRange, "parameters out of range - must be positive integers")
	}
	low, high := int(s.device.AddrLow), int(s.device.AddrHigh)
	if start < low || start > high || start+length-1 > high {
		return newErr(KindRange, "address out of range for device - %04X:%04X", low, high)
	}
	return nil
}

// Read retrieves length bytes of flash starting at start, in chunks of
// the device's block size, invoking callback after each block with the
// cumulative number of bytes read.
func (s *Session) Read(start, length int, callback ProgressFunc) ([]byte, error) {
	if err := s.validateRange(start, length); err != nil {
		return nil, err
	}
	blockSize := s.blockSize()
	alength := alignedLength(length, blockSize)
	result := make([]byte, 0, alength)
	address := start
	for offset := 0; offset < alength; offset, address = offset+blockSize, address+blockSize {
		response, err := s.transport.exchange(encodeReadCommand(uint16(address)))
		if err != nil {
			return nil, err
		}
		if len(response) != blockSize+4 {
			return nil, newErr(KindProtocol, "invalid response from device (expected %d bytes, got %d)", blockSize+4, len(response))
		}
		result = append(result, response[2:len(response)-2]...)
		if callback != nil {
			completed := offset + blockSize
			if completed > length {
				completed = length
			}
			callback(completed, length)
		}
	}
	return result[:length], nil
}

// Write replaces length bytes of flash starting at start with
// data[:length]. If length is not a multiple of the device's block
// size, the final on-wire block's unrequested tail is filled by
// reading back the existing flash contents there first
// (read-modify-write), so the un-requested tail bytes are preserved
// rather than overwritten with garbage.
func (s *Session) Write(start, length int, data []byte, callback ProgressFunc) error {
	if err := s.validateRange(start, length); err != nil {
		return err
	}
	if len(data) < length {
		return newErr(KindRange, "data array is not of sufficient size (%d > %d)", length, len(data))
	}
	blockSize := s.blockSize()
	alength := alignedLength(length, blockSize)
	buf := make([]byte, length, alength)
	copy(buf, data[:length])
	if alength != length {
		tailStart := start + alength - blockSize
		current, err := s.Read(tailStart, blockSize, nil)
		if err != nil {
			return err
		}
		buf = append(buf, current[blockSize-(alength-length):]...)
	}
	written := 0
	address := start
	for written < alength {
		command, err := encodeWriteCommand(uint16(address), buf, written, blockSize)
		if err != nil {
			return err
		}
		response, err := s.transport.exchange(command)
		if err != nil {
			return err
		}
		if len(response) != 0 {
			return newErr(KindProtocol, "invalid response from device (expected empty, got %d bytes)", len(response))
		}
		address += blockSize
		written += blockSize
		if callback != nil {
			completed := written
			if completed > length {
				completed = length
			}
			callback(completed, length)
		}
	}
	return nil
}

// Verify reads back length bytes starting at start and compares them
// against data[:length], failing with a Verification error naming the
// first mismatching address.
func (s *Session) Verify(start, length int, data []byte, callback ProgressFunc) error {
	if len(data) < length {
		return newErr(KindRange, "data array is not of sufficient size (%d > %d)", length, len(data))
	}
	current, err := s.Read(start, length, callback)
	if err != nil {
		return err
	}
	for i := 0; i < length; i++ {
		if data[i] != current[i] {
			return newErr(KindVerification, "verification failed, value at %04X is 0x%02X, expected 0x%02X",
				start+i, current[i], data[i])
		}
	}
	return nil
}
