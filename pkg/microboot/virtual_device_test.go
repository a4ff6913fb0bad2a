package microboot

import "strconv"

// virtualDevice simulates a Microboot bootloader target in memory: it
// understands QUERY/READ/WRITE request lines and answers them the way
// a real device would, backed by a flat flash array. It is used as the
// Stream a Session talks to in tests, standing in for real hardware.
type virtualDevice struct {
	family, model, protocol, blockSize byte
	flash                              []byte
	softUART                           bool

	in  []byte // bytes written by the transport, not yet forming a full line
	out []byte // bytes queued to be read back by the transport

	failCommandsRemaining int // when > 0, the next completed commands get a bad response
	dropEcho              bool
}

func newVirtualDevice(d Descriptor, blockSize byte) *virtualDevice {
	return &virtualDevice{
		family: d.Family, model: d.Model, protocol: d.MinProtocol,
		blockSize: blockSize,
		flash:     make([]byte, int(d.AddrHigh)+1),
		softUART:  d.SoftUART,
	}
}

func (v *virtualDevice) Write(p []byte) (int, error) {
	for _, b := range p {
		if v.softUART && !v.dropEcho {
			v.out = append(v.out, b)
		}
		v.in = append(v.in, b)
		if b == eol {
			v.handleLine(v.in)
			v.in = nil
		}
	}
	return len(p), nil
}

func (v *virtualDevice) Read(p []byte) (int, error) {
	if len(v.out) == 0 {
		return 0, nil
	}
	n := copy(p, v.out[:1])
	v.out = v.out[1:]
	return n, nil
}

func (v *virtualDevice) Close() error { return nil }

func (v *virtualDevice) handleLine(line []byte) {
	if v.failCommandsRemaining > 0 {
		v.failCommandsRemaining--
		v.out = append(v.out, '-', eol)
		return
	}
	switch line[0] {
	case opQuery:
		data := []byte{v.protocol, v.blockSize, v.family, v.model}
		v.out = append(v.out, encodeOKResponse(data)...)
	case opRead:
		address := parseHexUint16(line[1:5])
		check := parseHexUint16(line[5:9])
		if checksum(checksumSeed, addrBytes(address)) != check {
			v.out = append(v.out, '-', eol)
			return
		}
		block := v.flash[address : int(address)+int(v.blockSize)]
		data := append(addrBytes(address), block...)
		v.out = append(v.out, encodeOKResponse(data)...)
	case opWrite:
		address := parseHexUint16(line[1:5])
		hexData := line[5 : len(line)-1-4]
		data := decodeHex(hexData)
		copy(v.flash[address:], data)
		v.out = append(v.out, '+', eol)
	case opReset:
		// No response expected.
	}
}

func encodeOKResponse(data []byte) []byte {
	check := checksum(checksumSeed, data)
	full := append(append([]byte{}, data...), byte(check>>8), byte(check))
	resp := make([]byte, 0, 1+2*len(full)+1)
	resp = append(resp, '+')
	resp = append(resp, []byte(encodeHex(full))...)
	resp = append(resp, eol)
	return resp
}

func parseHexUint16(hex []byte) uint16 {
	v, _ := strconv.ParseUint(string(hex), 16, 16)
	return uint16(v)
}

func decodeHex(hex []byte) []byte {
	out := make([]byte, len(hex)/2)
	for i := range out {
		v, _ := strconv.ParseUint(string(hex[2*i:2*i+2]), 16, 8)
		out[i] = byte(v)
	}
	return out
}
