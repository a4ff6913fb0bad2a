package microboot

// DefaultRetries is the transport retry budget.
const DefaultRetries = 3

// Logger is invoked exactly once per successful exchange, never from
// inside a retry attempt.
type Logger func(request, response string)

// transport drives a single request/response exchange over a Stream,
// handling the software-UART echo quirk and bounded retry of malformed
// or failed responses.
type transport struct {
	stream   Stream
	softUART bool
	retries  int
	logger   Logger
	onRetry  func()
}

func newTransport(stream Stream, softUART bool) *transport {
	return &transport{stream: stream, softUART: softUART, retries: DefaultRetries}
}

// exchange sends command and returns its parsed response payload. On
// success with no payload, it returns a non-nil empty slice.
func (t *transport) exchange(command string) ([]byte, error) {
	attempts := 0
	for attempts < t.retries {
		if err := t.send(command); err != nil {
			return nil, err // echo mismatch: fatal, not retried
		}
		line, err := t.receiveLine()
		if err != nil {
			return nil, err
		}
		if len(line) >= 2 && line[len(line)-1] == eol {
			data, perr := parseResponse(line[:len(line)-1])
			if perr == nil {
				if t.logger != nil {
					t.logger(command, string(line))
				}
				return data, nil
			}
		}
		attempts++
		if attempts < t.retries && t.onRetry != nil {
			t.onRetry()
		}
	}
	return nil, newErr(KindTransport, "no response or command failed for '%c'", command[0])
}

// send writes command to the stream. Software-UART devices echo every
// transmitted byte, so each byte must be confirmed before the next is
// sent; any mismatch desynchronizes the line and is fatal, not retried.
func (t *transport) send(command string) error {
	if !t.softUART {
		buf := []byte(command)
		for len(buf) > 0 {
			n, err := t.stream.Write(buf)
			if err != nil {
				return wrapErr(KindTransport, err, "failed writing command")
			}
			buf = buf[n:]
		}
		return nil
	}
	echo := make([]byte, 1)
	for i := 0; i < len(command); i++ {
		if _, err := t.stream.Write([]byte{command[i]}); err != nil {
			return wrapErr(KindTransport, err, "failed writing command byte")
		}
		n, err := t.stream.Read(echo)
		if err != nil {
			return wrapErr(KindTransport, err, "failed reading echo")
		}
		if n == 0 {
			return newErr(KindProtocol, "no echo on serial port, expected %q", command[i])
		}
		if echo[0] != command[i] {
			return newErr(KindProtocol, "unexpected echo on serial port - got %q, expected %q", echo[0], command[i])
		}
	}
	return nil
}

// receiveLine reads one byte at a time until '\n' is read or the
// stream returns zero bytes (timeout or EOF).
func (t *transport) receiveLine() ([]byte, error) {
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := t.stream.Read(buf)
		if err != nil {
			return nil, wrapErr(KindTransport, err, "failed reading response")
		}
		if n == 0 {
			return line, nil
		}
		line = append(line, buf[0])
		if buf[0] == eol {
			return line, nil
		}
	}
}
