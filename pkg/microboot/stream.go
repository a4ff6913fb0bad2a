package microboot

// Stream is the byte-stream collaborator the Transport talks to. It is
// satisfied by a live serial port (see pkg/serialport) or, in tests,
// by an in-memory fake. Read must return 0 bytes (with a nil
// error) on a read timeout rather than blocking forever — that is how
// the Transport detects the end of a response line when the device
// stops talking.
type Stream interface {
	Write(p []byte) (n int, err error)
	Read(p []byte) (n int, err error)
	Close() error
}
