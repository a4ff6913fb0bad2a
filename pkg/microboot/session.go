package microboot

// BootInfo is the information block a device reports at QUERY time.
// blockSize is always > 0 once a Session is connected; every
// subsequent READ/WRITE payload is exactly that many bytes.
type BootInfo struct {
	ProtocolVersion uint8
	BlockSize       uint8
	Family          uint8
	Model           uint8
}

// Session is the bound (device, stream, boot-info, logger) context
// within which protocol exchanges are valid. It exclusively owns the
// stream once attached.
type Session struct {
	device    Descriptor
	stream    Stream
	bootInfo  *BootInfo
	transport *transport
	logger    Logger
	onRetry   func()
}

// NewSession creates an unconnected Session. SetLogger may be called
// before or after Connect; the logger is only ever invoked on
// successful exchanges.
func NewSession() *Session {
	return &Session{}
}

// SetLogger installs (or clears, with nil) the optional logger sink.
func (s *Session) SetLogger(logger Logger) {
	s.logger = logger
	if s.transport != nil {
		s.transport.logger = logger
	}
}

// SetRetryHook installs (or clears, with nil) a callback invoked once
// per command retry the transport issues, for callers that want to
// track retry counts (e.g. as a metric) without reaching into the
// transport layer directly.
func (s *Session) SetRetryHook(hook func()) {
	s.onRetry = hook
	if s.transport != nil {
		s.transport.onRetry = hook
	}
}

// Connected reports whether a stream is currently attached.
func (s *Session) Connected() bool {
	return s.stream != nil
}

// Connect attaches stream as the device's serial connection, issues
// QUERY, and validates the device's reported protocol version, family
// and model against the named Descriptor. If the Session was already
// connected, it is disconnected first — connect/disconnect are
// idempotent.
func (s *Session) Connect(name string, stream Stream) (BootInfo, error) {
	s.Disconnect()
	device, ok := Lookup(name)
	if !ok {
		return BootInfo{}, newErr(KindConfiguration, "unrecognised device type %q", name)
	}
	s.device = device
	s.stream = stream
	s.transport = newTransport(stream, device.SoftUART)
	s.transport.logger = s.logger
	s.transport.onRetry = s.onRetry

	response, err := s.transport.exchange(encodeQueryCommand())
	if err != nil {
		s.Disconnect()
		return BootInfo{}, err
	}
	if len(response) != 4 {
		s.Disconnect()
		return BootInfo{}, newErr(KindProtocol, "invalid response from device (expected 4 bytes, got %d)", len(response))
	}
	info := BootInfo{
		ProtocolVersion: response[0],
		BlockSize:       response[1],
		Family:          response[2],
		Model:           response[3],
	}
	if info.ProtocolVersion < device.MinProtocol {
		s.Disconnect()
		return BootInfo{}, newErr(KindProtocol, "bootloader protocol not supported, wanted %d, got %d", device.MinProtocol, info.ProtocolVersion)
	}
	if info.Family != device.Family || info.Model != device.Model {
		s.Disconnect()
		return BootInfo{}, newErr(KindProtocol, "unexpected processor type - wanted %02X/%02X, got %02X/%02X",
			device.Family, device.Model, info.Family, info.Model)
	}
	if info.BlockSize == 0 {
		s.Disconnect()
		return BootInfo{}, newErr(KindProtocol, "invalid block size reported by device (0)")
	}
	s.bootInfo = &info
	return info, nil
}

// Disconnect releases the stream, if any, and resets all session
// fields. It is a no-op (not an error) if already disconnected.
func (s *Session) Disconnect() error {
	var err error
	if s.stream != nil {
		err = s.stream.Close()
	}
	s.stream = nil
	s.transport = nil
	s.bootInfo = nil
	s.device = Descriptor{}
	return err
}

// Reset sends the RESET command and does not wait for a response,
// since the device reboots instead of replying.
func (s *Session) Reset() error {
	if !s.Connected() {
		return newErr(KindConfiguration, "not connected")
	}
	_, err := s.stream.Write([]byte(encodeResetCommand()))
	if err != nil {
		return wrapErr(KindTransport, err, "failed sending reset command")
	}
	return nil
}

// Device returns the descriptor of the currently connected device.
func (s *Session) Device() Descriptor { return s.device }

// BootInfo returns the cached boot info, or nil if not connected.
func (s *Session) BootInfo() *BootInfo { return s.bootInfo }
