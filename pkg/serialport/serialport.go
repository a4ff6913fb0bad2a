// Package serialport adapts the host's serial ports to the
// microboot.Stream collaborator interface the protocol engine expects.
// It is the Go analogue of the pySerial import the original tooling
// used directly.
package serialport

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
	bugst "go.bug.st/serial"
)

// Defaults matching the bootloader's expected serial framing.
const (
	DefaultBaud        = 57600
	DefaultReadTimeout = 200 * time.Millisecond
)

// Port wraps a tarm/serial.Port so it satisfies microboot.Stream.
type Port struct {
	port *serial.Port
}

// Open opens devicePath at baud with the 8-N-1 framing and read timeout
// Microboot expects. baud and timeout default to DefaultBaud and
// DefaultReadTimeout when zero.
func Open(devicePath string, baud int, timeout time.Duration) (*Port, error) {
	if baud == 0 {
		baud = DefaultBaud
	}
	if timeout == 0 {
		timeout = DefaultReadTimeout
	}
	config := &serial.Config{
		Name:        devicePath,
		Baud:        baud,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: timeout,
	}
	port, err := serial.OpenPort(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %q: %w", devicePath, err)
	}
	return &Port{port: port}, nil
}

func (p *Port) Write(b []byte) (int, error) { return p.port.Write(b) }
func (p *Port) Read(b []byte) (int, error)  { return p.port.Read(b) }
func (p *Port) Close() error                { return p.port.Close() }

// ListPorts enumerates the serial ports visible to the host.
// tarm/serial has no discovery API, so this uses go.bug.st/serial.
func ListPorts() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}
