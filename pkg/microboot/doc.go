// Package microboot implements the host side of the Microboot serial
// bootloader protocol: command framing and checksum, the retrying
// send/receive transport (including the software-UART echo quirk),
// session identification, and the chunked flash read/write/verify
// engine. It does not open serial ports or parse Intel HEX files
// itself — see pkg/serialport and pkg/hexfile for those collaborators.
package microboot
