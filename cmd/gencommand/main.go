// Command gencommand prints the literal READ/WRITE command-line
// strings a live session would send, without touching any hardware —
// the Go translation of gencommand.py.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/thegaragelab/microboot/pkg/gencmd"
	"github.com/thegaragelab/microboot/pkg/hexfile"
	"github.com/thegaragelab/microboot/pkg/microboot"
)

const banner = "gencommand - Microboot/Microboard Command Testing Utility\n"

var (
	device    = flag.String("device", "", "specify the expected device, eg: attiny85,atmega8 (required)")
	blockSize = flag.Int("blocksize", gencmd.DefaultBlockSize, "size of each data block in bytes")
	command   = flag.String("command", "", "command sequence to generate: read or write")
	startFlag = flag.String("start", "", "start address, in hex (default: device's lowest address)")
	length    = flag.Int("length", -1, "number of bytes to process (default: entire device flash)")
	random    = flag.Bool("random", false, "for write only, use random bytes instead of a HEX file")
)

func init() {
	flag.StringVar(device, "d", "", "shorthand for -device")
	flag.IntVar(blockSize, "b", gencmd.DefaultBlockSize, "shorthand for -blocksize")
	flag.StringVar(command, "c", "", "shorthand for -command")
	flag.StringVar(startFlag, "s", "", "shorthand for -start")
	flag.IntVar(length, "l", -1, "shorthand for -length")
	flag.BoolVar(random, "r", false, "shorthand for -random")
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	flag.Usage()
	os.Exit(1)
}

func verifyAddress(descriptor microboot.Descriptor, start, length int) {
	low, high := int(descriptor.AddrLow), int(descriptor.AddrHigh)
	if start < low || start > high || start+length-1 > high {
		fmt.Println("Error: Address out of range for device,")
		fmt.Printf("       You specified %04X:%04X\n", start, start+length-1)
		fmt.Printf("       Device accepts %04X:%04X\n", low, high)
		os.Exit(1)
	}
}

func main() {
	fmt.Print(banner + "\n")
	flag.Parse()

	if *device == "" {
		fail("Error: You must specify a device.")
	}
	op := strings.ToLower(*command)
	if op != "read" && op != "write" {
		fail("Error: Command must be one of 'read' or 'write'.")
	}
	args := flag.Args()
	var filename string
	if len(args) == 1 {
		filename = args[0]
	}
	if op == "write" && filename == "" && !*random {
		fail("Error: You must specify an input file or --random with the 'write' command")
	}

	fmt.Printf("Device    : %s\n", *device)
	fmt.Printf("Block size: %d\n", *blockSize)
	fmt.Printf("Operation : %s\n", op)

	descriptor, ok := microboot.Lookup(*device)
	if !ok {
		fmt.Printf("Error: Unsupported device type %q.\n", *device)
		os.Exit(1)
	}

	start := int(descriptor.AddrLow)
	if *startFlag != "" {
		v, err := strconv.ParseInt(*startFlag, 16, 32)
		if err != nil {
			fail("Error: invalid start address %q", *startFlag)
		}
		start = int(v)
	}

	switch op {
	case "read":
		n := *length
		if n < 0 {
			n = int(descriptor.AddrHigh) - start + 1
		}
		fmt.Printf("Start Addr: %04X\n", start)
		fmt.Printf("Byte count: %04X (%d)\n", n, n)
		verifyAddress(descriptor, start, n)
		lines, err := gencmd.ReadCommands(start, n, *blockSize)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		for _, line := range lines {
			fmt.Print(line)
		}

	case "write":
		var data []byte
		n := *length
		if *random {
			if n < 0 {
				n = int(descriptor.AddrHigh) - int(descriptor.AddrLow) + 1
			}
			verifyAddress(descriptor, start, n)
			data = gencmd.RandomData(n)
		} else {
			image, err := hexfile.Load(filename)
			if err != nil {
				fmt.Printf("Error: could not load %q: %v\n", filename, err)
				os.Exit(1)
			}
			start = image.MinAddr()
			n = image.MaxAddr() - start + 1
			verifyAddress(descriptor, start, n)
			data = image.Bytes()
		}
		lines, err := gencmd.WriteCommands(start, n, data, *blockSize)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		for _, line := range lines {
			fmt.Print(line)
		}
	}
}
