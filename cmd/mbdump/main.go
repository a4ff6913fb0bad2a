// Command mbdump reads the full flash contents of a Microboot device
// to an Intel HEX file, the Go translation of mbdump.py.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thegaragelab/microboot/pkg/hexfile"
	"github.com/thegaragelab/microboot/pkg/microboot"
	"github.com/thegaragelab/microboot/pkg/progress"
	"github.com/thegaragelab/microboot/pkg/serialport"
)

const banner = "mbdump - Microboot/Microboard Firmware Dump Utility\n"

var (
	device     = flag.String("device", "", "specify the expected device, eg: attiny85,atmega8 (required)")
	port       = flag.String("port", "/dev/ttyUSB0", "serial port to use for communication")
	logEnabled = flag.Bool("log", false, "log all communications to the file 'transfer.log'")
)

func init() {
	flag.StringVar(device, "d", "", "shorthand for -device")
	flag.StringVar(port, "p", "/dev/ttyUSB0", "shorthand for -port")
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	flag.Usage()
	os.Exit(1)
}

func main() {
	fmt.Print(banner + "\n")
	flag.Parse()

	if *device == "" {
		fail("Error: You must specify a device.")
	}

	descriptor, ok := microboot.Lookup(*device)
	if !ok {
		fmt.Printf("Unsupported device type %q.\n", *device)
		os.Exit(1)
	}

	filename := *device + ".hex"
	if args := flag.Args(); len(args) == 1 {
		filename = args[0]
	}
	if filepath.Ext(filename) == "" {
		filename += ".hex"
	}

	size := int(descriptor.AddrHigh) - int(descriptor.AddrLow) + 1
	fmt.Printf("Reading %d bytes (0x%04X:0x%04X) from %q on %q.\n", size, descriptor.AddrLow, descriptor.AddrHigh, *device, *port)

	sp, err := serialport.Open(*port, serialport.DefaultBaud, serialport.DefaultReadTimeout)
	if err != nil {
		fmt.Println("Error: Could not connect to device, error message is:")
		fmt.Printf("       %v\n", err)
		os.Exit(1)
	}
	defer sp.Close()

	session := microboot.NewSession()
	if *logEnabled {
		logFile, err := os.Create("transfer.log")
		if err != nil {
			fmt.Printf("Error: could not open transfer.log: %v\n", err)
			os.Exit(1)
		}
		defer logFile.Close()
		session.SetLogger(func(request, response string) {
			fmt.Fprintf(logFile, ">%s<%s", request, response)
		})
	}

	if _, err := session.Connect(*device, sp); err != nil {
		fmt.Println("Error: Could not connect to device, error message is:")
		fmt.Printf("       %v\n", err)
		os.Exit(1)
	}
	defer session.Disconnect()

	bar := progress.New("Reading", size)
	data, err := session.Read(int(descriptor.AddrLow), size, bar.Callback())
	bar.Wait()
	if err != nil {
		fmt.Println("Error: Reading failed, error message is:")
		fmt.Printf("       %v\n", err)
		os.Exit(1)
	}

	image := hexfile.NewImage()
	for i, b := range data {
		image.Set(int(descriptor.AddrLow)+i, b)
	}
	if err := image.Save(filename); err != nil {
		fmt.Printf("Error: could not write %q: %v\n", filename, err)
		os.Exit(1)
	}
	fmt.Printf("Output written to %q.\n", filename)
}
