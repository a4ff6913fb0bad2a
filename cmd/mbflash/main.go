// Command mbflash writes an Intel HEX image to a Microboot device and
// verifies it, the Go translation of mbflash.py.
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

const banner = "mbflash - Microboot/Microboard System Flashing Utility\n"

var (
	device     = flag.String("device", "", "specify the expected device, eg: attiny85,atmega8 (required)")
	port       = flag.String("port", "/dev/ttyUSB0", "serial port to use for communication")
	logEnabled = flag.Bool("log", false, "log all communications to the file 'transfer.log'")
	listPorts  = flag.Bool("list-ports", false, "list available serial ports and exit")
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

	if *listPorts {
		ports, err := serialport.ListPorts()
		if err != nil {
			fmt.Printf("Error: could not list serial ports: %v\n", err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	if *device == "" {
		fail("Error: You must specify a device.")
	}
	args := flag.Args()
	if len(args) != 1 {
		fail("Error: You must specify a filename.")
	}
	filename := args[0]
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		if filepath.Ext(filename) == "" {
			filename += ".hex"
		}
	}
	if _, err := os.Stat(filename); err != nil {
		fail("Error: You must specify a filename.")
	}

	descriptor, ok := microboot.Lookup(*device)
	if !ok {
		fmt.Printf("Unsupported device type %q.\n", *device)
		os.Exit(1)
	}

	image, err := hexfile.Load(filename)
	if err != nil {
		fmt.Printf("Error: Could not load %q: %v\n", filename, err)
		os.Exit(1)
	}
	if image.Len() == 0 {
		fmt.Printf("Error: %q contains no data.\n", filename)
		os.Exit(1)
	}

	start := image.MinAddr()
	length := image.MaxAddr() - start + 1
	data := image.Bytes()

	if *device == "attiny85" && start == 0 {
		fmt.Println("Adjusting RESET vector for bootloader support ...")
		// The relocated entry point is stashed at the device's top of
		// flash, past whatever the image currently populates, so the
		// write buffer has to be grown to reach it first.
		originalMax := image.MaxAddr()
		length = int(descriptor.AddrHigh) + 1
		data = make([]byte, length)
		for i := range data {
			data[i] = image.Get(i)
		}
		if err := microboot.RelocateResetVector(data, originalMax, descriptor.AddrHigh); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Writing %d bytes (%04X:%04X) from file %q.\n", length, start, start+length-1, filename)
	fmt.Printf("Target is a %q on port %q.\n", *device, *port)

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

	writeBar := progress.New("Writing", length)
	if err := session.Write(start, length, data, writeBar.Callback()); err != nil {
		writeBar.Wait()
		fmt.Println("Error: Writing to flash failed, error message is:")
		fmt.Printf("       %v\n", err)
		os.Exit(1)
	}
	writeBar.Wait()

	verifyBar := progress.New("Verifying", length)
	if err := session.Verify(start, length, data, verifyBar.Callback()); err != nil {
		verifyBar.Wait()
		fmt.Println("Error: Verification failed, error message is:")
		fmt.Printf("       %v\n", err)
		os.Exit(1)
	}
	verifyBar.Wait()
}
