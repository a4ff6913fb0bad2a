package flashd

import (
	"encoding/hex"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/thegaragelab/microboot/pkg/microboot"
)

// fakeBroker is an in-memory stand-in for pkg/redis.Client, letting
// Queue be exercised without a live Redis server.
type fakeBroker struct {
	mu        sync.Mutex
	lists     map[string][]string
	published map[string][]string
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{lists: make(map[string][]string), published: make(map[string][]string)}
}

func (f *fakeBroker) LPush(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[key] = append([]string{value}, f.lists[key]...)
	return nil
}

func (f *fakeBroker) BRPop(timeout time.Duration, key string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.lists[key]
	if len(items) == 0 {
		return nil, nil
	}
	last := items[len(items)-1]
	f.lists[key] = items[:len(items)-1]
	return []string{key, last}, nil
}

func (f *fakeBroker) Publish(channel, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[channel] = append(f.published[channel], message)
	return nil
}

func newTestMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// checksumSeed matches the protocol's additive checksum seed
// (pkg/microboot/checksum.go); a non-softUART fake device needs its
// own copy since the real one is unexported.
const checksumSeed uint16 = 0x5050

func deviceChecksum(data []byte) uint16 {
	total := checksumSeed
	for _, b := range data {
		total += uint16(b)
	}
	return total
}

// fakeAtmegaDevice answers QUERY/READ/WRITE requests over a
// non-software UART, backed by a flat flash array. It plays the
// server side of the exchange that pkg/microboot.transport drives
// from the client side.
type fakeAtmegaDevice struct {
	descriptor microboot.Descriptor
	blockSize  byte
	flash      []byte
	in, out    []byte
}

func newFakeAtmegaDevice(t *testing.T) *fakeAtmegaDevice {
	d, ok := microboot.Lookup("atmega8")
	require.True(t, ok)
	return &fakeAtmegaDevice{
		descriptor: d,
		blockSize:  16,
		flash:      make([]byte, int(d.AddrHigh)+1),
	}
}

func (d *fakeAtmegaDevice) Write(p []byte) (int, error) {
	for _, b := range p {
		d.in = append(d.in, b)
		if b == '\n' {
			d.handleLine(d.in)
			d.in = nil
		}
	}
	return len(p), nil
}

func (d *fakeAtmegaDevice) Read(p []byte) (int, error) {
	if len(d.out) == 0 {
		return 0, nil
	}
	n := copy(p, d.out[:1])
	d.out = d.out[1:]
	return n, nil
}

func (d *fakeAtmegaDevice) Close() error { return nil }

func (d *fakeAtmegaDevice) handleLine(line []byte) {
	switch line[0] {
	case '?':
		data := []byte{d.descriptor.MinProtocol, d.blockSize, d.descriptor.Family, d.descriptor.Model}
		d.respondOK(data)
	case 'R':
		address := mustParseHexUint16(line[1:5])
		block := d.flash[address : int(address)+int(d.blockSize)]
		data := append(addrBytes(address), block...)
		d.respondOK(data)
	case 'W':
		address := mustParseHexUint16(line[1:5])
		payload := line[5 : len(line)-1-4]
		data, _ := hex.DecodeString(string(payload))
		copy(d.flash[address:], data)
		d.out = append(d.out, '+', '\n')
	}
}

func (d *fakeAtmegaDevice) respondOK(data []byte) {
	check := deviceChecksum(data)
	full := append(append([]byte{}, data...), byte(check>>8), byte(check))
	d.out = append(d.out, '+')
	d.out = append(d.out, []byte(hex.EncodeToString(full))...)
	d.out = append(d.out, '\n')
}

func addrBytes(addr uint16) []byte {
	return []byte{byte(addr >> 8), byte(addr)}
}

func mustParseHexUint16(b []byte) uint16 {
	v, err := hex.DecodeString(string(b))
	if err != nil || len(v) != 2 {
		return 0
	}
	return uint16(v[0])<<8 | uint16(v[1])
}

func connectedSession(t *testing.T) (*microboot.Session, *fakeAtmegaDevice) {
	device := newFakeAtmegaDevice(t)
	session := microboot.NewSession()
	_, err := session.Connect("atmega8", device)
	require.NoError(t, err)
	return session, device
}

func TestDaemonRunsWriteAndVerifyJobs(t *testing.T) {
	session, _ := connectedSession(t)
	defer session.Disconnect()

	broker := newFakeBroker()
	queue := NewQueue(broker, "", "")
	history := newTestHistory(t)
	defer history.Close()
	metrics := newTestMetrics()

	daemon := NewDaemon(queue, session, history, metrics, "atmega8")

	writeData := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	writeJob := Job{ID: "w1", Device: "atmega8", Op: OpWrite, Start: 0, Length: 4, Data: writeData}
	require.NoError(t, queue.Submit(writeJob))

	job, ok, err := queue.Next(time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	daemon.runJob(job)

	entries, err := history.All()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "completed", entries[0].Status)

	verifyJob := Job{ID: "v1", Device: "atmega8", Op: OpVerify, Start: 0, Length: 4, Data: writeData}
	result := daemon.execute(verifyJob)
	require.Equal(t, "completed", result.Status)
}

func TestDaemonRejectsMismatchedDevice(t *testing.T) {
	session, _ := connectedSession(t)
	defer session.Disconnect()

	queue := NewQueue(newFakeBroker(), "", "")
	daemon := NewDaemon(queue, session, nil, nil, "atmega8")

	result := daemon.execute(Job{ID: "x", Device: "atmega168", Op: OpRead, Start: 0, Length: 4})
	require.Equal(t, "failed", result.Status)
}

func newTestHistory(t *testing.T) *History {
	h, err := OpenHistory(t.TempDir() + "/history.db")
	require.NoError(t, err)
	return h
}
