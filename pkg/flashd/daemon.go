package flashd

import (
	"fmt"
	"log"
	"time"

	"github.com/thegaragelab/microboot/pkg/microboot"
)

// pollTimeout bounds each BRPop wait so the daemon can notice a
// shutdown signal between jobs instead of blocking forever.
const pollTimeout = 2 * time.Second

// Daemon runs jobs off a Queue, one at a time, against a single
// connected Session.
type Daemon struct {
	queue   *Queue
	session *microboot.Session
	history *History
	metrics *Metrics

	device string
	stop   chan struct{}
}

// NewDaemon builds a daemon bound to an already-Connected session for
// device name. Jobs naming a different device are rejected rather
// than triggering a reconnect, since this daemon never manages more
// than one device at a time.
func NewDaemon(queue *Queue, session *microboot.Session, history *History, metrics *Metrics, device string) *Daemon {
	return &Daemon{
		queue:   queue,
		session: session,
		history: history,
		metrics: metrics,
		device:  device,
		stop:    make(chan struct{}),
	}
}

// Stop requests the run loop exit after its current poll.
func (d *Daemon) Stop() {
	close(d.stop)
}

// Run polls the queue until Stop is called, executing one job at a
// time.
func (d *Daemon) Run() error {
	for {
		select {
		case <-d.stop:
			return nil
		default:
		}

		job, ok, err := d.queue.Next(pollTimeout)
		if err != nil {
			return fmt.Errorf("flashd: %w", err)
		}
		if !ok {
			continue
		}
		d.runJob(job)
	}
}

func (d *Daemon) runJob(job Job) {
	start := time.Now()
	result := d.execute(job)

	status := "completed"
	if result.Status != "" {
		status = result.Status
	}

	if d.metrics != nil {
		d.metrics.JobsTotal.WithLabelValues(string(job.Op), status).Inc()
		d.metrics.BytesTotal.WithLabelValues(string(job.Op)).Add(float64(result.Completed))
		d.metrics.JobDuration.WithLabelValues(string(job.Op)).Observe(time.Since(start).Seconds())
	}

	if d.history != nil {
		entry := Entry{
			JobID:     job.ID,
			Device:    job.Device,
			Op:        job.Op,
			Start:     job.Start,
			Length:    job.Length,
			Completed: result.Completed,
			Status:    status,
			Err:       result.Err,
			Finished:  time.Now(),
		}
		if err := d.history.Record(entry); err != nil {
			log.Printf("flashd: history record failed for job %s: %v", job.ID, err)
		}
	}

	if err := d.queue.PublishResult(result); err != nil {
		log.Printf("flashd: publish result failed for job %s: %v", job.ID, err)
	}
}

func (d *Daemon) execute(job Job) Result {
	if job.Device != d.device {
		return Result{JobID: job.ID, Status: "failed", Err: fmt.Sprintf("job targets device %q, daemon is bound to %q", job.Device, d.device)}
	}

	completed := 0
	progress := func(done, total int) {
		completed = done
		d.queue.PublishLogLine(fmt.Sprintf("job %s: %d/%d bytes", job.ID, done, total))
	}

	switch job.Op {
	case OpRead:
		data, err := d.session.Read(job.Start, job.Length, progress)
		if err != nil {
			return Result{JobID: job.ID, Status: "failed", Completed: completed, Err: err.Error()}
		}
		return Result{JobID: job.ID, Status: "completed", Completed: len(data), Total: job.Length, Data: data}

	case OpWrite:
		if job.Relocate {
			addrHigh := d.session.Device().AddrHigh
			if err := microboot.RelocateResetVector(job.Data, job.Start+job.Length-1, addrHigh); err != nil {
				return Result{JobID: job.ID, Status: "failed", Err: err.Error()}
			}
		}
		if err := d.session.Write(job.Start, job.Length, job.Data, progress); err != nil {
			return Result{JobID: job.ID, Status: "failed", Completed: completed, Err: err.Error()}
		}
		return Result{JobID: job.ID, Status: "completed", Completed: job.Length, Total: job.Length}

	case OpVerify:
		if err := d.session.Verify(job.Start, job.Length, job.Data, progress); err != nil {
			return Result{JobID: job.ID, Status: "failed", Completed: completed, Err: err.Error()}
		}
		return Result{JobID: job.ID, Status: "completed", Completed: job.Length, Total: job.Length}

	default:
		return Result{JobID: job.ID, Status: "failed", Err: fmt.Sprintf("unknown operation %q", job.Op)}
	}
}
