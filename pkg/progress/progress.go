// Package progress renders flash transfer progress as a terminal bar,
// replacing mbutil.py's g_steps print-based tracker with the same
// progress-bar library used elsewhere in the fleet's tooling.
package progress

import (
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Bar wraps a single mpb progress bar sized to a byte count, exposing
// the (completed, total int) callback shape that
// microboot.Read/Write/Verify expect.
type Bar struct {
	progress *mpb.Progress
	bar      *mpb.Bar
}

// New starts a progress display for an operation moving total bytes,
// labelled name (e.g. "read", "write", "verify").
func New(name string, total int) *Bar {
	p := mpb.New(mpb.WithWidth(64))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(name+" "),
			decor.CountersNoUnit("%d / %d bytes"),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO), "done"),
		),
	)
	return &Bar{progress: p, bar: bar}
}

// Callback returns a microboot.ProgressFunc-compatible closure that
// advances the bar to the given absolute completed count.
func (b *Bar) Callback() func(completed, total int) {
	last := 0
	return func(completed, total int) {
		if completed > last {
			b.bar.IncrBy(completed - last)
			last = completed
		}
	}
}

// Wait blocks until the bar has finished rendering, matching mpb's
// usual shutdown sequence.
func (b *Bar) Wait() {
	b.progress.Wait()
}
