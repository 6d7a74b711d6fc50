package gputhread

import (
	"log/slog"
	"time"

	"github.com/gogpu/gpuview"
)

// Option configures a Thread during creation.
type Option func(*options)

type options struct {
	tracker       *gpuview.Tracker
	sweepInterval time.Duration
	logger        *slog.Logger
	queueSize     int
	label         string
}

func defaultOptions() options {
	return options{
		sweepInterval: DefaultSweepInterval,
		queueSize:     16,
		label:         "gpu",
	}
}

// WithTracker makes the thread sweep t periodically and release every view
// still tracked when the thread exits.
func WithTracker(t *gpuview.Tracker) Option {
	return func(o *options) {
		o.tracker = t
	}
}

// WithSweepInterval sets how often the tracker is swept.
// A non-positive interval disables periodic sweeps; the final sweep on
// exit still happens.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		o.sweepInterval = d
	}
}

// WithLogger overrides the logger. By default the thread logs through
// gpuview.Logger().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithQueueSize sets the initial capacity of the event queue.
// The queue grows as needed; Post never blocks.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithLabel names the thread in log records.
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}
