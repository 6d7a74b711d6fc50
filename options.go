package gpuview

// Option configures a Base during creation.
//
// Example:
//
//	tracker := gpuview.NewTracker()
//	b, err := gpuview.New(factory, ctx, releaser,
//	    gpuview.WithTracker(tracker),
//	    gpuview.WithLabel("preview"))
type Option func(*options)

// options holds optional configuration for Base creation.
type options struct {
	tracker *Tracker
	label   string
}

// defaultOptions returns the default base options.
func defaultOptions() options {
	return options{
		tracker: nil, // Reclamation releases directly on the cleanup goroutine
	}
}

// WithTracker registers the view with a Tracker.
//
// A tracked view that is reclaimed without Close is not released on the
// runtime cleanup goroutine. Its Releaser is queued on the tracker instead
// and runs on whichever goroutine calls Tracker.Sweep, normally the thread
// that owns the GPU context. A tracker closed by ReleaseAll is ignored.
func WithTracker(t *Tracker) Option {
	return func(o *options) {
		o.tracker = t
	}
}

// WithLabel sets a debug label used in logs and ReleaseError values.
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}
