package texview

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/gpuview"
	"github.com/gogpu/gpuview/gputhread"
)

// DefaultRetired is the number of retired render targets kept alive
// before the oldest is destroyed.
const DefaultRetired = 2

// Option configures a View during creation.
type Option func(*options)

type options struct {
	format  gputypes.TextureFormat
	label   string
	retired int
	maxDim  uint32
	tracker *gpuview.Tracker
}

func defaultOptions(thread *gputhread.Thread, ctx gpuview.Context) options {
	format := gputypes.TextureFormatBGRA8Unorm
	if ctx != nil {
		if f := ctx.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
			format = f
		}
	}
	return options{
		format:  format,
		label:   "texview",
		retired: DefaultRetired,
		maxDim:  gputypes.DefaultLimits().MaxTextureDimension2D,
		tracker: thread.Tracker(),
	}
}

// WithFormat sets the render target format.
// By default the context's surface format is used.
func WithFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		if f != gputypes.TextureFormatUndefined {
			o.format = f
		}
	}
}

// WithLabel sets the debug label of the view and its GPU resources.
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}

// WithRetired sets how many replaced render targets stay alive after a
// resize. Values below 1 are ignored.
func WithRetired(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.retired = n
		}
	}
}

// WithMaxDimension sets the largest width or height Resize accepts.
// By default it is the WebGPU default limit for 2D textures. Zero is
// ignored.
func WithMaxDimension(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDim = n
		}
	}
}

// WithTracker registers the view with t instead of the owner thread's
// tracker. Pass nil to leave the view untracked; its releaser is then
// called from the runtime cleanup goroutine and posts to the owner thread.
func WithTracker(t *gpuview.Tracker) Option {
	return func(o *options) {
		o.tracker = t
	}
}
