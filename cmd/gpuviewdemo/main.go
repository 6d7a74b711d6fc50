// Command gpuviewdemo demonstrates GPU resource release for surface views.
//
// It creates texture-backed views on a noop HAL device, closes some of them
// and forgets the rest, then lets the garbage collector and the owner
// thread's tracker sweep reclaim the forgotten ones.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/gpuview"
	"github.com/gogpu/gpuview/gputhread"
	"github.com/gogpu/gpuview/surface"
	"github.com/gogpu/gpuview/texview"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

func main() {
	var (
		views  = flag.Int("views", 8, "number of views to create")
		forget = flag.Int("forget", 4, "number of views dropped without Close")
		sweep  = flag.Duration("sweep", 50*time.Millisecond, "tracker sweep interval")
		debug  = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	if *debug {
		gpuview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if *forget > *views {
		*forget = *views
	}

	if err := run(*views, *forget, *sweep); err != nil {
		log.Fatalf("gpuviewdemo: %v", err)
	}
}

func run(views, forget int, sweep time.Duration) error {
	dev, cleanup, err := openNoopDevice()
	if err != nil {
		return err
	}
	defer cleanup()

	factory, err := surface.Default()
	if err != nil {
		return err
	}

	tracker := gpuview.NewTracker()
	th := gputhread.New(
		gputhread.WithTracker(tracker),
		gputhread.WithSweepInterval(sweep),
		gputhread.WithLabel("demo"),
	)
	th.Start()

	provider := &noopProvider{device: dev}
	ctx := context.Background()

	kept := make([]*texview.View, 0, views-forget)
	for i := range views {
		v, err := texview.New(th, factory, provider,
			gpuview.AttributeSet{"id": fmt.Sprintf("view%d", i)},
			texview.WithLabel(fmt.Sprintf("view%d", i)))
		if err != nil {
			th.RequestExitAndWait()
			return err
		}
		if err := v.Resize(ctx, 320+16*i, 240); err != nil {
			th.RequestExitAndWait()
			return err
		}
		if i < views-forget {
			kept = append(kept, v)
		}
	}
	log.Printf("created %d views, %d render targets", views, dev.created.Load())

	for _, v := range kept {
		if err := v.Close(); err != nil {
			log.Printf("close %s: %v", v.Label(), err)
		}
	}

	// Forgotten views are released by the owner thread once reclaimed.
	deadline := time.Now().Add(2 * time.Second)
	for tracker.Len()+tracker.Pending() > 0 && time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(sweep)
	}
	log.Printf("after sweep: %d tracked, %d pending", tracker.Len(), tracker.Pending())

	th.RequestExitAndWait()
	log.Printf("render targets created %d, destroyed %d", dev.created.Load(), dev.destroyed.Load())

	if c, d := dev.created.Load(), dev.destroyed.Load(); c != d {
		return fmt.Errorf("%d render targets leaked", c-d)
	}
	return nil
}

// countingDevice counts render target textures.
type countingDevice struct {
	hal.Device

	created   atomic.Int32
	destroyed atomic.Int32
}

func (d *countingDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	tex, err := d.Device.CreateTexture(desc)
	if err == nil {
		d.created.Add(1)
	}
	return tex, err
}

func (d *countingDevice) DestroyTexture(tex hal.Texture) {
	d.destroyed.Add(1)
	d.Device.DestroyTexture(tex)
}

func openNoopDevice() (*countingDevice, func(), error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, errors.New("no adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, fmt.Errorf("open device: %w", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return &countingDevice{Device: openDev.Device}, cleanup, nil
}

// noopProvider exposes the noop HAL device as a gpucontext.DeviceProvider.
type noopProvider struct {
	device hal.Device
}

func (p *noopProvider) Device() gpucontext.Device   { return nil }
func (p *noopProvider) Queue() gpucontext.Queue     { return nil }
func (p *noopProvider) Adapter() gpucontext.Adapter { return nil }
func (p *noopProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "noop", Type: gpucontext.AdapterTypeSoftware}
}
func (p *noopProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatBGRA8Unorm
}
func (p *noopProvider) HalDevice() any { return p.device }
