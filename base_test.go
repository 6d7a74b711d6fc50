// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpuview

import (
	"errors"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// mockProvider implements gpucontext.DeviceProvider for testing.
type mockProvider struct {
	format gputypes.TextureFormat
}

func (m *mockProvider) Device() gpucontext.Device             { return nil }
func (m *mockProvider) Queue() gpucontext.Queue               { return nil }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return nil }
func (m *mockProvider) AdapterInfo() gpucontext.AdapterInfo { return gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown} }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return m.format }

func newMockProvider() *mockProvider {
	return &mockProvider{format: gputypes.TextureFormatBGRA8Unorm}
}

// mockPrimitive records the configuration it was built with.
type mockPrimitive struct {
	method    string
	ctx       Context
	attrs     AttributeSet
	styleAttr int
	styleRes  int

	attached      bool
	width, height int
}

func (p *mockPrimitive) Attach()                  { p.attached = true }
func (p *mockPrimitive) Detach()                  { p.attached = false }
func (p *mockPrimitive) Attached() bool           { return p.attached }
func (p *mockPrimitive) Layout(width, height int) { p.width, p.height = width, height }
func (p *mockPrimitive) Size() (int, int)         { return p.width, p.height }

// mockFactory implements Factory, failing every call when err is set.
type mockFactory struct {
	err   error
	calls atomic.Int32
}

func (f *mockFactory) build(p *mockPrimitive) (Primitive, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return p, nil
}

func (f *mockFactory) NewPrimitive(ctx Context) (Primitive, error) {
	return f.build(&mockPrimitive{method: "ctx", ctx: ctx})
}

func (f *mockFactory) NewPrimitiveWithAttrs(ctx Context, attrs AttributeSet) (Primitive, error) {
	return f.build(&mockPrimitive{method: "attrs", ctx: ctx, attrs: attrs})
}

func (f *mockFactory) NewPrimitiveWithStyle(ctx Context, attrs AttributeSet, styleAttr int) (Primitive, error) {
	return f.build(&mockPrimitive{method: "style", ctx: ctx, attrs: attrs, styleAttr: styleAttr})
}

func (f *mockFactory) NewPrimitiveWithStyleRes(ctx Context, attrs AttributeSet, styleAttr, styleRes int) (Primitive, error) {
	return f.build(&mockPrimitive{method: "styleRes", ctx: ctx, attrs: attrs, styleAttr: styleAttr, styleRes: styleRes})
}

// countingReleaser counts Release calls.
type countingReleaser struct {
	calls atomic.Int32
}

func (c *countingReleaser) Release() { c.calls.Add(1) }

// waitFor runs the garbage collector until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		runtime.GC()
		time.Sleep(5 * time.Millisecond)
	}
}

// TestConstructorsForwardConfiguration tests that every constructor hands
// its parameters to the matching factory method unchanged.
func TestConstructorsForwardConfiguration(t *testing.T) {
	ctx := newMockProvider()
	attrs := AttributeSet{"scaleType": "fitCenter", "opaque": "false"}

	tests := []struct {
		name      string
		build     func(Factory, Releaser) (*Base, error)
		method    string
		attrs     AttributeSet
		styleAttr int
		styleRes  int
	}{
		{
			name:   "context",
			build:  func(f Factory, r Releaser) (*Base, error) { return New(f, ctx, r) },
			method: "ctx",
		},
		{
			name:   "context+attrs",
			build:  func(f Factory, r Releaser) (*Base, error) { return NewWithAttrs(f, ctx, attrs, r) },
			method: "attrs",
			attrs:  attrs,
		},
		{
			name: "context+attrs+styleAttr",
			build: func(f Factory, r Releaser) (*Base, error) {
				return NewWithStyle(f, ctx, attrs, 0x7f010001, r)
			},
			method:    "style",
			attrs:     attrs,
			styleAttr: 0x7f010001,
		},
		{
			name: "context+attrs+styleAttr+styleRes",
			build: func(f Factory, r Releaser) (*Base, error) {
				return NewWithStyleRes(f, ctx, attrs, 0x7f010001, 0x7f0f0002, r)
			},
			method:    "styleRes",
			attrs:     attrs,
			styleAttr: 0x7f010001,
			styleRes:  0x7f0f0002,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &mockFactory{}
			b, err := tt.build(f, &countingReleaser{})
			if err != nil {
				t.Fatalf("construct: %v", err)
			}
			defer b.Close()

			p, ok := b.Underlying().(*mockPrimitive)
			if !ok {
				t.Fatalf("Underlying() = %T, want *mockPrimitive", b.Underlying())
			}
			if p.method != tt.method {
				t.Errorf("factory method = %q, want %q", p.method, tt.method)
			}
			if p.ctx != Context(ctx) {
				t.Error("context not forwarded unchanged")
			}
			if len(p.attrs) != len(tt.attrs) {
				t.Errorf("attrs = %v, want %v", p.attrs, tt.attrs)
			}
			for k, v := range tt.attrs {
				if got := p.attrs.Get(k); got != v {
					t.Errorf("attrs[%q] = %q, want %q", k, got, v)
				}
			}
			if p.styleAttr != tt.styleAttr {
				t.Errorf("styleAttr = %#x, want %#x", p.styleAttr, tt.styleAttr)
			}
			if p.styleRes != tt.styleRes {
				t.Errorf("styleRes = %#x, want %#x", p.styleRes, tt.styleRes)
			}
			if f.calls.Load() != 1 {
				t.Errorf("factory calls = %d, want 1", f.calls.Load())
			}
			if b.State() != StateActive {
				t.Errorf("State() = %v, want active", b.State())
			}
		})
	}
}

// TestConstructorsPropagateFactoryError tests that factory failures reach
// the caller unchanged.
func TestConstructorsPropagateFactoryError(t *testing.T) {
	cause := &ConfigurationError{Op: "mock", Err: ErrInvalidContext}
	f := &mockFactory{err: cause}
	r := &countingReleaser{}

	builders := map[string]func() (*Base, error){
		"New":             func() (*Base, error) { return New(f, nil, r) },
		"NewWithAttrs":    func() (*Base, error) { return NewWithAttrs(f, nil, nil, r) },
		"NewWithStyle":    func() (*Base, error) { return NewWithStyle(f, nil, nil, 1, r) },
		"NewWithStyleRes": func() (*Base, error) { return NewWithStyleRes(f, nil, nil, 1, 2, r) },
	}
	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			b, err := build()
			if b != nil {
				t.Error("expected nil Base on factory failure")
			}
			if err != error(cause) {
				t.Errorf("err = %v, want the factory error unchanged", err)
			}
			if !errors.Is(err, ErrInvalidContext) {
				t.Error("errors.Is(err, ErrInvalidContext) = false")
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Error("errors.As(err, *ConfigurationError) = false")
			}
		})
	}
	if r.calls.Load() != 0 {
		t.Errorf("releaser called %d times after failed construction", r.calls.Load())
	}
}

func TestConstructorsRejectNilArguments(t *testing.T) {
	ctx := newMockProvider()

	if _, err := New(nil, ctx, &countingReleaser{}); !errors.Is(err, ErrNilFactory) {
		t.Errorf("nil factory: err = %v, want ErrNilFactory", err)
	}

	f := &mockFactory{}
	if _, err := New(f, ctx, nil); !errors.Is(err, ErrNilReleaser) {
		t.Errorf("nil releaser: err = %v, want ErrNilReleaser", err)
	}
	var fn ReleaseFunc
	if _, err := NewWithAttrs(f, ctx, nil, fn); !errors.Is(err, ErrNilReleaser) {
		t.Errorf("nil ReleaseFunc: err = %v, want ErrNilReleaser", err)
	}
	if f.calls.Load() != 0 {
		t.Errorf("factory called %d times, want 0", f.calls.Load())
	}
}

// TestStateMachine walks ACTIVE -> RELEASED -> RELEASED.
func TestStateMachine(t *testing.T) {
	r := &countingReleaser{}
	b, err := New(&mockFactory{}, newMockProvider(), r)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := b.State(); got != StateActive {
		t.Fatalf("initial State() = %v, want active", got)
	}
	if b.Released() {
		t.Fatal("Released() = true before Close")
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := b.State(); got != StateReleased {
		t.Errorf("State() after Close = %v, want released", got)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if got := b.State(); got != StateReleased {
		t.Errorf("State() after second Close = %v, want released", got)
	}
	if n := r.calls.Load(); n != 1 {
		t.Errorf("Release called %d times, want 1", n)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateActive, "active"},
		{StateReleased, "released"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestCloseConcurrent(t *testing.T) {
	r := &countingReleaser{}
	b, err := New(&mockFactory{}, newMockProvider(), r)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var wg sync.WaitGroup
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Close()
		}()
	}
	wg.Wait()

	if n := r.calls.Load(); n != 1 {
		t.Errorf("Release called %d times under concurrent Close, want 1", n)
	}
}

func TestClosePanickingReleaser(t *testing.T) {
	logs := captureLogs(t)

	boom := errors.New("device lost")
	b, err := New(&mockFactory{}, newMockProvider(), ReleaseFunc(func() { panic(boom) }), WithLabel("preview"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = b.Close()
	var relErr *ReleaseError
	if !errors.As(err, &relErr) {
		t.Fatalf("Close() = %v, want *ReleaseError", err)
	}
	if relErr.Label != "preview" {
		t.Errorf("ReleaseError.Label = %q, want preview", relErr.Label)
	}
	if !errors.Is(err, boom) {
		t.Error("ReleaseError should unwrap to the panic value")
	}
	if !b.Released() {
		t.Error("view should be released even when the releaser panics")
	}
	if !strings.Contains(logs.String(), "release failed") {
		t.Errorf("expected a warning in the log, got: %s", logs.String())
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
}

func TestReleaseErrorMessage(t *testing.T) {
	if got := (&ReleaseError{Value: "x"}).Error(); !strings.Contains(got, "release panicked: x") {
		t.Errorf("Error() = %q", got)
	}
	if got := (&ReleaseError{Label: "v", Value: "x"}).Error(); !strings.Contains(got, `"v"`) {
		t.Errorf("Error() = %q, want label quoted", got)
	}
	if (&ReleaseError{Value: "x"}).Unwrap() != nil {
		t.Error("Unwrap() of a non-error panic value should be nil")
	}
}

// TestReclaimHookReleasesOnce calls the reclamation hook directly.
func TestReclaimHookReleasesOnce(t *testing.T) {
	r := &countingReleaser{}
	b, err := New(&mockFactory{}, newMockProvider(), r)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.cleanup.Stop()

	reclaim(b.hook)
	if n := r.calls.Load(); n != 1 {
		t.Fatalf("Release called %d times after reclaim, want 1", n)
	}
	reclaim(b.hook)
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if n := r.calls.Load(); n != 1 {
		t.Errorf("Release called %d times, want 1", n)
	}
}

func TestReclaimHookContainsPanic(t *testing.T) {
	logs := captureLogs(t)

	b, err := New(&mockFactory{}, newMockProvider(), ReleaseFunc(func() { panic("boom") }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.cleanup.Stop()

	reclaim(b.hook) // must not panic
	if !b.Released() {
		t.Error("view should be released")
	}
	if !strings.Contains(logs.String(), "release on reclamation failed") {
		t.Errorf("expected a reclamation warning, got: %s", logs.String())
	}
}

// dropView creates an untracked view and lets it go out of scope.
func dropView(t *testing.T, r Releaser, opts ...Option) {
	t.Helper()
	b, err := New(&mockFactory{}, newMockProvider(), r, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.Attach()
	b.Layout(320, 240)
}

// TestReclamationWithoutClose drops a view and lets the runtime reclaim it.
func TestReclamationWithoutClose(t *testing.T) {
	r := &countingReleaser{}
	dropView(t, r)

	waitFor(t, func() bool { return r.calls.Load() > 0 })

	// Give a second run the chance to happen; it must not.
	runtime.GC()
	time.Sleep(20 * time.Millisecond)
	if n := r.calls.Load(); n != 1 {
		t.Errorf("Release called %d times, want exactly 1", n)
	}
}

// TestCloseThenReclamation tests that reclamation after Close is a no-op.
func TestCloseThenReclamation(t *testing.T) {
	r := &countingReleaser{}
	var reclaimed atomic.Bool

	func() {
		b, err := New(&mockFactory{}, newMockProvider(), r)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := b.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		runtime.AddCleanup(b, func(flag *atomic.Bool) { flag.Store(true) }, &reclaimed)
	}()

	waitFor(t, reclaimed.Load)
	time.Sleep(20 * time.Millisecond)

	if n := r.calls.Load(); n != 1 {
		t.Errorf("Release called %d times, want 1", n)
	}
}

func TestPrimitiveMethodsPromoted(t *testing.T) {
	b, err := NewWithAttrs(&mockFactory{}, newMockProvider(), AttributeSet{"id": "preview"}, &countingReleaser{})
	if err != nil {
		t.Fatalf("NewWithAttrs: %v", err)
	}
	defer b.Close()

	b.Attach()
	if !b.Attached() {
		t.Error("Attached() = false after Attach")
	}
	b.Layout(640, 480)
	if w, h := b.Size(); w != 640 || h != 480 {
		t.Errorf("Size() = (%d, %d), want (640, 480)", w, h)
	}
	b.Detach()
	if b.Attached() {
		t.Error("Attached() = true after Detach")
	}
}

func TestAttributeSet(t *testing.T) {
	a := AttributeSet{"b": "2", "a": "1"}

	if v, ok := a.Lookup("a"); !ok || v != "1" {
		t.Errorf("Lookup(a) = (%q, %v), want (1, true)", v, ok)
	}
	if _, ok := a.Lookup("missing"); ok {
		t.Error("Lookup(missing) reported ok")
	}
	if got := a.Get("missing"); got != "" {
		t.Errorf("Get(missing) = %q, want empty", got)
	}
	keys := a.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}

	var nilSet AttributeSet
	if got := nilSet.Get("x"); got != "" {
		t.Errorf("nil AttributeSet Get = %q", got)
	}
}
