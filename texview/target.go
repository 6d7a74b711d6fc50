// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package texview

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// target is a render target: a texture and the view used to bind it.
// Targets are created and destroyed on the owner thread only.
type target struct {
	texture hal.Texture
	view    hal.TextureView
	width   uint32
	height  uint32
}

// newTarget allocates a render target. On failure, partially created
// resources are destroyed before returning.
func newTarget(device hal.Device, label string, format gputypes.TextureFormat, width, height uint32) (*target, error) {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage: gputypes.TextureUsageRenderAttachment |
			gputypes.TextureUsageTextureBinding |
			gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("texview: create texture %dx%d: %w", width, height, err)
	}

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: label + "_view",
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("texview: create texture view: %w", err)
	}

	return &target{
		texture: tex,
		view:    view,
		width:   width,
		height:  height,
	}, nil
}

// destroy releases the view, then the texture. Safe to call twice.
func (t *target) destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.texture != nil {
		device.DestroyTexture(t.texture)
		t.texture = nil
	}
}
