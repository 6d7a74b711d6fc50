// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import "github.com/gogpu/gpuview"

// Factory builds Views. The zero value is ready to use.
type Factory struct{}

// NewPrimitive builds a View from a display context.
func (Factory) NewPrimitive(ctx gpuview.Context) (gpuview.Primitive, error) {
	return build("NewPrimitive", Config{Context: ctx, Params: 1})
}

// NewPrimitiveWithAttrs builds a View from a context and attribute set.
func (Factory) NewPrimitiveWithAttrs(ctx gpuview.Context, attrs gpuview.AttributeSet) (gpuview.Primitive, error) {
	return build("NewPrimitiveWithAttrs", Config{Context: ctx, Attrs: attrs, Params: 2})
}

// NewPrimitiveWithStyle builds a View with a default style attribute.
func (Factory) NewPrimitiveWithStyle(ctx gpuview.Context, attrs gpuview.AttributeSet, styleAttr int) (gpuview.Primitive, error) {
	return build("NewPrimitiveWithStyle", Config{Context: ctx, Attrs: attrs, StyleAttr: styleAttr, Params: 3})
}

// NewPrimitiveWithStyleRes builds a View with a default style attribute and
// style resource.
func (Factory) NewPrimitiveWithStyleRes(ctx gpuview.Context, attrs gpuview.AttributeSet, styleAttr, styleRes int) (gpuview.Primitive, error) {
	return build("NewPrimitiveWithStyleRes", Config{
		Context:   ctx,
		Attrs:     attrs,
		StyleAttr: styleAttr,
		StyleRes:  styleRes,
		Params:    4,
	})
}

func build(op string, cfg Config) (gpuview.Primitive, error) {
	if cfg.Context == nil {
		return nil, &gpuview.ConfigurationError{Op: "surface." + op, Err: gpuview.ErrInvalidContext}
	}
	return newView(cfg), nil
}

// Verify Factory implements gpuview.Factory.
var _ gpuview.Factory = Factory{}
