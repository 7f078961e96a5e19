// Package camera implements a 2D pinch-zoom and pan camera over a plane.
// It owns the view and projection matrices that go into the per-frame
// uniform block.
package camera

import (
	"math"
	"sync"

	"github.com/devblok/pinch/model"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// package errors
var (
	ErrViewportSize = errors.New("viewport size must be positive")
)

// NDCSpan is the extent of normalized device coordinates along each axis
var NDCSpan = glm.Vec3{2, 2, 1}

// Configuration bounds the zoom level of the camera
type Configuration struct {
	MinScale float32
	MaxScale float32
}

// DefaultConfiguration zooms between 1x and 10x
var DefaultConfiguration = Configuration{
	MinScale: 1,
	MaxScale: 10,
}

// GestureState is the phase of a continuous gesture
type GestureState int

// Gesture phases, in the order they are reported
const (
	GestureBegan GestureState = iota
	GestureChanged
	GestureEnded
	GestureCancelled
)

// PinchEvent is one report of a pinch gesture. Location is the centroid of
// the touches in screen points. Scale is relative to the previous report.
type PinchEvent struct {
	State    GestureState
	Location glm.Vec2
	Touches  int
	Scale    float32
}

type pinchAnchor struct {
	viewCenter  glm.Vec2
	worldCenter glm.Vec2
	center      glm.Vec2
	scale       float32
}

// New creates a camera centered on the origin at the minimum scale,
// looking at a square viewport
func New(cfg Configuration) *Camera {
	if cfg.MinScale <= 0 {
		cfg.MinScale = DefaultConfiguration.MinScale
	}
	if cfg.MaxScale < cfg.MinScale {
		cfg.MaxScale = cfg.MinScale
	}
	c := &Camera{
		cfg:        cfg,
		scale:      cfg.MinScale,
		size:       glm.Vec2{1, 1},
		projection: glm.Ident4(),
	}
	c.updateViewMatrix()
	return c
}

// Camera tracks zoom and pan state. Safe for concurrent use.
type Camera struct {
	mutex sync.RWMutex
	cfg   Configuration

	scale  float32
	center glm.Vec2
	anchor *pinchAnchor

	size       glm.Vec2
	view       glm.Mat4
	projection glm.Mat4
}

// Resize sets the viewport size in screen points and rebuilds the
// projection so the plane keeps its aspect
func (c *Camera) Resize(width, height float32) error {
	if !(width > 0) || !(height > 0) || !finite(width) || !finite(height) {
		return errors.Wrapf(ErrViewportSize, "%vx%v", width, height)
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.size = glm.Vec2{width, height}
	c.projection = glm.Scale3D(1, width/height, 1)
	return nil
}

// Scale returns the current zoom level
func (c *Camera) Scale() float32 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.scale
}

// Center returns the world point the camera is centered on
func (c *Camera) Center() glm.Vec2 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.center
}

// View returns the current view matrix
func (c *Camera) View() glm.Mat4 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.view
}

// Projection returns the current projection matrix
func (c *Camera) Projection() glm.Mat4 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.projection
}

// Uniform snapshots the camera into a uniform block for one frame
func (c *Camera) Uniform(modelMatrix glm.Mat4) model.Uniform {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return model.Uniform{
		Model:      modelMatrix,
		View:       c.view,
		Projection: c.projection,
	}
}

// Pan moves the camera opposite to a screen-space translation, so the
// content follows the finger
func (c *Camera) Pan(translation glm.Vec2) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	ndc := c.screenToNDC(translation, true)
	view := c.ndcToView(ndc, true)
	world := c.viewToWorld(view, true)
	c.center = c.center.Sub(world)
	c.updateViewMatrix()
}

// Pinch zooms around the pinch location. While a pinch is in progress the
// world point under the fingers stays under them, and moving the fingers
// pans the camera along.
func (c *Camera) Pinch(e PinchEvent) {
	if e.Touches == 1 && e.State != GestureEnded {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	ndc := c.screenToNDC(e.Location, false)
	viewPoint := c.ndcToView(ndc, false)
	worldPoint := c.viewToWorld(viewPoint, false)

	switch e.State {
	case GestureBegan:
		c.anchor = &pinchAnchor{
			viewCenter:  viewPoint,
			worldCenter: worldPoint,
			center:      c.center,
			scale:       c.scale,
		}
	case GestureChanged:
	default:
		c.anchor = nil
	}

	if finite(e.Scale) {
		c.scale = clamp(c.scale*e.Scale, c.cfg.MinScale, c.cfg.MaxScale)
	}

	if a := c.anchor; a != nil {
		viewTranslation := viewPoint.Sub(a.viewCenter)
		centers := a.center.Sub(a.worldCenter)
		ratio := centers.Mul(a.scale / c.scale)
		c.center = a.worldCenter.Add(ratio).Sub(viewTranslation.Mul(1 / c.scale))
	}

	c.updateViewMatrix()
}

// ScreenToNDC converts screen points (origin top-left, y down) to
// normalized device coordinates. Vectors are not offset by the origin.
func (c *Camera) ScreenToNDC(point glm.Vec2, isVector bool) glm.Vec2 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.screenToNDC(point, isVector)
}

// NDCToView undoes the projection
func (c *Camera) NDCToView(point glm.Vec2, isVector bool) glm.Vec2 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.ndcToView(point, isVector)
}

// ViewToWorld undoes the view transform
func (c *Camera) ViewToWorld(point glm.Vec2, isVector bool) glm.Vec2 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.viewToWorld(point, isVector)
}

func (c *Camera) screenToNDC(point glm.Vec2, isVector bool) glm.Vec2 {
	ndc := glm.Vec2{
		point.X() / c.size.X() * NDCSpan.X(),
		point.Y() / c.size.Y() * NDCSpan.Y(),
	}
	if !isVector {
		ndc = glm.Vec2{ndc.X() - 1, ndc.Y() - 1}
	}
	ndc[1] = -ndc[1]
	return ndc
}

func (c *Camera) ndcToView(point glm.Vec2, isVector bool) glm.Vec2 {
	return transform(c.projection.Inv(), point, isVector)
}

func (c *Camera) viewToWorld(point glm.Vec2, isVector bool) glm.Vec2 {
	return transform(c.view.Inv(), point, isVector)
}

// updateViewMatrix scales around the camera center, then moves the center
// to the origin
func (c *Camera) updateViewMatrix() {
	translation := glm.Translate3D(c.center.X(), c.center.Y(), 0).Inv()
	scaleTranslation := glm.Translate3D(c.center.X(), c.center.Y(), 0)
	scale := glm.Scale3D(c.scale, c.scale, 1)
	c.view = translation.Mul4(scaleTranslation).Mul4(scale).Mul4(scaleTranslation.Inv())
}

func transform(m glm.Mat4, point glm.Vec2, isVector bool) glm.Vec2 {
	var w float32 = 1
	if isVector {
		w = 0
	}
	p := m.Mul4x1(glm.Vec4{point.X(), point.Y(), 0, w})
	return glm.Vec2{p.X(), p.Y()}
}

func clamp(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func finite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}
