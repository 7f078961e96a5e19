package main

import (
	"context"
	"flag"
	"math"
	"runtime"
	"time"

	"github.com/devblok/pinch/camera"
	"github.com/devblok/pinch/core"
	"github.com/devblok/pinch/gfx"
	"github.com/devblok/pinch/model"
	"github.com/devblok/pinch/utility/kar"
	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
)

func init() {
	runtime.LockOSThread()
}

// wheelStep is the zoom factor of a single mouse wheel notch
const wheelStep = 1.1

var (
	archivePath = flag.String("archive", "", "Mesh archive built with meshpack")
	meshName    = flag.String("mesh", "Plane", "Name of the mesh to load from the archive")
	envFile     = flag.String("env", ".env", "Dotenv file with configuration")
)

// Essential globals
var (
	configuration core.Configuration
	logger        *log.Logger
	sdlWindow     *sdl.Window
)

func newWindow() *sdl.Window {
	window, err := sdl.CreateWindow("Pinch",
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(configuration.Renderer.ScreenWidth),
		int32(configuration.Renderer.ScreenHeight),
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		logger.WithError(err).Fatal("window creation failed")
	}
	return window
}

func loadMesh() (*model.Mesh, error) {
	if *archivePath == "" {
		return model.NewPlane(glm.Vec2{0.5, 0.5}, glm.Vec3{}), nil
	}
	ar, err := kar.OpenFile(*archivePath)
	if err != nil {
		return nil, err
	}
	defer ar.Close()
	return model.LoadMesh(ar, *meshName)
}

func main() {
	flag.Parse()

	var err error
	if configuration, err = core.LoadConfiguration(*envFile); err != nil {
		log.Fatal(err)
	}
	if logger, err = core.NewLogger(configuration.Log); err != nil {
		log.Fatal(err)
	}

	mesh, err := loadMesh()
	if err != nil {
		logger.WithError(err).Fatal("mesh load failed")
	}
	logger.WithFields(log.Fields{
		"mesh":     mesh.Name(),
		"vertices": len(mesh.Vertices()),
		"bytes":    len(mesh.Bytes()),
	}).Info("mesh loaded")
	logger.WithFields(log.Fields{
		"stride":      model.VertexBindingDescriptions()[0].Stride,
		"attributes":  len(model.VertexAttributeDescriptions()),
		"uniformSize": model.UniformBufferSize(),
	}).Debug("pipeline layout")

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		logger.WithError(err).Fatal("sdl init failed")
	}
	defer sdl.Quit()

	sdlWindow = newWindow()
	defer sdlWindow.Destroy()

	cam := camera.New(configuration.Camera)
	if err := cam.Resize(float32(configuration.Renderer.ScreenWidth), float32(configuration.Renderer.ScreenHeight)); err != nil {
		logger.WithError(err).Fatal("bad screen size")
	}

	ring, err := gfx.NewRing(configuration.Renderer.FramesInFlight, logger)
	if err != nil {
		logger.WithError(err).Fatal("frame ring creation failed")
	}

	clock := core.NewTime(configuration.Time)
	defer clock.Stop()
	frameTimeout := clock.FrameInterval() * time.Duration(ring.Size())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

EventLoop:
	for {
		select {
		case <-clock.EventTicker().C:
			if quit := pollEvents(cam); quit {
				logger.Info("Event loop exited")
				break EventLoop
			}
		case <-clock.FpsTicker().C:
			if err := submitFrame(ctx, frameTimeout, ring, cam, mesh); err != nil {
				logger.WithError(err).Error("frame dropped")
			}
		}
	}
}

// submitFrame fills the next free uniform frame. No device is attached to
// the ring, so the frame is handed back as soon as its image is built.
func submitFrame(ctx context.Context, timeout time.Duration, ring *gfx.Ring, cam *camera.Camera, mesh *model.Mesh) error {
	frameCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	frame, err := ring.Acquire(frameCtx)
	if err != nil {
		return err
	}
	defer frame.Release()

	*frame.Uniform = cam.Uniform(mesh.ModelMatrix())
	image := frame.Bytes()
	logger.WithFields(log.Fields{
		"frame":  frame.Serial(),
		"slot":   frame.Index(),
		"bytes":  len(image),
		"scale":  cam.Scale(),
		"center": cam.Center(),
	}).Debug("uniform frame ready")
	return nil
}

// pollEvents drains pending SDL events. The mouse wheel pinches around the
// cursor and dragging with the left button pans.
func pollEvents(cam *camera.Camera) bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch et := event.(type) {
		case *sdl.KeyboardEvent:
			if et.Keysym.Sym == sdl.K_ESCAPE {
				return true
			}
		case *sdl.QuitEvent:
			return true
		case *sdl.WindowEvent:
			if et.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				if err := cam.Resize(float32(et.Data1), float32(et.Data2)); err != nil {
					logger.WithError(err).Warn("resize ignored")
				}
			}
		case *sdl.MouseWheelEvent:
			x, y, _ := sdl.GetMouseState()
			location := glm.Vec2{float32(x), float32(y)}
			scale := float32(math.Pow(wheelStep, float64(et.Y)))
			cam.Pinch(camera.PinchEvent{State: camera.GestureBegan, Location: location, Touches: 2, Scale: scale})
			cam.Pinch(camera.PinchEvent{State: camera.GestureEnded, Location: location, Touches: 2, Scale: 1})
		case *sdl.MouseMotionEvent:
			if et.State&sdl.ButtonLMask() != 0 {
				cam.Pan(glm.Vec2{float32(et.XRel), float32(et.YRel)})
			}
		}
	}
	return false
}
