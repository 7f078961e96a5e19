package core

import (
	"os"
	"strconv"

	"github.com/devblok/pinch/camera"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Environment variables read by LoadConfiguration
const (
	EnvFramesPerSecond = "PINCH_FPS"
	EnvEventPollDelay  = "PINCH_EVENT_POLL_DELAY"
	EnvScreenWidth     = "PINCH_SCREEN_WIDTH"
	EnvScreenHeight    = "PINCH_SCREEN_HEIGHT"
	EnvFramesInFlight  = "PINCH_FRAMES_IN_FLIGHT"
	EnvCameraMinScale  = "PINCH_CAMERA_MIN_SCALE"
	EnvCameraMaxScale  = "PINCH_CAMERA_MAX_SCALE"
	EnvLogLevel        = "PINCH_LOG_LEVEL"
	EnvLogFormat       = "PINCH_LOG_FORMAT"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Renderer RendererConfiguration
	Camera   camera.Configuration
	Log      LogConfiguration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the delay between input polls, in milliseconds
	EventPollDelay int
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	// FramesInFlight is the number of uniform frames the host
	// may prepare ahead of the GPU
	FramesInFlight int

	ScreenWidth  uint32
	ScreenHeight uint32
}

// LogConfiguration is used to configure logging
type LogConfiguration struct {
	// Level is a logrus level name
	Level string

	// Format is either "text" or "json"
	Format string
}

// DefaultConfiguration is used for anything not set in the environment
var DefaultConfiguration = Configuration{
	Time: TimeConfiguration{
		FramesPerSecond: 60,
		EventPollDelay:  5,
	},
	Renderer: RendererConfiguration{
		FramesInFlight: 3,
		ScreenWidth:    800,
		ScreenHeight:   600,
	},
	Camera: camera.DefaultConfiguration,
	Log: LogConfiguration{
		Level:  "info",
		Format: "text",
	},
}

// LoadConfiguration loads the given dotenv files, those that exist,
// into the environment and builds the configuration from it.
// Variables already set in the environment win over the files.
func LoadConfiguration(files ...string) (Configuration, error) {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return Configuration{}, errors.Wrap(err, "load dotenv")
		}
	}
	envy.Reload()

	cfg := DefaultConfiguration
	var err error
	if cfg.Time.FramesPerSecond, err = envInt(EnvFramesPerSecond, cfg.Time.FramesPerSecond); err != nil {
		return Configuration{}, err
	}
	if cfg.Time.EventPollDelay, err = envInt(EnvEventPollDelay, cfg.Time.EventPollDelay); err != nil {
		return Configuration{}, err
	}
	if cfg.Renderer.FramesInFlight, err = envInt(EnvFramesInFlight, cfg.Renderer.FramesInFlight); err != nil {
		return Configuration{}, err
	}
	if cfg.Renderer.ScreenWidth, err = envUint32(EnvScreenWidth, cfg.Renderer.ScreenWidth); err != nil {
		return Configuration{}, err
	}
	if cfg.Renderer.ScreenHeight, err = envUint32(EnvScreenHeight, cfg.Renderer.ScreenHeight); err != nil {
		return Configuration{}, err
	}
	if cfg.Camera.MinScale, err = envFloat32(EnvCameraMinScale, cfg.Camera.MinScale); err != nil {
		return Configuration{}, err
	}
	if cfg.Camera.MaxScale, err = envFloat32(EnvCameraMaxScale, cfg.Camera.MaxScale); err != nil {
		return Configuration{}, err
	}
	cfg.Log.Level = envy.Get(EnvLogLevel, cfg.Log.Level)
	cfg.Log.Format = envy.Get(EnvLogFormat, cfg.Log.Format)

	if cfg.Renderer.FramesInFlight < 1 {
		return Configuration{}, errors.Errorf("%s must be at least 1, got %d", EnvFramesInFlight, cfg.Renderer.FramesInFlight)
	}
	if cfg.Time.FramesPerSecond < 0 {
		return Configuration{}, errors.Errorf("%s must not be negative, got %d", EnvFramesPerSecond, cfg.Time.FramesPerSecond)
	}
	return cfg, nil
}

func envInt(key string, def int) (int, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	return v, nil
}

func envUint32(key string, def uint32) (uint32, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	return uint32(v), nil
}

func envFloat32(key string, def float32) (float32, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	return float32(v), nil
}
