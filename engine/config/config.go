// Package config loads engine settings from a TOML file, layered over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/pelletier/go-toml/v2"
)

var (
	errInvalidWindowSize = errors.New("window width and height must be positive")
	errInvalidFovY       = errors.New("camera fov_y must be within (0, 180) degrees")
	errInvalidClipPlanes = errors.New("camera near must be positive and less than far")
	errInvalidWorkers    = errors.New("worker counts must not be negative")
	errInvalidEpsilon    = errors.New("tangent epsilon must be positive")
	errInvalidMSAA       = errors.New("renderer msaa must be 1 or 4")
)

// Config is the root of the engine configuration document.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Camera   CameraConfig   `toml:"camera"`
	Loader   LoaderConfig   `toml:"loader"`
	Tangents TangentConfig  `toml:"tangents"`
	Assets   AssetConfig    `toml:"assets"`
}

// LogConfig controls the shared logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
}

// WindowConfig describes the host window used by the viewer.
type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	VSync  bool   `toml:"vsync"`
}

// RendererConfig holds surface-level render settings.
type RendererConfig struct {
	ClearColor [4]float64 `toml:"clear_color"`
	MSAA       int        `toml:"msaa"`
	// Profile enables the once-per-second frame statistics log line.
	Profile bool `toml:"profile"`
}

// CameraConfig holds the initial camera state. FovY is expressed in degrees.
type CameraConfig struct {
	FovY   float32    `toml:"fov_y"`
	Near   float32    `toml:"near"`
	Far    float32    `toml:"far"`
	Eye    [3]float32 `toml:"eye"`
	Target [3]float32 `toml:"target"`
	Up     [3]float32 `toml:"up"`
}

// LoaderConfig controls geometry ingestion.
type LoaderConfig struct {
	// Workers bounds the goroutines decoding primitives concurrently. Zero selects NumCPU-1.
	Workers int `toml:"workers"`
}

// TangentConfig controls tangent synthesis.
type TangentConfig struct {
	// Workers bounds the goroutines used by the accumulate and normalize passes. Zero selects NumCPU-1.
	Workers int `toml:"workers"`
	// Epsilon is the relative tolerance below which a triangle or its UV mapping counts as degenerate.
	Epsilon float32 `toml:"epsilon"`
}

// AssetConfig names the scene asset to open and whether to reload it on change.
type AssetConfig struct {
	Path  string `toml:"path"`
	Watch bool   `toml:"watch"`
}

// Default returns a fully populated configuration.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	workers := max(runtime.NumCPU()-1, 1)
	return Config{
		Log: LogConfig{Level: "info"},
		Window: WindowConfig{
			Title:  "prism",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Renderer: RendererConfig{
			ClearColor: [4]float64{0.1, 0.1, 0.12, 1},
			MSAA:       1,
		},
		Camera: CameraConfig{
			FovY:   60,
			Near:   0.1,
			Far:    1000,
			Eye:    [3]float32{0, 2, 6},
			Target: [3]float32{0, 0, 0},
			Up:     [3]float32{0, 1, 0},
		},
		Loader:   LoaderConfig{Workers: workers},
		Tangents: TangentConfig{Workers: workers, Epsilon: 1e-8},
	}
}

// Load reads the TOML file at path and overlays it on Default.
// Keys absent from the file keep their default values.
//
// Parameters:
//   - path: the TOML file to read
//
// Returns:
//   - Config: the merged configuration
//   - error: error if the file cannot be read, parsed, or fails validation
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a TOML document and overlays it on Default.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the merged configuration
//   - error: error if decoding or validation fails
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	// Zero worker counts mean "pick for me" rather than "no workers".
	def := Default()
	cfg.Loader.Workers = common.Coalesce(cfg.Loader.Workers, def.Loader.Workers)
	cfg.Tangents.Workers = common.Coalesce(cfg.Tangents.Workers, def.Tangents.Workers)
	cfg.Log.Level = common.Coalesce(cfg.Log.Level, def.Log.Level)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot produce a working engine.
//
// Returns:
//   - error: nil when the configuration is usable
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errInvalidWindowSize
	}
	if c.Camera.FovY <= 0 || c.Camera.FovY >= 180 {
		return errInvalidFovY
	}
	if c.Camera.Near <= 0 || c.Camera.Near >= c.Camera.Far {
		return errInvalidClipPlanes
	}
	if c.Loader.Workers < 0 || c.Tangents.Workers < 0 {
		return errInvalidWorkers
	}
	if c.Tangents.Epsilon <= 0 {
		return errInvalidEpsilon
	}
	if c.Renderer.MSAA != 1 && c.Renderer.MSAA != 4 {
		return errInvalidMSAA
	}
	return nil
}

// Encode renders the configuration back to TOML, used by the viewer's -dump-config flag.
//
// Returns:
//   - []byte: the TOML document
//   - error: error if encoding fails
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
