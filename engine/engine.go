package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/prism/engine/batcher"
	"github.com/Carmen-Shannon/prism/engine/camera"
	"github.com/Carmen-Shannon/prism/engine/config"
	"github.com/Carmen-Shannon/prism/engine/loader"
	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/profiler"
	"github.com/Carmen-Shannon/prism/engine/renderer"
	"github.com/Carmen-Shannon/prism/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/Carmen-Shannon/prism/engine/scene"
	"github.com/Carmen-Shannon/prism/engine/window"
)

// pendingQueueSize bounds the work queued from input and watcher goroutines onto the render goroutine.
const pendingQueueSize = 64

// engine implements the Engine interface.
// The window pumps events on the calling goroutine; all GPU work happens on the render goroutine.
type engine struct {
	cfg config.Config

	wg sync.WaitGroup

	// frameMu is held by the render goroutine from draining pending work until the frame is
	// dispatched. Asset mutations from other goroutines take it so they land between frames.
	frameMu sync.Mutex

	quitChannel chan struct{}
	quitOnce    sync.Once

	// pending carries work that must run between frames on the render goroutine.
	pending chan func()

	window     window.Window
	renderer   renderer.Renderer
	loader     loader.Loader
	store      model.Store
	scene      scene.Scene
	batcher    batcher.Batcher
	dispatcher renderer.Dispatcher
	camera     camera.Camera
	uniforms   camera.UniformManager
	assets     *assetSet

	profiler         *profiler.Profiler
	profilingEnabled bool

	tickCallback     func(deltaTime float32)
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	statsMu   *sync.Mutex
	lastStats renderer.DispatchStats
}

// Engine wires the geometry pipeline into a running viewer: assets are loaded into the primitive store,
// instantiated into the scene, batched each frame and dispatched to the GPU under the camera uniform.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Camera returns the camera driving the view.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Scene returns the scene the engine renders. A mutation that lands after a frame's Update
	// skips that frame instead of drawing stale transforms.
	//
	// Returns:
	//   - scene.Scene: the scene
	Scene() scene.Scene

	// Store returns the primitive store shared by the batcher and dispatcher.
	//
	// Returns:
	//   - model.Store: the store
	Store() model.Store

	// LoadAsset loads a glTF/GLB file and instantiates its default scene at the origin.
	// Loading the same path again replaces the earlier instance.
	//
	// Parameters:
	//   - path: the file to load
	//
	// Returns:
	//   - scene.EntityID: the anchor entity of the instance
	//   - error: error if the document cannot be loaded or spawned
	LoadAsset(path string) (scene.EntityID, error)

	// AddAsset instantiates an already loaded asset. It may be called from any goroutine and
	// waits for an in-flight frame to finish.
	//
	// Parameters:
	//   - key: identifies the instance for later replacement, usually the asset path
	//   - asset: the loaded asset; its primitives move into the store
	//   - root: the anchor's local transform
	//
	// Returns:
	//   - scene.EntityID: the anchor entity of the instance
	//   - error: error if the asset cannot be spawned
	AddAsset(key string, asset *loader.Asset, root [16]float32) (scene.EntityID, error)

	// RemoveAsset removes the instance under key and releases its GPU resources. Like AddAsset it
	// runs between frames.
	//
	// Parameters:
	//   - key: the instance key
	//
	// Returns:
	//   - bool: true if an instance was removed
	RemoveAsset(key string) bool

	// Reload evicts the cached copy of every loaded file and loads it again on a background goroutine.
	// The swap happens between frames.
	Reload()

	// Watch reloads path whenever it changes on disk, until ctx is done.
	//
	// Parameters:
	//   - ctx: cancels the watch
	//   - path: the asset file
	//
	// Returns:
	//   - error: error if the watch cannot be established
	Watch(ctx context.Context, path string) error

	// Stats returns the statistics of the last dispatched frame.
	//
	// Returns:
	//   - renderer.DispatchStats: draw calls, instances and uploads
	Stats() renderer.DispatchStats

	// EnableProfiler enables the once-per-interval frame statistics log line.
	EnableProfiler()

	// DisableProfiler disables frame statistics logging.
	DisableProfiler()

	// SetTickCallback registers a function called on the render goroutine before each frame is built.
	//
	// Parameters:
	//   - callback: receives the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the render loop and pumps window events. It blocks until the window closes or Quit is called.
	Run()

	// Quit signals the render goroutine to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates the window, renderer and geometry pipeline described by cfg.
//
// Parameters:
//   - cfg: the validated engine configuration
//   - options: functional options overriding individual collaborators
//
// Returns:
//   - Engine: the engine
//   - error: error if the GPU pipelines or camera binding cannot be created
func NewEngine(cfg config.Config, options ...EngineBuilderOption) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &engine{
		cfg:              cfg,
		quitChannel:      make(chan struct{}),
		pending:          make(chan func(), pendingQueueSize),
		profilingEnabled: cfg.Renderer.Profile,
		statsMu:          &sync.Mutex{},
	}
	for _, opt := range options {
		opt(e)
	}

	if e.window == nil {
		e.window = window.NewWindow(
			window.WithTitle(cfg.Window.Title),
			window.WithSize(cfg.Window.Width, cfg.Window.Height),
		)
	}
	if e.renderer == nil {
		e.renderer = renderer.NewRenderer(renderer.BackendTypeWGPU, e.window, rendererOptions(cfg)...)
	}
	if e.loader == nil {
		e.loader = loader.NewLoader(
			loader.WithWorkers(cfg.Loader.Workers),
			loader.WithTangentSynthesizer(model.NewTangentSynthesizer(
				model.WithWorkers(cfg.Tangents.Workers),
				model.WithEpsilon(cfg.Tangents.Epsilon),
			)),
		)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler()
	}

	if err := e.renderer.RegisterPipelines(variantPipelines()...); err != nil {
		return nil, fmt.Errorf("failed to register pipelines: %w", err)
	}

	e.store = model.NewStore()
	e.scene = scene.NewScene("main")
	e.batcher = batcher.NewBatcher(e.store)
	e.dispatcher = renderer.NewDispatcher(e.renderer, e.store)
	e.assets = newAssetSet(e.store, e.scene, e.dispatcher.Evict)

	e.camera = camera.NewCamera(
		camera.WithEye(cfg.Camera.Eye),
		camera.WithTarget(cfg.Camera.Target),
		camera.WithUp(cfg.Camera.Up),
		camera.WithFovDegrees(cfg.Camera.FovY),
		camera.WithClip(cfg.Camera.Near, cfg.Camera.Far),
		camera.WithAspect(aspect(e.window.Width(), e.window.Height())),
	)
	e.uniforms = camera.NewUniformManager(e.renderer)
	if err := e.renderer.InitBindGroup(e.uniforms.Provider(), shader.CameraLayout()); err != nil {
		return nil, fmt.Errorf("failed to initialize camera binding: %w", err)
	}

	e.bindInput()
	return e, nil
}

func rendererOptions(cfg config.Config) []renderer.RendererBuilderOption {
	opts := []renderer.RendererBuilderOption{
		renderer.WithClearColor(cfg.Renderer.ClearColor),
		renderer.WithPresentMode(renderer.PresentModeUncapped),
		renderer.WithMSAA(renderer.MSAAOff),
	}
	if cfg.Window.VSync {
		opts[1] = renderer.WithPresentMode(renderer.PresentModeVSync)
	}
	if cfg.Renderer.MSAA == int(renderer.MSAA4x) {
		opts[2] = renderer.WithMSAA(renderer.MSAA4x)
	}
	return opts
}

// variantPipelines builds one opaque and one blended pipeline per shader variant.
func variantPipelines() []pipeline.Pipeline {
	out := make([]pipeline.Pipeline, 0, 2*int(model.VariantCount))
	for v := range model.VariantCount {
		out = append(out,
			pipeline.NewVariantPipeline(v, false),
			pipeline.NewVariantPipeline(v, true),
		)
	}
	return out
}

func aspect(width, height int) float32 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}

// bindInput routes window events. Camera updates apply immediately; anything touching the GPU is queued.
func (e *engine) bindInput() {
	e.window.SetResizeCallback(func(width, height int) {
		e.camera.SetAspect(aspect(width, height))
		e.enqueue(func() { e.renderer.Resize(width, height) })
	})
	e.window.SetKeyDownCallback(func(key window.Key) {
		if key == window.KeyReload {
			e.Reload()
			return
		}
		applyKey(e.camera, key)
	})
	e.window.SetDragCallback(func(dx, dy float32) {
		applyDrag(e.camera, dx, dy)
	})
	e.window.SetScrollCallback(func(delta float32) {
		applyScroll(e.camera, delta)
	})
	e.window.SetDropCallback(func(paths []string) {
		for _, p := range paths {
			e.loadInBackground(p, false)
		}
	})
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Store() model.Store {
	return e.store
}

func (e *engine) LoadAsset(path string) (scene.EntityID, error) {
	asset, err := e.loader.Load(path)
	if err != nil {
		return scene.NoParent, err
	}
	logLoaded(asset)
	return e.AddAsset(path, asset, identity())
}

func (e *engine) AddAsset(key string, asset *loader.Asset, root [16]float32) (scene.EntityID, error) {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	return e.assets.add(key, asset, root)
}

func (e *engine) RemoveAsset(key string) bool {
	// The cached asset's primitives are already spent; a later LoadAsset must read the file again.
	e.loader.Evict(key)

	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	return e.assets.remove(key)
}

func (e *engine) Reload() {
	for _, key := range e.assets.keys() {
		e.loadInBackground(key, true)
	}
}

// loadInBackground loads path off the render goroutine and queues the swap.
func (e *engine) loadInBackground(path string, evict bool) {
	if evict {
		e.loader.Evict(path)
	}
	go func() {
		res := <-e.loader.LoadAsync(path)
		e.onLoaded(path, res.Asset, res.Err)
	}()
}

// onLoaded queues the replacement of the instance under path. Failed loads keep the previous instance.
func (e *engine) onLoaded(path string, asset *loader.Asset, err error) {
	if err != nil {
		logger.Error("failed to load asset", "path", path, "err", err)
		return
	}
	logLoaded(asset)
	e.enqueue(func() {
		if _, err := e.assets.replace(path, asset); err != nil {
			logger.Error("failed to replace asset", "path", path, "err", err)
		}
	})
}

func (e *engine) Watch(ctx context.Context, path string) error {
	w := loader.NewWatcher(e.loader, func(asset *loader.Asset, err error) {
		if err != nil {
			// The watcher already logged the failure; the previous instance stays.
			return
		}
		e.enqueue(func() {
			if _, err := e.assets.replace(path, asset); err != nil {
				logger.Error("failed to replace asset", "path", path, "err", err)
			}
		})
	})
	return w.Watch(ctx, path)
}

func logLoaded(asset *loader.Asset) {
	logger.Info("loaded asset",
		"name", asset.Name,
		"primitives", len(asset.Primitives),
		"skipped", len(asset.Warnings),
		"tangent_fallbacks", asset.TangentWarnings,
	)
	for _, w := range asset.Warnings {
		logger.Warn("skipped primitive", "asset", asset.Name, "err", w)
	}
}

// enqueue hands fn to the render goroutine. It drops fn once the engine has quit.
func (e *engine) enqueue(fn func()) {
	select {
	case e.pending <- fn:
	case <-e.quitChannel:
	}
}

func (e *engine) Stats() renderer.DispatchStats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.lastStats
}

func (e *engine) Run() {
	e.wg.Add(1)
	go e.handleRender()

	e.window.ProcessMessages()

	e.signalQuit()
	e.wg.Wait()
	e.dispatcher.Release()
	e.renderer.Release()
	if err := e.window.Close(); err != nil {
		logger.Warn("failed to close window", "err", err)
	}
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handleRender runs the render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("render goroutine recovered from panic", "panic", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		if e.tickCallback != nil {
			e.tickCallback(dt)
		}
		e.frameMu.Lock()
		e.drainPending()
		e.renderFrame()
		e.frameMu.Unlock()

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(lastRender); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

func (e *engine) drainPending() {
	for {
		select {
		case fn := <-e.pending:
			fn()
		default:
			return
		}
	}
}

// renderFrame settles the scene, builds batches, uploads the camera and dispatches.
// A device error abandons the frame without presenting; the next frame starts clean.
func (e *engine) renderFrame() {
	e.scene.Update()
	batches, err := e.batcher.Build(e.scene)
	if errors.Is(err, batcher.ErrSceneNotSettled) {
		// Scene() was mutated from another goroutine after Update; the next frame picks it up.
		logger.Debug("scene changed during the frame, skipping", "err", err)
		e.profiler.Skip()
		return
	}
	if err != nil {
		logger.Error("failed to build batches", "err", err)
		return
	}

	e.uniforms.BeginFrame()
	if err := e.uniforms.Upload(e.camera); err != nil {
		logger.Warn("camera upload failed, skipping frame", "err", err)
		e.profiler.Skip()
		return
	}

	stats, err := e.dispatcher.Dispatch(batches, e.uniforms.Provider())
	if err != nil {
		var devErr *renderer.DeviceError
		if !errors.As(err, &devErr) {
			logger.Error("dispatch failed", "err", err)
		} else {
			logger.Warn("device error, skipping frame", "op", devErr.Op, "err", devErr.Err)
		}
		e.profiler.Skip()
		return
	}
	e.renderer.Present()

	e.statsMu.Lock()
	e.lastStats = stats
	e.statsMu.Unlock()

	if e.profilingEnabled {
		e.profiler.Tick(profiler.FrameStats{
			DrawCalls: stats.DrawCalls,
			Instances: stats.Instances,
			Uploads:   stats.Uploads,
		})
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickCallback registers the function called before each frame.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
