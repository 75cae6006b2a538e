// Package app wires sessions to their surroundings: capture sources, the pose
// detector, the overlay renderer, session history and session hooks.
package app

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/repcoach/internal/capture"
	"github.com/ayusman/repcoach/internal/config"
	"github.com/ayusman/repcoach/internal/detector"
	"github.com/ayusman/repcoach/internal/plugin"
	"github.com/ayusman/repcoach/internal/render"
	"github.com/ayusman/repcoach/internal/session"
	"github.com/ayusman/repcoach/internal/store"
)

// HookTimeout bounds a single plugin run.
const HookTimeout = 5 * time.Second

// ErrBusy is returned when a session is started while another one runs.
var ErrBusy = errors.New("a session is already running")

// Config holds configuration options for the application.
type Config struct {
	// Store keeps session history. Optional.
	Store *store.Store
	// PluginDir holds session hooks, one subdirectory per plugin.
	PluginDir string
	// LibraryDir holds reference videos and their keypoint files.
	LibraryDir string
	Detector   detector.Config
	Style      render.Style
}

// DetectorFactory creates a detector for one session. The session closes it.
type DetectorFactory func() (detector.Detector, error)

// SourceFactory opens nothing; it only builds the capture sources for cfg.
type SourceFactory func(cfg config.Session) (session.Sources, error)

// App runs one session at a time.
type App struct {
	config      Config
	newDetector DetectorFactory
	newSources  SourceFactory
	renderer    *render.Renderer
	pluginMgr   *plugin.Manager
	hooks       *plugin.Dispatcher

	busy atomic.Bool

	mu   sync.RWMutex
	last *Record
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	if config.Style == (render.Style{}) {
		config.Style = render.DefaultStyle()
	}

	mgr := plugin.NewManager(config.PluginDir)
	a := &App{
		config:     config,
		newSources: DefaultSources,
		renderer:   render.New(config.Style),
		pluginMgr:  mgr,
		hooks:      plugin.NewDispatcher(mgr, plugin.NewExecutor(HookTimeout)),
	}
	a.newDetector = func() (detector.Detector, error) {
		return detector.New(a.config.Detector)
	}
	return a
}

// SetDetectorFactory replaces the detector constructor.
func (a *App) SetDetectorFactory(f DetectorFactory) {
	a.newDetector = f
}

// SetSourceFactory replaces the capture source constructor.
func (a *App) SetSourceFactory(f SourceFactory) {
	a.newSources = f
}

// DefaultSources uses the webcam when cfg.Input is empty and the video file
// otherwise. Compare mode adds the reference video when one is configured.
func DefaultSources(cfg config.Session) (session.Sources, error) {
	var src session.Sources
	if cfg.Input == "" {
		src.Live = capture.NewCamera(cfg.CameraID)
	} else {
		src.Live = capture.NewVideoFile(cfg.Input)
	}
	if cfg.Mode == config.ModeCompare && cfg.ReferenceVideo != "" {
		src.Reference = capture.NewVideoFile(cfg.ReferenceVideo)
	}
	return src, nil
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	if err := a.pluginMgr.Discover(); err != nil {
		return err
	}
	log.Printf("[app] %d plugins loaded from %s", len(a.pluginMgr.List()), a.config.PluginDir)
	return nil
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Store returns the session store, or nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// Renderer returns the overlay renderer.
func (a *App) Renderer() *render.Renderer {
	return a.renderer
}

// LibraryDir returns the reference video directory.
func (a *App) LibraryDir() string {
	return a.config.LibraryDir
}

// Running reports whether a session is in progress.
func (a *App) Running() bool {
	return a.busy.Load()
}

// LastRecord returns the most recent session finished by this process.
func (a *App) LastRecord() *Record {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}
