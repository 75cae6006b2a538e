package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/detector"
	"github.com/ayusman/repcoach/internal/store"
)

const usage = `RepCoach - pose-based workout coaching

Usage:
  repcoach serve   [flags]           run the dashboard
  repcoach live    [flags]           count repetitions from the webcam
  repcoach analyze [flags] VIDEO     measure a recorded video
  repcoach compare [flags] VIDEO     follow a reference video
  repcoach extract [flags] VIDEO...  record reference keypoints
  repcoach history [flags]           list recent sessions

Run "repcoach COMMAND -h" for the flags of a command.
`

// common holds the flags shared by every command.
type common struct {
	dataDir  string
	backend  string
	model    string
	onnxLib  string
	minConf  float64
	noStore  bool
}

func (c *common) register(fs *flag.FlagSet) {
	def := detector.DefaultConfig()
	fs.StringVar(&c.dataDir, "data", defaultDataDir(), "data directory (database, plugins, library)")
	fs.StringVar(&c.backend, "backend", def.Backend, "pose detector backend: mediapipe or onnx")
	fs.StringVar(&c.model, "model", def.ModelPath, "BlazePose ONNX model for the onnx backend")
	fs.StringVar(&c.onnxLib, "onnxruntime", "", "onnxruntime shared library path")
	fs.Float64Var(&c.minConf, "min-confidence", def.MinConfidence, "minimum pose presence score")
	fs.BoolVar(&c.noStore, "no-store", false, "do not record the session history")
}

func (c *common) detectorConfig() detector.Config {
	cfg := detector.DefaultConfig()
	cfg.Backend = c.backend
	cfg.ModelPath = c.model
	cfg.SharedLibraryPath = c.onnxLib
	cfg.MinConfidence = c.minConf
	return cfg
}

// open creates the data directory, the store and the App.
func (c *common) open() (*app.App, *store.Store, error) {
	if err := os.MkdirAll(c.dataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}

	var st *store.Store
	if !c.noStore {
		var err error
		st, err = store.New(filepath.Join(c.dataDir, "repcoach.db"))
		if err != nil {
			return nil, nil, fmt.Errorf("initialize store: %w", err)
		}
	}

	a := app.New(app.Config{
		Store:      st,
		PluginDir:  filepath.Join(c.dataDir, "plugins"),
		LibraryDir: filepath.Join(c.dataDir, "library"),
		Detector:   c.detectorConfig(),
	})
	if err := a.DiscoverPlugins(); err != nil {
		log.Printf("[main] plugin discovery failed: %v", err)
	}
	return a, st, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".repcoach"
	}
	return filepath.Join(home, ".repcoach")
}

// signalContext is cancelled on Ctrl-C so sessions end with a summary.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	log.SetFlags(log.Ltime)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "serve":
		err = runServe(args)
	case "live", "analyze", "compare":
		err = runSession(cmd, args)
	case "extract":
		err = runExtract(args)
	case "history":
		err = runHistory(args)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}
