// Command prism-viewer opens a glTF/GLB file and renders it with an orbit camera.
//
// Arrow keys or a left-button drag orbit, +/- or the scroll wheel zoom, R reloads the file and
// dropping a file on the window opens it alongside the current scene.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/prism/engine"
	"github.com/Carmen-Shannon/prism/engine/config"
	"github.com/Carmen-Shannon/prism/engine/logger"
)

func main() {
	if err := run(); err != nil {
		logger.Error("prism-viewer", "err", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a TOML config file")
	watch := flag.Bool("watch", false, "reload the asset when it changes on disk")
	profile := flag.Bool("profile", false, "log frame statistics once per second")
	level := flag.String("log", "", "log level override: debug, info, warn or error")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [asset.gltf|asset.glb]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if flag.NArg() > 0 {
		cfg.Assets.Path = flag.Arg(0)
	}
	if *watch {
		cfg.Assets.Watch = true
	}
	if *profile {
		cfg.Renderer.Profile = true
	}
	if *level != "" {
		cfg.Log.Level = *level
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}

	eng, err := engine.NewEngine(cfg)
	if err != nil {
		return err
	}

	if cfg.Assets.Path != "" {
		if _, err := eng.LoadAsset(cfg.Assets.Path); err != nil {
			return err
		}
		eng.Window().SetTitle(fmt.Sprintf("%s - %s", cfg.Window.Title, cfg.Assets.Path))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Assets.Watch && cfg.Assets.Path != "" {
		go func() {
			if err := eng.Watch(ctx, cfg.Assets.Path); err != nil {
				logger.Error("asset watch stopped", "path", cfg.Assets.Path, "err", err)
			}
		}()
	}

	eng.Run()
	return nil
}
