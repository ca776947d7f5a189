// Command phantoma runs the demo show: a reactive plasma stage and a lit scene stage, switched with the
// number keys.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine"
	"github.com/Carmen-Shannon/phantoma/engine/config"
	"github.com/Carmen-Shannon/phantoma/engine/loader"
	"github.com/Carmen-Shannon/phantoma/engine/sketch"
	"github.com/schollz/progressbar/v3"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (default: built-in settings)")
	scenePath := flag.String("scene", "", "glTF or GLB scene to show, relative to asset_dir")
	profiling := flag.Bool("profile", false, "log frame rate and memory stats every second")
	flag.Parse()

	logger := common.NewLogger(common.ParseLevel(os.Getenv("PHANTOMA_LOG")), os.Stderr)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "phantoma: %v\n", err)
			os.Exit(1)
		}
	}
	if *scenePath != "" {
		cfg.Scene = *scenePath
	}
	cfg.Profiling = cfg.Profiling || *profiling

	ld := loader.NewLoader(
		loader.WithWorkers(cfg.Workers),
		loader.WithProgress(newProgress("decoding textures").update),
		loader.WithLogger(logger),
	)

	director := sketch.NewDirector(
		newPlasma(cfg),
		newShow(cfg, ld),
	)

	app := engine.NewApp(cfg,
		engine.WithStage(director),
		engine.WithLogger(logger),
	)
	if err := app.Run(); err != nil {
		logger.Error("phantoma stopped", slog.Any("err", err))
		os.Exit(1)
	}
	logger.Info("phantoma finished", slog.Uint64("frames", app.Frames()), slog.Uint64("skipped", app.Skipped()))
}

// progress shows a bar for the texture decode of a scene load. The loader calls update under its own lock.
type progress struct {
	title string
	bar   *progressbar.ProgressBar
}

func newProgress(title string) *progress {
	return &progress{title: title}
}

func (p *progress) update(done, total int) {
	if p.bar == nil || p.bar.GetMax() != total {
		p.bar = progressbar.Default(int64(total), p.title)
	}
	_ = p.bar.Set(done)
	if done == total {
		_ = p.bar.Finish()
		p.bar = nil
	}
}
