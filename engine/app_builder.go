package engine

import (
	"log/slog"

	"github.com/Carmen-Shannon/phantoma/engine/audio"
	"github.com/Carmen-Shannon/phantoma/engine/midi"
	"github.com/Carmen-Shannon/phantoma/engine/sketch"
)

// AppBuilderOption is a functional option for configuring an App via NewApp.
type AppBuilderOption func(*app)

// WithStage sets the stage the app runs. Use a sketch.Director to run several.
//
// Parameters:
//   - stage: the stage
//
// Returns:
//   - AppBuilderOption: option function to apply
func WithStage(stage sketch.Stage) AppBuilderOption {
	return func(a *app) {
		a.stage = stage
	}
}

// WithDisplay supplies the presentation surface instead of opening a window, and the event loop that
// drives it. host may be nil, in which case Run blocks until Quit.
//
// Parameters:
//   - display: the surface to render into
//   - host: the event loop, or nil
//
// Returns:
//   - AppBuilderOption: option function to apply
func WithDisplay(display Display, host Host) AppBuilderOption {
	return func(a *app) {
		a.display = display
		a.host = host
	}
}

// WithAudio sets the feed the stage reads audio analysis from. A nil feed means no audio source.
func WithAudio(feed *audio.Feed) AppBuilderOption {
	return func(a *app) {
		a.audio = feed
	}
}

// WithMIDI sets the controller whose inputs are delivered to the stage every tick. A nil device means no
// controller.
func WithMIDI(device midi.Device) AppBuilderOption {
	return func(a *app) {
		a.midi = device
	}
}

// WithLogger sets the logger for the app, its staging pools and its profiler. A nil logger is ignored.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - AppBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) AppBuilderOption {
	return func(a *app) {
		if logger != nil {
			a.logger = logger
		}
	}
}
