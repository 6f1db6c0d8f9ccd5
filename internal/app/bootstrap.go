// Package app is the native entry point of Zen Manager. It wires the
// capability plugins into the shell, runs the event loop and turns a failed
// start into a stderr line, a native dialog where one exists, and exit code 1.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"zen-manager/internal/config"
	"zen-manager/internal/logger"
	"zen-manager/internal/platform"
	"zen-manager/internal/shell"
	"zen-manager/internal/shell/fyneshell"
)

const (
	AppName     = "Zen Manager"
	ExitFailure = 1
)

type Bootstrapper struct {
	Platform     platform.Platform
	Stderr       io.Writer
	Exit         func(code int)
	Dialog       Dialog
	NewRuntime   shell.RuntimeFactory
	LoadManifest func() (config.Manifest, error)
	Plugins      func() []shell.Plugin
	// NewLogger builds the logger once the manifest is known
	NewLogger func(config.Logging) logger.Logger
}

// New returns a bootstrapper for the platform the binary runs on
func New() *Bootstrapper {
	return ForPlatform(platform.Current())
}

func ForPlatform(p platform.Platform) *Bootstrapper {
	return &Bootstrapper{
		Platform:     p,
		Stderr:       os.Stderr,
		Exit:         os.Exit,
		Dialog:       dialogFor(p),
		NewRuntime:   fyneshell.New,
		LoadManifest: config.Load,
		Plugins:      Capabilities,
		NewLogger: func(cfg config.Logging) logger.Logger {
			return logger.New(logger.Config{Level: cfg.Level, JSON: cfg.JSON})
		},
	}
}

// Main runs the application and only returns on a clean shutdown. On a
// startup failure it reports and calls Exit(1).
func (b *Bootstrapper) Main(ctx context.Context) {
	if err := b.Run(ctx); err != nil {
		b.fail(err)
	}
}

// Run registers the capabilities and blocks in the runtime's event loop.
// Errors are *shell.StartupError.
func (b *Bootstrapper) Run(ctx context.Context) error {
	m, err := b.LoadManifest()
	if err != nil {
		return &shell.StartupError{Stage: shell.StageContext, Err: err}
	}

	log := b.NewLogger(m.Logging)
	log.Info("Bootstrap", "starting", map[string]interface{}{
		"product":  m.ProductName,
		"version":  m.Version,
		"platform": b.Platform.String(),
	})

	builder := shell.NewBuilder(b.NewRuntime).
		WithLogger(log).
		WithPlatform(b.Platform)
	for _, p := range b.Plugins() {
		builder.Plugin(p)
	}

	if err := builder.Run(ctx, m); err != nil {
		log.Error("Bootstrap", err, map[string]interface{}{"stage": stageOf(err)})
		return err
	}

	log.Info("Bootstrap", "shut down cleanly", nil)
	return nil
}

func (b *Bootstrapper) fail(err error) {
	fmt.Fprintf(b.Stderr, "Failed to start %s: %v\n", AppName, err)

	// mobile builds have no fallback dialog
	if b.Platform.IsDesktop() && b.Dialog != nil {
		_ = b.Dialog.Show(fmt.Sprintf("%s failed to start: %v", AppName, err))
	}

	b.Exit(ExitFailure)
}

func stageOf(err error) string {
	var se *shell.StartupError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
