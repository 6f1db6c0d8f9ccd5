// Package fyneshell runs the shell on top of Fyne: one master window, the
// Fyne event loop and the desktop notification center.
package fyneshell

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"zen-manager/internal/config"
	"zen-manager/internal/events"
	"zen-manager/internal/gui"
	"zen-manager/internal/logger"
	"zen-manager/internal/shell"
)

type Runtime struct {
	app    fyne.App
	window fyne.Window
	status *gui.StatusView
	log    logger.Logger
}

// New is the shell.RuntimeFactory used in production builds
func New(_ context.Context, m config.Manifest, log logger.Logger) (shell.Runtime, error) {
	return build(func() fyne.App { return app.NewWithID(m.Identifier) }, m, log)
}

// NewWithApp wraps an existing Fyne app, e.g. fyne.io/fyne/v2/test.NewApp
func NewWithApp(a fyne.App, m config.Manifest, log logger.Logger) (*Runtime, error) {
	return build(func() fyne.App { return a }, m, log)
}

func build(newApp func() fyne.App, m config.Manifest, log logger.Logger) (rt *Runtime, err error) {
	// the GL driver panics when no display can be opened
	defer func() {
		if r := recover(); r != nil {
			rt = nil
			err = fmt.Errorf("initialise window system: %v", r)
		}
	}()

	fyneApp := newApp()
	if fyneApp == nil {
		return nil, fmt.Errorf("initialise window system: no driver available")
	}

	cfg := m.MainWindow()
	title := cfg.Title
	if title == "" {
		title = m.ProductName
	}

	window := fyneApp.NewWindow(title)
	window.Resize(fyne.NewSize(cfg.Width, cfg.Height))
	window.SetFixedSize(!cfg.Resizable)
	window.CenterOnScreen()
	window.SetMaster()

	status := gui.NewStatusView(m.ProductName, m.Version)
	window.SetContent(status.Container())

	rt = &Runtime{
		app:    fyneApp,
		window: window,
		status: status,
		log:    log,
	}

	window.SetCloseIntercept(func() {
		log.Info("Runtime", "window close requested", nil)
		window.Close()
	})

	log.Info("Runtime", "window created", map[string]interface{}{
		"title":  title,
		"width":  cfg.Width,
		"height": cfg.Height,
	})
	return rt, nil
}

// Attach reflects the host's plugin set and lifecycle in the status view
func (r *Runtime) Attach(host shell.Host) {
	r.status.SetPlugins(host.Plugins())

	host.Events().Listen(events.AppReady, func(events.Event) {
		fyne.Do(func() { r.status.SetStatus("Ready") })
	})
}

func (r *Runtime) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			r.log.Info("Runtime", "context cancelled, quitting", nil)
			r.Quit()
		case <-done:
		}
	}()

	r.window.ShowAndRun()
	r.log.Info("Runtime", "event loop finished", nil)
	return nil
}

func (r *Runtime) Quit() {
	fyne.Do(r.app.Quit)
}

func (r *Runtime) Notify(title, body string) error {
	r.app.SendNotification(fyne.NewNotification(title, body))
	return nil
}

func (r *Runtime) Window() fyne.Window {
	return r.window
}
