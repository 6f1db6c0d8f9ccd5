// Package shelltest provides in-memory runtime and host doubles.
package shelltest

import (
	"context"
	"sync"

	"zen-manager/internal/config"
	"zen-manager/internal/events"
	"zen-manager/internal/logger"
	"zen-manager/internal/platform"
	"zen-manager/internal/shell"
)

type Notification struct {
	Title string
	Body  string
}

// Runtime records notifications and returns from Run as soon as RunFunc does
// (immediately when RunFunc is nil).
type Runtime struct {
	RunFunc   func(ctx context.Context) error
	NotifyErr error

	mu            sync.Mutex
	notifications []Notification
	quits         int
	runs          int
	attached      shell.Host
}

func (r *Runtime) Run(ctx context.Context) error {
	r.mu.Lock()
	r.runs++
	r.mu.Unlock()

	if r.RunFunc != nil {
		return r.RunFunc(ctx)
	}
	return nil
}

func (r *Runtime) Quit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quits++
}

func (r *Runtime) Notify(title, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.NotifyErr != nil {
		return r.NotifyErr
	}
	r.notifications = append(r.notifications, Notification{Title: title, Body: body})
	return nil
}

func (r *Runtime) Attach(h shell.Host) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attached = h
}

func (r *Runtime) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notifications...)
}

func (r *Runtime) Runs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func (r *Runtime) Quits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quits
}

func (r *Runtime) Attached() shell.Host {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attached
}

// Factory returns a RuntimeFactory handing out rt
func Factory(rt *Runtime) shell.RuntimeFactory {
	return func(context.Context, config.Manifest, logger.Logger) (shell.Runtime, error) {
		return rt, nil
	}
}

// FailingFactory returns a RuntimeFactory that always fails with err
func FailingFactory(err error) shell.RuntimeFactory {
	return func(context.Context, config.Manifest, logger.Logger) (shell.Runtime, error) {
		return nil, err
	}
}

// Host is a shell.Host for exercising a plugin on its own
type Host struct {
	Config   config.Manifest
	Bus      *events.Bus
	Runtime  *Runtime
	Target   platform.Platform
	Registry []string
}

func NewHost(m config.Manifest) *Host {
	return &Host{
		Config:  m,
		Bus:     events.NewBus(64),
		Runtime: &Runtime{},
		Target:  platform.Linux,
	}
}

func (h *Host) Manifest() config.Manifest   { return h.Config }
func (h *Host) Logger() logger.Logger       { return logger.Nop() }
func (h *Host) Events() *events.Bus         { return h.Bus }
func (h *Host) Notifier() shell.Notifier    { return h.Runtime }
func (h *Host) Platform() platform.Platform { return h.Target }
func (h *Host) Plugins() []string           { return h.Registry }
