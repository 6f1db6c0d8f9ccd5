// Package shell hosts the application runtime: it owns the fixed set of
// capability plugins, exposes their commands to the front-end and drives
// the runtime's event loop from setup to shutdown.
package shell

import (
	"context"

	"zen-manager/internal/config"
	"zen-manager/internal/events"
	"zen-manager/internal/logger"
	"zen-manager/internal/platform"
)

// Plugin is a capability module registered with the runtime. Setup runs
// once before the event loop starts, Shutdown once after it ends.
type Plugin interface {
	Name() string
	Setup(ctx context.Context, host Host) error
	Commands() map[string]CommandFunc
	Shutdown()
}

// Notifier delivers an OS-level notification
type Notifier interface {
	Notify(title, body string) error
}

// Runtime is the windowing backend. Run blocks until the application quits
// or ctx is cancelled.
type Runtime interface {
	Notifier
	Run(ctx context.Context) error
	Quit()
}

// Attacher is implemented by runtimes that want to observe the host once all
// plugins are set up.
type Attacher interface {
	Attach(host Host)
}

type RuntimeFactory func(ctx context.Context, m config.Manifest, log logger.Logger) (Runtime, error)

// Host is what a plugin can reach during Setup and afterwards
type Host interface {
	Manifest() config.Manifest
	Logger() logger.Logger
	Events() *events.Bus
	Notifier() Notifier
	Platform() platform.Platform
	Plugins() []string
}

type host struct {
	manifest config.Manifest
	log      logger.Logger
	bus      *events.Bus
	notifier Notifier
	platform platform.Platform
	plugins  []string
}

func (h *host) Manifest() config.Manifest   { return h.manifest }
func (h *host) Logger() logger.Logger       { return h.log }
func (h *host) Events() *events.Bus         { return h.bus }
func (h *host) Notifier() Notifier          { return h.notifier }
func (h *host) Platform() platform.Platform { return h.platform }

func (h *host) Plugins() []string {
	out := make([]string, len(h.plugins))
	copy(out, h.plugins)
	return out
}
