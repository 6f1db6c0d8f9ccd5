package shell

import (
	"context"
	"fmt"
	"os"

	"zen-manager/internal/config"
	"zen-manager/internal/events"
	"zen-manager/internal/logger"
	"zen-manager/internal/platform"
	"zen-manager/internal/shutdown"
)

const eventBufferSize = 256

type Builder struct {
	factory  RuntimeFactory
	plugins  []Plugin
	logger   logger.Logger
	platform platform.Platform
	router   *Router
}

func NewBuilder(factory RuntimeFactory) *Builder {
	return &Builder{
		factory:  factory,
		logger:   logger.Nop(),
		platform: platform.Current(),
		router:   NewRouter(),
	}
}

func (b *Builder) WithLogger(log logger.Logger) *Builder {
	b.logger = log
	return b
}

func (b *Builder) WithPlatform(p platform.Platform) *Builder {
	b.platform = p
	return b
}

func (b *Builder) Plugin(p Plugin) *Builder {
	b.plugins = append(b.plugins, p)
	return b
}

// Plugins lists registered plugin names in registration order
func (b *Builder) Plugins() []string {
	names := make([]string, 0, len(b.plugins))
	for _, p := range b.plugins {
		names = append(names, p.Name())
	}
	return names
}

// Router exposes plugin commands once Run has set the plugins up
func (b *Builder) Router() *Router {
	return b.router
}

// Run sets up every plugin, blocks in the runtime's event loop and tears
// everything down again. Any failure comes back as a *StartupError.
func (b *Builder) Run(ctx context.Context, m config.Manifest) error {
	if err := b.checkRegistry(); err != nil {
		return startupError(StageRegistry, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rt, err := b.factory(ctx, m, b.logger)
	if err != nil {
		return startupError(StageRuntime, err)
	}

	bus := events.NewBus(eventBufferSize)
	h := &host{
		manifest: m,
		log:      b.logger,
		bus:      bus,
		notifier: rt,
		platform: b.platform,
		plugins:  b.Plugins(),
	}

	lifecycle := shutdown.NewManager(b.logger)
	lifecycle.Register(bus)

	for _, p := range b.plugins {
		if err := p.Setup(ctx, h); err != nil {
			lifecycle.Shutdown()
			rt.Quit()
			return startupError(PluginStage(p.Name()), err)
		}
		lifecycle.Register(p)

		for cmd, fn := range p.Commands() {
			if err := b.router.Handle(CommandName(p.Name(), cmd), fn); err != nil {
				lifecycle.Shutdown()
				rt.Quit()
				return startupError(PluginStage(p.Name()), err)
			}
		}

		b.logger.Debug("Shell", "plugin ready", map[string]interface{}{
			"plugin":   p.Name(),
			"commands": len(p.Commands()),
		})
	}

	if a, ok := rt.(Attacher); ok {
		a.Attach(h)
	}

	lifecycle.Listen(func(os.Signal) {
		cancel()
		rt.Quit()
	})

	b.logger.Info("Shell", "entering event loop", map[string]interface{}{
		"plugins":  h.plugins,
		"platform": b.platform.String(),
	})
	bus.Emit(events.AppReady, map[string]interface{}{"plugins": h.plugins})

	runErr := rt.Run(ctx)

	bus.Emit(events.AppExit, nil)
	lifecycle.Shutdown()

	if runErr != nil {
		return startupError(StageRun, runErr)
	}
	return nil
}

func (b *Builder) checkRegistry() error {
	seen := make(map[string]struct{}, len(b.plugins))
	for _, p := range b.plugins {
		name := p.Name()
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %s", ErrPluginRegistered, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
