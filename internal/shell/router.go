package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

type CommandFunc func(ctx context.Context, args json.RawMessage) (interface{}, error)

// CommandName builds the front-end facing name, e.g. "plugin:fs|exists"
func CommandName(plugin, command string) string {
	return "plugin:" + plugin + "|" + command
}

type Router struct {
	mu       sync.RWMutex
	commands map[string]CommandFunc
}

func NewRouter() *Router {
	return &Router{commands: make(map[string]CommandFunc)}
}

func (r *Router) Handle(name string, fn CommandFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %q: %w", name, ErrPluginRegistered)
	}
	r.commands[name] = fn
	return nil
}

func (r *Router) Invoke(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	r.mu.RLock()
	fn, ok := r.commands[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return fn(ctx, args)
}

func (r *Router) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DecodeArgs unmarshals command arguments into v. Missing arguments leave v
// untouched.
func DecodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return nil
}
