// Package notification is the OS notification capability.
//
// Desktop builds start with permission granted (the OS has no per-app prompt
// we could drive), mobile builds start at "prompt" until the front-end asks.
// A manifest with notifications disabled pins the state to "denied".
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"zen-manager/internal/logger"
	"zen-manager/internal/shell"
)

const Name = "notification"

type Permission string

const (
	Granted Permission = "granted"
	Denied  Permission = "denied"
	Prompt  Permission = "prompt"
)

var (
	ErrPermissionDenied = errors.New("notification permission not granted")
	ErrMissingTitle     = errors.New("notification title is required")
	ErrNotReady         = errors.New("notification plugin not set up")
)

type Options struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type Plugin struct {
	mu         sync.Mutex
	permission Permission
	notifier   shell.Notifier
	log        logger.Logger
}

func New() *Plugin {
	return &Plugin{permission: Prompt, log: logger.Nop()}
}

func (p *Plugin) Name() string { return Name }

func (p *Plugin) Setup(_ context.Context, host shell.Host) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.notifier = host.Notifier()
	p.log = host.Logger()

	switch {
	case !host.Manifest().Plugins.Notification.Enabled:
		p.permission = Denied
	case host.Platform().IsDesktop():
		p.permission = Granted
	default:
		p.permission = Prompt
	}
	return nil
}

func (p *Plugin) Permission() Permission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permission
}

func (p *Plugin) IsPermissionGranted() bool {
	return p.Permission() == Granted
}

// RequestPermission resolves a pending prompt to granted. Denied stays denied.
func (p *Plugin) RequestPermission() Permission {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.permission == Prompt {
		p.permission = Granted
	}
	return p.permission
}

func (p *Plugin) Send(opts Options) error {
	if strings.TrimSpace(opts.Title) == "" {
		return ErrMissingTitle
	}

	p.mu.Lock()
	permission, notifier := p.permission, p.notifier
	p.mu.Unlock()

	if notifier == nil {
		return ErrNotReady
	}
	if permission != Granted {
		return fmt.Errorf("%w (%s)", ErrPermissionDenied, permission)
	}

	if err := notifier.Notify(opts.Title, opts.Body); err != nil {
		p.log.Error("Notification", err, map[string]interface{}{"title": opts.Title})
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

func (p *Plugin) Commands() map[string]shell.CommandFunc {
	return map[string]shell.CommandFunc{
		"is_permission_granted": func(context.Context, json.RawMessage) (interface{}, error) {
			return p.IsPermissionGranted(), nil
		},
		"request_permission": func(context.Context, json.RawMessage) (interface{}, error) {
			return p.RequestPermission(), nil
		},
		"notify": func(_ context.Context, raw json.RawMessage) (interface{}, error) {
			var opts Options
			if err := shell.DecodeArgs(raw, &opts); err != nil {
				return nil, err
			}
			return nil, p.Send(opts)
		},
	}
}

func (p *Plugin) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifier = nil
}
