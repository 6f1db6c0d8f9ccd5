// Package fs is the filesystem capability: file access for the front-end,
// confined to the base directories the manifest puts in scope.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"zen-manager/internal/events"
	"zen-manager/internal/logger"
	"zen-manager/internal/shell"
)

const Name = "fs"

var (
	ErrForbiddenPath        = errors.New("path escapes its base directory")
	ErrScopeDenied          = errors.New("base directory not in scope")
	ErrUnknownBaseDirectory = errors.New("unknown base directory")
	ErrUnknownWatch         = errors.New("unknown watch id")
)

type WriteOptions struct {
	Append bool `json:"append"`
	// Create defaults to true when nil
	Create *bool `json:"create"`
}

type DirEntry struct {
	Name        string `json:"name"`
	IsDirectory bool   `json:"isDirectory"`
	IsFile      bool   `json:"isFile"`
	IsSymlink   bool   `json:"isSymlink"`
}

type Plugin struct {
	resolver *Resolver
	scope    map[BaseDirectory]struct{}
	bus      *events.Bus
	log      logger.Logger

	mu       sync.Mutex
	watchers map[uint64]*watch
	nextID   uint64
}

type Option func(*Plugin)

// WithResolver replaces the XDG based resolver
func WithResolver(r *Resolver) Option {
	return func(p *Plugin) { p.resolver = r }
}

func New(opts ...Option) *Plugin {
	p := &Plugin{
		scope:    make(map[BaseDirectory]struct{}),
		log:      logger.Nop(),
		watchers: make(map[uint64]*watch),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Plugin) Name() string { return Name }

func (p *Plugin) Setup(_ context.Context, host shell.Host) error {
	m := host.Manifest()
	if p.resolver == nil {
		p.resolver = NewResolver(m.Identifier)
	}

	for _, name := range m.Plugins.FS.Scope {
		base := BaseDirectory(name)
		if _, err := p.resolver.Dir(base); err != nil {
			return err
		}
		p.scope[base] = struct{}{}
	}

	p.bus = host.Events()
	p.log = host.Logger()

	p.log.Debug("FS", "scope configured", map[string]interface{}{
		"scope": m.Plugins.FS.Scope,
	})
	return nil
}

func (p *Plugin) resolve(base BaseDirectory, rel string) (string, error) {
	if _, ok := p.scope[base]; !ok {
		return "", fmt.Errorf("%w: %s", ErrScopeDenied, base)
	}

	root, err := p.resolver.Dir(base)
	if err != nil {
		return "", err
	}

	if rel == "" || rel == "." {
		return root, nil
	}

	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %s", ErrForbiddenPath, rel)
	}

	path := filepath.Join(root, local)
	if err := confine(root, path); err != nil {
		return "", fmt.Errorf("%w: %s", err, rel)
	}
	return path, nil
}

// confine rejects paths that leave root through a symlink. The deepest
// existing ancestor of path is resolved, since the target may not exist yet.
func confine(root, path string) error {
	realRoot, err := filepath.EvalSymlinks(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	existing := path
	for {
		real, err := filepath.EvalSymlinks(existing)
		if err == nil {
			rel, err := filepath.Rel(realRoot, real)
			if err != nil || !filepath.IsLocal(rel) && rel != "." {
				return ErrForbiddenPath
			}
			return nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		// present but unresolvable: a dangling link that writes would follow
		if _, lerr := os.Lstat(existing); lerr == nil {
			return ErrForbiddenPath
		}

		parent := filepath.Dir(existing)
		if parent == existing || len(parent) < len(root) {
			return nil
		}
		existing = parent
	}
}

func (p *Plugin) Exists(base BaseDirectory, rel string) (bool, error) {
	path, err := p.resolve(base, rel)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", rel, err)
	}
}

func (p *Plugin) Mkdir(base BaseDirectory, rel string, recursive bool) error {
	path, err := p.resolve(base, rel)
	if err != nil {
		return err
	}

	if recursive {
		err = os.MkdirAll(path, 0o755)
	} else {
		err = os.Mkdir(path, 0o755)
	}
	if err != nil {
		return fmt.Errorf("mkdir %s: %w", rel, err)
	}
	return nil
}

func (p *Plugin) ReadFile(base BaseDirectory, rel string) ([]byte, error) {
	path, err := p.resolve(base, rel)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	return data, nil
}

func (p *Plugin) ReadTextFile(base BaseDirectory, rel string) (string, error) {
	data, err := p.ReadFile(base, rel)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (p *Plugin) WriteFile(base BaseDirectory, rel string, data []byte, opts WriteOptions) error {
	if rel == "" || rel == "." {
		return fmt.Errorf("%w: cannot write to base directory", ErrForbiddenPath)
	}
	path, err := p.resolve(base, rel)
	if err != nil {
		return err
	}

	flags := os.O_WRONLY
	if opts.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	if opts.Create == nil || *opts.Create {
		flags |= os.O_CREATE
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", rel, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

func (p *Plugin) WriteTextFile(base BaseDirectory, rel, contents string, opts WriteOptions) error {
	return p.WriteFile(base, rel, []byte(contents), opts)
}

func (p *Plugin) Remove(base BaseDirectory, rel string, recursive bool) error {
	if rel == "" || rel == "." {
		return fmt.Errorf("%w: cannot remove base directory", ErrForbiddenPath)
	}
	path, err := p.resolve(base, rel)
	if err != nil {
		return err
	}

	if recursive {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		return fmt.Errorf("remove %s: %w", rel, err)
	}
	return nil
}

func (p *Plugin) ReadDir(base BaseDirectory, rel string) ([]DirEntry, error) {
	path, err := p.resolve(base, rel)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", rel, err)
	}

	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		mode := e.Type()
		out = append(out, DirEntry{
			Name:        e.Name(),
			IsDirectory: e.IsDir(),
			IsFile:      mode.IsRegular(),
			IsSymlink:   mode&os.ModeSymlink != 0,
		})
	}
	return out, nil
}

// Shutdown stops every active watch
func (p *Plugin) Shutdown() {
	p.mu.Lock()
	active := make([]*watch, 0, len(p.watchers))
	for id, w := range p.watchers {
		active = append(active, w)
		delete(p.watchers, id)
	}
	p.mu.Unlock()

	for _, w := range active {
		if err := w.close(); err != nil {
			p.log.Warning("FS", "closing watcher failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}
