package fs

import (
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

const ChangeEvent = "fs://change"

// Change is the payload of a ChangeEvent
type Change struct {
	WatchID uint64        `json:"id"`
	BaseDir BaseDirectory `json:"baseDir"`
	Path    string        `json:"path"`
	Op      string        `json:"op"`
}

type watch struct {
	id      uint64
	base    BaseDirectory
	root    string
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
	once    sync.Once
	err     error
}

func (w *watch) close() error {
	w.once.Do(func() {
		w.err = w.watcher.Close()
		w.wg.Wait()
	})
	return w.err
}

// Watch reports changes under rel as ChangeEvent events until Unwatch or
// Shutdown. With recursive set, directories that exist when the watch starts
// are watched too.
func (p *Plugin) Watch(base BaseDirectory, rel string, recursive bool) (uint64, error) {
	path, err := p.resolve(base, rel)
	if err != nil {
		return 0, err
	}
	root, err := p.resolver.Dir(base)
	if err != nil {
		return 0, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return 0, fmt.Errorf("watch %s: %w", rel, err)
	}

	if err := addPaths(watcher, path, recursive); err != nil {
		watcher.Close()
		return 0, fmt.Errorf("watch %s: %w", rel, err)
	}

	p.mu.Lock()
	p.nextID++
	w := &watch{id: p.nextID, base: base, root: root, watcher: watcher}
	p.watchers[w.id] = w
	p.mu.Unlock()

	w.wg.Add(1)
	go p.forward(w)

	p.log.Debug("FS", "watch started", map[string]interface{}{
		"id":        w.id,
		"path":      rel,
		"recursive": recursive,
	})
	return w.id, nil
}

func (p *Plugin) Unwatch(id uint64) error {
	p.mu.Lock()
	w, ok := p.watchers[id]
	delete(p.watchers, id)
	p.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownWatch, id)
	}
	return w.close()
}

func (p *Plugin) forward(w *watch) {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			rel, err := filepath.Rel(w.root, event.Name)
			if err != nil {
				rel = event.Name
			}
			p.bus.Emit(ChangeEvent, Change{
				WatchID: w.id,
				BaseDir: w.base,
				Path:    filepath.ToSlash(rel),
				Op:      event.Op.String(),
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			p.log.Error("FS", err, map[string]interface{}{"watch_id": w.id})
		}
	}
}

func addPaths(watcher *fsnotify.Watcher, path string, recursive bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !recursive || !info.IsDir() {
		return watcher.Add(path)
	}

	return filepath.WalkDir(path, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
}
