package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// BaseDirectory names a root that front-end paths are resolved against
type BaseDirectory string

const (
	AppData      BaseDirectory = "appData"
	AppLocalData BaseDirectory = "appLocalData"
	AppConfig    BaseDirectory = "appConfig"
	AppCache     BaseDirectory = "appCache"
	AppLog       BaseDirectory = "appLog"
	Temp         BaseDirectory = "temp"
	Home         BaseDirectory = "home"
)

type Resolver struct {
	roots map[BaseDirectory]string
}

// NewResolver lays the application directories out under the XDG base
// directories (and their macOS/Windows equivalents) keyed by identifier.
func NewResolver(identifier string) *Resolver {
	return NewResolverWithRoots(map[BaseDirectory]string{
		AppData:      filepath.Join(xdg.DataHome, identifier),
		AppLocalData: filepath.Join(xdg.DataHome, identifier),
		AppConfig:    filepath.Join(xdg.ConfigHome, identifier),
		AppCache:     filepath.Join(xdg.CacheHome, identifier),
		AppLog:       filepath.Join(xdg.StateHome, identifier, "logs"),
		Temp:         os.TempDir(),
		Home:         xdg.Home,
	})
}

func NewResolverWithRoots(roots map[BaseDirectory]string) *Resolver {
	copied := make(map[BaseDirectory]string, len(roots))
	for k, v := range roots {
		copied[k] = v
	}
	return &Resolver{roots: copied}
}

func (r *Resolver) Dir(base BaseDirectory) (string, error) {
	dir, ok := r.roots[base]
	if !ok || dir == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownBaseDirectory, base)
	}
	return dir, nil
}
