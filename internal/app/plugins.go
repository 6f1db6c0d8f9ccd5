package app

import (
	"zen-manager/internal/plugins/fs"
	httpplugin "zen-manager/internal/plugins/http"
	"zen-manager/internal/plugins/notification"
	"zen-manager/internal/shell"
)

// Capabilities is the fixed set of plugins exposed to the front-end
func Capabilities() []shell.Plugin {
	return []shell.Plugin{
		fs.New(),
		notification.New(),
		httpplugin.New(),
	}
}
