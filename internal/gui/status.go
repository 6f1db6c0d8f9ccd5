package gui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// StatusView is the native content of the main window: product identity,
// the active capability set and a one-line status.
type StatusView struct {
	container    *fyne.Container
	titleLabel   *widget.Label
	statusLabel  *widget.Label
	pluginsLabel *widget.Label
}

func NewStatusView(productName, version string) *StatusView {
	titleLabel := widget.NewLabelWithStyle(
		fmt.Sprintf("%s %s", productName, version),
		fyne.TextAlignLeading,
		fyne.TextStyle{Bold: true},
	)
	statusLabel := widget.NewLabel("Starting")
	pluginsLabel := widget.NewLabel("Capabilities: --")

	statusBar := container.NewBorder(
		nil, nil,
		statusLabel,
		pluginsLabel,
	)

	mainContainer := container.NewBorder(
		titleLabel,
		statusBar,
		nil, nil,
		widget.NewSeparator(),
	)

	return &StatusView{
		container:    mainContainer,
		titleLabel:   titleLabel,
		statusLabel:  statusLabel,
		pluginsLabel: pluginsLabel,
	}
}

func (v *StatusView) Container() *fyne.Container {
	return v.container
}

func (v *StatusView) SetStatus(status string) {
	v.statusLabel.SetText(status)
}

func (v *StatusView) SetPlugins(names []string) {
	if len(names) == 0 {
		v.pluginsLabel.SetText("Capabilities: --")
		return
	}
	v.pluginsLabel.SetText("Capabilities: " + strings.Join(names, ", "))
}
