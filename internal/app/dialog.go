package app

import (
	"os/exec"

	"zen-manager/internal/platform"
)

// Dialog shows a native failure message. Show must not wait for the user.
type Dialog interface {
	Show(message string) error
}

// messageBox uses the Windows "msg" utility addressed to every session.
// The child is started and left running; nothing waits for it to paint.
type messageBox struct {
	command string
}

func (m messageBox) cmd(message string) *exec.Cmd {
	return exec.Command(m.command, "/w", "*", message)
}

func (m messageBox) Show(message string) error {
	return m.cmd(message).Start()
}

// dialogFor returns nil where no native dialog exists
func dialogFor(p platform.Platform) Dialog {
	if p == platform.Windows {
		return messageBox{command: "msg"}
	}
	return nil
}
