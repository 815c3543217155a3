package app

import "os/exec"

// Notification events passed to the external hook.
const (
	EventAdded       = "Added"
	EventCompleted   = "Completed"
	EventUncompleted = "Uncompleted"
)

// Notifier dispatches mutation events to an external executable,
// fire-and-forget: the program runs in the background with a single
// "<Event>: <text>" argument, output discarded, failures ignored. A nil
// Notifier or an empty script disables dispatch.
type Notifier struct {
	script string
}

func NewNotifier(script string) *Notifier {
	return &Notifier{script: script}
}

// Notify must never be called with the Service lock held and never blocks
// the caller.
func (n *Notifier) Notify(event, text string) {
	if n == nil || n.script == "" || text == "" {
		return
	}
	script := n.script
	go func() {
		_ = exec.Command(script, event+": "+text).Run()
	}()
}
