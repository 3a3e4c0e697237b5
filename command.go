package pagecap

import "time"

// CommandAction identifies an inbound control command.
type CommandAction string

// Command actions the remote page's embedded controller may post.
const (
	CommandStart  CommandAction = "start"
	CommandPause  CommandAction = "pause"
	CommandResume CommandAction = "resume"
	CommandStop   CommandAction = "stop"
	CommandTrim   CommandAction = "trim"
)

// Command is a typed control message posted by the remote page's embedded
// controller through a single exposed binding. It replaces per-function
// host callbacks so the automation surface's object model stays decoupled
// from the session's control API.
type Command struct {
	Action CommandAction `json:"action"`

	// Pages and Delay apply to CommandStart.
	Pages int           `json:"pages,omitempty"`
	Delay time.Duration `json:"delay,omitempty"`

	// Area is the user-selected rectangle for CommandTrim.
	Area *Clip `json:"area,omitempty"`
}
