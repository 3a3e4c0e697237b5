package rod

import (
	"time"

	"github.com/fwojciec/pagecap"
	"github.com/ysmood/gson"
)

// parseCommand decodes a control command posted by the page through the
// exposed binding. Delays arrive in milliseconds because the page side
// speaks JSON, not time.Duration.
func parseCommand(g gson.JSON) (pagecap.Command, error) {
	m := g.Map()

	action, ok := m["action"]
	if !ok {
		return pagecap.Command{}, pagecap.Errorf(pagecap.EINVALID, "command action required")
	}
	cmd := pagecap.Command{Action: pagecap.CommandAction(action.Str())}

	switch cmd.Action {
	case pagecap.CommandStart:
		if v, ok := m["pages"]; ok {
			cmd.Pages = v.Int()
		}
		if v, ok := m["delay"]; ok {
			cmd.Delay = time.Duration(v.Int()) * time.Millisecond
		}
	case pagecap.CommandPause, pagecap.CommandResume, pagecap.CommandStop:
	case pagecap.CommandTrim:
		area, ok := m["area"]
		if !ok {
			return pagecap.Command{}, pagecap.Errorf(pagecap.EINVALID, "trim command requires an area")
		}
		cmd.Area = &pagecap.Clip{
			X:      area.Get("x").Num(),
			Y:      area.Get("y").Num(),
			Width:  area.Get("width").Num(),
			Height: area.Get("height").Num(),
		}
	default:
		return pagecap.Command{}, pagecap.Errorf(pagecap.EINVALID, "unknown command action %q", cmd.Action)
	}

	return cmd, nil
}
