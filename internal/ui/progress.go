package ui

import (
	"strings"

	"github.com/desertthunder/tri/internal/tasks"
)

// Progress renders one progress update as a single styled line.
func (p *Palette) Progress(u tasks.ProgressUpdate) string {
	switch u.State {
	case tasks.CompletedOk:
		if strings.Contains(u.Message, "failed") {
			return p.Warn("! " + u.Message)
		}
		return p.OK("✓ " + u.Message)
	case tasks.CompletedErr:
		return p.Err("✗ " + u.Message)
	case tasks.TimedOut:
		return p.Warn("! " + u.Message)
	case tasks.Persisting:
		if u.Step > 0 {
			if strings.Contains(u.Message, "✗") {
				return "  " + p.Err(u.Message)
			}
			return "  " + u.Message
		}
	}
	return p.Title("→ ") + u.Message
}
