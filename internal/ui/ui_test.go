package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/tri/internal/tasks"
)

func TestPalette(t *testing.T) {
	p := NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

	for name, render := range map[string]func(string) string{
		"Title": p.Title,
		"OK":    p.OK,
		"Err":   p.Err,
		"Warn":  p.Warn,
		"Help":  p.Help,
	} {
		t.Run(name, func(t *testing.T) {
			if got := render("hello"); !strings.Contains(got, "hello") {
				t.Errorf("%s() = %q, want text preserved", name, got)
			}
		})
	}

	t.Run("Painter", func(t *testing.T) {
		var painter Painter = p
		if got := painter.As("fg", lipgloss.Color("#FFFFFF")); !strings.Contains(got, "fg") {
			t.Errorf("As() = %q", got)
		}
		if got := painter.On("bg", lipgloss.Color("#000000")); !strings.Contains(got, "bg") {
			t.Errorf("On() = %q", got)
		}
	})
}

func TestProgress(t *testing.T) {
	tc := []struct {
		name   string
		update tasks.ProgressUpdate
		prefix string
	}{
		{"Resolving", tasks.ProgressUpdate{State: tasks.Resolving, Message: "Resolving track..."}, "→"},
		{"Persisting Start", tasks.ProgressUpdate{State: tasks.Persisting, Total: 3, Message: "Writing 3 tier(s)..."}, "→"},
		{"Tier Written", tasks.ProgressUpdate{State: tasks.Persisting, Step: 1, Total: 3, Message: "[1/3] ✓ best (FLAC_FLAC)"}, "  "},
		{"Tier Failed", tasks.ProgressUpdate{State: tasks.Persisting, Step: 2, Total: 3, Message: "[2/3] ✗ low: " + errors.New("disk full").Error()}, "  "},
		{"Completed", tasks.ProgressUpdate{State: tasks.CompletedOk, Message: "Saved 3 tier(s)"}, "✓"},
		{"Completed Partial", tasks.ProgressUpdate{State: tasks.CompletedOk, Message: "Saved 2 tier(s), 1 failed"}, "!"},
		{"Failed", tasks.ProgressUpdate{State: tasks.CompletedErr, Message: "Failed: boom"}, "✗"},
		{"Timed Out", tasks.ProgressUpdate{State: tasks.TimedOut, Message: "Timed out"}, "!"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := Styles.Progress(tt.update)
			if !strings.Contains(got, tt.update.Message) {
				t.Errorf("Progress() = %q, want message %q", got, tt.update.Message)
			}
			if !strings.Contains(got, tt.prefix) {
				t.Errorf("Progress() = %q, want prefix %q", got, tt.prefix)
			}
			if strings.Contains(got, "\n") {
				t.Errorf("Progress() = %q, want a single line", got)
			}
		})
	}
}
