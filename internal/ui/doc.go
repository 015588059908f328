// Package ui styles terminal output for the download command.
//
// A [Palette] colors status lines with [lipgloss] styles, and [Palette.Progress]
// turns the orchestrator's progress updates into one line each:
//
//	→ Resolving spotify:track:4uLU6hMCjMI75M1A2tKUQC...
//	→ Loading variants for spotify:track:4uLU6hMCjMI75M1A2tKUQC...
//	→ Writing 3 tier(s)...
//	  [1/3] ✓ best (FLAC_FLAC)
//	✓ Saved 3 tier(s)
package ui
