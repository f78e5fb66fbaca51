// Package ui renders the CLI's terminal output.
//
// One-shot commands print a Header describing the query followed by a Result
// box, both styled with lipgloss:
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintHeader("Boiler state", "froeling state", ui.Param{Key: "TTY", Value: tty})
//	p.PrintResult(ui.NewSuccessResult("State read").AddLines(lines...))
//
// The watch command runs WatchModel, a Bubble Tea program that polls values
// on an interval and redraws them in place.
//
// Widths follow the terminal (via golang.org/x/term), clamped between
// MinTerminalWidth and MaxContentWidth.
package ui
