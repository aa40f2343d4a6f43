package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

var (
	mu      sync.Mutex
	out     io.Writer = os.Stderr
	noColor bool
	quiet   bool
)

// SetOutput sets where status messages go. Read output never passes
// through this package, so stdout stays clean for piping. nil restores
// stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	out = w
}

// SetNoColor disables ANSI colors
func SetNoColor(disabled bool) {
	mu.Lock()
	defer mu.Unlock()
	noColor = disabled
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = enabled
}

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		mu.Lock()
		plain := noColor
		mu.Unlock()
		if plain {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

func emit(always bool, text string) {
	mu.Lock()
	w, q := out, quiet
	mu.Unlock()
	if q && !always {
		return
	}
	fmt.Fprintln(w, text)
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		emit(true, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		emit(true, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	emit(false, Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	emit(false, fmt.Sprintf("%s: %s", Cyan(label), Yellow(value)))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		emit(false, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		emit(false, Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	emit(false, Magenta(msg))
}

// PrintList prints indented items, one per line
func PrintList(items []string) {
	for _, item := range items {
		emit(false, "  - "+item)
	}
}
