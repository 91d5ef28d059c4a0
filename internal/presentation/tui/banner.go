package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the crudgen banner to w, colored when the terminal
// supports it.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"                   _                 ", "#818cf8"},
		{"  ___ _ __ _   _  __| | __ _  ___ _ __  ", "#a78bfa"},
		{" / __| '__| | | |/ _` |/ _` |/ _ \\ '_ \\ ", "#c084fc"},
		{"| (__| |  | |_| | (_| | (_| |  __/ | | |", "#e879f9"},
		{" \\___|_|   \\__,_|\\__,_|\\__, |\\___|_| |_|", "#f472b6"},
		{"                       |___/   " + version, "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Success styles a confirmation line.
func Success(w io.Writer, msg string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w, out.String("✔ "+msg).Foreground(out.Color("#22c55e")))
}

// Failure styles an error line.
func Failure(w io.Writer, msg string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w, out.String("✘ "+msg).Foreground(out.Color("#ef4444")))
}
