package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`   ___             __ _                       _`, "#818cf8"},
	{`  / __|___ _ _  / _(_)__ _ _  _ _ _ __ _| |_ ___ _ _`, "#a78bfa"},
	{` | (__/ _ \ ' \|  _| / _' | || | '_/ _' |  _/ _ \ '_|`, "#c084fc"},
	{`  \___\___/_||_|_| |_\__, |\_,_|_| \__,_|\__\___/_|`, "#e879f9"},
	{`                     |___/`, "#f472b6"},
}

// PrintBanner writes the colored banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.NewOutput(w).Profile
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Warn returns s styled as a warning for the terminal behind w.
func Warn(w io.Writer, s string) string {
	p := termenv.NewOutput(w).Profile
	return p.String(s).Foreground(p.Color("#fb7185")).Bold().String()
}
