package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"     _             __                      ",
	" ___| |_ ___ _ __ / _| ___  _ __ _ __ ___  ",
	"/ __| __/ _ \\ '_ \\| |_ / _ \\| '__| '_ ` _ \\ ",
	"\\__ \\ ||  __/ |_) |  _| (_) | |  | | | | | |",
	"|___/\\__\\___| .__/|_|  \\___/|_|  |_| |_| |_|",
	"            |_|                              ",
}

var bannerColors = []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6", "#fb7185"}

// PrintBanner writes the ASCII banner followed by the version. Colours
// follow the terminal's profile, so piped output stays plain.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(p.Color(bannerColors[i])))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, out.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}
