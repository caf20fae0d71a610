package internal

import (
	"slices"
	"strings"

	"github.com/davidmdm/ansi"
)

// CutArgs splits args around the first "--": flags before it and the container command after it.
func CutArgs(args []string) (flags, command []string) {
	idx := slices.Index(args, "--")
	if idx < 0 {
		return args, nil
	}
	return args[:idx], args[idx+1:]
}

var (
	cyan   = ansi.MakeStyle(ansi.FgCyan)
	yellow = ansi.MakeStyle(ansi.FgYellow)
	green  = ansi.MakeStyle(ansi.FgGreen)
)

// Colorize styles help text. A line starting with a marker such as "!cyan" is printed
// in that color without the marker.
func Colorize(help string) string {
	lines := strings.Split(help, "\n")
	for i, line := range lines {
		marker, rest, ok := strings.Cut(line, " ")
		if !ok || !strings.HasPrefix(marker, "!") {
			continue
		}
		switch marker {
		case "!cyan":
			lines[i] = cyan.Sprint(rest)
		case "!yellow":
			lines[i] = yellow.Sprint(rest)
		case "!green":
			lines[i] = green.Sprint(rest)
		default:
			lines[i] = rest
		}
	}
	return strings.Join(lines, "\n")
}
