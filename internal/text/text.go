// Package text renders unified diffs between rendered manifests and what is already on disk.
package text

import (
	"bytes"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"github.com/davidmdm/ansi"
)

type DiffFunc func(from, to File, context int) string

type File struct {
	Name    string
	Content string
}

// Diff returns the unified diff turning from into to. Identical files yield an empty string.
func Diff(from, to File, context int) string {
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(from.Content),
		B:        difflib.SplitLines(to.Content),
		FromFile: from.Name,
		ToFile:   to.Name,
		Context:  context,
	})
	return diff
}

func DiffColorized(from, to File, context int) string {
	return colorize(Diff(from, to, context))
}

// Differ picks the colorized or plain diff.
func Differ(color bool) DiffFunc {
	if color {
		return DiffColorized
	}
	return Diff
}

var (
	green  = ansi.MakeStyle(ansi.FgGreen)
	red    = ansi.MakeStyle(ansi.FgRed)
	cyan   = ansi.MakeStyle(ansi.FgCyan)
	yellow = ansi.MakeStyle(ansi.FgYellow)
)

func colorize(diff string) string {
	lines := strings.Split(diff, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			lines[i] = yellow.Sprint(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = cyan.Sprint(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = green.Sprint(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = red.Sprint(line)
		}
	}
	return strings.Join(lines, "\n")
}

// YAMLFile encodes value the same way the directory sink writes it.
func YAMLFile(name string, value any) (File, error) {
	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(2)
	if err := encoder.Encode(value); err != nil {
		return File{}, err
	}
	if err := encoder.Close(); err != nil {
		return File{}, err
	}
	return File{Name: name, Content: buffer.String()}, nil
}
