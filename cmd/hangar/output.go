package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"sigs.k8s.io/yaml"
)

type outputFormat string

const (
	outputTable outputFormat = "table"
	outputJSON  outputFormat = "json"
	outputYAML  outputFormat = "yaml"
)

func (format *outputFormat) String() string { return string(*format) }

func (format *outputFormat) Set(value string) error {
	switch outputFormat(value) {
	case outputTable, outputJSON, outputYAML:
		*format = outputFormat(value)
		return nil
	default:
		return fmt.Errorf("invalid output format %q: must be one of table, json, yaml", value)
	}
}

// write renders value in the requested format. The table is only built for table output.
func (format outputFormat) write(w io.Writer, value any, tbl func() table.Writer) error {
	switch format {
	case outputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	case outputYAML:
		data, err := yaml.Marshal(value)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		writer := tbl()
		writer.SetStyle(table.StyleRounded)
		_, err := fmt.Fprintln(w, writer.Render())
		return err
	}
}
