package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/slycke/go-warmup/pkg/warmup"
)

type outputMode string

const (
	outputTable outputMode = "table"
	outputJSON  outputMode = "json"
	outputYAML  outputMode = "yaml"
)

func parseOutput(s string) (outputMode, error) {
	switch mode := outputMode(s); mode {
	case outputTable, outputJSON, outputYAML:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid output format %q: must be table, json or yaml", s)
	}
}

func (o outputMode) printStatuses(w io.Writer, statuses []warmup.Status) error {
	switch o {
	case outputJSON:
		return printJSON(w, statuses)
	case outputYAML:
		return printYAML(w, statuses)
	}

	if len(statuses) == 0 {
		_, err := fmt.Fprintln(w, "No rooms found.")
		return err
	}

	rows := [][]string{{"ID", "ROOM", "MODE", "HEATING", "CURRENT", "TARGET", "AIR"}}
	for _, st := range statuses {
		heating := "no"
		if st.HeatingActive {
			heating = "yes"
		}
		rows = append(rows, []string{
			strconv.Itoa(st.RoomID),
			st.RoomName,
			st.Mode.String(),
			heating,
			formatTemp(st, st.CurrentTemp),
			formatTemp(st, st.TargetTemp),
			formatTemp(st, st.AirTemp),
		})
	}
	return table(w, rows)
}

func (o outputMode) printResponse(w io.Writer, resp *warmup.Response) error {
	switch o {
	case outputJSON:
		_, err := fmt.Fprintln(w, string(resp.Raw))
		return err
	case outputYAML:
		var v any
		if err := json.Unmarshal(resp.Raw, &v); err != nil {
			return fmt.Errorf("format yaml: %w", err)
		}
		return printYAML(w, v)
	}
	_, err := fmt.Fprintf(w, "Command %s sent successfully.\n", resp.Method)
	return err
}

func printJSON(w io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("format json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printYAML(w io.Writer, value any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("format yaml: %w", err)
	}
	return enc.Close()
}

func table(w io.Writer, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintln(tw, joinRow(row))
	}
	return tw.Flush()
}

func joinRow(row []string) string {
	if len(row) == 0 {
		return ""
	}
	out := row[0]
	for i := 1; i < len(row); i++ {
		out += "\t" + row[i]
	}
	return out
}

// formatTemp renders "-" for rooms without a usable mode triple.
func formatTemp(st warmup.Status, celsius float64) string {
	if !st.Valid {
		return "-"
	}
	return strconv.FormatFloat(celsius, 'f', 1, 64) + "°C"
}
