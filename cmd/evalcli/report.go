package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/songquanpeng/prompt-studio/common/helper"
)

type report struct {
	metrics     []string
	results     []modelResult
	failedCount int
}

// buildReport collects the score names across successful runs in first-seen order.
func buildReport(results []modelResult) report {
	rep := report{results: results}
	seen := map[string]bool{}
	for _, res := range results {
		if res.Err != nil {
			rep.failedCount++
			continue
		}
		for _, out := range res.Record.Summary {
			for _, s := range out.DatasetScores {
				if !seen[s.Name] {
					seen[s.Name] = true
					rep.metrics = append(rep.metrics, s.Name)
				}
			}
		}
	}
	return rep
}

// renderReport prints one row per model and one column per score.
func renderReport(w io.Writer, rep report) {
	if len(rep.results) == 0 {
		fmt.Fprintln(w, "no models to report")
		return
	}

	header := append([]string{"Model"}, rep.metrics...)
	header = append(header, "Records", "Time", "Error")

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	for _, res := range rep.results {
		row := []string{res.Model}
		if res.Err != nil {
			for range rep.metrics {
				row = append(row, "-")
			}
			row = append(row, "-", helper.FormatDuration(res.Duration), helper.Snippet([]byte(res.Err.Error()), 80))
			table.Append(row)
			continue
		}

		scores := map[string]float64{}
		for _, out := range res.Record.Summary {
			for _, s := range out.DatasetScores {
				scores[s.Name] = s.Value
			}
		}
		for _, m := range rep.metrics {
			if v, ok := scores[m]; ok {
				row = append(row, strconv.FormatFloat(v, 'f', 4, 64))
			} else {
				row = append(row, "-")
			}
		}
		row = append(row, strconv.Itoa(res.Record.NumRecords), helper.FormatDuration(res.Record.TimeTaken), "")
		table.Append(row)
	}

	fmt.Fprintln(w)
	table.Render()
	fmt.Fprintf(w, "\n%d succeeded, %d failed\n", len(rep.results)-rep.failedCount, rep.failedCount)
}
