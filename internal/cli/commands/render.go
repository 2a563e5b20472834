package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/querypad/internal/query"
)

// renderOutcomes writes one section per statement outcome.
func renderOutcomes(w io.Writer, outcomes []query.StatementOutcome, format string) error {
	if format == "json" {
		return renderJSON(w, outcomes)
	}

	for i, o := range outcomes {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		if !o.HasRows {
			_, _ = fmt.Fprintf(w, "(%d rows affected, %d ms)\n", o.AffectedRows, o.ElapsedMS)
			continue
		}

		switch format {
		case "csv":
			renderCSV(w, o)
		case "md", "markdown":
			renderMarkdown(w, o)
		default:
			renderTable(w, o)
		}
	}
	return nil
}

func renderTable(w io.Writer, o query.StatementOutcome) {
	if len(o.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(o.Columns))
	for i, col := range o.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, row := range o.Rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = v
		}
		t.AppendRow(tr)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows, %d ms)\n", o.RowCount, o.ElapsedMS)
}

type outcomeJSON struct {
	Columns      []string            `json:"columns,omitempty"`
	Rows         []map[string]string `json:"rows,omitempty"`
	RowCount     int64               `json:"row_count,omitempty"`
	AffectedRows int64               `json:"affected_rows,omitempty"`
	ElapsedMS    int64               `json:"elapsed_ms"`
}

func renderJSON(w io.Writer, outcomes []query.StatementOutcome) error {
	out := make([]outcomeJSON, 0, len(outcomes))
	for _, o := range outcomes {
		oj := outcomeJSON{ElapsedMS: o.ElapsedMS}
		if o.HasRows {
			oj.Columns = o.Columns
			oj.RowCount = o.RowCount
			oj.Rows = make([]map[string]string, 0, len(o.Rows))
			for _, row := range o.Rows {
				m := make(map[string]string, len(o.Columns))
				for i, col := range o.Columns {
					m[col] = row[i]
				}
				oj.Rows = append(oj.Rows, m)
			}
		} else {
			oj.AffectedRows = o.AffectedRows
		}
		out = append(out, oj)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderCSV(w io.Writer, o query.StatementOutcome) {
	_, _ = fmt.Fprintln(w, strings.Join(o.Columns, ","))
	for _, row := range o.Rows {
		values := make([]string, len(row))
		for i, v := range row {
			values[i] = escapeCSV(v)
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
}

func renderMarkdown(w io.Writer, o query.StatementOutcome) {
	if len(o.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(o.Columns, " | "))
	seps := make([]string, len(o.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, row := range o.Rows {
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(row, " | "))
	}
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
