// Package render turns report results into terminal text. It is view glue:
// nothing here feeds back into the engine.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/ledgerlens/ledgerlens"
	"github.com/ledgerlens/ledgerlens/engine"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	noteStyle   = lipgloss.NewStyle().Italic(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	valueStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
)

// Options controls rendering.
type Options struct {
	// Styled enables lipgloss styling; leave false when stdout is not a
	// terminal.
	Styled bool
}

func (o Options) style(s lipgloss.Style, text string) string {
	if !o.Styled {
		return text
	}

	return s.Render(text)
}

// Result renders a full report result: title, table, metric series, notes.
func Result(res *ledgerlens.Result, opts Options) string {
	var sections []string

	if res.Title != "" {
		sections = append(sections, opts.style(titleStyle, res.Title))
	}

	if !res.Validation.Valid {
		sections = append(sections, opts.style(warnStyle, "warning: "+res.Validation.Warning))
	}

	if len(res.Columns) > 0 {
		sections = append(sections, Table(res.Columns, res.Rows, opts))
	}

	if res.Formula != nil {
		sections = append(sections, Formula(res.Formula, opts))
	}

	return strings.Join(sections, "\n\n") + "\n"
}

// Table renders row views as a fixed-width text table.
func Table(columns []string, rows []engine.RowView, opts Options) string {
	if len(rows) == 0 {
		return "(no rows)"
	}

	widths := lo.Map(columns, func(col string, _ int) int { return len(col) })

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(columns))
		for j, col := range columns {
			cell := formatCell(row.Display[col])
			cells[i][j] = cell

			if len(cell) > widths[j] {
				widths[j] = len(cell)
			}
		}
	}

	var b strings.Builder

	header := make([]string, len(columns))
	for j, col := range columns {
		header[j] = pad(col, widths[j])
	}
	b.WriteString(opts.style(headerStyle, strings.TrimRight(strings.Join(header, "  "), " ")))
	b.WriteString("\n")

	for _, row := range cells {
		line := make([]string, len(row))
		for j, cell := range row {
			line[j] = pad(cell, widths[j])
		}
		b.WriteString(strings.TrimRight(strings.Join(line, "  "), " "))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "(%d rows)", len(rows))

	return b.String()
}

// Formula renders a formula result: headline value, series, and any note.
func Formula(formula *engine.FormulaResult, opts Options) string {
	var b strings.Builder

	if formula.Note != "" {
		b.WriteString(opts.style(noteStyle, "note: "+formula.Note))

		return b.String()
	}

	headline := "—"
	if formula.Value != nil {
		headline = formatNumber(*formula.Value, formula.Kind)
	}
	b.WriteString("value: " + opts.style(valueStyle, headline))

	if len(formula.Series) > 0 {
		b.WriteString("\n")

		width := lo.Max(lo.Map(formula.Series, func(p engine.SeriesPoint, _ int) int { return len(p.Date) }))
		for _, p := range formula.Series {
			fmt.Fprintf(&b, "\n%s  %s", pad(p.Date, width), formatNumber(p.Value, formula.Kind))
		}
	}

	return b.String()
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}

	return s + strings.Repeat(" ", width-len(s))
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return "—"
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return formatNumber(val, "number")
	default:
		return fmt.Sprintf("%v", val)
	}
}

func formatNumber(v float64, kind string) string {
	var s string
	if v == float64(int64(v)) {
		s = strconv.FormatInt(int64(v), 10)
	} else {
		s = strconv.FormatFloat(v, 'f', 2, 64)
	}

	if kind == "currency" {
		return "$" + s
	}

	return s
}
