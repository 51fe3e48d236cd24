package ui

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/vietdv277/shotty/internal/dispatch"
)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// TableSink buffers rows and renders them as a bordered table on Flush.
// It satisfies dispatch.SinkFactory.
func TableSink(out io.Writer, headers []string, _ string) dispatch.RowSink {
	return &tableSink{
		out:      out,
		headers:  headers,
		stateCol: slices.Index(headers, "State"),
	}
}

type tableSink struct {
	out      io.Writer
	headers  []string
	rows     [][]string
	stateCol int
}

func (t *tableSink) Row(fields ...string) error {
	t.rows = append(t.rows, fields)
	return nil
}

func (t *tableSink) Flush() error {
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(BorderStyle).
		Headers(t.headers...).
		Rows(t.rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return cellStyle.Inherit(HeaderStyle)
			case col == 0:
				return cellStyle.Inherit(IDStyle)
			case col == t.stateCol && row < len(t.rows):
				return cellStyle.Inherit(StateStyle(t.rows[row][col]))
			default:
				return cellStyle.Inherit(TextStyle)
			}
		})

	if _, err := fmt.Fprintln(t.out, tbl.Render()); err != nil {
		return err
	}

	_, err := fmt.Fprintln(t.out, t.summary())
	return err
}

// summary counts rows by state, e.g. "  3 rows (2 running, 1 stopped)"
func (t *tableSink) summary() string {
	summary := fmt.Sprintf("  %d rows", len(t.rows))
	if t.stateCol < 0 || len(t.rows) == 0 {
		return summary
	}

	counts := make(map[string]int)
	var order []string
	for _, r := range t.rows {
		if t.stateCol >= len(r) {
			continue
		}
		state := r[t.stateCol]
		if counts[state] == 0 {
			order = append(order, state)
		}
		counts[state]++
	}

	parts := make([]string, 0, len(order))
	for _, state := range order {
		parts = append(parts, StateStyle(state).Render(fmt.Sprintf("%d %s", counts[state], state)))
	}
	return summary + " (" + strings.Join(parts, ", ") + ")"
}
