package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// EmptyState is written by Format when there are no tables.
const EmptyState = "(no entities)"

// Format writes the tables as aligned box-drawn text. Column widths are
// measured in terminal cells so wide runes line up.
func Format(w io.Writer, tables []EntityTable) error {
	if len(tables) == 0 {
		_, err := fmt.Fprintln(w, EmptyState)
		return err
	}

	for i, t := range tables {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := formatOne(w, t); err != nil {
			return err
		}
	}
	return nil
}

// String is Format into a string.
func String(tables []EntityTable) string {
	var sb strings.Builder
	_ = Format(&sb, tables)
	return sb.String()
}

func formatOne(w io.Writer, t EntityTable) error {
	title := t.Title
	if t.Kind != "" {
		title = fmt.Sprintf("%s (%s)", t.Title, t.Kind)
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}

	rows := make([][]string, len(t.Attributes))
	for i, a := range t.Attributes {
		rows[i] = []string{a.Name, a.Type, a.RequiredText()}
	}
	if err := writeGrid(w, []string{"Field", "Type", "Required"}, rows); err != nil {
		return err
	}

	if len(t.Relations) == 0 {
		return nil
	}

	rows = make([][]string, len(t.Relations))
	for i, r := range t.Relations {
		rows[i] = []string{r.From, r.To, r.Cardinality}
	}
	return writeGrid(w, []string{"From", "To", "Type"}, rows)
}

func writeGrid(w io.Writer, headers []string, rows [][]string) error {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	var sb strings.Builder
	rule := func(left, mid, right string) {
		sb.WriteString(left)
		for i, cw := range widths {
			if i > 0 {
				sb.WriteString(mid)
			}
			sb.WriteString(strings.Repeat("─", cw+2))
		}
		sb.WriteString(right + "\n")
	}
	line := func(cells []string) {
		sb.WriteString("│")
		for i, cw := range widths {
			sb.WriteString(" " + runewidth.FillRight(cells[i], cw) + " │")
		}
		sb.WriteString("\n")
	}

	rule("┌", "┬", "┐")
	line(headers)
	rule("├", "┼", "┤")
	for _, row := range rows {
		line(row)
	}
	rule("└", "┴", "┘")

	_, err := io.WriteString(w, sb.String())
	return err
}
