package cli

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

// TableAlignment defines column alignment.
type TableAlignment int

const (
	AlignLeft TableAlignment = iota
	AlignRight
)

// TableStyle defines the table border style.
type TableStyle int

const (
	StyleDefault TableStyle = iota
	StyleSimple
	StyleCompact
)

type borderChars struct {
	topLeft, topRight, bottomLeft, bottomRight string
	horizontal, vertical, cross                string
	topT, bottomT, leftT, rightT               string
}

var borderStyles = map[TableStyle]borderChars{
	StyleDefault: {
		topLeft: "┌", topRight: "┐", bottomLeft: "└", bottomRight: "┘",
		horizontal: "─", vertical: "│", cross: "┼",
		topT: "┬", bottomT: "┴", leftT: "├", rightT: "┤",
	},
	StyleSimple: {
		topLeft: "+", topRight: "+", bottomLeft: "+", bottomRight: "+",
		horizontal: "-", vertical: "|", cross: "+",
		topT: "+", bottomT: "+", leftT: "+", rightT: "+",
	},
	StyleCompact: {
		horizontal: "─", vertical: " ", cross: " ",
	},
}

// Table renders rows of cells with aligned columns.
type Table struct {
	output           io.Writer
	headers          []string
	rows             [][]string
	columnAlignments map[int]TableAlignment
	style            TableStyle
	maxColumnWidth   int
}

// NewTable creates a table writing to output.
func NewTable(output io.Writer) *Table {
	return &Table{
		output:           output,
		columnAlignments: make(map[int]TableAlignment),
		style:            StyleDefault,
		maxColumnWidth:   60,
	}
}

func (t *Table) SetHeader(headers ...string) {
	t.headers = headers
}

func (t *Table) AppendRow(row ...string) {
	t.rows = append(t.rows, row)
}

func (t *Table) SetColumnAlignment(column int, alignment TableAlignment) {
	t.columnAlignments[column] = alignment
}

func (t *Table) SetStyle(style TableStyle) {
	t.style = style
}

func (t *Table) SetMaxColumnWidth(width int) {
	t.maxColumnWidth = width
}

// Render writes the table. An empty table writes nothing.
func (t *Table) Render() {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return
	}

	borders := borderStyles[t.style]
	widths := t.columnWidths()
	framed := t.style != StyleCompact

	if framed {
		t.renderBorder(widths, borders.topLeft, borders.topT, borders.topRight, borders.horizontal)
	}

	if len(t.headers) > 0 {
		t.renderRow(t.headers, widths, true, borders.vertical)
		t.renderBorder(widths, borders.leftT, borders.cross, borders.rightT, borders.horizontal)
	}

	for _, row := range t.rows {
		t.renderRow(row, widths, false, borders.vertical)
	}

	if framed {
		t.renderBorder(widths, borders.bottomLeft, borders.bottomT, borders.bottomRight, borders.horizontal)
	}
}

func (t *Table) columnWidths() []int {
	n := len(t.headers)
	for _, row := range t.rows {
		n = max(n, len(row))
	}

	widths := make([]int, n)
	for i, h := range t.headers {
		widths[i] = max(widths[i], visualLength(h))
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], visualLength(cell))
		}
	}

	for i := range widths {
		widths[i] = min(max(widths[i], 3), t.maxColumnWidth) + 2
	}

	return widths
}

func (t *Table) renderBorder(widths []int, left, middle, right, horizontal string) {
	var b strings.Builder

	b.WriteString(left)
	for i, w := range widths {
		b.WriteString(strings.Repeat(horizontal, w))
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right)

	fmt.Fprintln(t.output, b.String())
}

func (t *Table) renderRow(row []string, widths []int, header bool, vertical string) {
	var b strings.Builder

	if t.style != StyleCompact {
		b.WriteString(vertical)
	}

	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}

		formatted := formatCell(cell, w, t.columnAlignments[i])
		if header {
			formatted = Colorize(Bold, formatted)
		}
		b.WriteString(formatted)

		if i < len(widths)-1 || t.style != StyleCompact {
			b.WriteString(vertical)
		}
	}

	fmt.Fprintln(t.output, strings.TrimRight(b.String(), " "))
}

func formatCell(cell string, width int, align TableAlignment) string {
	if visualLength(cell) > width-2 {
		cell = truncate(cell, width-5) + "..."
	}

	padding := width - visualLength(cell)
	if padding <= 0 {
		return cell
	}

	if align == AlignRight {
		return strings.Repeat(" ", padding-1) + cell + " "
	}

	return " " + cell + strings.Repeat(" ", padding-1)
}

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

func visualLength(s string) int {
	return utf8.RuneCountInString(stripANSI(s))
}

// truncate cuts s to n visible runes. Color codes are dropped.
func truncate(s string, n int) string {
	runes := []rune(stripANSI(s))
	if len(runes) <= n {
		return string(runes)
	}

	return string(runes[:max(n, 0)])
}
