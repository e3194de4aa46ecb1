package screener

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/valuescreen/internal/models"
)

// NoResultsText is rendered in place of the table when nothing passed the screen
const NoResultsText = "No equities passed the value screen."

// tableHeaders are the rendered columns, in order
var tableHeaders = []string{"ticker", "score", "price", "pe", "roe"}

// minPadding is added to each header width, matching tabulate's "simple" layout
const minPadding = 2

// Round2 rounds a value to 2 decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RenderTable renders scored rows as a plain-text table in tabulate's "simple"
// format: header line, a dash rule per column, then one line per row. The ticker
// column is left aligned, numeric columns are right aligned with 2 decimals.
// Undefined values render as "nan".
// An empty input renders NoResultsText.
func RenderTable(rows []models.ScoredEquity) string {
	if len(rows) == 0 {
		return NoResultsText
	}

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{
			r.Ticker,
			formatNumber(r.Score),
			formatNumber(r.Price),
			formatNumber(r.PE),
			formatNumber(r.ROE),
		})
	}

	widths := make([]int, len(tableHeaders))
	for i, h := range tableHeaders {
		widths[i] = utf8.RuneCountInString(h) + minPadding
	}
	for _, row := range cells {
		for i, c := range row {
			if w := utf8.RuneCountInString(c); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder
	writeLine(&sb, tableHeaders, widths)

	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	writeLine(&sb, rule, widths)

	for _, row := range cells {
		writeLine(&sb, row, widths)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// writeLine pads each cell to its column width and joins them with two spaces.
// Column 0 is text, all others are numeric.
func writeLine(sb *strings.Builder, cells []string, widths []int) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		pad := strings.Repeat(" ", widths[i]-utf8.RuneCountInString(c))
		if i == 0 {
			parts[i] = c + pad
		} else {
			parts[i] = pad + c
		}
	}
	sb.WriteString(strings.TrimRight(strings.Join(parts, "  "), " "))
	sb.WriteString("\n")
}

// missingCell is rendered for an undefined value, as pandas prints it
const missingCell = "nan"

func formatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return missingCell
	}
	return strconv.FormatFloat(Round2(v), 'f', 2, 64)
}
