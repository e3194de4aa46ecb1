package report

import (
	"fmt"
	"strings"

	"github.com/ternarybob/valuescreen/internal/services/screener"
	"github.com/ternarybob/valuescreen/internal/signals"
)

const dateLayout = "2006-01-02"

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// FormatMessage renders the report as the Markdown message sent to every sink:
// header with the run date, the screener table in a code block, then the signal block.
func FormatMessage(r *Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 *Weekly Value Screener Results* (%s)\n\n", r.GeneratedAt.Format(dateLayout)))

	if len(r.Equities) == 0 {
		b.WriteString(screener.NoResultsText)
		b.WriteString("\n\n")
	} else {
		b.WriteString("```\n")
		b.WriteString(screener.RenderTable(r.Equities))
		b.WriteString("\n```\n\n")
	}

	b.WriteString(formatSignal(r.Signal))
	return b.String()
}

func formatSignal(s signals.SignalResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("*%s SMA band signal* (%d closes to %s)\n",
		markdownEscaper.Replace(s.Symbol), s.Points, s.LatestDate.Format(dateLayout)))
	b.WriteString(fmt.Sprintf("• Average: %.2f$\n", screener.Round2(s.AveragePrice)))
	b.WriteString(fmt.Sprintf("• Latest: %.2f$\n", screener.Round2(s.LatestPrice)))
	b.WriteString(fmt.Sprintf("• Signal: %s\n", s.Signal))
	b.WriteString(fmt.Sprintf("• Trigger: %s", s.Condition))
	return b.String()
}
