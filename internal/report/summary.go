package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorBlue  = "#58a6ff"
	colorGreen = "#3fb950"
	colorRed   = "#f85149"
	colorGray  = "#8b949e"
	colorText  = "#c9d1d9"
)

// section groups report keys under a heading in the printed summary.
type section struct {
	title string
	keys  []string
}

var sections = []section{
	{"Richness", []string{
		KeyRelationshipRichness, KeyInheritanceRichness, KeySubclassSum, KeySubclassMean,
		KeyInheritanceDepth, KeyObjectProperties, KeyDatatypeProperties, KeyTotalProperties,
	}},
	{"Cohesion Metrics", []string{KeyRoots, KeyLeaves, KeyADIT}},
	{"Consistency", []string{KeyConsistency}},
	{"Computational Efficiency", []string{KeyLoadTime, KeyReasoningTime, KeyQuery1, KeyQuery2, KeyQuery3}},
}

type summaryStyles struct {
	title   lipgloss.Style
	heading lipgloss.Style
	key     lipgloss.Style
	value   lipgloss.Style
	good    lipgloss.Style
	bad     lipgloss.Style
	box     lipgloss.Style
}

func newSummaryStyles() summaryStyles {
	return summaryStyles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorBlue)),
		heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorText)).MarginTop(1),
		key:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)).Width(60),
		value:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorText)),
		good:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorGreen)),
		bad:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorRed)),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorGray)).
			Padding(0, 1),
	}
}

// PrintSummary writes a human-readable, styled rendering of the report.
func (r *Report) PrintSummary(w io.Writer, title string) {
	st := newSummaryStyles()
	var body string
	body += st.title.Render(title)
	for _, sec := range sections {
		body += "\n" + st.heading.Render(sec.title)
		for _, k := range sec.keys {
			v, _ := r.Get(k)
			val := st.value.Render(formatValue(v))
			if k == KeyConsistency {
				if v == 1 {
					val = st.good.Render("1 (consistent)")
				} else {
					val = st.bad.Render("0")
				}
			}
			body += "\n" + st.key.Render(k) + val
		}
	}
	fmt.Fprintln(w, st.box.Render(body))
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case float64:
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprint(x)
	}
}
