package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/piyush182004/Fynd/pkg/dashboard"
)

const barWidth = 30

func renderText(w io.Writer, v dashboard.View) {
	if v.Phase == dashboard.PhaseError {
		fmt.Fprintln(w, v.Error)
		return
	}

	fmt.Fprintf(w, "Total Reviews: %s   Average Rating: %s\n\n", humanize.Comma(int64(v.Total)), v.Average)

	fmt.Fprintln(w, "Distribution")
	peak := 0
	for _, p := range v.Chart {
		peak = max(peak, p.Count)
	}
	for _, p := range v.Chart {
		n := 0
		if peak > 0 {
			n = p.Count * barWidth / peak
		}
		fmt.Fprintf(w, "  %-7s %-*s %d\n", p.Label, barWidth, strings.Repeat("█", n), p.Count)
	}
	fmt.Fprintln(w)

	labels := make([]string, 0, len(v.FilterCounts))
	for _, fc := range v.FilterCounts {
		label := fmt.Sprintf("%s (%d)", fc.Label, fc.Count)
		if fc.Active {
			label = "[" + label + "]"
		}
		labels = append(labels, label)
	}
	fmt.Fprintln(w, strings.Join(labels, "  "))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Reviews (%d)\n", len(v.Reviews))
	if v.Phase == dashboard.PhaseEmpty {
		fmt.Fprintln(w, "  No reviews yet")
		return
	}
	for _, r := range v.Reviews {
		fmt.Fprintf(w, "\n#%d  %d Star  %s (%s)\n", r.ID, r.Rating,
			r.CreatedAt.UTC().Format("2006-01-02 15:04"), humanize.Time(r.CreatedAt.Time))
		fmt.Fprintf(w, "  %s\n", r.Review)
		if r.AISummary != "" {
			fmt.Fprintf(w, "  Summary:  %s\n", r.AISummary)
		}
		if r.AIResponse != "" {
			fmt.Fprintf(w, "  Response: %s\n", r.AIResponse)
		}
		if r.AIAction != "" {
			fmt.Fprintf(w, "  Action:   %s\n", r.AIAction)
		}
	}
}
