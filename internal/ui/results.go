package ui

import (
	"fmt"
	"strings"
)

// ResultView is one search hit prepared for rendering.
type ResultView struct {
	Rank     int
	DocID    string
	Source   string
	Strategy string
	Score    float64
}

// RenderResults formats search hits for the terminal, one line per hit.
func RenderResults(hits []ResultView, st Styles) string {
	if len(hits) == 0 {
		return st.Dim.Render("No results found.") + "\n"
	}

	var b strings.Builder
	for _, hit := range hits {
		source := hit.Source
		if source == "" {
			source = hit.DocID
		}
		b.WriteString(fmt.Sprintf("%s %s %s %s\n",
			st.Rank.Render(fmt.Sprintf("%2d.", hit.Rank)),
			st.Source.Render(source),
			st.Strategy.Render("["+hit.Strategy+"]"),
			st.Score.Render(fmt.Sprintf("score=%.2f", hit.Score)),
		))
	}
	return b.String()
}
