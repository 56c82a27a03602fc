// Package heatmap renders heatmap cells as a strip of shaded blocks.
package heatmap

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/tally/internal/stats"
)

// Block characters and colours per bucket, from "nothing" to "75% or more"
var (
	plainGlyphs = [5]string{"·", "░", "▒", "▓", "█"}
	colors      = [5]lipgloss.Color{"238", "22", "28", "34", "40"}
)

// Glyph returns the uncoloured character for a bucket.
func Glyph(bucket int) string {
	return plainGlyphs[clamp(bucket)]
}

// Strip renders one block per day, oldest first. With plain set no ANSI styling is emitted.
func Strip(cells []stats.HeatmapDay, plain bool) string {
	var b strings.Builder
	for _, c := range cells {
		if plain {
			b.WriteString(Glyph(c.Bucket))
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(colors[clamp(c.Bucket)]).Render("■"))
	}
	return b.String()
}

// Legend describes the buckets in the same glyphs Strip uses.
func Legend(plain bool) string {
	parts := make([]string, 0, len(colors))
	for i := range colors {
		cell := []stats.HeatmapDay{{Bucket: i}}
		parts = append(parts, Strip(cell, plain))
	}
	return "less " + strings.Join(parts, "") + " more"
}

func clamp(bucket int) int {
	return max(0, min(len(colors)-1, bucket))
}
