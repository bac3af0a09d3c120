package components

import (
	"strings"

	"github.com/angristan/fluenthue/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// barWidth is the number of segments in a brightness bar
const barWidth = 10

// RenderBrightnessBar renders a brightness indicator bar for a percentage
func RenderBrightnessBar(brightness int, on bool) string {
	if !on {
		// All empty when off
		return styles.StyleBrightnessBarEmpty.Render(strings.Repeat("─", barWidth))
	}

	var b strings.Builder
	segments := (brightness * barWidth) / 100
	if brightness > 0 && segments == 0 {
		segments = 1
	}

	for i := 1; i <= barWidth; i++ {
		if i <= segments {
			color := styles.GetBrightnessColor(i, brightness)
			b.WriteString(lipgloss.NewStyle().Foreground(color).Render("█"))
		} else {
			b.WriteString(styles.StyleBrightnessBarEmpty.Render("─"))
		}
	}

	return b.String()
}
