package components

import (
	"fmt"

	"github.com/angristan/fluenthue/internal/models"
	"github.com/angristan/fluenthue/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// LightView is what a light card shows; it is a copy, never shared with a
// pending operation
type LightView struct {
	Name       string
	Type       string
	On         bool
	Brightness uint8
	Color      models.XY
	HasColor   bool
	// Reachable is false when the state could not be read
	Reachable bool
	// Busy is true while an operation on the light is in flight
	Busy bool
}

// RenderLightCard renders a single light card
func RenderLightCard(light LightView, selected bool, maxWidth int) string {
	// Status indicator
	statusIcon := "○"
	statusStyle := styles.StyleStatusOff
	switch {
	case !light.Reachable:
		statusIcon = "?"
		statusStyle = styles.StyleStatusUnreachable
	case light.On:
		statusIcon = "●"
		statusStyle = styles.StyleStatusOn
	}

	// Color swatch (if color light)
	colorIndicator := ""
	if light.HasColor && light.On {
		colorStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(light.Color.Hex(light.Brightness)))
		colorIndicator = colorStyle.Render(" ◆")
	}

	busy := ""
	if light.Busy {
		busy = styles.StyleLightMeta.Render(" …")
	}

	// Name styling based on state
	nameStyle := styles.StyleLightName
	if !light.On {
		nameStyle = styles.StyleLightNameDim
	}

	// First line: status + name + color
	line1 := fmt.Sprintf("%s %s%s%s", statusStyle.Render(statusIcon), nameStyle.Render(light.Name), colorIndicator, busy)

	// Second line: brightness bar
	pct := models.BrightnessPct(light.Brightness)
	line2 := fmt.Sprintf("  %s %3d%%", RenderBrightnessBar(pct, light.On), pct)

	// Third line: light type
	line3 := "  " + styles.StyleLightMeta.Render(light.Type)

	content := line1 + "\n" + line2 + "\n" + line3

	// Card style based on selection
	cardStyle := styles.StyleLightCard
	if selected {
		cardStyle = styles.StyleLightCardSelected
	}

	// Keep the card width within bounds
	cardWidth := maxWidth / 2
	if cardWidth < 28 {
		cardWidth = 28
	}
	if cardWidth > 48 {
		cardWidth = 48
	}

	return cardStyle.Width(cardWidth).Render(content)
}
