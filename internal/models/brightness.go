package models

// Brightness bounds accepted by the bridge. 0 and 255 are rejected.
const (
	MinBrightness = 1
	MaxBrightness = 254
)

// ValidBrightness reports whether v is within the inclusive range 1-254
func ValidBrightness(v int) bool {
	return v >= MinBrightness && v <= MaxBrightness
}

// BrightnessPct returns the brightness as a percentage (0-100)
func BrightnessPct(b uint8) int {
	return int(float64(b) / MaxBrightness * 100)
}

// BrightnessFromPct converts a percentage to a bridge brightness, clamped to 1-254
func BrightnessFromPct(pct int) uint8 {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	b := int(float64(pct) / 100.0 * MaxBrightness)
	if b < MinBrightness {
		b = MinBrightness
	}
	return uint8(b)
}
