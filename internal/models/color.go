package models

import (
	"math"
)

// XY is a color in the CIE 1931 xy chromaticity space
type XY struct {
	X float64
	Y float64
}

// D65 white point, used when a color cannot be derived
var D65 = XY{X: 0.3127, Y: 0.3290}

// XYFromArray converts the two-element wire array into an XY pair.
// Arrays with fewer than two elements yield the zero color.
func XYFromArray(a []float64) XY {
	if len(a) < 2 {
		return XY{}
	}
	return XY{X: a[0], Y: a[1]}
}

// Array converts the pair back into the two-element wire array
func (c XY) Array() []float64 {
	return []float64{c.X, c.Y}
}

// Valid reports whether both coordinates are within [0, 1]
func (c XY) Valid() bool {
	return ValidCoordinate(c.X) && ValidCoordinate(c.Y)
}

// ValidCoordinate reports whether a single CIE coordinate is within [0, 1]
func ValidCoordinate(v float64) bool {
	return v >= 0 && v <= 1
}

// RGB converts the color to RGB (0-255 each) at the given bridge brightness.
// Uses the Wide RGB D65 conversion matrix with gamma correction.
func (c XY) RGB(brightness uint8) (r, g, b uint8) {
	// Avoid division by zero
	if c.Y == 0 {
		return 255, 255, 255
	}

	// Using brightness as Y (luminance)
	Y := float64(brightness) / 254.0
	X := (Y / c.Y) * c.X
	Z := (Y / c.Y) * (1 - c.X - c.Y)

	rf := X*1.656492 - Y*0.354851 - Z*0.255038
	gf := -X*0.707196 + Y*1.655397 + Z*0.036152
	bf := X*0.051713 - Y*0.121364 + Z*1.011530

	// Scale down so the brightest channel fits
	if m := math.Max(rf, math.Max(gf, bf)); m > 1 {
		rf, gf, bf = rf/m, gf/m, bf/m
	}

	return clampTo255(reverseGamma(rf)), clampTo255(reverseGamma(gf)), clampTo255(reverseGamma(bf))
}

// Hex returns the color as a hex string (e.g., "#FF0000")
func (c XY) Hex(brightness uint8) string {
	r, g, b := c.RGB(brightness)
	return "#" + hexByte(r) + hexByte(g) + hexByte(b)
}

// reverseGamma applies reverse gamma correction for sRGB
func reverseGamma(value float64) float64 {
	if value <= 0.0031308 {
		return 12.92 * value
	}
	return 1.055*math.Pow(value, 1.0/2.4) - 0.055
}

// clampTo255 clamps a float to 0-255 range and rounds it to uint8
func clampTo255(value float64) uint8 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 255
	}
	return uint8(math.Round(value * 255))
}

// RGBToXY converts RGB to CIE 1931 XY color space
func RGBToXY(r, g, b uint8) XY {
	rf := applyGamma(float64(r) / 255.0)
	gf := applyGamma(float64(g) / 255.0)
	bf := applyGamma(float64(b) / 255.0)

	// Convert to XYZ using Wide RGB D65 matrix
	X := rf*0.664511 + gf*0.154324 + bf*0.162028
	Y := rf*0.283881 + gf*0.668433 + bf*0.047685
	Z := rf*0.000088 + gf*0.072310 + bf*0.986039

	sum := X + Y + Z
	if sum == 0 {
		return D65
	}

	return XY{X: X / sum, Y: Y / sum}
}

// applyGamma applies gamma correction for sRGB
func applyGamma(value float64) float64 {
	if value > 0.04045 {
		return math.Pow((value+0.055)/1.055, 2.4)
	}
	return value / 12.92
}

func hexByte(b uint8) string {
	const hex = "0123456789ABCDEF"
	return string([]byte{hex[b>>4], hex[b&0x0F]})
}
