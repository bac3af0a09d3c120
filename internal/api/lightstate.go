package api

import (
	"context"
	"fmt"

	"github.com/angristan/fluenthue/internal/models"
)

// LightState is the on/off, brightness and color state of a light.
//
// Mutators write the whole state back to the bridge. The new value is staged,
// sent, and only copied into the LightState after the bridge accepted it, so
// a failed write leaves the object unchanged.
type LightState struct {
	fields stateFields

	// back-references, not owned
	light  *Light
	bridge *Bridge
}

func newLightState(light *Light, fields stateFields) *LightState {
	return &LightState{fields: fields, light: light, bridge: light.bridge}
}

// IsOn reports whether the light is on
func (s *LightState) IsOn() bool {
	return s.fields.IsOn
}

// Brightness returns the brightness on a 1-254 scale
func (s *LightState) Brightness() uint8 {
	return s.fields.Brightness
}

// ColorX returns the CIE x coordinate
func (s *LightState) ColorX() float64 {
	return s.fields.Color.X
}

// ColorY returns the CIE y coordinate
func (s *LightState) ColorY() float64 {
	return s.fields.Color.Y
}

// Color returns both CIE coordinates
func (s *LightState) Color() models.XY {
	return s.fields.Color
}

// SupportsColor reports whether the light reported a color or was given one
func (s *LightState) SupportsColor() bool {
	return s.fields.HasColor
}

// End returns to the light
func (s *LightState) End() *Light {
	return s.light
}

// ToggleAsync flips the light on or off
func (s *LightState) ToggleAsync(ctx context.Context) *Future[*LightState] {
	return Go(ctx, "toggle light", func(ctx context.Context) (*LightState, error) {
		next := s.fields
		next.IsOn = !next.IsOn
		return s.apply(ctx, next)
	})
}

// Toggle is the blocking form of ToggleAsync
func (s *LightState) Toggle(ctx context.Context) (*LightState, error) {
	return Await(s.ToggleAsync(ctx))
}

// SetStateAsync turns the light on or off. Nothing is sent when the light is
// already in the requested state.
func (s *LightState) SetStateAsync(ctx context.Context, isOn bool) *Future[*LightState] {
	if s.fields.IsOn == isOn {
		return Resolved("set light state", s, nil)
	}
	return s.ToggleAsync(ctx)
}

// SetState is the blocking form of SetStateAsync
func (s *LightState) SetState(ctx context.Context, isOn bool) (*LightState, error) {
	return Await(s.SetStateAsync(ctx, isOn))
}

// SetBrightnessAsync sets the brightness; value must be within 1-254
func (s *LightState) SetBrightnessAsync(ctx context.Context, value int) *Future[*LightState] {
	return Go(ctx, "set brightness", func(ctx context.Context) (*LightState, error) {
		if !models.ValidBrightness(value) {
			return nil, fmt.Errorf("%w: brightness must be within %d-%d, got %d",
				ErrOutOfRange, models.MinBrightness, models.MaxBrightness, value)
		}
		next := s.fields
		next.Brightness = uint8(value)
		next.HasBrightness = true
		return s.apply(ctx, next)
	})
}

// SetBrightness is the blocking form of SetBrightnessAsync
func (s *LightState) SetBrightness(ctx context.Context, value int) (*LightState, error) {
	return Await(s.SetBrightnessAsync(ctx, value))
}

// SetColorAsync sets the CIE xy color; both coordinates must be within [0, 1]
func (s *LightState) SetColorAsync(ctx context.Context, x, y float64) *Future[*LightState] {
	return Go(ctx, "set color", func(ctx context.Context) (*LightState, error) {
		if !models.ValidCoordinate(x) {
			return nil, fmt.Errorf("%w: color x must be within 0-1, got %v", ErrOutOfRange, x)
		}
		if !models.ValidCoordinate(y) {
			return nil, fmt.Errorf("%w: color y must be within 0-1, got %v", ErrOutOfRange, y)
		}
		next := s.fields
		next.Color = models.XY{X: x, Y: y}
		next.HasColor = true
		return s.apply(ctx, next)
	})
}

// SetColor is the blocking form of SetColorAsync
func (s *LightState) SetColor(ctx context.Context, x, y float64) (*LightState, error) {
	return Await(s.SetColorAsync(ctx, x, y))
}

// SetColorRGBAsync sets the color from RGB, converted to CIE xy
func (s *LightState) SetColorRGBAsync(ctx context.Context, r, g, b uint8) *Future[*LightState] {
	c := models.RGBToXY(r, g, b)
	return s.SetColorAsync(ctx, c.X, c.Y)
}

// SetColorRGB is the blocking form of SetColorRGBAsync
func (s *LightState) SetColorRGB(ctx context.Context, r, g, b uint8) (*LightState, error) {
	return Await(s.SetColorRGBAsync(ctx, r, g, b))
}

// apply writes next to the bridge and commits it locally on success
func (s *LightState) apply(ctx context.Context, next stateFields) (*LightState, error) {
	t, err := s.bridge.authenticated()
	if err != nil {
		return nil, err
	}

	resp, err := t.Put(ctx, s.light.path()+"/state", next.contract())
	if err != nil {
		return nil, fmt.Errorf("failed to set light state: %w", err)
	}
	if err := checkResponse("set light state", resp); err != nil {
		return nil, err
	}

	s.fields = next
	return s, nil
}
