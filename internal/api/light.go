package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Light represents a Philips Hue light bulb connected to a bridge
type Light struct {
	id        string
	name      string
	lightType string
	modelID   string
	uniqueID  string

	// bridge is a back-reference; the light does not own it
	bridge *Bridge
}

func newLight(bridge *Bridge, id string, c lightContract) *Light {
	return &Light{
		id:        id,
		name:      c.Name,
		lightType: c.Type,
		modelID:   c.ModelID,
		uniqueID:  c.UniqueID,
		bridge:    bridge,
	}
}

// ID returns the identifier the bridge uses for this light
func (l *Light) ID() string {
	return l.id
}

// Name returns the user-facing name
func (l *Light) Name() string {
	return l.name
}

// Type returns the bridge's light type (e.g. "Extended color light")
func (l *Light) Type() string {
	return l.lightType
}

// ModelID returns the hardware model (e.g. "LCT015")
func (l *Light) ModelID() string {
	return l.modelID
}

// UniqueID returns the Zigbee MAC based unique id
func (l *Light) UniqueID() string {
	return l.uniqueID
}

// End returns to the bridge
func (l *Light) End() *Bridge {
	return l.bridge
}

func (l *Light) path() string {
	return "lights/" + url.PathEscape(l.id)
}

// RenameAsync renames the light on the bridge. The local name only changes
// once the bridge has accepted it.
func (l *Light) RenameAsync(ctx context.Context, name string) *Future[*Light] {
	return Go(ctx, "rename light", func(ctx context.Context) (*Light, error) {
		t, err := l.bridge.authenticated()
		if err != nil {
			return nil, err
		}
		if err := requireNotBlank("name", name); err != nil {
			return nil, err
		}

		resp, err := t.Put(ctx, l.path(), renameContract{Name: name})
		if err != nil {
			return nil, fmt.Errorf("failed to rename light: %w", err)
		}
		if err := checkResponse("rename light", resp); err != nil {
			return nil, err
		}

		l.name = name
		return l, nil
	})
}

// Rename is the blocking form of RenameAsync
func (l *Light) Rename(ctx context.Context, name string) (*Light, error) {
	return Await(l.RenameAsync(ctx, name))
}

// GetCurrentStateAsync fetches the light's current state. Every call returns
// a new LightState.
func (l *Light) GetCurrentStateAsync(ctx context.Context) *Future[*LightState] {
	return Go(ctx, "get light state", l.getCurrentState)
}

// GetCurrentState is the blocking form of GetCurrentStateAsync
func (l *Light) GetCurrentState(ctx context.Context) (*LightState, error) {
	return Await(l.GetCurrentStateAsync(ctx))
}

func (l *Light) getCurrentState(ctx context.Context) (*LightState, error) {
	t, err := l.bridge.authenticated()
	if err != nil {
		return nil, err
	}

	resp, err := t.Get(ctx, l.path())
	if err != nil {
		return nil, fmt.Errorf("failed to get light state: %w", err)
	}
	if err := checkResponse("get light state", resp); err != nil {
		return nil, err
	}

	var detail lightDetailContract
	if err := json.Unmarshal(resp.Body, &detail); err != nil {
		return nil, fmt.Errorf("failed to parse light %s: %w", l.id, err)
	}
	if detail.State == nil {
		return nil, fmt.Errorf("failed to parse light %s: response has no state", l.id)
	}

	return newLightState(l, stateFromContract(*detail.State)), nil
}
