package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/angristan/fluenthue/internal/models"
)

// bridgeContract is one entry of the discovery response
type bridgeContract struct {
	ID                string `json:"id"`
	InternalIPAddress string `json:"internalipaddress"`
	Port              int    `json:"port,omitempty"`
}

// lightContract is the light metadata returned by the v1 API
type lightContract struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	ModelID     string `json:"modelid,omitempty"`
	UniqueID    string `json:"uniqueid,omitempty"`
	ProductName string `json:"productname,omitempty"`
}

// lightDetailContract is the body of GET /lights/{id}; only state is consumed
type lightDetailContract struct {
	Name  string              `json:"name"`
	State *lightStateContract `json:"state"`
}

// lightStateContract is the wire form of a light state
type lightStateContract struct {
	On  bool      `json:"on"`
	Bri *uint8    `json:"bri,omitempty"`
	XY  []float64 `json:"xy,omitempty"`
}

// renameContract is the body of PUT /lights/{id}
type renameContract struct {
	Name string `json:"name"`
}

// discoverLightsContract is the optional body of POST /lights
type discoverLightsContract struct {
	DeviceIDs []string `json:"deviceid"`
}

// stateFields is the domain side of a light state. Brightness and color are
// only sent back when the light reported them or they were set explicitly.
type stateFields struct {
	IsOn          bool
	Brightness    uint8
	HasBrightness bool
	Color         models.XY
	HasColor      bool
}

// stateFromContract maps a wire state into domain fields
func stateFromContract(c lightStateContract) stateFields {
	s := stateFields{
		IsOn:     c.On,
		Color:    models.XYFromArray(c.XY),
		HasColor: len(c.XY) >= 2,
	}
	if c.Bri != nil {
		s.Brightness = *c.Bri
		s.HasBrightness = true
	}
	return s
}

// contract maps domain fields back into the wire state
func (s stateFields) contract() lightStateContract {
	c := lightStateContract{On: s.IsOn}
	if s.HasBrightness {
		bri := s.Brightness
		c.Bri = &bri
	}
	if s.HasColor {
		c.XY = s.Color.Array()
	}
	return c
}

// lightEntry is one light of the GET /lights object, in document order
type lightEntry struct {
	ID       string
	Contract lightContract
}

// decodeLightList decodes the object keyed by light id, keeping key order
func decodeLightList(body []byte) ([]lightEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(body))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to parse lights: %w", err)
	}
	if tok == nil {
		return nil, nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("failed to parse lights: expected object, got %v", tok)
	}

	var entries []lightEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse lights: %w", err)
		}
		id, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("failed to parse lights: unexpected key %v", keyTok)
		}

		var c lightContract
		if err := dec.Decode(&c); err != nil {
			return nil, fmt.Errorf("failed to parse light %s: %w", id, err)
		}
		entries = append(entries, lightEntry{ID: id, Contract: c})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to parse lights: %w", err)
	}

	return entries, nil
}
