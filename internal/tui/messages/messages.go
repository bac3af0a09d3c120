package messages

import (
	"github.com/angristan/fluenthue/internal/api"
)

// BridgeConnectedMsg indicates the bridge accepted the user
type BridgeConnectedMsg struct {
	Bridge *api.Bridge
	User   string
}

// LightsFetchedMsg contains the lights of the bridge, in bridge order.
// States[i] is nil when the state of Lights[i] could not be read.
type LightsFetchedMsg struct {
	Lights []*api.Light
	States []*api.LightState
}

// LightStateUpdatedMsg reports the outcome of a state change on one light
type LightStateUpdatedMsg struct {
	LightID string
	State   *api.LightState
	Err     error
}

// LightRenamedMsg reports the outcome of a rename
type LightRenamedMsg struct {
	LightID string
	Err     error
}

// StatusMsg carries a short informational message for the status bar
type StatusMsg struct {
	Text string
}

// ErrorMsg indicates an error occurred
type ErrorMsg struct {
	Err error
}

// RefreshMsg requests a data refresh
type RefreshMsg struct{}

// ForgetBridgeMsg asks to drop the current bridge and go back to setup
type ForgetBridgeMsg struct{}
