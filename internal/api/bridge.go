package api

import (
	"context"
	"fmt"
)

// Bridge represents a Philips Hue bridge on the local network.
//
// Operations may run concurrently once the user is set. WithUser must not be
// called while one of the bridge's futures is still pending.
type Bridge struct {
	id         string
	localIP    string
	user       string
	transports *TransportFactory
}

// newBridgeFromContract builds a bridge from a discovery entry
func newBridgeFromContract(transports *TransportFactory, c bridgeContract) (*Bridge, error) {
	if err := requireNotBlank("bridge id", c.ID); err != nil {
		return nil, err
	}
	if err := requireNotBlank("bridge ip address", c.InternalIPAddress); err != nil {
		return nil, err
	}
	return &Bridge{id: c.ID, localIP: c.InternalIPAddress, transports: transports}, nil
}

// newBridgeFromIP builds a bridge that is only known by its address
func newBridgeFromIP(transports *TransportFactory, ip string) (*Bridge, error) {
	if err := requireNotBlank("bridge ip address", ip); err != nil {
		return nil, err
	}
	return &Bridge{localIP: ip, transports: transports}, nil
}

// ID returns the bridge identifier (e.g. 001788fffe4c2912). It is empty for
// bridges selected by IP address.
func (b *Bridge) ID() string {
	return b.id
}

// LocalIPAddress returns the private address of the bridge
func (b *Bridge) LocalIPAddress() string {
	return b.localIP
}

// HasUser reports whether WithUser has been called
func (b *Bridge) HasUser() bool {
	return b.user != ""
}

// WithUser sets the Hue user (application key) used for every further call.
// The user can be set once; setting the same value again is a no-op.
func (b *Bridge) WithUser(user string) (*Bridge, error) {
	if err := requireNotBlank("user", user); err != nil {
		return nil, err
	}
	if b.user != "" && b.user != user {
		return nil, fmt.Errorf("%w: bridge user is already set", ErrInvalidArgument)
	}
	b.user = user
	return b, nil
}

// authenticated returns the transport for this bridge's user
func (b *Bridge) authenticated() (*Transport, error) {
	if b.user == "" {
		return nil, fmt.Errorf("%w: bridge user must be set with WithUser first", ErrInvalidArgument)
	}
	return b.transports.ForBridge(b.localIP, b.user), nil
}

// GetAllLightsAsync retrieves every light connected to the bridge, in the
// order the bridge lists them
func (b *Bridge) GetAllLightsAsync(ctx context.Context) *Future[[]*Light] {
	return Go(ctx, "get all lights", b.getAllLights)
}

// GetAllLights is the blocking form of GetAllLightsAsync
func (b *Bridge) GetAllLights(ctx context.Context) ([]*Light, error) {
	return Await(b.GetAllLightsAsync(ctx))
}

func (b *Bridge) getAllLights(ctx context.Context) ([]*Light, error) {
	t, err := b.authenticated()
	if err != nil {
		return nil, err
	}

	resp, err := t.Get(ctx, "lights")
	if err != nil {
		return nil, fmt.Errorf("failed to get lights: %w", err)
	}
	if err := checkResponse("get all lights", resp); err != nil {
		return nil, err
	}

	entries, err := decodeLightList(resp.Body)
	if err != nil {
		return nil, err
	}

	lights := make([]*Light, len(entries))
	for i, entry := range entries {
		lights[i] = newLight(b, entry.ID, entry.Contract)
	}

	return lights, nil
}

// DiscoverNewLightsAsync starts a search for new lights. Serial numbers are
// optional and make the bridge look for those specific bulbs.
// https://developers.meethue.com/develop/hue-api/lights-api/#search-for-new-lights
func (b *Bridge) DiscoverNewLightsAsync(ctx context.Context, serialNumbers ...string) *Future[*Bridge] {
	serials := append([]string(nil), serialNumbers...)
	return Go(ctx, "discover new lights", func(ctx context.Context) (*Bridge, error) {
		t, err := b.authenticated()
		if err != nil {
			return nil, err
		}

		var resp *Response
		if len(serials) > 0 {
			resp, err = t.Post(ctx, "lights", discoverLightsContract{DeviceIDs: serials})
		} else {
			resp, err = t.Post(ctx, "lights", nil)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to start light discovery: %w", err)
		}
		if err := checkResponse("discover new lights", resp); err != nil {
			return nil, err
		}

		return b, nil
	})
}

// DiscoverNewLights is the blocking form of DiscoverNewLightsAsync
func (b *Bridge) DiscoverNewLights(ctx context.Context, serialNumbers ...string) (*Bridge, error) {
	return Await(b.DiscoverNewLightsAsync(ctx, serialNumbers...))
}

// SelectLightAsync returns the first light whose name matches exactly
func (b *Bridge) SelectLightAsync(ctx context.Context, name string) *Future[*Light] {
	return Go(ctx, "select light", func(ctx context.Context) (*Light, error) {
		lights, err := b.getAllLights(ctx)
		if err != nil {
			return nil, err
		}
		for _, light := range lights {
			if light.Name() == name {
				return light, nil
			}
		}
		return nil, fmt.Errorf("%w: no light named %q", ErrNotFound, name)
	})
}

// SelectLight is the blocking form of SelectLightAsync
func (b *Bridge) SelectLight(ctx context.Context, name string) (*Light, error) {
	return Await(b.SelectLightAsync(ctx, name))
}
