package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Locator finds Hue bridges and hands out Bridge values bound to its
// transport factory
type Locator struct {
	transports *TransportFactory
	cache      *ttlcache.Cache[string, []bridgeContract]
}

// LocatorOption configures a Locator
type LocatorOption func(*Locator)

// WithDiscoveryCache remembers a successful discovery response for ttl.
// The public discovery endpoint is rate limited.
func WithDiscoveryCache(ttl time.Duration) LocatorOption {
	return func(l *Locator) {
		if ttl <= 0 {
			l.cache = nil
			return
		}
		l.cache = ttlcache.New(
			ttlcache.WithTTL[string, []bridgeContract](ttl),
		)
	}
}

// NewLocator creates a locator; a nil factory uses the defaults
func NewLocator(transports *TransportFactory, opts ...LocatorOption) *Locator {
	if transports == nil {
		transports = NewTransportFactory()
	}
	l := &Locator{transports: transports}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SelectFirstAsync retrieves the first bridge reported by the discovery
// service, in the order the service returned them
func (l *Locator) SelectFirstAsync(ctx context.Context) *Future[*Bridge] {
	return Go(ctx, "select first bridge", func(ctx context.Context) (*Bridge, error) {
		found, err := l.findBridges(ctx)
		if err != nil {
			return nil, err
		}
		return newBridgeFromContract(l.transports, found[0])
	})
}

// SelectFirst is the blocking form of SelectFirstAsync
func (l *Locator) SelectFirst(ctx context.Context) (*Bridge, error) {
	return Await(l.SelectFirstAsync(ctx))
}

// SelectAllAsync retrieves every bridge reported by the discovery service
func (l *Locator) SelectAllAsync(ctx context.Context) *Future[[]*Bridge] {
	return Go(ctx, "select all bridges", func(ctx context.Context) ([]*Bridge, error) {
		found, err := l.findBridges(ctx)
		if err != nil {
			return nil, err
		}
		bridges := make([]*Bridge, len(found))
		for i, c := range found {
			bridge, err := newBridgeFromContract(l.transports, c)
			if err != nil {
				return nil, err
			}
			bridges[i] = bridge
		}
		return bridges, nil
	})
}

// SelectAll is the blocking form of SelectAllAsync
func (l *Locator) SelectAll(ctx context.Context) ([]*Bridge, error) {
	return Await(l.SelectAllAsync(ctx))
}

// SelectWithLocalIP creates a bridge for a known address without any
// network call
func (l *Locator) SelectWithLocalIP(ip string) (*Bridge, error) {
	return newBridgeFromIP(l.transports, ip)
}

// SelectKnown recreates a bridge whose id and address were saved earlier.
// An empty id behaves like SelectWithLocalIP.
func (l *Locator) SelectKnown(id, ip string) (*Bridge, error) {
	if id == "" {
		return newBridgeFromIP(l.transports, ip)
	}
	return newBridgeFromContract(l.transports, bridgeContract{ID: id, InternalIPAddress: ip})
}

// findBridges queries the discovery endpoint. It never returns an empty list
// without an error.
func (l *Locator) findBridges(ctx context.Context) ([]bridgeContract, error) {
	key := l.transports.DiscoveryURL()
	if l.cache != nil {
		if item := l.cache.Get(key); item != nil {
			return item.Value(), nil
		}
	}

	resp, err := l.transports.Discovery().Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiscovery, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %w", ErrDiscovery, &RemoteError{Op: "discover bridges", StatusCode: resp.StatusCode})
	}

	var found []bridgeContract
	if err := json.Unmarshal(resp.Body, &found); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", ErrDiscovery, err)
	}
	if len(found) == 0 {
		return nil, ErrBridgeNotFound
	}

	if l.cache != nil {
		l.cache.Set(key, found, ttlcache.DefaultTTL)
	}

	return found, nil
}
