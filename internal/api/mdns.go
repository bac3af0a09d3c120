package api

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
)

// hueService is the mDNS service Hue bridges announce
const hueService = "_hue._tcp"

// SelectMDNSAsync discovers bridges on the local network using mDNS instead
// of the cloud discovery service. Bridges that do not announce a bridge id
// are returned with an empty ID.
func (l *Locator) SelectMDNSAsync(ctx context.Context, timeout time.Duration) *Future[[]*Bridge] {
	return Go(ctx, "select bridges over mDNS", func(ctx context.Context) ([]*Bridge, error) {
		return l.selectMDNS(ctx, timeout)
	})
}

// SelectMDNS is the blocking form of SelectMDNSAsync
func (l *Locator) SelectMDNS(ctx context.Context, timeout time.Duration) ([]*Bridge, error) {
	return Await(l.SelectMDNSAsync(ctx, timeout))
}

func (l *Locator) selectMDNS(ctx context.Context, timeout time.Duration) ([]*Bridge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	var bridges []*Bridge
	var mu sync.Mutex

	entriesCh := make(chan *mdns.ServiceEntry, 10)
	collected := make(chan struct{})

	go func() {
		defer close(collected)
		for entry := range entriesCh {
			bridge, err := l.bridgeFromServiceEntry(entry)
			if err != nil {
				continue
			}
			mu.Lock()
			bridges = append(bridges, bridge)
			mu.Unlock()
		}
	}()

	params := mdns.DefaultParams(hueService)
	params.Entries = entriesCh
	params.Timeout = timeout
	params.DisableIPv6 = true

	err := mdns.QueryContext(ctx, params)
	close(entriesCh)
	<-collected

	mu.Lock()
	defer mu.Unlock()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return bridges, fmt.Errorf("mDNS query failed: %w", err)
	}
	if len(bridges) == 0 {
		return nil, ErrBridgeNotFound
	}

	return dedupeBridges(bridges), nil
}

// bridgeFromServiceEntry maps an mDNS answer to a bridge
func (l *Locator) bridgeFromServiceEntry(entry *mdns.ServiceEntry) (*Bridge, error) {
	if entry == nil || entry.AddrV4 == nil {
		return nil, fmt.Errorf("%w: mDNS entry without IPv4 address", ErrInvalidArgument)
	}

	var id string
	for _, txt := range entry.InfoFields {
		if strings.HasPrefix(txt, "bridgeid=") {
			id = strings.TrimPrefix(txt, "bridgeid=")
		}
	}

	ip := entry.AddrV4.String()
	if id == "" {
		return newBridgeFromIP(l.transports, ip)
	}
	return newBridgeFromContract(l.transports, bridgeContract{ID: id, InternalIPAddress: ip})
}

// dedupeBridges drops repeated answers, keeping first-seen order
func dedupeBridges(bridges []*Bridge) []*Bridge {
	seen := make(map[string]bool)
	result := make([]*Bridge, 0, len(bridges))
	for _, b := range bridges {
		key := b.LocalIPAddress()
		if b.ID() != "" {
			key = b.ID()
		}
		if !seen[key] {
			seen[key] = true
			result = append(result, b)
		}
	}
	return result
}
