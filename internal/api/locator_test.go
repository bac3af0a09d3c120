package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

const twoBridges = `[
	{"id": "001788fffe4c2912", "internalipaddress": "192.168.1.20"},
	{"id": "001788fffe0de3a0", "internalipaddress": "192.168.1.21", "port": 443}
]`

func TestSelectFirst(t *testing.T) {
	fake := newFakeBridge(t)
	fake.on(http.MethodGet, "/discovery", http.StatusOK, twoBridges)

	b, err := NewLocator(fake.factory()).SelectFirst(context.Background())
	if err != nil {
		t.Fatalf("SelectFirst returned error: %v", err)
	}
	if b.ID() != "001788fffe4c2912" || b.LocalIPAddress() != "192.168.1.20" {
		t.Errorf("Unexpected bridge %s at %s", b.ID(), b.LocalIPAddress())
	}
	if b.HasUser() {
		t.Error("Discovered bridge should not have a user")
	}
}

func TestSelectAll(t *testing.T) {
	fake := newFakeBridge(t)
	fake.on(http.MethodGet, "/discovery", http.StatusOK, twoBridges)

	bridges, err := NewLocator(fake.factory()).SelectAll(context.Background())
	if err != nil {
		t.Fatalf("SelectAll returned error: %v", err)
	}
	if len(bridges) != 2 {
		t.Fatalf("Expected 2 bridges, got %d", len(bridges))
	}
	if bridges[1].ID() != "001788fffe0de3a0" {
		t.Errorf("Unexpected second bridge %s", bridges[1].ID())
	}
}

func TestSelectFirstFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    error
		wantRemote bool
	}{
		{name: "empty list", status: http.StatusOK, body: `[]`, wantErr: ErrBridgeNotFound},
		{name: "null", status: http.StatusOK, body: `null`, wantErr: ErrBridgeNotFound},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantErr: ErrDiscovery, wantRemote: true},
		{name: "rate limited", status: http.StatusTooManyRequests, body: ``, wantErr: ErrDiscovery, wantRemote: true},
		{name: "garbage", status: http.StatusOK, body: `{"id": 1}`, wantErr: ErrDiscovery},
		{name: "missing address", status: http.StatusOK, body: `[{"id": "abc"}]`, wantErr: ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeBridge(t)
			fake.on(http.MethodGet, "/discovery", tt.status, tt.body)

			_, err := NewLocator(fake.factory()).SelectFirst(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if got := errors.Is(err, ErrRemoteOperation); got != tt.wantRemote {
				t.Errorf("errors.Is(err, ErrRemoteOperation) = %v, want %v", got, tt.wantRemote)
			}
		})
	}
}

func TestDiscoveryCache(t *testing.T) {
	tests := []struct {
		name      string
		opts      []LocatorOption
		wantCalls int
	}{
		{name: "no cache", wantCalls: 2},
		{name: "cached", opts: []LocatorOption{WithDiscoveryCache(time.Minute)}, wantCalls: 1},
		{name: "disabled", opts: []LocatorOption{WithDiscoveryCache(0)}, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeBridge(t)
			fake.on(http.MethodGet, "/discovery", http.StatusOK, twoBridges)
			locator := NewLocator(fake.factory(), tt.opts...)

			for i := 0; i < 2; i++ {
				if _, err := locator.SelectFirst(context.Background()); err != nil {
					t.Fatalf("SelectFirst returned error: %v", err)
				}
			}

			if got := len(fake.recorded()); got != tt.wantCalls {
				t.Errorf("Expected %d discovery calls, got %d", tt.wantCalls, got)
			}
		})
	}
}

func TestDiscoveryCacheSkipsFailures(t *testing.T) {
	fake := newFakeBridge(t)
	fake.on(http.MethodGet, "/discovery", http.StatusOK, `[]`)
	locator := NewLocator(fake.factory(), WithDiscoveryCache(time.Minute))

	if _, err := locator.SelectFirst(context.Background()); !errors.Is(err, ErrBridgeNotFound) {
		t.Fatalf("Expected ErrBridgeNotFound, got %v", err)
	}

	fake.on(http.MethodGet, "/discovery", http.StatusOK, twoBridges)
	if _, err := locator.SelectFirst(context.Background()); err != nil {
		t.Fatalf("SelectFirst after failure returned error: %v", err)
	}
}

func TestSelectWithLocalIP(t *testing.T) {
	locator := NewLocator(nil)

	b, err := locator.SelectWithLocalIP("192.168.1.50")
	if err != nil {
		t.Fatalf("SelectWithLocalIP returned error: %v", err)
	}
	if b.LocalIPAddress() != "192.168.1.50" || b.ID() != "" {
		t.Errorf("Unexpected bridge %q at %q", b.ID(), b.LocalIPAddress())
	}

	known, err := locator.SelectKnown("001788fffe4c2912", "192.168.1.20")
	if err != nil {
		t.Fatalf("SelectKnown returned error: %v", err)
	}
	if known.ID() != "001788fffe4c2912" || known.LocalIPAddress() != "192.168.1.20" {
		t.Errorf("Unexpected bridge %q at %q", known.ID(), known.LocalIPAddress())
	}
	if byIP, err := locator.SelectKnown("", "192.168.1.21"); err != nil || byIP.ID() != "" {
		t.Errorf("SelectKnown without id = %v, %v", byIP, err)
	}

	for _, ip := range []string{"", "   "} {
		if _, err := locator.SelectWithLocalIP(ip); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("SelectWithLocalIP(%q) = %v, want ErrInvalidArgument", ip, err)
		}
	}
}
