package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func selectDesk(t *testing.T, fake *fakeBridge) *Light {
	t.Helper()
	fake.onAPI(http.MethodGet, "lights", http.StatusOK, unsortedLights)

	light, err := fake.bridge().SelectLight(context.Background(), "Desk")
	if err != nil {
		t.Fatalf("SelectLight returned error: %v", err)
	}
	return light
}

func TestRename(t *testing.T) {
	fake := newFakeBridge(t)
	light := selectDesk(t, fake)
	fake.onAPI(http.MethodPut, "lights/10", http.StatusOK, `[{"success":{"/lights/10/name":"Office"}}]`)

	got, err := light.Rename(context.Background(), "Office")
	if err != nil {
		t.Fatalf("Rename returned error: %v", err)
	}
	if got != light || light.Name() != "Office" {
		t.Errorf("Expected renamed light, got %s", light.Name())
	}

	reqs := fake.recorded()
	last := reqs[len(reqs)-1]
	if last.Body != `{"name":"Office"}` {
		t.Errorf("Unexpected body %s", last.Body)
	}
}

func TestRenameFailureKeepsName(t *testing.T) {
	fake := newFakeBridge(t)
	light := selectDesk(t, fake)
	fake.onAPI(http.MethodPut, "lights/10", http.StatusOK, `[{"error":{"type":7,"address":"/lights/10/name","description":"invalid value"}}]`)

	if _, err := light.Rename(context.Background(), "Office"); !errors.Is(err, ErrRemoteOperation) {
		t.Fatalf("Expected ErrRemoteOperation, got %v", err)
	}
	if light.Name() != "Desk" {
		t.Errorf("Name changed after failed rename: %s", light.Name())
	}
}

func TestRenameBlankName(t *testing.T) {
	fake := newFakeBridge(t)
	light := selectDesk(t, fake)
	before := len(fake.recorded())

	if _, err := light.Rename(context.Background(), "  "); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Expected ErrInvalidArgument, got %v", err)
	}
	if len(fake.recorded()) != before {
		t.Error("Blank rename reached the bridge")
	}
}

func TestGetCurrentState(t *testing.T) {
	fake := newFakeBridge(t)
	light := selectDesk(t, fake)
	fake.onAPI(http.MethodGet, "lights/10", http.StatusOK,
		`{"name":"Desk","state":{"on":true,"bri":144,"xy":[0.4573,0.41],"reachable":true}}`)

	state, err := light.GetCurrentState(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentState returned error: %v", err)
	}
	if !state.IsOn() || state.Brightness() != 144 {
		t.Errorf("Unexpected state on=%v bri=%d", state.IsOn(), state.Brightness())
	}
	if state.ColorX() != 0.4573 || state.ColorY() != 0.41 || !state.SupportsColor() {
		t.Errorf("Unexpected color %+v", state.Color())
	}
	if state.End() != light {
		t.Error("State does not point back to its light")
	}

	again, err := light.GetCurrentState(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentState returned error: %v", err)
	}
	if again == state {
		t.Error("Every call should return a new state")
	}
}

func TestGetCurrentStateFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantRemote bool
	}{
		{name: "missing light", status: http.StatusOK, body: `[{"error":{"type":3,"address":"/lights/10","description":"resource, /lights/10, not available"}}]`, wantRemote: true},
		{name: "no state", status: http.StatusOK, body: `{"name":"Desk"}`},
		{name: "not json", status: http.StatusOK, body: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeBridge(t)
			light := selectDesk(t, fake)
			fake.onAPI(http.MethodGet, "lights/10", tt.status, tt.body)

			_, err := light.GetCurrentState(context.Background())
			if err == nil {
				t.Fatal("Expected error")
			}
			if got := errors.Is(err, ErrRemoteOperation); got != tt.wantRemote {
				t.Errorf("errors.Is(err, ErrRemoteOperation) = %v, want %v", got, tt.wantRemote)
			}
		})
	}
}
