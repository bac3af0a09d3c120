package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"testing"

	"github.com/kr/pretty"
)

const deskState = `{"name":"Desk","state":{"on":false,"bri":100,"xy":[0.3127,0.329]}}`

func currentDeskState(t *testing.T, fake *fakeBridge, body string) *LightState {
	t.Helper()
	light := selectDesk(t, fake)
	fake.onAPI(http.MethodGet, "lights/10", http.StatusOK, body)
	fake.onAPI(http.MethodPut, "lights/10/state", http.StatusOK, lightSuccess)

	state, err := light.GetCurrentState(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentState returned error: %v", err)
	}
	return state
}

// lastStateWrite decodes the body of the most recent state PUT
func lastStateWrite(t *testing.T, fake *fakeBridge) map[string]any {
	t.Helper()
	reqs := fake.recorded()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == http.MethodPut && reqs[i].Path == fake.apiPath("lights/10/state") {
			var body map[string]any
			if err := json.Unmarshal([]byte(reqs[i].Body), &body); err != nil {
				t.Fatalf("decode state body: %v", err)
			}
			return body
		}
	}
	t.Fatal("No state write recorded")
	return nil
}

func countStateWrites(fake *fakeBridge) int {
	n := 0
	for _, r := range fake.recorded() {
		if r.Method == http.MethodPut && r.Path == fake.apiPath("lights/10/state") {
			n++
		}
	}
	return n
}

func TestToggle(t *testing.T) {
	fake := newFakeBridge(t)
	state := currentDeskState(t, fake, deskState)

	got, err := state.Toggle(context.Background())
	if err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if got != state || !state.IsOn() {
		t.Error("Toggle did not turn the light on")
	}

	want := map[string]any{"on": true, "bri": float64(100), "xy": []any{0.3127, 0.329}}
	if diff := pretty.Diff(lastStateWrite(t, fake), want); len(diff) > 0 {
		t.Errorf("Unexpected state body: %v", diff)
	}
}

func TestSetState(t *testing.T) {
	fake := newFakeBridge(t)
	state := currentDeskState(t, fake, deskState)
	ctx := context.Background()

	if _, err := state.SetState(ctx, false); err != nil {
		t.Fatalf("SetState(false) returned error: %v", err)
	}
	if n := countStateWrites(fake); n != 0 {
		t.Errorf("Setting the current state sent %d writes", n)
	}

	if _, err := state.SetState(ctx, true); err != nil {
		t.Fatalf("SetState(true) returned error: %v", err)
	}
	if !state.IsOn() || countStateWrites(fake) != 1 {
		t.Errorf("Expected one write turning the light on")
	}
}

func TestSetBrightness(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr error
	}{
		{name: "min", value: 1},
		{name: "mid", value: 128},
		{name: "max", value: 254},
		{name: "zero", value: 0, wantErr: ErrOutOfRange},
		{name: "too high", value: 255, wantErr: ErrOutOfRange},
		{name: "negative", value: -5, wantErr: ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeBridge(t)
			state := currentDeskState(t, fake, deskState)

			_, err := state.SetBrightness(context.Background(), tt.value)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				if n := countStateWrites(fake); n != 0 {
					t.Errorf("Rejected brightness sent %d writes", n)
				}
				if state.Brightness() != 100 {
					t.Errorf("Brightness changed to %d", state.Brightness())
				}
				return
			}

			if err != nil {
				t.Fatalf("SetBrightness returned error: %v", err)
			}
			if int(state.Brightness()) != tt.value {
				t.Errorf("Expected brightness %d, got %d", tt.value, state.Brightness())
			}
			if got := lastStateWrite(t, fake)["bri"]; got != float64(tt.value) {
				t.Errorf("Expected bri %d on the wire, got %v", tt.value, got)
			}
		})
	}
}

func TestSetColor(t *testing.T) {
	fake := newFakeBridge(t)
	state := currentDeskState(t, fake, deskState)

	if _, err := state.SetColor(context.Background(), 0.2999, 0.2498); err != nil {
		t.Fatalf("SetColor returned error: %v", err)
	}
	if state.ColorX() != 0.2999 || state.ColorY() != 0.2498 {
		t.Errorf("Unexpected color %+v", state.Color())
	}
	if diff := pretty.Diff(lastStateWrite(t, fake)["xy"], []any{0.2999, 0.2498}); len(diff) > 0 {
		t.Errorf("Unexpected xy on the wire: %v", diff)
	}

	for _, xy := range [][2]float64{{-0.1, 0.5}, {0.5, 1.1}} {
		before := countStateWrites(fake)
		if _, err := state.SetColor(context.Background(), xy[0], xy[1]); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("SetColor(%v) expected ErrOutOfRange, got %v", xy, err)
		}
		if countStateWrites(fake) != before {
			t.Errorf("SetColor(%v) reached the bridge", xy)
		}
	}
}

func TestSetBrightnessWholeRange(t *testing.T) {
	fake := newFakeBridge(t)
	state := currentDeskState(t, fake, deskState)
	ctx := context.Background()

	for v := 1; v <= 254; v++ {
		if _, err := state.SetBrightness(ctx, v); err != nil {
			t.Fatalf("SetBrightness(%d) returned error: %v", v, err)
		}
		if int(state.Brightness()) != v {
			t.Fatalf("SetBrightness(%d) left brightness %d", v, state.Brightness())
		}
	}
	if n := countStateWrites(fake); n != 254 {
		t.Errorf("Expected 254 writes, got %d", n)
	}
}

func TestSetColorCorners(t *testing.T) {
	fake := newFakeBridge(t)
	state := currentDeskState(t, fake, deskState)
	ctx := context.Background()

	for _, xy := range [][2]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}} {
		if _, err := state.SetColor(ctx, xy[0], xy[1]); err != nil {
			t.Fatalf("SetColor(%v) returned error: %v", xy, err)
		}
		if state.ColorX() != xy[0] || state.ColorY() != xy[1] {
			t.Errorf("SetColor(%v) left color %+v", xy, state.Color())
		}
		if diff := pretty.Diff(lastStateWrite(t, fake)["xy"], []any{xy[0], xy[1]}); len(diff) > 0 {
			t.Errorf("SetColor(%v) wire xy: %v", xy, diff)
		}
	}

	before := countStateWrites(fake)
	if _, err := state.SetColor(ctx, math.NaN(), 0.5); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("SetColor(NaN) expected ErrOutOfRange, got %v", err)
	}
	if countStateWrites(fake) != before {
		t.Error("SetColor(NaN) reached the bridge")
	}
}

func TestSetColorRGB(t *testing.T) {
	fake := newFakeBridge(t)
	state := currentDeskState(t, fake, `{"name":"Desk","state":{"on":true}}`)

	if state.SupportsColor() {
		t.Fatal("State without xy should not report color support")
	}
	if _, err := state.SetColorRGB(context.Background(), 255, 0, 0); err != nil {
		t.Fatalf("SetColorRGB returned error: %v", err)
	}
	if !state.SupportsColor() || state.ColorX() < 0.6 {
		t.Errorf("Expected a red xy color, got %+v", state.Color())
	}
	if _, ok := lastStateWrite(t, fake)["bri"]; ok {
		t.Error("Brightness sent for a light that never reported one")
	}
}

func TestFailedWriteKeepsState(t *testing.T) {
	fake := newFakeBridge(t)
	state := currentDeskState(t, fake, deskState)
	fake.onAPI(http.MethodPut, "lights/10/state", http.StatusOK,
		`[{"error":{"type":201,"address":"/lights/10/state/bri","description":"parameter, bri, is not modifiable. Device is set to off."}}]`)

	before := state.fields
	ctx := context.Background()

	if _, err := state.SetBrightness(ctx, 200); !errors.Is(err, ErrRemoteOperation) {
		t.Errorf("SetBrightness: expected ErrRemoteOperation, got %v", err)
	}
	if _, err := state.Toggle(ctx); !errors.Is(err, ErrRemoteOperation) {
		t.Errorf("Toggle: expected ErrRemoteOperation, got %v", err)
	}
	if _, err := state.SetColor(ctx, 0.5, 0.4); !errors.Is(err, ErrRemoteOperation) {
		t.Errorf("SetColor: expected ErrRemoteOperation, got %v", err)
	}

	if diff := pretty.Diff(state.fields, before); len(diff) > 0 {
		t.Errorf("State changed after failed writes: %v", diff)
	}
}

func TestLightStateAsync(t *testing.T) {
	fake := newFakeBridge(t)
	state := currentDeskState(t, fake, deskState)

	f := state.SetBrightnessAsync(context.Background(), 42)
	<-f.Done()

	got, err := f.Result()
	if err != nil {
		t.Fatalf("Result returned error: %v", err)
	}
	if got.Brightness() != 42 {
		t.Errorf("Expected brightness 42, got %d", got.Brightness())
	}
}
