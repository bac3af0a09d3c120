package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	// User is the only application key the demo bridge accepts
	User = "demo"
	// BridgeID identifies the demo bridge in discovery responses
	BridgeID = "001788fffe0de3a0"
)

// Hue v1 error types used by the demo bridge
const (
	errUnauthorizedUser     = 1
	errInvalidJSON          = 2
	errResourceNotAvailable = 3
	errInvalidValue         = 7
)

// Light is a light kept in memory by the demo bridge
type Light struct {
	ID       string
	Name     string
	Type     string
	ModelID  string
	UniqueID string
	On       bool
	Bri      uint8
	// XY is nil for lights without color support
	XY []float64
}

// Server is an in-memory Hue bridge speaking the v1 lights API, plus a
// discovery endpoint announcing itself. All state changes stay in memory.
type Server struct {
	mu       sync.RWMutex
	lights   []*Light
	nextID   int
	searches int

	router *mux.Router
	http   *http.Server
	addr   string
}

// NewServer creates a demo bridge with sample lights
func NewServer() *Server {
	s := &Server{}
	s.initializeDemoData()
	s.router = s.routes()
	return s
}

func (s *Server) initializeDemoData() {
	s.addLight("Living Room Ceiling", "Extended color light", "LCT015", true, 254, []float64{0.4573, 0.41})
	s.addLight("Living Room Lamp", "Extended color light", "LCT015", true, 180, []float64{0.5612, 0.4042})
	s.addLight("Kitchen Spots", "Color temperature light", "LTW013", false, 120, nil)
	s.addLight("Bedroom", "Extended color light", "LCA001", false, 60, []float64{0.1532, 0.0475})
	s.addLight("Hallway", "Dimmable light", "LWB010", true, 90, nil)
}

// addLight appends a light with the next free id. Caller holds the lock or
// is still constructing the server.
func (s *Server) addLight(name, lightType, modelID string, on bool, bri uint8, xy []float64) *Light {
	s.nextID++
	l := &Light{
		ID:       fmt.Sprintf("%d", s.nextID),
		Name:     name,
		Type:     lightType,
		ModelID:  modelID,
		UniqueID: uniqueID(),
		On:       on,
		Bri:      bri,
		XY:       xy,
	}
	s.lights = append(s.lights, l)
	return l
}

// uniqueID builds a Zigbee-style unique id such as 00:17:88:01:02:3a:4b:5c-0b
func uniqueID() string {
	id := uuid.New()
	return fmt.Sprintf("00:17:88:01:%02x:%02x:%02x:%02x-0b", id[0], id[1], id[2], id[3])
}

// Handler exposes the router, e.g. for httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves the demo bridge on a free loopback port and returns its address
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to start demo bridge: %w", err)
	}

	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.addr = listener.Addr().String()

	go func() {
		_ = s.http.Serve(listener) // returns http.ErrServerClosed on Close
	}()

	return s.addr, nil
}

// Addr returns the address Start is listening on
func (s *Server) Addr() string {
	return s.addr
}

// DiscoveryURL returns the discovery endpoint of a started server
func (s *Server) DiscoveryURL() string {
	return "http://" + s.addr + "/discovery"
}

// Close stops a started server
func (s *Server) Close() error {
	if s.http == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Lights returns a snapshot of the lights in bridge order
func (s *Server) Lights() []Light {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Light, len(s.lights))
	for i, l := range s.lights {
		result[i] = *l
		result[i].XY = append([]float64(nil), l.XY...)
		if l.XY == nil {
			result[i].XY = nil
		}
	}
	return result
}

// Searches returns how many light searches were started
func (s *Server) Searches() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searches
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/discovery", s.handleDiscovery).Methods(http.MethodGet)

	api := r.PathPrefix("/api/{user}").Subrouter()
	api.Use(s.requireUser)
	api.HandleFunc("/lights", s.handleListLights).Methods(http.MethodGet)
	api.HandleFunc("/lights", s.handleSearchLights).Methods(http.MethodPost)
	api.HandleFunc("/lights/{id}", s.handleGetLight).Methods(http.MethodGet)
	api.HandleFunc("/lights/{id}", s.handleRenameLight).Methods(http.MethodPut)
	api.HandleFunc("/lights/{id}/state", s.handleSetState).Methods(http.MethodPut)

	return r
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, []map[string]any{
		{"id": BridgeID, "internalipaddress": r.Host, "port": 80},
	})
}

// requireUser answers like a real bridge when the application key is unknown
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if mux.Vars(r)["user"] != User {
			writeError(w, errUnauthorizedUser, "/", "unauthorized user")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type stateBody struct {
	On        bool      `json:"on"`
	Bri       uint8     `json:"bri"`
	XY        []float64 `json:"xy,omitempty"`
	Reachable bool      `json:"reachable"`
}

type lightBody struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	ModelID  string    `json:"modelid"`
	UniqueID string    `json:"uniqueid"`
	State    stateBody `json:"state"`
}

func (l *Light) body() lightBody {
	return lightBody{
		Name:     l.Name,
		Type:     l.Type,
		ModelID:  l.ModelID,
		UniqueID: l.UniqueID,
		State:    stateBody{On: l.On, Bri: l.Bri, XY: l.XY, Reachable: true},
	}
}

// handleListLights writes the lights object by hand so keys keep bridge order
func (s *Server) handleListLights(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range s.lights {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(l.ID)
		value, err := json.Marshal(l.body())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSearchLights(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeviceID []string `json:"deviceid"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errInvalidJSON, "/lights", "body contains invalid json")
			return
		}
	}

	s.mu.Lock()
	s.searches++
	found := len(req.DeviceID)
	if found == 0 {
		found = 1
	}
	for i := 0; i < found; i++ {
		s.addLight(fmt.Sprintf("Hue color lamp %d", s.nextID+1), "Extended color light", "LCT015", false, 254, []float64{0.3127, 0.329})
	}
	s.mu.Unlock()

	writeJSON(w, []map[string]any{
		{"success": map[string]string{"/lights": "Searching for new devices"}},
	})
}

func (s *Server) findLight(id string) *Light {
	for _, l := range s.lights {
		if l.ID == id {
			return l
		}
	}
	return nil
}

func (s *Server) handleGetLight(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.RLock()
	defer s.mu.RUnlock()

	l := s.findLight(id)
	if l == nil {
		writeError(w, errResourceNotAvailable, "/lights/"+id, fmt.Sprintf("resource, /lights/%s, not available", id))
		return
	}
	writeJSON(w, l.body())
}

func (s *Server) handleRenameLight(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	address := "/lights/" + id

	var req struct {
		Name *string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errInvalidJSON, address, "body contains invalid json")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.findLight(id)
	if l == nil {
		writeError(w, errResourceNotAvailable, address, fmt.Sprintf("resource, %s, not available", address))
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" || len(*req.Name) > 32 {
		writeError(w, errInvalidValue, address+"/name", "invalid value for parameter, name")
		return
	}

	l.Name = *req.Name
	writeJSON(w, []map[string]any{
		{"success": map[string]string{address + "/name": l.Name}},
	})
}

func (s *Server) handleSetState(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	address := "/lights/" + id + "/state"

	var req struct {
		On  *bool     `json:"on"`
		Bri *int      `json:"bri"`
		XY  []float64 `json:"xy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errInvalidJSON, address, "body contains invalid json")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.findLight(id)
	if l == nil {
		writeError(w, errResourceNotAvailable, "/lights/"+id, fmt.Sprintf("resource, /lights/%s, not available", id))
		return
	}
	if req.Bri != nil && (*req.Bri < 1 || *req.Bri > 254) {
		writeError(w, errInvalidValue, address+"/bri", "invalid value for parameter, bri")
		return
	}
	if req.XY != nil && (len(req.XY) != 2 || req.XY[0] < 0 || req.XY[0] > 1 || req.XY[1] < 0 || req.XY[1] > 1) {
		writeError(w, errInvalidValue, address+"/xy", "invalid value for parameter, xy")
		return
	}

	var results []map[string]any
	if req.On != nil {
		l.On = *req.On
		results = append(results, map[string]any{"success": map[string]any{address + "/on": l.On}})
	}
	if req.Bri != nil {
		l.Bri = uint8(*req.Bri)
		results = append(results, map[string]any{"success": map[string]any{address + "/bri": l.Bri}})
	}
	if req.XY != nil {
		l.XY = append([]float64(nil), req.XY...)
		results = append(results, map[string]any{"success": map[string]any{address + "/xy": l.XY}})
	}

	writeJSON(w, results)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, errType int, address, description string) {
	writeJSON(w, []map[string]any{
		{"error": map[string]any{"type": errType, "address": address, "description": description}},
	})
}
