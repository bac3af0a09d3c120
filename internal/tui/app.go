package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/angristan/fluenthue/internal/api"
	"github.com/angristan/fluenthue/internal/config"
	"github.com/angristan/fluenthue/internal/tui/messages"
	"github.com/angristan/fluenthue/internal/tui/screens"
)

// Screen represents the current screen state
type Screen int

const (
	ScreenSetup Screen = iota
	ScreenLights
)

// Model is the main application model
type Model struct {
	// Configuration
	config   *config.Config
	locator  *api.Locator
	demoMode bool

	// Bridge connection
	bridge *api.Bridge

	// Current screen
	screen Screen

	// Screen models
	setupScreen  screens.SetupModel
	lightsScreen screens.LightsModel

	// Window size
	width  int
	height int

	// Error state
	err error

	// Context for cancellation
	ctx    context.Context
	cancel context.CancelFunc
}

// NewModel creates a new application model. In demo mode the configured
// bridge is used as is and nothing is saved.
func NewModel(cfg *config.Config, locator *api.Locator, demoMode bool) Model {
	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		config:   cfg,
		locator:  locator,
		demoMode: demoMode,
		ctx:      ctx,
		cancel:   cancel,
	}

	// Initialize screen models
	m.setupScreen = screens.NewSetupModel(locator, !demoMode)
	m.lightsScreen = screens.NewLightsModel(ctx)

	// Determine initial screen
	m.screen = ScreenSetup
	if cfg.HasBridges() {
		if bridge, err := m.restoreBridge(); err != nil {
			m.err = err
		} else {
			m.bridge = bridge
			m.lightsScreen.SetBridge(bridge)
			m.screen = ScreenLights
		}
	}

	return m
}

// restoreBridge rebuilds the last used bridge from the configuration
func (m Model) restoreBridge() (*api.Bridge, error) {
	bridgeCfg, err := m.config.GetLastBridge()
	if err != nil {
		return nil, err
	}
	bridge, err := m.locator.SelectKnown(bridgeCfg.BridgeID, bridgeCfg.Host)
	if err != nil {
		return nil, err
	}
	return bridge.WithUser(bridgeCfg.Username)
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.SetWindowTitle("fluenthue"),
	}

	// Start with appropriate screen initialization
	switch m.screen {
	case ScreenSetup:
		cmds = append(cmds, m.setupScreen.Init())
	case ScreenLights:
		cmds = append(cmds, m.lightsScreen.Init(), m.fetchLightsCmd())
	}

	return tea.Batch(cmds...)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.lightsScreen.SetSize(msg.Width, msg.Height)
		m.setupScreen.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		// Global key handlers
		if msg.String() == "ctrl+c" {
			m.cancel()
			return m, tea.Quit
		}

	case messages.BridgeConnectedMsg:
		// Bridge connection successful
		m.bridge = msg.Bridge
		m.err = nil
		if !m.demoMode {
			m.rememberBridge(msg.Bridge, msg.User)
		}

		m.screen = ScreenLights
		m.lightsScreen.SetBridge(msg.Bridge)
		m.lightsScreen.SetLoading(true)
		if m.err != nil {
			m.lightsScreen.SetError(m.err)
		}
		return m, tea.Batch(m.lightsScreen.Init(), m.fetchLightsCmd())

	case messages.ErrorMsg:
		m.err = msg.Err
		m.lightsScreen.SetError(msg.Err)
		m.lightsScreen.SetLoading(false)
		return m, nil

	case messages.ForgetBridgeMsg:
		if m.bridge != nil && !m.demoMode {
			m.forgetBridge(m.bridge)
		}
		m.bridge = nil
		m.screen = ScreenSetup
		m.setupScreen = screens.NewSetupModel(m.locator, !m.demoMode)
		m.setupScreen.SetSize(m.width, m.height)
		m.lightsScreen = screens.NewLightsModel(m.ctx)
		m.lightsScreen.SetSize(m.width, m.height)
		return m, m.setupScreen.Init()

	case messages.RefreshMsg:
		m.lightsScreen.SetLoading(true)
		return m, m.fetchLightsCmd()
	}

	// Route to current screen
	switch m.screen {
	case ScreenSetup:
		var cmd tea.Cmd
		m.setupScreen, cmd = m.setupScreen.Update(msg)
		cmds = append(cmds, cmd)

	case ScreenLights:
		var cmd tea.Cmd
		m.lightsScreen, cmd = m.lightsScreen.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// rememberBridge saves a newly connected bridge as the last used one
func (m *Model) rememberBridge(bridge *api.Bridge, user string) {
	entry := config.BridgeConfig{
		Host:     bridge.LocalIPAddress(),
		Username: user,
		BridgeID: bridge.ID(),
	}
	m.config.AddBridge(entry)
	m.config.LastBridgeID = entry.Key()
	if err := m.config.Save(); err != nil {
		m.err = err
	}
}

// forgetBridge removes a saved bridge so it is not restored on the next start
func (m *Model) forgetBridge(bridge *api.Bridge) {
	key := config.BridgeConfig{Host: bridge.LocalIPAddress(), BridgeID: bridge.ID()}.Key()
	m.config.RemoveBridge(key)
	if m.config.LastBridgeID == key {
		m.config.LastBridgeID = ""
	}
	if err := m.config.Save(); err != nil {
		m.err = err
	}
}

// View renders the current screen
func (m Model) View() string {
	switch m.screen {
	case ScreenSetup:
		return m.setupScreen.View()
	case ScreenLights:
		return m.lightsScreen.View()
	default:
		return "Unknown screen"
	}
}

// fetchLightsCmd lists the lights and reads every light's state. The state
// reads run concurrently.
func (m Model) fetchLightsCmd() tea.Cmd {
	bridge, ctx := m.bridge, m.ctx
	return func() tea.Msg {
		if bridge == nil {
			return messages.ErrorMsg{Err: config.ErrNoBridges}
		}

		lights, err := api.Await(bridge.GetAllLightsAsync(ctx))
		if err != nil {
			return messages.ErrorMsg{Err: err}
		}

		pending := make([]*api.Future[*api.LightState], len(lights))
		for i, light := range lights {
			pending[i] = light.GetCurrentStateAsync(ctx)
		}

		states := make([]*api.LightState, len(lights))
		for i, f := range pending {
			// An unreadable light is shown as unreachable
			if state, err := api.Await(f); err == nil {
				states[i] = state
			}
		}

		return messages.LightsFetchedMsg{Lights: lights, States: states}
	}
}
