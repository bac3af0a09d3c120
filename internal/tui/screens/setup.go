package screens

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/fluenthue/internal/api"
	"github.com/angristan/fluenthue/internal/tui/messages"
	"github.com/angristan/fluenthue/internal/tui/styles"
)

const (
	discoveryTimeout = 8 * time.Second
	mdnsTimeout      = 3 * time.Second
	connectTimeout   = 10 * time.Second
)

// SetupState represents the current setup state
type SetupState int

const (
	StateDiscovering SetupState = iota
	StateBridgeList
	StateManualEntry
	StateUserEntry
	StateConnecting
	StateError
)

// Candidate is a bridge found during setup or typed in by hand
type Candidate struct {
	ID   string
	Host string
}

func (c Candidate) label() string {
	if c.ID == "" {
		return c.Host
	}
	id := c.ID
	if len(id) > 8 {
		id = id[len(id)-6:]
	}
	return fmt.Sprintf("%s (%s)", c.Host, id)
}

// SetupModel is the setup screen model
type SetupModel struct {
	locator *api.Locator
	useMDNS bool

	state      SetupState
	candidates []Candidate
	selected   int
	target     Candidate

	hostInput textinput.Model
	userInput textinput.Model
	spinner   spinner.Model

	err    error
	notice string

	// Window size
	width  int
	height int
}

// NewSetupModel creates a new setup screen model. With useMDNS the local
// network is searched in addition to the discovery service.
func NewSetupModel(locator *api.Locator, useMDNS bool) SetupModel {
	hi := textinput.New()
	hi.Placeholder = "192.168.1.x"
	hi.CharLimit = 45

	ui := textinput.New()
	ui.Placeholder = "application key"
	ui.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StyleSpinner

	return SetupModel{
		locator:   locator,
		useMDNS:   useMDNS,
		state:     StateDiscovering,
		hostInput: hi,
		userInput: ui,
		spinner:   sp,
	}
}

// Init initializes the setup screen
func (m SetupModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.discoverCmd(),
	)
}

// SetSize sets the terminal size
func (m *SetupModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// State returns the current setup state
func (m SetupModel) State() SetupState {
	return m.state
}

// Update handles messages
func (m SetupModel) Update(msg tea.Msg) (SetupModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.state {
		case StateBridgeList:
			switch msg.String() {
			case "up", "k":
				if m.selected > 0 {
					m.selected--
				}
			case "down", "j":
				if m.selected < len(m.candidates) {
					m.selected++
				}
			case "enter":
				if m.selected < len(m.candidates) {
					cmds = append(cmds, m.askUser(m.candidates[m.selected]))
				} else {
					// Manual entry selected
					cmds = append(cmds, m.enterManual())
				}
			case "m":
				cmds = append(cmds, m.enterManual())
			case "r":
				m.state = StateDiscovering
				cmds = append(cmds, m.discoverCmd())
			}
			return m, tea.Batch(cmds...)

		case StateManualEntry:
			switch msg.String() {
			case "enter":
				host := strings.TrimSpace(m.hostInput.Value())
				if host != "" {
					m.hostInput.Blur()
					return m, m.askUser(Candidate{Host: host})
				}
			case "esc":
				m.state = StateBridgeList
				m.hostInput.Blur()
				return m, nil
			}

		case StateUserEntry:
			switch msg.String() {
			case "enter":
				user := strings.TrimSpace(m.userInput.Value())
				if user != "" {
					m.state = StateConnecting
					m.userInput.Blur()
					return m, m.connectCmd(m.target, user)
				}
			case "esc":
				m.state = StateBridgeList
				m.userInput.Blur()
				return m, nil
			}

		case StateError:
			switch msg.String() {
			case "enter", "esc":
				return m, m.askUser(m.target)
			case "r":
				m.state = StateDiscovering
				return m, m.discoverCmd()
			}
		}

	case BridgesDiscoveredMsg:
		m.candidates = msg.Bridges
		m.selected = 0
		m.notice = ""
		if msg.Err != nil {
			m.notice = msg.Err.Error()
		}
		m.state = StateBridgeList

	case ConnectedMsg:
		return m, func() tea.Msg {
			return messages.BridgeConnectedMsg{Bridge: msg.Bridge, User: msg.User}
		}

	case ConnectErrorMsg:
		m.state = StateError
		m.err = msg.Err

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Update text inputs
	switch m.state {
	case StateManualEntry:
		var cmd tea.Cmd
		m.hostInput, cmd = m.hostInput.Update(msg)
		cmds = append(cmds, cmd)
	case StateUserEntry:
		var cmd tea.Cmd
		m.userInput, cmd = m.userInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *SetupModel) enterManual() tea.Cmd {
	m.state = StateManualEntry
	m.hostInput.Focus()
	return textinput.Blink
}

func (m *SetupModel) askUser(target Candidate) tea.Cmd {
	m.target = target
	m.state = StateUserEntry
	m.userInput.Focus()
	return textinput.Blink
}

// View renders the setup screen
func (m SetupModel) View() string {
	var b strings.Builder

	// Header
	header := styles.StyleHeaderGradient.Render("  fluenthue setup  ")
	b.WriteString(lipgloss.Place(m.width, 3, lipgloss.Center, lipgloss.Top, header))
	b.WriteString("\n\n")

	// Content based on state
	var content string
	switch m.state {
	case StateDiscovering:
		content = fmt.Sprintf("%s Searching for Hue bridges...", m.spinner.View())
	case StateBridgeList:
		content = m.renderBridgeList()
	case StateManualEntry:
		content = m.renderInput("Enter bridge IP address:", m.hostInput, "enter confirm • esc back")
	case StateUserEntry:
		content = m.renderInput(fmt.Sprintf("Application key for %s:", m.target.label()), m.userInput, "enter connect • esc back")
	case StateConnecting:
		content = fmt.Sprintf("%s Connecting to %s...", m.spinner.View(), m.target.label())
	case StateError:
		content = styles.StyleError.Render("✗ Error: "+m.err.Error()) + "\n\n" +
			styles.StyleHelp.Render("enter retry • r rediscover")
	}

	b.WriteString(lipgloss.Place(m.width, max(m.height-6, 0), lipgloss.Center, lipgloss.Center, content))

	return b.String()
}

func (m SetupModel) renderBridgeList() string {
	var b strings.Builder

	if len(m.candidates) == 0 {
		b.WriteString(styles.StyleTextMuted.Render("No bridges found.") + "\n")
		if m.notice != "" {
			b.WriteString(styles.StyleError.Render(m.notice) + "\n")
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Found bridges:\n\n")
		for i, c := range m.candidates {
			cursor := "  "
			style := styles.StyleListItem
			if i == m.selected {
				cursor = "> "
				style = styles.StyleListItemSelected
			}
			b.WriteString(cursor + style.Render(c.label()) + "\n")
		}
	}

	// Manual entry option
	cursor := "  "
	style := styles.StyleListItem
	if m.selected >= len(m.candidates) {
		cursor = "> "
		style = styles.StyleListItemSelected
	}
	b.WriteString("\n" + cursor + style.Render("Enter IP manually...") + "\n")

	b.WriteString("\n" + styles.StyleHelp.Render("↑/↓ navigate • enter select • r refresh • m manual"))

	return b.String()
}

func (m SetupModel) renderInput(prompt string, input textinput.Model, help string) string {
	var b strings.Builder

	b.WriteString(prompt + "\n\n")
	b.WriteString(styles.StyleInputFocused.Render(input.View()))
	b.WriteString("\n\n" + styles.StyleHelp.Render(help))

	return b.String()
}

// Commands

func (m SetupModel) discoverCmd() tea.Cmd {
	locator, useMDNS := m.locator, m.useMDNS
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), discoveryTimeout)
		defer cancel()

		cloud := locator.SelectAllAsync(ctx)
		local := api.Resolved[[]*api.Bridge]("select bridges over mDNS", nil, api.ErrBridgeNotFound)
		if useMDNS {
			local = locator.SelectMDNSAsync(ctx, mdnsTimeout)
		}

		found, cloudErr := api.Await(cloud)
		more, localErr := api.Await(local)

		candidates := mergeCandidates(found, more)
		if len(candidates) == 0 {
			return BridgesDiscoveredMsg{Err: discoveryError(cloudErr, localErr)}
		}
		return BridgesDiscoveredMsg{Bridges: candidates}
	}
}

// mergeCandidates lists every bridge once, discovery service answers first
func mergeCandidates(lists ...[]*api.Bridge) []Candidate {
	seen := make(map[string]bool)
	var result []Candidate
	for _, list := range lists {
		for _, b := range list {
			if seen[b.LocalIPAddress()] {
				continue
			}
			seen[b.LocalIPAddress()] = true
			result = append(result, Candidate{ID: b.ID(), Host: b.LocalIPAddress()})
		}
	}
	return result
}

// discoveryError returns the first failure worth showing; finding nothing
// is not one
func discoveryError(errs ...error) error {
	for _, err := range errs {
		if err != nil && !errors.Is(err, api.ErrBridgeNotFound) {
			return err
		}
	}
	return nil
}

func (m SetupModel) connectCmd(target Candidate, user string) tea.Cmd {
	locator := m.locator
	return func() tea.Msg {
		// A fresh bridge per attempt; the user of a bridge cannot change
		bridge, err := locator.SelectKnown(target.ID, target.Host)
		if err != nil {
			return ConnectErrorMsg{Err: err}
		}
		if _, err := bridge.WithUser(user); err != nil {
			return ConnectErrorMsg{Err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		// Listing lights proves the user is known to the bridge
		if _, err := api.Await(bridge.GetAllLightsAsync(ctx)); err != nil {
			return ConnectErrorMsg{Err: err}
		}

		return ConnectedMsg{Bridge: bridge, User: user}
	}
}

// Messages

type BridgesDiscoveredMsg struct {
	Bridges []Candidate
	Err     error
}

type ConnectedMsg struct {
	Bridge *api.Bridge
	User   string
}

type ConnectErrorMsg struct {
	Err error
}
