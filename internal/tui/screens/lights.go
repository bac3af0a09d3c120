package screens

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/fluenthue/internal/api"
	"github.com/angristan/fluenthue/internal/models"
	"github.com/angristan/fluenthue/internal/tui/components"
	"github.com/angristan/fluenthue/internal/tui/messages"
	"github.com/angristan/fluenthue/internal/tui/styles"
)

// brightnessStep is the change applied by +/- in percent
const brightnessStep = 10

// ColorPreset is a named RGB color cycled through with the c key
type ColorPreset struct {
	Name    string
	R, G, B uint8
}

// ColorPresets are applied in order
var ColorPresets = []ColorPreset{
	{Name: "warm white", R: 255, G: 180, B: 107},
	{Name: "red", R: 255, G: 0, B: 0},
	{Name: "orange", R: 255, G: 128, B: 0},
	{Name: "green", R: 0, G: 255, B: 0},
	{Name: "blue", R: 0, G: 0, B: 255},
	{Name: "purple", R: 160, G: 32, B: 240},
}

// lightRow pairs a light with the state it was last read or written with.
// The api objects are only touched from Update while no operation on the
// light is pending; View reads the copied view only.
type lightRow struct {
	light  *api.Light
	state  *api.LightState
	view   components.LightView
	preset int
}

func newLightRow(light *api.Light, state *api.LightState) lightRow {
	r := lightRow{light: light, state: state, preset: -1}
	r.sync()
	return r
}

// sync copies the api objects into the view
func (r *lightRow) sync() {
	r.view = components.LightView{
		Name:      r.light.Name(),
		Type:      r.light.Type(),
		Reachable: r.state != nil,
	}
	if r.state != nil {
		r.view.On = r.state.IsOn()
		r.view.Brightness = r.state.Brightness()
		r.view.Color = r.state.Color()
		r.view.HasColor = r.state.SupportsColor()
	}
}

// LightsModel is the light list screen
type LightsModel struct {
	ctx    context.Context
	bridge *api.Bridge

	rows     []lightRow
	selected int
	// busy holds the ids of lights with an operation in flight
	busy map[string]bool

	renaming bool
	input    textinput.Model

	loading bool
	spinner spinner.Model
	status  string
	err     error

	width  int
	height int
}

// NewLightsModel creates the light list screen; ctx bounds every operation
func NewLightsModel(ctx context.Context) LightsModel {
	ti := textinput.New()
	ti.Placeholder = "New name"
	ti.CharLimit = 32

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StyleSpinner

	return LightsModel{
		ctx:     ctx,
		busy:    make(map[string]bool),
		input:   ti,
		loading: true, // Start in loading state
		spinner: sp,
	}
}

// Init initializes the screen
func (m LightsModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// SetSize sets the terminal size
func (m *LightsModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetBridge sets the bridge whose lights are shown
func (m *LightsModel) SetBridge(bridge *api.Bridge) {
	m.bridge = bridge
}

// SetLoading toggles the loading indicator
func (m *LightsModel) SetLoading(loading bool) {
	m.loading = loading
}

// SetError shows err in the status bar
func (m *LightsModel) SetError(err error) {
	m.err = err
}

// Busy reports whether an operation on the light is in flight
func (m LightsModel) Busy(lightID string) bool {
	return m.busy[lightID]
}

// Views returns what is currently shown for each light
func (m LightsModel) Views() []components.LightView {
	views := make([]components.LightView, len(m.rows))
	for i, r := range m.rows {
		views[i] = r.view
	}
	return views
}

// Update handles messages
func (m LightsModel) Update(msg tea.Msg) (LightsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.LightsFetchedMsg:
		m.rows = make([]lightRow, len(msg.Lights))
		for i, light := range msg.Lights {
			var state *api.LightState
			if i < len(msg.States) {
				state = msg.States[i]
			}
			m.rows[i] = newLightRow(light, state)
		}
		if m.selected >= len(m.rows) {
			m.selected = max(len(m.rows)-1, 0)
		}
		m.busy = make(map[string]bool)
		m.loading = false
		m.err = nil

	case messages.LightStateUpdatedMsg:
		delete(m.busy, msg.LightID)
		if msg.Err != nil {
			m.err = msg.Err
			break
		}
		if row := m.row(msg.LightID); row != nil {
			row.state = msg.State
			row.sync()
		}
		m.err = nil

	case messages.LightRenamedMsg:
		delete(m.busy, msg.LightID)
		if row := m.row(msg.LightID); row != nil {
			row.sync()
		}
		m.err = msg.Err

	case messages.StatusMsg:
		m.status = msg.Text

	case spinner.TickMsg:
		if m.loading || len(m.busy) > 0 {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case tea.KeyMsg:
		if m.renaming {
			return m.updateRename(msg)
		}
		return m.updateKeys(msg)
	}

	m.syncBusyViews()
	return m, nil
}

func (m LightsModel) updateRename(msg tea.KeyMsg) (LightsModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.renaming = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.renaming = false
		m.input.Blur()
		row := m.selectedRow()
		name := strings.TrimSpace(m.input.Value())
		if row == nil || name == "" || name == row.light.Name() {
			return m, nil
		}
		return m, m.start(row, renameCmd(row.light.ID(), row.light.RenameAsync(m.ctx, name)))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m LightsModel) updateKeys(msg tea.KeyMsg) (LightsModel, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case "down", "j":
		if m.selected < len(m.rows)-1 {
			m.selected++
		}
		return m, nil

	case "r":
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg { return messages.RefreshMsg{} })

	case "x":
		return m, func() tea.Msg { return messages.ForgetBridgeMsg{} }

	case "d":
		if m.bridge == nil {
			return m, nil
		}
		m.status = "Starting light search..."
		return m, searchLightsCmd(m.bridge.DiscoverNewLightsAsync(m.ctx))
	}

	row := m.selectedRow()
	if row == nil || row.state == nil || m.busy[row.light.ID()] {
		// A light with a pending operation ignores further keys
		return m, nil
	}

	var f *api.Future[*api.LightState]
	switch msg.String() {
	case " ":
		f = row.state.ToggleAsync(m.ctx)

	case "+", "=":
		f = m.stepBrightness(row, brightnessStep)

	case "-":
		f = m.stepBrightness(row, -brightnessStep)

	case "c":
		if !row.state.SupportsColor() {
			m.status = "This light has no color"
			return m, nil
		}
		row.preset = (row.preset + 1) % len(ColorPresets)
		p := ColorPresets[row.preset]
		m.status = "Color: " + p.Name
		f = row.state.SetColorRGBAsync(m.ctx, p.R, p.G, p.B)

	case "n":
		m.renaming = true
		m.input.SetValue(row.light.Name())
		m.input.CursorEnd()
		m.input.Focus()
		return m, textinput.Blink
	}

	if f == nil {
		return m, nil
	}
	return m, m.start(row, stateCmd(row.light.ID(), f))
}

// stepBrightness changes the brightness by pct percent, staying within the
// bridge range; nil when there is nothing to change
func (m LightsModel) stepBrightness(row *lightRow, pct int) *api.Future[*api.LightState] {
	if !row.state.IsOn() {
		return nil
	}
	current := row.state.Brightness()
	target := models.BrightnessFromPct(models.BrightnessPct(current) + pct)
	if target == current {
		return nil
	}
	return row.state.SetBrightnessAsync(m.ctx, int(target))
}

// start marks the row busy and returns cmd along with the spinner
func (m *LightsModel) start(row *lightRow, cmd tea.Cmd) tea.Cmd {
	m.busy[row.light.ID()] = true
	row.view.Busy = true
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m *LightsModel) syncBusyViews() {
	for i := range m.rows {
		m.rows[i].view.Busy = m.busy[m.rows[i].light.ID()]
	}
}

func (m *LightsModel) row(lightID string) *lightRow {
	for i := range m.rows {
		if m.rows[i].light.ID() == lightID {
			return &m.rows[i]
		}
	}
	return nil
}

func (m *LightsModel) selectedRow() *lightRow {
	if m.selected < 0 || m.selected >= len(m.rows) {
		return nil
	}
	return &m.rows[m.selected]
}

// View renders the screen
func (m LightsModel) View() string {
	var b strings.Builder

	status := ""
	if m.bridge != nil {
		status = "Connected to " + m.bridge.LocalIPAddress()
	}
	b.WriteString(components.RenderHeader(m.width, status))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(fmt.Sprintf("%s Loading lights...\n", m.spinner.View()))
	case len(m.rows) == 0:
		b.WriteString(styles.StyleTextMuted.Render("No lights on this bridge. Press d to search for new lights.") + "\n")
	default:
		cards := make([]string, len(m.rows))
		for i, r := range m.rows {
			cards[i] = components.RenderLightCard(r.view, i == m.selected, m.width)
		}
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, cards...))
		b.WriteString("\n")
	}

	if m.renaming {
		b.WriteString("\nRename light:\n")
		b.WriteString(styles.StyleInputFocused.Render(m.input.View()))
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m LightsModel) renderStatusBar() string {
	if m.err != nil {
		return styles.StyleError.Render("✗ " + m.err.Error())
	}

	on := 0
	for _, r := range m.rows {
		if r.view.On {
			on++
		}
	}
	status := fmt.Sprintf("%d/%d lights on", on, len(m.rows))
	if m.status != "" {
		status += " • " + m.status
	}
	return styles.StyleTextMuted.Render(status)
}

func (m LightsModel) renderHelp() string {
	if m.renaming {
		return styles.StyleHelp.Render(styles.StyleHelpKey.Render("enter") + " save  " + styles.StyleHelpKey.Render("esc") + " cancel")
	}

	keys := []string{
		styles.StyleHelpKey.Render("↑↓") + " nav",
		styles.StyleHelpKey.Render("space") + " toggle",
		styles.StyleHelpKey.Render("+/-") + " dim",
		styles.StyleHelpKey.Render("c") + " color",
		styles.StyleHelpKey.Render("n") + " rename",
		styles.StyleHelpKey.Render("d") + " discover",
		styles.StyleHelpKey.Render("r") + " refresh",
		styles.StyleHelpKey.Render("x") + " forget bridge",
		styles.StyleHelpKey.Render("q") + " quit",
	}

	// For narrow terminals, show fewer keys
	if m.width > 0 && m.width < 60 {
		keys = []string{
			styles.StyleHelpKey.Render("↑↓") + " nav",
			styles.StyleHelpKey.Render("space") + " toggle",
			styles.StyleHelpKey.Render("q") + " quit",
		}
	}

	return styles.StyleHelp.Render(strings.Join(keys, "  "))
}

// Commands

// stateCmd waits for a state change off the update loop
func stateCmd(lightID string, f *api.Future[*api.LightState]) tea.Cmd {
	return func() tea.Msg {
		state, err := api.Await(f)
		return messages.LightStateUpdatedMsg{LightID: lightID, State: state, Err: err}
	}
}

func renameCmd(lightID string, f *api.Future[*api.Light]) tea.Cmd {
	return func() tea.Msg {
		_, err := api.Await(f)
		return messages.LightRenamedMsg{LightID: lightID, Err: err}
	}
}

func searchLightsCmd(f *api.Future[*api.Bridge]) tea.Cmd {
	return func() tea.Msg {
		if _, err := api.Await(f); err != nil {
			return messages.ErrorMsg{Err: err}
		}
		return messages.StatusMsg{Text: "Searching for new lights, press r to refresh"}
	}
}
