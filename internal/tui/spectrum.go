// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"spectra/internal/spectrum"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Live reconfiguration steps.
const (
	gainStep      = 1.25
	gravityStep   = 1.5
	minGain       = 0.05
	maxGain       = 200
	minGravity    = 0.25
	maxGravity    = 200
	minResolution = 2
)

// Block glyphs from one eighth to a full cell.
var glyphs = []rune("▁▂▃▄▅▆▇█")

var (
	lowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065"))
	midStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B"))
	highStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75")).Bold(true)
)

// Controller is the part of *spectrum.Pipeline the view reads and tunes.
type Controller interface {
	Frame() spectrum.Frame
	Config() spectrum.Config
	UpdateConfig(fn func(*spectrum.Config)) error
}

type spectrumKeyMap struct {
	GainUp      key.Binding
	GainDown    key.Binding
	Interp      key.Binding
	Aggregation key.Binding
	ResUp       key.Binding
	ResDown     key.Binding
	GravityDown key.Binding
	GravityUp   key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultSpectrumKeys() spectrumKeyMap {
	return spectrumKeyMap{
		GainUp:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "gain up")),
		GainDown:    key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "gain down")),
		Interp:      key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "interpolation")),
		Aggregation: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "aggregation")),
		ResUp:       key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "more bars")),
		ResDown:     key.NewBinding(key.WithKeys("["), key.WithHelp("[", "fewer bars")),
		GravityDown: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "gravity down")),
		GravityUp:   key.NewBinding(key.WithKeys("G"), key.WithHelp("G", "gravity up")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k spectrumKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.GainUp, k.GainDown, k.Interp, k.Aggregation, k.Help, k.Quit}
}

func (k spectrumKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.GainUp, k.GainDown, k.GravityUp, k.GravityDown},
		{k.Interp, k.Aggregation, k.ResUp, k.ResDown},
		{k.Help, k.Quit},
	}
}

type frameTickMsg time.Time

// StreamDoneMsg tells the view the stream has stopped; the program quits.
type StreamDoneMsg struct{ Err error }

// SpectrumModel is the Bubble Tea model for the live bar display.
type SpectrumModel struct {
	ctrl    Controller
	refresh time.Duration
	title   string
	keys    spectrumKeyMap
	help    help.Model

	frame  spectrum.Frame
	width  int
	height int
	status string
	err    error
}

// NewSpectrumModel polls ctrl every refresh. title is shown in the header.
func NewSpectrumModel(ctrl Controller, refresh time.Duration, title string) SpectrumModel {
	if refresh <= 0 {
		refresh = 33 * time.Millisecond
	}
	return SpectrumModel{
		ctrl:    ctrl,
		refresh: refresh,
		title:   title,
		keys:    defaultSpectrumKeys(),
		help:    help.New(),
		width:   80,
		height:  24,
	}
}

func (m SpectrumModel) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return frameTickMsg(t) })
}

// Init starts the refresh loop.
func (m SpectrumModel) Init() tea.Cmd {
	return m.tick()
}

// Update handles refresh ticks, resizes and key presses.
func (m SpectrumModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameTickMsg:
		m.frame = m.ctrl.Frame()
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width

	case StreamDoneMsg:
		m.err = msg.Err
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m SpectrumModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var (
		change func(*spectrum.Config)
		label  string
	)

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.GainUp):
		change = func(c *spectrum.Config) { c.Gain = math.Min(c.Gain*gainStep, maxGain) }
		label = "gain"
	case key.Matches(msg, m.keys.GainDown):
		change = func(c *spectrum.Config) { c.Gain = math.Max(c.Gain/gainStep, minGain) }
		label = "gain"
	case key.Matches(msg, m.keys.Interp):
		change = func(c *spectrum.Config) { c.Interpolation = c.Interpolation.Next() }
		label = "interpolation"
	case key.Matches(msg, m.keys.Aggregation):
		change = func(c *spectrum.Config) {
			if c.Aggregation == spectrum.AggregationMean {
				c.Aggregation = spectrum.AggregationPeak
			} else {
				c.Aggregation = spectrum.AggregationMean
			}
		}
		label = "aggregation"
	case key.Matches(msg, m.keys.ResUp):
		change = func(c *spectrum.Config) { c.Resolution = min(c.Resolution*2, c.BufferSize/2) }
		label = "resolution"
	case key.Matches(msg, m.keys.ResDown):
		change = func(c *spectrum.Config) { c.Resolution = max(c.Resolution/2, minResolution) }
		label = "resolution"
	case key.Matches(msg, m.keys.GravityUp):
		change = func(c *spectrum.Config) {
			c.GravityAcceleration = math.Min(math.Max(c.GravityAcceleration, minGravity)*gravityStep, maxGravity)
		}
		label = "gravity"
	case key.Matches(msg, m.keys.GravityDown):
		change = func(c *spectrum.Config) {
			c.GravityAcceleration = math.Max(c.GravityAcceleration/gravityStep, minGravity)
		}
		label = "gravity"
	default:
		return m, nil
	}

	if err := m.ctrl.UpdateConfig(change); err != nil {
		m.status = fmt.Sprintf("%s unchanged: %v", label, err)
		return m, nil
	}
	m.status = describe(label, m.ctrl.Config())
	return m, nil
}

// describe is the status line shown after a successful change.
func describe(label string, c spectrum.Config) string {
	switch label {
	case "gain":
		return fmt.Sprintf("gain %.2f", c.Gain)
	case "interpolation":
		return "interpolation " + c.Interpolation.String()
	case "aggregation":
		return "aggregation " + c.Aggregation.String()
	case "resolution":
		return fmt.Sprintf("resolution %d", c.Resolution)
	case "gravity":
		return fmt.Sprintf("gravity %.2f", c.GravityAcceleration)
	}
	return label
}

// Err is the stream error that ended the program, if any.
func (m SpectrumModel) Err() error { return m.err }

// View renders the header, the bars and the help line.
func (m SpectrumModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString(" ")
	sb.WriteString(statusStyle.Render(m.summary()))
	sb.WriteString("\n\n")

	helpView := m.help.View(m.keys)
	reserved := 4 + lipgloss.Height(helpView)
	rows := max(m.height-reserved, 1)

	if len(m.frame.Bars) == 0 {
		sb.WriteString(statusStyle.Render("waiting for audio..."))
		sb.WriteString(strings.Repeat("\n", rows))
	} else {
		sb.WriteString(renderBars(m.frame.Values(), float32(m.frame.Config.MaxVolume), m.width, rows))
		sb.WriteString("\n")
	}

	switch {
	case m.err != nil:
		sb.WriteString(errorStyle.Render(m.err.Error()))
	case m.status != "":
		sb.WriteString(statusStyle.Render(m.status))
	}
	sb.WriteString("\n")
	sb.WriteString(helpView)
	return sb.String()
}

func (m SpectrumModel) summary() string {
	if m.frame.Seq == 0 {
		return ""
	}
	c := m.frame.Config
	return fmt.Sprintf("#%d  %d bars  %s/%s  gain %.2f  %.0f-%.0f Hz",
		m.frame.Seq, len(m.frame.Bars), c.Interpolation, c.Aggregation, c.Gain,
		c.FrequencyRange.MinHz, c.FrequencyRange.MaxHz)
}

// renderBars draws values as vertical columns rows high, scaled against
// ceiling and spread evenly over width cells. Each bar gets at least one
// column; bars beyond width are dropped.
func renderBars(values []float32, ceiling float32, width, rows int) string {
	if len(values) == 0 || rows <= 0 || width <= 0 {
		return ""
	}
	if ceiling <= 0 {
		ceiling = 1
	}

	count := min(len(values), width)
	colWidth := max(width/count, 1)
	gap := 0
	if colWidth >= 3 {
		gap = 1
	}

	// Level of each bar in eighths of a row.
	eighths := make([]int, count)
	for i := range count {
		v := min(max(values[i]/ceiling, 0), 1)
		eighths[i] = int(math.Round(float64(v) * float64(rows*8)))
	}

	var sb strings.Builder
	for row := rows - 1; row >= 0; row-- {
		for i := range count {
			cell := cellGlyph(eighths[i], row)
			block := strings.Repeat(string(cell), colWidth-gap) + strings.Repeat(" ", gap)
			if cell != ' ' {
				block = levelStyle(float64(row+1) / float64(rows)).Render(block)
			}
			sb.WriteString(block)
		}
		if row > 0 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// cellGlyph returns the glyph for a bar of level eighths at row (0 = bottom).
func cellGlyph(eighths, row int) rune {
	filled := eighths - row*8
	switch {
	case filled >= 8:
		return glyphs[len(glyphs)-1]
	case filled <= 0:
		return ' '
	default:
		return glyphs[filled-1]
	}
}

func levelStyle(level float64) lipgloss.Style {
	switch {
	case level > 0.8:
		return highStyle
	case level > 0.5:
		return midStyle
	default:
		return lowStyle
	}
}
