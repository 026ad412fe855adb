package viewer

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/RussTedrake/lerobot/internal/record"
)

const (
	canvasCols = 64
	canvasRows = 20
	chartWidth = 40
	chartRows  = 6
	barWidth   = 40
	jumpSize   = 10
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	canvasStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	statsStyle  = lipgloss.NewStyle().Padding(1, 2).Width(52)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	chartStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model plays one recorded session back frame by frame. The session is
// snapshotted at construction; live sinks keep feeding remote viewers
// independently.
type Model struct {
	app    string
	frames int

	// Per-frame axes and series, indexed by frame number. Frames an
	// entity never logged hold NaN (scalars) or nil (images).
	times       []float64
	scalars     map[string][]float64
	scalarNames []string
	images      map[string][]*record.Image
	imageNames  []string

	playHead  int
	playing   bool
	fps       int
	canvas    *Canvas
	selScalar int
	selImage  int
	showHelp  bool
}

// NewModel indexes every record of sess by frame. fps bounds playback
// speed; values below 1 fall back to 10.
func NewModel(sess *record.Session, fps int) Model {
	if fps < 1 {
		fps = 10
	}
	frames := int(sess.MaxFrame()) + 1
	if frames < 1 {
		frames = 1
	}
	m := Model{
		app:     sess.App(),
		frames:  frames,
		times:   nanSeries(frames),
		scalars: make(map[string][]float64),
		images:  make(map[string][]*record.Image),
		playing: true,
		fps:     fps,
		canvas:  NewCanvas(canvasCols, canvasRows),
	}
	for _, r := range sess.Records() {
		f := int(r.Frame)
		if f < 0 || f >= frames {
			continue
		}
		if r.Time != nil {
			m.times[f] = *r.Time
		}
		switch r.Kind {
		case record.KindScalar:
			series, ok := m.scalars[r.Entity]
			if !ok {
				series = nanSeries(frames)
				m.scalars[r.Entity] = series
				m.scalarNames = append(m.scalarNames, r.Entity)
			}
			series[f] = r.Scalar
		case record.KindImage:
			if r.Image == nil {
				continue
			}
			shots, ok := m.images[r.Entity]
			if !ok {
				shots = make([]*record.Image, frames)
				m.images[r.Entity] = shots
				m.imageNames = append(m.imageNames, r.Entity)
			}
			shots[f] = r.Image
		}
	}
	return m
}

func nanSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

// Update handles playback keys and tick-driven frame advance.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.playing = !m.playing
		case "left", "h":
			m.playing = false
			m.seek(m.playHead - 1)
		case "right", "l":
			m.playing = false
			m.seek(m.playHead + 1)
		case "[":
			m.playing = false
			m.seek(m.playHead - jumpSize)
		case "]":
			m.playing = false
			m.seek(m.playHead + jumpSize)
		case "home", "g":
			m.seek(0)
		case "end", "G":
			m.playing = false
			m.seek(m.frames - 1)
		case "tab":
			m.cycleImage()
		case "s":
			m.cycleScalar()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.playing {
			m.playHead = (m.playHead + 1) % m.frames
		}
		return m, m.tick()
	}
	return m, nil
}

// seek clamps the play head to the episode range.
func (m *Model) seek(frame int) {
	if frame < 0 {
		frame = 0
	}
	if frame >= m.frames {
		frame = m.frames - 1
	}
	m.playHead = frame
}

func (m *Model) cycleImage() {
	if len(m.imageNames) == 0 {
		return
	}
	m.selImage = (m.selImage + 1) % len(m.imageNames)
}

func (m *Model) cycleScalar() {
	if len(m.scalarNames) == 0 {
		return
	}
	m.selScalar = (m.selScalar + 1) % len(m.scalarNames)
}

// imageAt returns the newest image for the selected camera at or before
// frame. Cameras that log every frame always hit the first probe.
func (m *Model) imageAt(frame int) *record.Image {
	if len(m.imageNames) == 0 {
		return nil
	}
	shots := m.images[m.imageNames[m.selImage]]
	for f := frame; f >= 0; f-- {
		if shots[f] != nil {
			return shots[f]
		}
	}
	return nil
}

// timeAt returns the newest timestamp at or before frame, NaN when the
// session never set one.
func (m *Model) timeAt(frame int) float64 {
	for f := frame; f >= 0; f-- {
		if !math.IsNaN(m.times[f]) {
			return m.times[f]
		}
	}
	return math.NaN()
}

// chartValues collects the selected scalar series up to and including
// frame, skipping frames the entity never logged.
func (m *Model) chartValues(frame int) []float64 {
	if len(m.scalarNames) == 0 {
		return nil
	}
	series := m.scalars[m.scalarNames[m.selScalar]]
	vals := make([]float64, 0, frame+1)
	for f := 0; f <= frame && f < len(series); f++ {
		if !math.IsNaN(series[f]) {
			vals = append(vals, series[f])
		}
	}
	return vals
}

// draw refreshes the canvas for the current frame: the selected camera
// when the episode has one, otherwise the selected scalar trace.
func (m *Model) draw() {
	if im := m.imageAt(m.playHead); im != nil {
		m.canvas.DrawImage(*im)
		return
	}
	if len(m.scalarNames) > 0 {
		m.canvas.DrawSeries(m.scalars[m.scalarNames[m.selScalar]][:m.playHead+1])
		return
	}
	m.canvas.Clear()
}

// View renders the playback interface.
func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	status := "PLAYING"
	if !m.playing {
		status = "PAUSED"
	}
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.app)) + "\n")
	s.WriteString(status + "\n\n")

	s.WriteString(labelStyle.Render("Frame") + valueStyle.Render(fmt.Sprintf("%d / %d", m.playHead, m.frames-1)) + "\n")
	if t := m.timeAt(m.playHead); !math.IsNaN(t) {
		s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", t)) + "\n")
	}
	if len(m.imageNames) > 0 {
		s.WriteString(labelStyle.Render("Camera") + activeStyle.Render(m.imageNames[m.selImage]) +
			valueStyle.Render(fmt.Sprintf("  (%d/%d)", m.selImage+1, len(m.imageNames))) + "\n")
	}
	if len(m.scalarNames) > 0 {
		s.WriteString(labelStyle.Render("Series") + activeStyle.Render(m.scalarNames[m.selScalar]) +
			valueStyle.Render(fmt.Sprintf("  (%d/%d)", m.selScalar+1, len(m.scalarNames))) + "\n")
		if vals := m.chartValues(m.playHead); len(vals) > 1 {
			chart := asciigraph.Plot(vals, asciigraph.Height(chartRows), asciigraph.Width(chartWidth))
			s.WriteString(chartStyle.Render(chart) + "\n")
		}
	}

	s.WriteString("\n" + m.timeline() + "\n")
	s.WriteString(helpStyle.Render("SP:Pause ←→:Step [ ]:Jump\nHome/End:Seek Tab:Camera S:Series\n?:Help Q:Quit"))
	statsView := statsStyle.Render(s.String())

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return helpOverlay + "\n\n" + mainView
	}
	return mainView
}

// timeline renders the scrub bar with the play head position.
func (m *Model) timeline() string {
	filled := 0
	if m.frames > 1 {
		filled = m.playHead * (barWidth - 1) / (m.frames - 1)
	}
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < barWidth; i++ {
		switch {
		case i == filled:
			b.WriteByte('|')
		case i < filled:
			b.WriteByte('=')
		default:
			b.WriteByte('-')
		}
	}
	b.WriteByte(']')
	return b.String()
}

const helpOverlay = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume playback    ║
║  ←/H →/L - Step one frame           ║
║  [ ]      - Jump 10 frames           ║
║  Home/G   - First frame              ║
║  End      - Last frame               ║
║  Tab      - Cycle camera feeds       ║
║  S        - Cycle scalar series      ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// Run plays sess in an alternate-screen terminal program and blocks
// until the user quits.
func Run(sess *record.Session, fps int) error {
	_, err := tea.NewProgram(NewModel(sess, fps), tea.WithAltScreen()).Run()
	return err
}
