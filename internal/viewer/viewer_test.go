package viewer

import (
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/RussTedrake/lerobot/internal/record"
)

func testSession() *record.Session {
	sess := record.NewSession("episode_7")
	sess.SetFrame(0)
	sess.SetTimestamp(0.0)
	sess.LogScalar("action/0", 1)
	sess.LogScalar("action/1", 2)
	sess.LogImage("camera_front", record.Image{Height: 1, Width: 1, Channels: 1, Pix: []uint8{200}})
	sess.SetFrame(1)
	sess.SetTimestamp(0.1)
	sess.LogScalar("action/0", 3)
	sess.LogScalar("action/1", 4)
	return sess
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestNewModelIndexesSession(t *testing.T) {
	m := NewModel(testSession(), 10)

	if m.frames != 2 {
		t.Fatalf("expected 2 frames, got %d", m.frames)
	}
	if len(m.scalarNames) != 2 || m.scalarNames[0] != "action/0" || m.scalarNames[1] != "action/1" {
		t.Errorf("expected scalar names in first-seen order, got %v", m.scalarNames)
	}
	series := m.scalars["action/0"]
	if series[0] != 1 || series[1] != 3 {
		t.Errorf("expected action/0 series [1 3], got %v", series)
	}
	if len(m.imageNames) != 1 || m.imageNames[0] != "camera_front" {
		t.Errorf("expected one camera, got %v", m.imageNames)
	}
	shots := m.images["camera_front"]
	if shots[0] == nil || shots[1] != nil {
		t.Error("expected an image at frame 0 only")
	}
	if got := m.timeAt(1); got != 0.1 {
		t.Errorf("expected time 0.1 at frame 1, got %v", got)
	}
	if !m.playing {
		t.Error("playback should start running")
	}
}

func TestNewModelEmptySession(t *testing.T) {
	m := NewModel(record.NewSession("episode_0"), 0)

	if m.frames != 1 {
		t.Fatalf("empty session should hold one frame, got %d", m.frames)
	}
	if m.fps != 10 {
		t.Errorf("fps fallback: expected 10, got %d", m.fps)
	}
	if m.imageAt(0) != nil {
		t.Error("expected no image")
	}
	if vals := m.chartValues(0); vals != nil {
		t.Errorf("expected no chart values, got %v", vals)
	}
	if !math.IsNaN(m.timeAt(0)) {
		t.Error("expected NaN time for a session without timestamps")
	}
	if view := m.View(); !strings.Contains(view, "EPISODE_0") {
		t.Error("view should name the session")
	}
}

func TestSeekClamps(t *testing.T) {
	m := NewModel(testSession(), 10)

	m.seek(-5)
	if m.playHead != 0 {
		t.Errorf("seek below range: expected 0, got %d", m.playHead)
	}
	m.seek(99)
	if m.playHead != 1 {
		t.Errorf("seek past range: expected 1, got %d", m.playHead)
	}
}

func TestSpaceTogglesPause(t *testing.T) {
	m := NewModel(testSession(), 10)

	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if m.playing {
		t.Fatal("space should pause")
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if !m.playing {
		t.Fatal("space should resume")
	}
}

func TestStepKeysPauseAndMove(t *testing.T) {
	m := NewModel(testSession(), 10)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.playing {
		t.Error("stepping should pause playback")
	}
	if m.playHead != 1 {
		t.Errorf("expected play head 1, got %d", m.playHead)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.playHead != 1 {
		t.Errorf("step past the end should clamp, got %d", m.playHead)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.playHead != 0 {
		t.Errorf("expected play head 0, got %d", m.playHead)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.playHead != 0 {
		t.Errorf("step before the start should clamp, got %d", m.playHead)
	}
}

func TestJumpAndSeekKeys(t *testing.T) {
	sess := record.NewSession("episode_1")
	for i := 0; i < 30; i++ {
		sess.SetFrame(int64(i))
		sess.LogScalar("action/0", float64(i))
	}
	m := NewModel(sess, 10)

	m = update(t, m, keyRunes("]"))
	if m.playHead != jumpSize {
		t.Errorf("expected jump to %d, got %d", jumpSize, m.playHead)
	}
	m = update(t, m, keyRunes("["))
	if m.playHead != 0 {
		t.Errorf("expected jump back to 0, got %d", m.playHead)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnd})
	if m.playHead != 29 {
		t.Errorf("expected end at 29, got %d", m.playHead)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyHome})
	if m.playHead != 0 {
		t.Errorf("expected home at 0, got %d", m.playHead)
	}
}

func TestTickAdvancesAndWraps(t *testing.T) {
	m := NewModel(testSession(), 10)

	next, cmd := m.Update(TickMsg(time.Now()))
	m = next.(Model)
	if m.playHead != 1 {
		t.Fatalf("expected play head 1 after tick, got %d", m.playHead)
	}
	if cmd == nil {
		t.Fatal("tick must reschedule itself")
	}

	m = update(t, m, TickMsg(time.Now()))
	if m.playHead != 0 {
		t.Errorf("playback should loop, got %d", m.playHead)
	}
}

func TestTickHoldsWhilePaused(t *testing.T) {
	m := NewModel(testSession(), 10)
	m.playing = false

	m = update(t, m, TickMsg(time.Now()))
	if m.playHead != 0 {
		t.Errorf("paused tick should not advance, got %d", m.playHead)
	}
}

func TestCycleKeys(t *testing.T) {
	sess := record.NewSession("episode_2")
	sess.SetFrame(0)
	sess.LogScalar("action/0", 1)
	sess.LogScalar("robot_joint/0", 2)
	im := record.Image{Height: 1, Width: 1, Channels: 1, Pix: []uint8{0}}
	sess.LogImage("camera_front", im)
	sess.LogImage("camera_wrist", im)
	m := NewModel(sess, 10)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.selImage != 1 {
		t.Errorf("tab should select the next camera, got %d", m.selImage)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.selImage != 0 {
		t.Errorf("tab should wrap around, got %d", m.selImage)
	}
	m = update(t, m, keyRunes("s"))
	if m.selScalar != 1 {
		t.Errorf("s should select the next series, got %d", m.selScalar)
	}
}

func TestImageCarryForward(t *testing.T) {
	sess := record.NewSession("episode_3")
	sess.SetFrame(0)
	sess.LogImage("camera_front", record.Image{Height: 1, Width: 1, Channels: 1, Pix: []uint8{9}})
	sess.SetFrame(2)
	sess.LogScalar("action/0", 1)
	m := NewModel(sess, 10)

	im := m.imageAt(2)
	if im == nil {
		t.Fatal("expected the frame-0 image to carry forward")
	}
	if im.Pix[0] != 9 {
		t.Errorf("expected carried image, got pix %v", im.Pix)
	}
}

func TestChartValuesSkipsGaps(t *testing.T) {
	sess := record.NewSession("episode_4")
	sess.SetFrame(0)
	sess.LogScalar("action/0", 5)
	sess.SetFrame(1)
	sess.LogScalar("other/0", 0)
	sess.SetFrame(2)
	sess.LogScalar("action/0", 7)
	m := NewModel(sess, 10)

	vals := m.chartValues(2)
	if len(vals) != 2 || vals[0] != 5 || vals[1] != 7 {
		t.Errorf("expected [5 7], got %v", vals)
	}
}

func TestViewShowsPlaybackState(t *testing.T) {
	m := NewModel(testSession(), 10)

	view := m.View()
	if !strings.Contains(view, "EPISODE_7") {
		t.Error("view should show the session name")
	}
	if !strings.Contains(view, "PLAYING") {
		t.Error("view should show the playing state")
	}
	if !strings.Contains(view, "camera_front") {
		t.Error("view should show the selected camera")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if view := m.View(); !strings.Contains(view, "PAUSED") {
		t.Error("view should show the paused state")
	}

	m = update(t, m, keyRunes("?"))
	if view := m.View(); !strings.Contains(view, "KEYBOARD SHORTCUTS") {
		t.Error("view should show the help overlay")
	}
}
