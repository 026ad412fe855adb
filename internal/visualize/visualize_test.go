package visualize

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RussTedrake/lerobot/internal/dataset"
	"github.com/RussTedrake/lerobot/internal/dataset/datasettest"
	"github.com/RussTedrake/lerobot/internal/record"
)

// fixtureRoot writes episode 3 with the 5x2 action matrix
// [[0,1],[2,3],[4,5],[6,7],[8,9]] and the given observation entries.
func fixtureRoot(t *testing.T, obs ...datasettest.Entry) string {
	t.Helper()
	root := t.TempDir()
	actions := []datasettest.Entry{
		{Key: dataset.ActionsKey, Raw: datasettest.NPYBytes(t, "<f8", []int{5, 2}, false, datasettest.Ramp(10))},
	}
	datasettest.WriteEpisode(t, root, 3, actions, obs)
	return root
}

func baseOptions(root string) Options {
	return Options{Path: root, EpisodeIndex: 3, Mode: ModeLocal, Quiet: true}
}

func TestRunRejectsModeBeforeIO(t *testing.T) {
	opts := baseOptions(filepath.Join(t.TempDir(), "missing"))
	opts.Mode = "remote"
	if _, err := Run(context.Background(), opts); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("got %v, want ErrInvalidMode", err)
	}
}

func TestRunRejectsSaveWithoutDirBeforeIO(t *testing.T) {
	opts := baseOptions(filepath.Join(t.TempDir(), "missing"))
	opts.Save = true
	if _, err := Run(context.Background(), opts); !errors.Is(err, ErrNoOutputDir) {
		t.Fatalf("got %v, want ErrNoOutputDir", err)
	}
}

func TestRunStreamsActions(t *testing.T) {
	outcome, err := Run(context.Background(), baseOptions(fixtureRoot(t)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Path != "" {
		t.Errorf("Path = %q, want empty", outcome.Path)
	}

	recs := outcome.Session.Records()
	if len(recs) != 10 {
		t.Fatalf("got %d records, want 10", len(recs))
	}
	for i, rec := range recs {
		frame := int64(i / 2)
		dim := i % 2
		if rec.Kind != record.KindScalar {
			t.Fatalf("record %d kind = %v", i, rec.Kind)
		}
		if want := fmt.Sprintf("action/%d", dim); rec.Entity != want {
			t.Errorf("record %d entity = %q, want %q", i, rec.Entity, want)
		}
		if rec.Frame != frame {
			t.Errorf("record %d frame = %d, want %d", i, rec.Frame, frame)
		}
		if rec.Scalar != float64(i) {
			t.Errorf("record %d scalar = %v, want %v", i, rec.Scalar, float64(i))
		}
		if rec.Time == nil {
			t.Fatalf("record %d has no timestamp", i)
		}
		if want := 0.1 * float64(frame); math.Abs(*rec.Time-want) > 1e-9 {
			t.Errorf("record %d timestamp = %v, want %v", i, *rec.Time, want)
		}
	}

	entities := outcome.Session.Entities()
	if len(entities) != 2 || entities[0] != "action/0" || entities[1] != "action/1" {
		t.Errorf("entities = %v", entities)
	}
}

func TestRunRobotAndDepthChannels(t *testing.T) {
	root := fixtureRoot(t,
		datasettest.Entry{Key: "robot_state", Raw: datasettest.NPYBytes(t, "<f8", []int{5, 3}, false, datasettest.Ramp(15))},
		datasettest.Entry{Key: "camera_0_depth", Raw: datasettest.NPYBytes(t, "|u1", []int{5, 2, 2}, false, datasettest.RampBytes(20))},
	)
	outcome, err := Run(context.Background(), baseOptions(root))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var robot []record.Record
	for _, rec := range outcome.Session.Records() {
		if strings.Contains(rec.Entity, "depth") {
			t.Fatalf("depth channel emitted record %+v", rec)
		}
		if strings.HasPrefix(rec.Entity, "robot_state/") {
			robot = append(robot, rec)
		}
	}
	if len(robot) != 15 {
		t.Fatalf("got %d robot records, want 15", len(robot))
	}
	for i, rec := range robot {
		if want := int64(i / 3); rec.Frame != want {
			t.Errorf("robot record %d frame = %d, want %d", i, rec.Frame, want)
		}
		if rec.Scalar != float64(i) {
			t.Errorf("robot record %d scalar = %v, want %v", i, rec.Scalar, float64(i))
		}
		// The robot loop never advances the timestamp axis, so every
		// record keeps the final action timestamp.
		if rec.Time == nil || math.Abs(*rec.Time-0.4) > 1e-9 {
			t.Errorf("robot record %d timestamp = %v, want 0.4", i, rec.Time)
		}
	}
}

func TestRunImageChannel(t *testing.T) {
	root := fixtureRoot(t,
		datasettest.Entry{Key: "camera_front", Raw: datasettest.NPYBytes(t, "|u1", []int{3, 5, 4, 3}, false, datasettest.RampBytes(180))},
	)
	outcome, err := Run(context.Background(), baseOptions(root))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var images []record.Record
	for _, rec := range outcome.Session.Records() {
		if rec.Kind == record.KindImage {
			images = append(images, rec)
		}
	}
	if len(images) != 3 {
		t.Fatalf("got %d image records, want 3", len(images))
	}
	for i, rec := range images {
		if rec.Entity != "camera_front" {
			t.Errorf("image %d entity = %q", i, rec.Entity)
		}
		if rec.Frame != int64(i) {
			t.Errorf("image %d frame = %d", i, rec.Frame)
		}
		img := rec.Image
		// ceil(5/2) x ceil(4/2), channels untouched.
		if img.Height != 3 || img.Width != 2 || img.Channels != 3 {
			t.Fatalf("image %d is %dx%dx%d, want 3x2x3", i, img.Height, img.Width, img.Channels)
		}
		if want := uint8((i * 60) % 251); img.Pix[0] != want {
			t.Errorf("image %d first byte = %d, want %d", i, img.Pix[0], want)
		}
	}
}

func TestRunImageFallbackRejectsBadShape(t *testing.T) {
	root := fixtureRoot(t,
		datasettest.Entry{Key: "notes", Raw: datasettest.NPYBytes(t, "<f8", []int{7}, false, datasettest.Ramp(7))},
	)
	_, err := Run(context.Background(), baseOptions(root))
	if !errors.Is(err, dataset.ErrNotImage) {
		t.Fatalf("got %v, want ErrNotImage", err)
	}
	if !strings.Contains(err.Error(), "notes") {
		t.Errorf("error does not name the channel: %v", err)
	}
}

func TestRunRejectsBadRobotShape(t *testing.T) {
	root := fixtureRoot(t,
		datasettest.Entry{Key: "robot_flags", Raw: datasettest.NPYBytes(t, "<f8", []int{5}, false, datasettest.Ramp(5))},
	)
	_, err := Run(context.Background(), baseOptions(root))
	if err == nil || !strings.Contains(err.Error(), "robot_flags") {
		t.Fatalf("got %v, want shape error naming robot_flags", err)
	}
}

func TestRunSaveWritesRecording(t *testing.T) {
	root := fixtureRoot(t)
	opts := baseOptions(root)
	opts.Save = true
	opts.OutputDir = filepath.Join(t.TempDir(), "out", "nested")
	opts.DatasetID = "tri/pusht"
	opts.Compression = record.CompressionZstd

	outcome, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.HasSuffix(outcome.Path, "_episode_3.rrd") {
		t.Errorf("Path = %q, want suffix _episode_3.rrd", outcome.Path)
	}
	if got := filepath.Base(outcome.Path); got != "tri_pusht_episode_3.rrd" {
		t.Errorf("file name = %q, want tri_pusht_episode_3.rrd", got)
	}
	if _, err := os.Stat(outcome.Path); err != nil {
		t.Fatalf("saved file missing: %v", err)
	}

	loaded, err := record.ReadFile(outcome.Path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if loaded.App() != "episode_3" {
		t.Errorf("loaded app = %q, want episode_3", loaded.App())
	}
	if loaded.Len() != outcome.Session.Len() {
		t.Errorf("loaded %d records, want %d", loaded.Len(), outcome.Session.Len())
	}
}

func TestRunMissingArchivePropagates(t *testing.T) {
	opts := baseOptions(t.TempDir())
	_, err := Run(context.Background(), opts)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("got %v, want wrapped fs.ErrNotExist", err)
	}
}

func TestRunMissingActionsKey(t *testing.T) {
	root := t.TempDir()
	actions := []datasettest.Entry{
		{Key: "act", Raw: datasettest.NPYBytes(t, "<f8", []int{5, 2}, false, datasettest.Ramp(10))},
	}
	datasettest.WriteEpisode(t, root, 3, actions, nil)

	_, err := Run(context.Background(), baseOptions(root))
	if !errors.Is(err, dataset.ErrNoSuchArray) {
		t.Fatalf("got %v, want ErrNoSuchArray", err)
	}
}

func TestRunDistantBlocksUntilCancel(t *testing.T) {
	root := fixtureRoot(t)
	opts := baseOptions(root)
	opts.Mode = ModeDistant
	opts.WebPort, opts.WSPort = 0, 0
	// Save is ignored in distant mode; the wait branch wins.
	opts.Save = true
	opts.OutputDir = t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		outcome *Outcome
		err     error
	}
	done := make(chan result, 1)
	go func() {
		outcome, err := Run(ctx, opts)
		done <- result{outcome, err}
	}()

	select {
	case r := <-done:
		t.Fatalf("returned before cancel: %+v, %v", r.outcome, r.err)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("Run: %v", r.err)
		}
		if r.outcome.Path != "" {
			t.Errorf("Path = %q, want empty", r.outcome.Path)
		}
		if r.outcome.Session.Len() != 10 {
			t.Errorf("session has %d records, want 10", r.outcome.Session.Len())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("did not return after cancel")
	}

	entries, err := os.ReadDir(opts.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("distant mode wrote files: %v", entries)
	}
}
