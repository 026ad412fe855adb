package visualize

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/RussTedrake/lerobot/internal/config"
)

func TestValidateFillsDefaults(t *testing.T) {
	opts := Options{Path: "/data/pusht", EpisodeIndex: 1, Mode: ModeLocal}
	if err := opts.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if opts.Downsample != config.DefaultDownsample {
		t.Errorf("Downsample = %d, want %d", opts.Downsample, config.DefaultDownsample)
	}
	if opts.ActionDt != config.DefaultActionDt {
		t.Errorf("ActionDt = %v, want %v", opts.ActionDt, config.DefaultActionDt)
	}
	if opts.RobotPrefix != "robot_" || opts.DepthMarker != "_depth" || opts.ActionEntity != "action" {
		t.Errorf("naming rules = %q/%q/%q", opts.RobotPrefix, opts.DepthMarker, opts.ActionEntity)
	}
	if opts.DatasetID != "pusht" {
		t.Errorf("DatasetID = %q, want pusht", opts.DatasetID)
	}
}

func TestValidateErrors(t *testing.T) {
	base := func() Options {
		return Options{Path: "/data/pusht", EpisodeIndex: 0, Mode: ModeLocal}
	}

	tests := []struct {
		name   string
		mutate func(*Options)
		want   error
	}{
		{"bad mode", func(o *Options) { o.Mode = "remote" }, ErrInvalidMode},
		{"empty mode", func(o *Options) { o.Mode = "" }, ErrInvalidMode},
		{"save without dir", func(o *Options) { o.Save = true }, ErrNoOutputDir},
		{"no path", func(o *Options) { o.Path = "" }, ErrNoPath},
		{"negative episode", func(o *Options) { o.EpisodeIndex = -1 }, ErrBadEpisode},
		{"negative stride", func(o *Options) { o.Downsample = -1 }, ErrBadStride},
		{"negative dt", func(o *Options) { o.ActionDt = -0.1 }, ErrBadActionDt},
		{"distant bad web port", func(o *Options) { o.Mode = ModeDistant; o.WebPort = -2 }, ErrBadPort},
		{"distant bad ws port", func(o *Options) { o.Mode = ModeDistant; o.WSPort = 70000 }, ErrBadPort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := base()
			tt.mutate(&opts)
			if err := opts.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidatePortsIgnoredInLocalMode(t *testing.T) {
	opts := Options{Path: "/data/pusht", Mode: ModeLocal, WebPort: -1, WSPort: -1}
	if err := opts.Validate(); err != nil {
		t.Errorf("local mode should not validate ports, got %v", err)
	}
}

func TestSavePathSanitizesID(t *testing.T) {
	opts := Options{
		Path:         "/data/ep",
		EpisodeIndex: 3,
		Mode:         ModeLocal,
		Save:         true,
		OutputDir:    "/tmp/out",
		DatasetID:    "lerobot/pusht",
	}
	if err := opts.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if opts.DatasetID != "lerobot_pusht" {
		t.Errorf("DatasetID = %q, want lerobot_pusht", opts.DatasetID)
	}
	want := filepath.Join("/tmp/out", "lerobot_pusht_episode_3.rrd")
	if got := opts.SavePath(); got != want {
		t.Errorf("SavePath = %q, want %q", got, want)
	}
}

func TestNewOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Downsample = 4
	cfg.ActionDt = 0.05

	opts := NewOptions(cfg, "/data/ep", 7)
	if opts.Path != "/data/ep" || opts.EpisodeIndex != 7 {
		t.Errorf("identity = %q/%d", opts.Path, opts.EpisodeIndex)
	}
	if opts.Mode != ModeLocal {
		t.Errorf("Mode = %q, want local", opts.Mode)
	}
	if opts.WebPort != config.DefaultWebPort || opts.WSPort != config.DefaultWSPort {
		t.Errorf("ports = %d/%d", opts.WebPort, opts.WSPort)
	}
	if opts.Downsample != 4 || opts.ActionDt != 0.05 {
		t.Errorf("knobs = %d/%v", opts.Downsample, opts.ActionDt)
	}
}
