package visualize

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/RussTedrake/lerobot/internal/config"
	"github.com/RussTedrake/lerobot/internal/dataset"
	"github.com/RussTedrake/lerobot/internal/record"
)

// Delivery modes.
const (
	ModeLocal   = "local"
	ModeDistant = "distant"
)

// Options are the run parameters for one episode visualization. All
// fields are plain values so callers construct them explicitly rather
// than threading loose arguments around.
type Options struct {
	Path         string
	EpisodeIndex int
	Mode         string
	WebPort      int
	WSPort       int
	Save         bool
	OutputDir    string

	// DatasetID names the dataset in the saved file name. Empty means
	// derive it from the base name of Path.
	DatasetID string

	// Downsample is the spatial stride applied to image frames.
	Downsample int

	// ActionDt is the timestamp advance per action frame.
	ActionDt float64

	// Channel naming rules and the entity prefix for action scalars.
	RobotPrefix  string
	DepthMarker  string
	ActionEntity string

	// Compression selects the recording payload codec when saving.
	Compression record.Compression

	// Quiet suppresses per-channel progress output.
	Quiet bool

	// Logger receives distant-mode server logs. Nil means slog.Default.
	Logger *slog.Logger
}

// NewOptions builds local-mode options from configuration defaults.
func NewOptions(cfg *config.Config, path string, episodeIndex int) Options {
	return Options{
		Path:         path,
		EpisodeIndex: episodeIndex,
		Mode:         ModeLocal,
		WebPort:      cfg.WebPort,
		WSPort:       cfg.WSPort,
		Downsample:   cfg.Downsample,
		ActionDt:     cfg.ActionDt,
		RobotPrefix:  cfg.RobotPrefix,
		DepthMarker:  cfg.DepthMarker,
		ActionEntity: cfg.ActionEntity,
	}
}

// Validate checks the argument surface before any file or network
// access and fills derived fields: the dataset identifier, unset knobs,
// and naming rules. Argument errors always surface here, never from
// the middle of a run.
func (o *Options) Validate() error {
	switch o.Mode {
	case ModeLocal, ModeDistant:
	default:
		return fmt.Errorf("%w, got %q", ErrInvalidMode, o.Mode)
	}
	if o.Save && o.OutputDir == "" {
		return ErrNoOutputDir
	}
	if o.Path == "" {
		return ErrNoPath
	}
	if o.EpisodeIndex < 0 {
		return fmt.Errorf("%w, got %d", ErrBadEpisode, o.EpisodeIndex)
	}
	if o.Mode == ModeDistant {
		if o.WebPort < 0 || o.WebPort > 65535 {
			return fmt.Errorf("%w: web port %d", ErrBadPort, o.WebPort)
		}
		if o.WSPort < 0 || o.WSPort > 65535 {
			return fmt.Errorf("%w: websocket port %d", ErrBadPort, o.WSPort)
		}
	}
	if o.Downsample < 0 {
		return fmt.Errorf("%w, got %d", ErrBadStride, o.Downsample)
	}
	if o.Downsample == 0 {
		o.Downsample = config.DefaultDownsample
	}
	if o.ActionDt < 0 {
		return fmt.Errorf("%w, got %v", ErrBadActionDt, o.ActionDt)
	}
	if o.ActionDt == 0 {
		o.ActionDt = config.DefaultActionDt
	}
	if o.RobotPrefix == "" {
		o.RobotPrefix = config.DefaultRobotPrefix
	}
	if o.DepthMarker == "" {
		o.DepthMarker = config.DefaultDepthMarker
	}
	if o.ActionEntity == "" {
		o.ActionEntity = config.DefaultActionEntity
	}
	if o.DatasetID == "" {
		o.DatasetID = dataset.DatasetID(o.Path)
	}
	o.DatasetID = sanitizeID(o.DatasetID)
	return nil
}

func (o *Options) episode() dataset.Episode {
	return dataset.Episode{Root: o.Path, Index: o.EpisodeIndex}
}

func (o *Options) rules() dataset.Rules {
	return dataset.Rules{RobotPrefix: o.RobotPrefix, DepthMarker: o.DepthMarker}
}

// SavePath is the recording destination for validated save options.
func (o *Options) SavePath() string {
	name := fmt.Sprintf("%s_episode_%d.rrd", o.DatasetID, o.EpisodeIndex)
	return filepath.Join(o.OutputDir, name)
}

// sanitizeID replaces path separators so the identifier is safe inside
// a file name.
func sanitizeID(id string) string {
	id = strings.ReplaceAll(id, "/", "_")
	if sep := string(filepath.Separator); sep != "/" {
		id = strings.ReplaceAll(id, sep, "_")
	}
	return id
}
