package dataset

import "strings"

// ChannelKind says how an observation channel is handled when streamed.
type ChannelKind int

const (
	// ChannelRobot is a low-dimensional vector channel, logged one
	// scalar per dimension.
	ChannelRobot ChannelKind = iota
	// ChannelDepth is skipped entirely.
	ChannelDepth
	// ChannelImage is the fallback: frames are downsampled and logged
	// as images.
	ChannelImage
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelRobot:
		return "robot"
	case ChannelDepth:
		return "depth"
	case ChannelImage:
		return "image"
	default:
		return "unknown"
	}
}

// Rules classifies observation channels by substring. The robot prefix
// wins over the depth marker when a name carries both.
type Rules struct {
	RobotPrefix string
	DepthMarker string
}

// Classify maps a channel name to its kind.
func (r Rules) Classify(name string) ChannelKind {
	switch {
	case strings.Contains(name, r.RobotPrefix):
		return ChannelRobot
	case strings.Contains(name, r.DepthMarker):
		return ChannelDepth
	default:
		return ChannelImage
	}
}
