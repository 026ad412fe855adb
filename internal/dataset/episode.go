package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Layout constants for the on-disk episode tree.
const (
	datasetSubdir = "diffusion_spartan"
	processedDir  = "processed"
	actionsFile   = "actions.npz"
	obsFile       = "observations.npz"

	// ActionsKey is the array key holding the (T, D) action matrix
	// inside the actions archive.
	ActionsKey = "actions"
)

// Episode addresses one recorded episode under a dataset root.
type Episode struct {
	Root  string
	Index int
}

// Name is the episode's directory name, episode_<N>.
func (e Episode) Name() string {
	return fmt.Sprintf("episode_%d", e.Index)
}

// Dir is the directory holding the episode's processed archives.
func (e Episode) Dir() string {
	return filepath.Join(e.Root, datasetSubdir, e.Name(), processedDir)
}

// ActionsPath is the location of the episode's action archive.
func (e Episode) ActionsPath() string {
	return filepath.Join(e.Dir(), actionsFile)
}

// ObservationsPath is the location of the episode's observation archive.
func (e Episode) ObservationsPath() string {
	return filepath.Join(e.Dir(), obsFile)
}

// LoadActions reads the episode's action archive.
func (e Episode) LoadActions() (*Archive, error) {
	return OpenArchive(e.ActionsPath())
}

// LoadObservations reads the episode's observation archive.
func (e Episode) LoadObservations() (*Archive, error) {
	return OpenArchive(e.ObservationsPath())
}

// ListEpisodes scans a dataset root for episode_<N> directories and
// returns their indices in ascending order.
func ListEpisodes(root string) ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(root, datasetSubdir))
	if err != nil {
		return nil, fmt.Errorf("dataset: list %s: %w", root, err)
	}

	var indices []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rest, ok := strings.CutPrefix(entry.Name(), "episode_")
		if !ok {
			continue
		}
		idx, err := strconv.Atoi(rest)
		if err != nil || idx < 0 {
			continue
		}
		indices = append(indices, idx)
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: under %s", ErrNoEpisodes, filepath.Join(root, datasetSubdir))
	}
	sort.Ints(indices)
	return indices, nil
}

// DatasetID derives a dataset identifier from its root path: the base
// name of the path. Degenerate paths fall back to "dataset" so the
// identifier is always usable in file names and entity paths.
func DatasetID(root string) string {
	id := filepath.Base(filepath.Clean(root))
	if id == "." || id == "" || id == string(filepath.Separator) {
		return "dataset"
	}
	return id
}
