// Package dataset reads robot episode archives from disk.
//
// An episode is a directory holding two compressed numpy bundles:
//
//	<root>/diffusion_spartan/episode_<N>/processed/actions.npz
//	<root>/diffusion_spartan/episode_<N>/processed/observations.npz
//
// [OpenArchive] loads a whole .npz (a zip of .npy entries) into memory,
// preserving entry order. Observation channels are classified by naming
// convention via [Rules]: names containing the robot prefix are vector
// channels logged per dimension, names containing the depth marker are
// skipped, and everything else is treated as an image channel. The image
// fallback is verified against the array's actual shape when streamed.
package dataset
