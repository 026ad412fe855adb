package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/RussTedrake/lerobot/internal/config"
	"github.com/RussTedrake/lerobot/internal/dataset"
	"github.com/RussTedrake/lerobot/internal/record"
	"github.com/RussTedrake/lerobot/internal/viewer"
	"github.com/RussTedrake/lerobot/internal/visualize"
)

var (
	path         string
	episodeIndex int
	mode         string
	webPort      int
	wsPort       int
	save         int
	outputDir    string
	// Recording and viewer knobs
	datasetID   string
	downsample  int
	fps         int
	compression string
	outputFile  string
	// Config file
	configFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lerobot-viz",
		Short: "robot episode dataset visualizer",
	}

	visualizeCmd := &cobra.Command{
		Use:   "visualize",
		Short: "stream one episode to a viewer",
		RunE:  runVisualize,
	}
	visualizeCmd.Flags().StringVar(&path, "path", "", "dataset root directory")
	visualizeCmd.Flags().IntVar(&episodeIndex, "episode-index", 0, "episode to visualize")
	visualizeCmd.Flags().StringVar(&mode, "mode", visualize.ModeLocal, "'local' or 'distant'")
	visualizeCmd.Flags().IntVar(&webPort, "web-port", config.DefaultWebPort, "status page port (distant)")
	visualizeCmd.Flags().IntVar(&wsPort, "ws-port", config.DefaultWSPort, "websocket port (distant)")
	visualizeCmd.Flags().IntVar(&save, "save", 0, "write a .rrd recording instead of opening the viewer (0/1)")
	visualizeCmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for saved recordings")
	visualizeCmd.Flags().StringVar(&datasetID, "dataset-id", "", "dataset name in the saved file (default: base of --path)")
	visualizeCmd.Flags().IntVar(&downsample, "downsample", config.DefaultDownsample, "image downsample stride")
	visualizeCmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "viewer playback rate")
	visualizeCmd.Flags().StringVar(&compression, "compression", config.DefaultCompression, "recording compression (none, lz4, zstd)")
	visualizeCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	visualizeCmd.MarkFlagRequired("path")
	visualizeCmd.MarkFlagRequired("episode-index")

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "list episodes or inspect one episode's channels",
		RunE:  runInspect,
	}
	inspectCmd.Flags().StringVar(&path, "path", "", "dataset root directory")
	inspectCmd.Flags().IntVar(&episodeIndex, "episode-index", -1, "episode to inspect (default: list all)")
	inspectCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	inspectCmd.MarkFlagRequired("path")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "export one episode as json",
		RunE:  runExport,
	}
	exportCmd.Flags().StringVar(&path, "path", "", "dataset root directory")
	exportCmd.Flags().IntVar(&episodeIndex, "episode-index", 0, "episode to export")
	exportCmd.Flags().StringVar(&outputFile, "output", "", "write to a file instead of stdout")
	exportCmd.Flags().StringVar(&datasetID, "dataset-id", "", "dataset name in the export (default: base of --path)")
	exportCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	exportCmd.MarkFlagRequired("path")
	exportCmd.MarkFlagRequired("episode-index")

	playCmd := &cobra.Command{
		Use:   "play [recording.rrd]",
		Short: "replay a saved recording in the terminal viewer",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlay,
	}
	playCmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "viewer playback rate")

	rootCmd.AddCommand(visualizeCmd, inspectCmd, exportCmd, playCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func runVisualize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Config seeds the options; flags the user actually set win.
	opts := visualize.NewOptions(cfg, path, episodeIndex)
	opts.Mode = mode
	opts.Save = save != 0
	opts.OutputDir = outputDir
	opts.DatasetID = datasetID
	opts.Quiet = opts.Mode == visualize.ModeLocal && !opts.Save
	if cmd.Flags().Changed("web-port") {
		opts.WebPort = webPort
	}
	if cmd.Flags().Changed("ws-port") {
		opts.WSPort = wsPort
	}
	if cmd.Flags().Changed("downsample") {
		opts.Downsample = downsample
	}
	comp := cfg.Compression
	if cmd.Flags().Changed("compression") {
		comp = compression
	}
	opts.Compression, err = record.ParseCompression(comp)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outcome, err := visualize.Run(ctx, opts)
	if err != nil {
		return err
	}

	if opts.Mode == visualize.ModeLocal && !opts.Save {
		rate := cfg.FPS
		if cmd.Flags().Changed("fps") {
			rate = fps
		}
		return viewer.Run(outcome.Session, rate)
	}
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rules := dataset.Rules{RobotPrefix: cfg.RobotPrefix, DepthMarker: cfg.DepthMarker}

	if episodeIndex < 0 {
		return listEpisodes()
	}
	return inspectEpisode(rules)
}

func listEpisodes() error {
	indices, err := dataset.ListEpisodes(path)
	if err != nil {
		return err
	}

	fmt.Printf("dataset: %s\n\n", dataset.DatasetID(path))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EPISODE\tSTEPS\tACTION DIMS\tCHANNELS")

	for _, idx := range indices {
		ep := dataset.Episode{Root: path, Index: idx}
		steps, dims, channels := "-", "-", "-"
		if archive, err := ep.LoadActions(); err == nil {
			if arr, err := archive.Get(dataset.ActionsKey); err == nil {
				steps = strconv.Itoa(arr.Frames())
				dims = strconv.Itoa(arr.Dims())
			}
		}
		if obs, err := ep.LoadObservations(); err == nil {
			channels = strconv.Itoa(len(obs.Keys()))
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", idx, steps, dims, channels)
	}

	return w.Flush()
}

func inspectEpisode(rules dataset.Rules) error {
	ep := dataset.Episode{Root: path, Index: episodeIndex}
	actions, err := ep.LoadActions()
	if err != nil {
		return err
	}
	obs, err := ep.LoadObservations()
	if err != nil {
		return err
	}

	fmt.Printf("episode: %s\n\n", ep.Name())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tKEY\tKIND\tDTYPE\tSHAPE\tFRAMES")

	for _, arr := range actions.Arrays() {
		fmt.Fprintf(w, "actions\t%s\taction\t%s\t%s\t%d\n",
			arr.Name, arr.DType, shapeString(arr.Shape), arr.Frames())
	}
	for _, arr := range obs.Arrays() {
		fmt.Fprintf(w, "observations\t%s\t%s\t%s\t%s\t%d\n",
			arr.Name, rules.Classify(arr.Name), arr.DType, shapeString(arr.Shape), arr.Frames())
	}

	return w.Flush()
}

func shapeString(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ep := dataset.Episode{Root: path, Index: episodeIndex}
	archive, err := ep.LoadActions()
	if err != nil {
		return err
	}
	actions, err := archive.Get(dataset.ActionsKey)
	if err != nil {
		return err
	}
	obs, err := ep.LoadObservations()
	if err != nil {
		return err
	}

	id := datasetID
	if id == "" {
		id = dataset.DatasetID(path)
	}
	rules := dataset.Rules{RobotPrefix: cfg.RobotPrefix, DepthMarker: cfg.DepthMarker}

	if outputFile == "" {
		return dataset.ExportJSONStdout(id, ep, actions, obs, rules)
	}
	if err := dataset.ExportJSON(outputFile, id, ep, actions, obs, rules); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", ep.Name(), outputFile)
	return nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	sess, err := record.ReadFile(args[0])
	if err != nil {
		return err
	}
	return viewer.Run(sess, fps)
}
