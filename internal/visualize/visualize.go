package visualize

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/RussTedrake/lerobot/internal/dataset"
	"github.com/RussTedrake/lerobot/internal/record"
	"github.com/RussTedrake/lerobot/internal/serve"
)

// Outcome is the result of a completed run.
type Outcome struct {
	// Session holds every emitted record, ready for a viewer.
	Session *record.Session

	// Path is the written recording file, empty unless the run saved.
	Path string
}

// Run loads the episode named by opts and streams it into a fresh
// session. Local runs return as soon as streaming (and an optional
// save) finishes. Distant runs serve the session over a websocket and
// block until ctx is canceled, which is the normal way to stop them.
func Run(ctx context.Context, opts Options) (*Outcome, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	out := io.Writer(os.Stdout)
	if opts.Quiet {
		out = io.Discard
	}

	sess := record.NewSession(opts.episode().Name())

	var srv *serve.Server
	if opts.Mode == ModeDistant {
		srv = serve.New(serve.Config{
			App:     sess.App(),
			WebPort: opts.WebPort,
			WSPort:  opts.WSPort,
			Logger:  opts.Logger,
		})
		if err := srv.Start(); err != nil {
			return nil, err
		}
		sess.Attach(srv)
		fmt.Fprintf(out, "serving web on %s, websocket on %s\n", srv.WebAddr(), srv.WSAddr())
	}

	if err := stream(sess, opts, out); err != nil {
		if srv != nil {
			srv.Close()
		}
		return nil, err
	}

	outcome := &Outcome{Session: sess}
	switch {
	case opts.Mode == ModeLocal && opts.Save:
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("visualize: create output dir: %w", err)
		}
		path := opts.SavePath()
		if err := record.WriteFile(path, sess, opts.Compression); err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "saved recording to %s\n", filepath.Clean(path))
		outcome.Path = path

	case opts.Mode == ModeDistant:
		fmt.Fprintf(out, "data sent (%d records), press ctrl-c to terminate the websocket connection\n", sess.Len())
		<-ctx.Done()
		fmt.Fprintln(out, "ctrl-c received, exiting")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Close()
		}
	}
	return outcome, nil
}

func stream(sess *record.Session, opts Options, out io.Writer) error {
	ep := opts.episode()

	actions, err := ep.LoadActions()
	if err != nil {
		return err
	}
	arr, err := actions.Get(dataset.ActionsKey)
	if err != nil {
		return fmt.Errorf("visualize: %s: %w", ep.ActionsPath(), err)
	}
	if err := streamActions(sess, arr, opts.ActionEntity, opts.ActionDt, out); err != nil {
		return err
	}

	obs, err := ep.LoadObservations()
	if err != nil {
		return err
	}
	return streamObservations(sess, obs, opts, out)
}

// streamActions emits one scalar per (frame, dimension). The timestamp
// axis advances as a running total of dt, starting at zero; this is the
// only place the timestamp is ever set, so later observation records
// inherit the final action timestamp.
func streamActions(sess *record.Session, arr *dataset.Array, entity string, dt float64, out io.Writer) error {
	if len(arr.Shape) != 2 {
		return fmt.Errorf("visualize: actions array has shape %v, want (frames, dims)", arr.Shape)
	}
	frames, dims := arr.Shape[0], arr.Shape[1]
	fmt.Fprintf(out, "logging actions: %d frames x %d dims\n", frames, dims)

	ts := 0.0
	for i := 0; i < frames; i++ {
		sess.SetFrame(int64(i))
		sess.SetTimestamp(ts)
		for d := 0; d < dims; d++ {
			sess.LogScalar(fmt.Sprintf("%s/%d", entity, d), arr.At(i, d))
		}
		ts += dt
	}
	return nil
}

func streamObservations(sess *record.Session, obs *dataset.Archive, opts Options, out io.Writer) error {
	rules := opts.rules()
	for _, arr := range obs.Arrays() {
		switch rules.Classify(arr.Name) {
		case dataset.ChannelRobot:
			if len(arr.Shape) != 2 {
				return fmt.Errorf("visualize: robot channel %q has shape %v, want (frames, dims)", arr.Name, arr.Shape)
			}
			frames, dims := arr.Shape[0], arr.Shape[1]
			fmt.Fprintf(out, "logging robot channel %s: %d frames x %d dims\n", arr.Name, frames, dims)
			for i := 0; i < frames; i++ {
				sess.SetFrame(int64(i))
				for d := 0; d < dims; d++ {
					sess.LogScalar(fmt.Sprintf("%s/%d", arr.Name, d), arr.At(i, d))
				}
			}

		case dataset.ChannelDepth:
			fmt.Fprintf(out, "skipping depth channel %s\n", arr.Name)

		case dataset.ChannelImage:
			// The image kind is a fallback for any unrecognized name, so
			// verify the shape actually holds frames before logging.
			if len(arr.Shape) != 3 && len(arr.Shape) != 4 {
				return fmt.Errorf("%w: channel %q has shape %v", dataset.ErrNotImage, arr.Name, arr.Shape)
			}
			frames := arr.Frames()
			fmt.Fprintf(out, "logging image channel %s: %d frames\n", arr.Name, frames)
			for i := 0; i < frames; i++ {
				img, err := arr.ImageAt(i)
				if err != nil {
					return err
				}
				sess.SetFrame(int64(i))
				sess.LogImage(arr.Name, img.Downsample(opts.Downsample))
			}
		}
	}
	return nil
}
